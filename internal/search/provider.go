package search

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/internal/resilience"
	"github.com/sells-group/leadgen-cli/pkg/serpapi"
)

// PageKind classifies the outcome of one page fetch.
type PageKind int

const (
	// PageResults carries at least one candidate.
	PageResults PageKind = iota
	// PageExhausted means the provider has no more results for the query.
	PageExhausted
	// PageProviderError means the fetch failed after retries.
	PageProviderError
)

func (k PageKind) String() string {
	switch k {
	case PageResults:
		return "results"
	case PageExhausted:
		return "exhausted"
	case PageProviderError:
		return "provider_error"
	}
	return "unknown"
}

// PageFetchResult is the outcome of fetching one page of a query. Err is set
// only for PageProviderError.
type PageFetchResult struct {
	Kind       PageKind
	Candidates []model.Candidate
	Err        error
}

// Provider fetches one page of candidates for a query.
type Provider interface {
	Page(ctx context.Context, query string, offset int) PageFetchResult
}

// SerpProvider adapts a SerpAPI client to Provider. Every fetch, including
// provider-reported errors, is retried under its policy.
type SerpProvider struct {
	client serpapi.Client
	retry  resilience.Policy
}

// NewSerpProvider wraps client with a two-attempt, factor 2.0 retry policy.
func NewSerpProvider(client serpapi.Client) *SerpProvider {
	return &SerpProvider{
		client: client,
		retry:  resilience.NewPolicy(2, 2.0).WithLogger("serpapi", "maps_search"),
	}
}

// WithRetry returns a copy of p using policy.
func (p *SerpProvider) WithRetry(policy resilience.Policy) *SerpProvider {
	cp := *p
	cp.retry = policy
	return &cp
}

// Page fetches the page of query starting at offset.
func (p *SerpProvider) Page(ctx context.Context, query string, offset int) PageFetchResult {
	resp, err := resilience.DoVal(ctx, p.retry, func(ctx context.Context) (*serpapi.MapsResponse, error) {
		return p.client.MapsSearch(ctx, query, offset)
	})
	if err != nil {
		var perr *serpapi.ProviderError
		if errors.As(err, &perr) {
			zap.L().Warn("search: provider reported error",
				zap.String("query", perr.Query),
				zap.Int("offset", perr.Offset),
				zap.String("message", perr.Message),
			)
		}
		return PageFetchResult{Kind: PageProviderError, Err: err}
	}

	places := resp.Places()
	if len(places) == 0 {
		return PageFetchResult{Kind: PageExhausted}
	}

	candidates := make([]model.Candidate, 0, len(places))
	for _, pl := range places {
		candidates = append(candidates, model.Candidate{
			CompanyName: pl.Title,
			Website:     pl.Website,
			Phone:       pl.Phone,
			Address:     pl.Address,
		})
	}
	return PageFetchResult{Kind: PageResults, Candidates: candidates}
}
