// Package serpapi is a minimal client for the SerpAPI Google Maps engine.
package serpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/leadgen-cli/internal/resilience"
)

const defaultBaseURL = "https://serpapi.com"

// PageSize is the number of results per Google Maps page; offsets advance by it.
const PageSize = 20

// Client performs SerpAPI Google Maps searches.
type Client interface {
	MapsSearch(ctx context.Context, query string, offset int) (*MapsResponse, error)
}

// MapsResponse is the subset of the Google Maps engine response we use.
type MapsResponse struct {
	LocalResults []Place `json:"local_results"`
	PlaceResults *Place  `json:"place_results,omitempty"`
	Error        string  `json:"error,omitempty"`
}

// Places returns the result list. A single place_results object, returned
// when the query resolves to one business, replaces the list.
func (r *MapsResponse) Places() []Place {
	if r.PlaceResults != nil {
		return []Place{*r.PlaceResults}
	}
	return r.LocalResults
}

// Place is one business from Google Maps.
type Place struct {
	Title   string  `json:"title"`
	Website string  `json:"website,omitempty"`
	Phone   string  `json:"phone,omitempty"`
	Address string  `json:"address,omitempty"`
	Type    string  `json:"type,omitempty"`
	Rating  float64 `json:"rating,omitempty"`
}

// ProviderError is returned when SerpAPI reports an error in its payload.
type ProviderError struct {
	Query   string
	Offset  int
	Message string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("serpapi: provider error for %q at offset %d: %s", e.Query, e.Offset, e.Message)
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		c.baseURL = u
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithLocale sets the interface language (hl) and country (gl).
func WithLocale(hl, gl string) Option {
	return func(c *httpClient) {
		c.hl = hl
		c.gl = gl
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	hl      string
	gl      string
	http    *http.Client
}

// NewClient creates a SerpAPI client. Results default to Italian locale.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		hl:      "it",
		gl:      "it",
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) MapsSearch(ctx context.Context, query string, offset int) (*MapsResponse, error) {
	params := url.Values{}
	params.Set("engine", "google_maps")
	params.Set("type", "search")
	params.Set("q", query)
	params.Set("hl", c.hl)
	params.Set("gl", c.gl)
	params.Set("start", strconv.Itoa(offset))
	params.Set("api_key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search.json?"+params.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "serpapi: create request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "serpapi: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "serpapi: read response")
	}

	// Errors arrive as {"error": "..."} with either a 200 or a 4xx status.
	var result MapsResponse
	jsonErr := json.Unmarshal(body, &result)
	if jsonErr == nil && result.Error != "" {
		return nil, &ProviderError{Query: query, Offset: offset, Message: result.Error}
	}

	if resp.StatusCode != http.StatusOK {
		err := eris.Errorf("serpapi: unexpected status %d: %s", resp.StatusCode, string(body))
		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return nil, resilience.NewTransientError(err, resp.StatusCode)
		}
		return nil, err
	}

	if jsonErr != nil {
		return nil, eris.Wrap(jsonErr, "serpapi: unmarshal response")
	}

	return &result, nil
}
