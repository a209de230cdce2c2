package search

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/leadgen-cli/internal/jobs"
	"github.com/sells-group/leadgen-cli/internal/model"
)

// QueryState tracks one keyword's progress through the provider's pages.
type QueryState struct {
	Keyword   string
	Query     string
	Page      int // pages fetched so far
	Offset    int
	Exhausted bool
}

func newQueryStates(keywords []string, location string) []*QueryState {
	states := make([]*QueryState, 0, len(keywords))
	for _, kw := range keywords {
		states = append(states, &QueryState{
			Keyword: kw,
			Query:   fmt.Sprintf("%s a %s", kw, location),
		})
	}
	return states
}

// search is the state of one Run. It is owned by a single goroutine.
type search struct {
	o       *Orchestrator
	req     Request
	product model.Product
	log     *zap.Logger
	limiter *rate.Limiter

	start    time.Time
	states   []*QueryState
	visited  map[string]bool
	timedOut bool
	done     bool

	accepted  []model.LeadSummary
	discarded []model.LeadSummary
	below     []model.LeadSummary
	scores    []int
	analyzed  int
	pages     int
}

func newSearch(o *Orchestrator, req Request, product model.Product, keywords []string, log *zap.Logger) *search {
	limit := rate.Inf
	if o.limits.PageInterval > 0 {
		limit = rate.Every(o.limits.PageInterval)
	}
	return &search{
		o:         o,
		req:       req,
		product:   product,
		log:       log,
		limiter:   rate.NewLimiter(limit, 1),
		start:     o.now(),
		states:    newQueryStates(keywords, req.Location),
		visited:   make(map[string]bool),
		accepted:  []model.LeadSummary{},
		discarded: []model.LeadSummary{},
		below:     []model.LeadSummary{},
	}
}

// loop runs rounds until the limit is reached, every query is exhausted, a
// stop is requested or the time budget runs out.
func (s *search) loop(ctx context.Context) {
	for !s.done {
		if s.halted(ctx) {
			return
		}
		if s.allExhausted() {
			s.log.Info("search: all queries exhausted")
			return
		}
		s.round(ctx)
	}
}

// round fetches one page for every live query, in order, and pushes each
// candidate through the pipeline before moving on.
func (s *search) round(ctx context.Context) {
	for _, qs := range s.states {
		if s.halted(ctx) || s.limitReached() {
			s.done = true
			return
		}
		if qs.Exhausted {
			continue
		}
		if qs.Page >= s.o.limits.MaxPagesPerQuery {
			qs.Exhausted = true
			s.log.Info("search: max pages reached", zap.String("keyword", qs.Keyword))
			continue
		}

		// Wait fails early when the deadline is closer than the next token,
		// so ctx.Err() may still be nil here.
		if err := s.limiter.Wait(ctx); err != nil {
			s.log.Info("search: cancelled while waiting for rate limiter", zap.Error(err))
			s.o.update(s.req.JobID, jobs.Update{StopRequested: true})
			s.done = true
			return
		}

		qs.Page++
		s.pages++
		s.progress(fmt.Sprintf("🔍 \"%s\" - pagina %d... (%d/%d trovati)", qs.Keyword, qs.Page, len(s.accepted), s.req.Limit))

		page := s.o.provider.Page(ctx, qs.Query, qs.Offset)

		switch page.Kind {
		case PageProviderError:
			s.log.Warn("search: provider error, query exhausted",
				zap.String("keyword", qs.Keyword),
				zap.Int("page", qs.Page),
				zap.Error(page.Err),
			)
			qs.Exhausted = true
			continue
		case PageExhausted:
			s.log.Info("search: no more results, query exhausted",
				zap.String("keyword", qs.Keyword),
				zap.Int("page", qs.Page),
			)
			qs.Exhausted = true
			continue
		}

		s.log.Debug("search: page fetched",
			zap.String("keyword", qs.Keyword),
			zap.Int("page", qs.Page),
			zap.Int("offset", qs.Offset),
			zap.Int("results", len(page.Candidates)),
		)
		qs.Offset += s.o.limits.PageSize

		for _, c := range page.Candidates {
			if s.halted(ctx) {
				s.done = true
				break
			}
			if s.limitReached() || !s.process(ctx, qs.Keyword, c) {
				break
			}
		}

		s.snapshot(fmt.Sprintf("Trovati %d/%d... Round-robin pagina %d di \"%s\"", len(s.accepted), s.req.Limit, qs.Page, qs.Keyword))
	}
}

// halted reports whether the search must stop now. Running out of time sets
// the job's stop flag so the final state records it.
func (s *search) halted(ctx context.Context) bool {
	if s.o.registry.IsStopRequested(s.req.JobID) {
		return true
	}
	if s.o.now().Sub(s.start) > s.o.limits.Timeout {
		if !s.timedOut {
			s.log.Info("search: time budget exhausted", zap.Duration("timeout", s.o.limits.Timeout))
		}
		s.timedOut = true
		s.o.update(s.req.JobID, jobs.Update{StopRequested: true})
		return true
	}
	if ctx.Err() != nil {
		s.log.Info("search: context cancelled", zap.Error(ctx.Err()))
		s.o.update(s.req.JobID, jobs.Update{StopRequested: true})
		return true
	}
	return false
}

func (s *search) limitReached() bool {
	return len(s.accepted) >= s.req.Limit
}

func (s *search) allExhausted() bool {
	for _, qs := range s.states {
		if !qs.Exhausted {
			return false
		}
	}
	return true
}

// stats returns the running counters. AvgScore covers every non-zero score.
func (s *search) stats() model.Stats {
	return model.Stats{
		Analyzed:       s.analyzed,
		Accepted:       len(s.accepted),
		Discarded:      len(s.discarded),
		BelowThreshold: len(s.below),
		AvgScore:       model.AverageScore(s.scores),
	}
}

func (s *search) progress(msg string) {
	s.o.update(s.req.JobID, jobs.Update{Progress: msg})
}

// snapshot mirrors progress, counters and buckets into the job.
func (s *search) snapshot(msg string) {
	stats := s.stats()
	s.o.update(s.req.JobID, jobs.Update{
		Progress: msg,
		Stats:    &stats,
		Buckets:  &jobs.Buckets{Accepted: s.accepted, Discarded: s.discarded, BelowThreshold: s.below},
	})
}
