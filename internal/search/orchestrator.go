// Package search runs the round-robin search-and-score engine that turns a
// product's keywords into a bounded list of accepted leads.
package search

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/config"
	"github.com/sells-group/leadgen-cli/internal/events"
	"github.com/sells-group/leadgen-cli/internal/jobs"
	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/internal/store"
	"github.com/sells-group/leadgen-cli/pkg/serpapi"
)

// Request defaults.
const (
	DefaultLimit    = 10
	DefaultMinScore = 50
)

// Store is the persistence the engine needs.
type Store interface {
	GetProduct(ctx context.Context, id string) (*model.Product, error)
	LeadExistsByWebsite(ctx context.Context, website string) (bool, error)
	InsertLead(ctx context.Context, lead model.Lead) (*model.Lead, error)
}

// Oracle scores a candidate against a product. It never fails; see
// scorer.Evaluator.
type Oracle interface {
	Evaluate(ctx context.Context, companyName, website, location string, product model.Product) model.Evaluation
}

// Enricher finds contacts on a candidate website. It never fails.
type Enricher interface {
	Contacts(ctx context.Context, website string) model.Contacts
}

// Request describes one search.
type Request struct {
	ProductID       string `json:"product_id"`
	Location        string `json:"location"`
	Limit           int    `json:"limit"`
	MinScore        int    `json:"min_score"`
	JobID           string `json:"job_id"`
	IncludeProvince bool   `json:"include_province"`
}

// withDefaults fills the location and limit. MinScore is taken as given
// since zero is a valid threshold.
func (r Request) withDefaults() Request {
	if r.Location == "" {
		r.Location = DefaultLocation
	}
	if r.Limit <= 0 {
		r.Limit = DefaultLimit
	}
	return r
}

// Result is the outcome of a search. The three buckets are disjoint.
type Result struct {
	Accepted       []model.LeadSummary `json:"accepted" yaml:"accepted"`
	Discarded      []model.LeadSummary `json:"discarded" yaml:"discarded"`
	BelowThreshold []model.LeadSummary `json:"below_threshold" yaml:"below_threshold"`
	Stats          model.Stats         `json:"stats" yaml:"stats"`
	StoppedReason  jobs.StoppedReason  `json:"stopped_reason,omitempty" yaml:"stopped_reason,omitempty"`
}

func emptyResult() Result {
	return Result{
		Accepted:       []model.LeadSummary{},
		Discarded:      []model.LeadSummary{},
		BelowThreshold: []model.LeadSummary{},
	}
}

// Limits tunes the engine.
type Limits struct {
	Timeout          time.Duration
	MaxPagesPerQuery int
	PageSize         int
	PageInterval     time.Duration
}

// DefaultLimits returns a five minute budget, ten pages per keyword, 20
// results per page and a 0.7s pause between page fetches.
func DefaultLimits() Limits {
	return Limits{
		Timeout:          300 * time.Second,
		MaxPagesPerQuery: 10,
		PageSize:         serpapi.PageSize,
		PageInterval:     700 * time.Millisecond,
	}
}

// LimitsFromConfig converts the search config section, keeping defaults for
// unset values.
func LimitsFromConfig(cfg config.SearchConfig) Limits {
	l := DefaultLimits()
	if cfg.TimeoutSecs > 0 {
		l.Timeout = cfg.Timeout()
	}
	if cfg.MaxPagesPerQuery > 0 {
		l.MaxPagesPerQuery = cfg.MaxPagesPerQuery
	}
	if cfg.PageSize > 0 {
		l.PageSize = cfg.PageSize
	}
	if cfg.PageIntervalMs >= 0 {
		l.PageInterval = cfg.PageInterval()
	}
	return l
}

// Orchestrator composes the provider, the oracle, the enricher and the store
// into searches tracked by a job registry.
type Orchestrator struct {
	store    Store
	provider Provider
	oracle   Oracle
	enricher Enricher
	registry jobs.Registry
	events   events.Publisher
	limits   Limits
	now      func() time.Time
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLimits overrides DefaultLimits.
func WithLimits(l Limits) Option {
	return func(o *Orchestrator) { o.limits = l }
}

// WithPublisher emits lead and job events to p.
func WithPublisher(p events.Publisher) Option {
	return func(o *Orchestrator) {
		if p != nil {
			o.events = p
		}
	}
}

// WithClock overrides the time source used for the search budget.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// New creates an Orchestrator.
func New(st Store, provider Provider, oracle Oracle, enricher Enricher, registry jobs.Registry, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		store:    st,
		provider: provider,
		oracle:   oracle,
		enricher: enricher,
		registry: registry,
		events:   events.NopPublisher{},
		limits:   DefaultLimits(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Start creates the job and runs the search in a background goroutine.
// When the product already has a running job nothing is started and that
// job's id is returned instead. ctx must outlive the caller's request; it is
// the search's only cancellation signal besides the job's stop flag.
func (o *Orchestrator) Start(ctx context.Context, req Request) (string, error) {
	if req.JobID == "" {
		return "", eris.New("search: job id is required")
	}
	existing, err := o.registry.CreateUnlessRunning(req.JobID, req.ProductID)
	if err != nil {
		return "", eris.Wrap(err, "search: start")
	}
	if existing != "" {
		return existing, nil
	}
	go o.Run(ctx, req)
	return "", nil
}

// Run executes one search to completion and returns its result. The job is
// created if it does not exist yet. Run never panics and never returns an
// error: failures end the job in status error with an empty result.
func (o *Orchestrator) Run(ctx context.Context, req Request) (res Result) {
	req = req.withDefaults()
	log := zap.L().With(zap.String("job_id", req.JobID), zap.String("product_id", req.ProductID))

	if _, err := o.registry.Get(req.JobID); errors.Is(err, jobs.ErrJobNotFound) {
		if err := o.registry.Create(req.JobID, req.ProductID); err != nil {
			log.Error("search: create job", zap.Error(err))
		}
	}

	defer func() {
		if r := recover(); r != nil {
			err := eris.Errorf("panic: %v", r)
			log.Error("search: recovered from panic", zap.Error(err), zap.Stack("stack"))
			o.fail(ctx, req, err)
			res = emptyResult()
		}
	}()

	res, err := o.run(ctx, req, log)
	if err != nil {
		log.Error("search: critical error", zap.Error(err))
		o.fail(ctx, req, err)
		return emptyResult()
	}
	return res
}

func (o *Orchestrator) run(ctx context.Context, req Request, log *zap.Logger) (Result, error) {
	o.update(req.JobID, jobs.Update{Progress: "Recupero dettagli prodotto..."})

	product, err := o.store.GetProduct(ctx, req.ProductID)
	if errors.Is(err, store.ErrNotFound) {
		log.Warn("search: product not found")
		o.update(req.JobID, jobs.Update{
			Status:      jobs.Ptr(jobs.StatusError),
			Progress:    "Prodotto non trovato",
			CompletedAt: jobs.Ptr(o.now()),
		})
		o.publishFinished(ctx, req, jobs.StatusError, nil)
		return emptyResult(), nil
	}
	if err != nil {
		return Result{}, eris.Wrap(err, "search: load product")
	}

	keywords := product.Keywords()
	log.Info("search: starting",
		zap.String("product", product.Name),
		zap.Strings("keywords", keywords),
		zap.String("location", req.Location),
		zap.Int("limit", req.Limit),
		zap.Int("min_score", req.MinScore),
	)
	o.update(req.JobID, jobs.Update{
		Progress: fmt.Sprintf("Ricerca in '%s' con %d query...", req.Location, len(keywords)),
	})

	s := newSearch(o, req, *product, keywords, log)
	o.update(req.JobID, jobs.Update{
		Progress: fmt.Sprintf("Avvio ricerca round-robin con %d keyword...", len(keywords)),
	})
	s.loop(ctx)

	return o.finish(ctx, s), nil
}

// finish computes the final stats and moves the job to completed.
func (o *Orchestrator) finish(ctx context.Context, s *search) Result {
	req := s.req
	accepted := len(s.accepted)

	stats := s.stats()
	stats.AvgScore = model.AverageScore(positive(s.scores))
	stats.MinScoreThreshold = req.MinScore
	stats.ProductName = s.product.Name
	stats.Location = req.Location
	stats.PagesSearched = s.pages
	if accepted < req.Limit {
		stats.Warning = fmt.Sprintf(
			"Trovati solo %d/%d lead con score ≥ %d dopo aver analizzato %d risultati su %d pagine (%d keyword round-robin)",
			accepted, req.Limit, req.MinScore, s.analyzed, s.pages, len(s.states),
		)
	}

	reason := jobs.StoppedNone
	switch {
	case s.timedOut:
		reason = jobs.StoppedTimeout
	case o.registry.IsStopRequested(req.JobID):
		reason = jobs.StoppedManual
	}

	var progress string
	switch {
	case reason == jobs.StoppedTimeout:
		progress = fmt.Sprintf("Non sono stati trovati ulteriori contatti. Trovati %d lead in %s", accepted, humanDuration(o.limits.Timeout))
	case reason == jobs.StoppedManual:
		progress = fmt.Sprintf("Ricerca interrotta. Trovati %d lead qualificati", accepted)
	case accepted >= req.Limit:
		progress = fmt.Sprintf("Ricerca completata! Trovati %d lead qualificati", accepted)
	case accepted > 0:
		progress = fmt.Sprintf("Ricerca completata. Trovati %d/%d lead qualificati (risultati esauriti)", accepted, req.Limit)
	default:
		progress = fmt.Sprintf("Ricerca completata. Nessun lead con score ≥ %d trovato", req.MinScore)
	}

	s.log.Info("search: complete",
		zap.Int("pages", s.pages),
		zap.Int("analyzed", s.analyzed),
		zap.Int("accepted", accepted),
		zap.Int("below_threshold", len(s.below)),
		zap.Int("discarded", len(s.discarded)),
		zap.Int("avg_score", stats.AvgScore),
		zap.String("stopped_reason", string(reason)),
	)

	res := Result{
		Accepted:       s.accepted,
		Discarded:      s.discarded,
		BelowThreshold: s.below,
		Stats:          stats,
		StoppedReason:  reason,
	}
	o.update(req.JobID, jobs.Update{
		Status:        jobs.Ptr(jobs.StatusCompleted),
		Progress:      progress,
		Buckets:       &jobs.Buckets{Accepted: res.Accepted, Discarded: res.Discarded, BelowThreshold: res.BelowThreshold},
		Stats:         &stats,
		CompletedAt:   jobs.Ptr(o.now()),
		StoppedReason: &reason,
	})
	o.publishFinished(ctx, req, jobs.StatusCompleted, &stats)
	return res
}

func (o *Orchestrator) fail(ctx context.Context, req Request, err error) {
	o.update(req.JobID, jobs.Update{
		Status:      jobs.Ptr(jobs.StatusError),
		Progress:    "Errore critico: " + err.Error(),
		CompletedAt: jobs.Ptr(o.now()),
	})
	o.publishFinished(ctx, req, jobs.StatusError, nil)
}

// update applies u to the job. The job can only be missing if it was swept
// mid-run, which is logged and otherwise ignored.
func (o *Orchestrator) update(jobID string, u jobs.Update) {
	if err := o.registry.Update(jobID, u); err != nil {
		zap.L().Warn("search: job update failed", zap.String("job_id", jobID), zap.Error(err))
	}
}

func (o *Orchestrator) publish(ctx context.Context, e events.Event) {
	e.At = o.now()
	if err := o.events.Publish(ctx, e); err != nil {
		zap.L().Warn("search: publish event", zap.String("type", e.Type), zap.Error(err))
	}
}

func (o *Orchestrator) publishFinished(ctx context.Context, req Request, status jobs.Status, stats *model.Stats) {
	o.publish(ctx, events.Event{
		Type:      events.TypeJobFinished,
		JobID:     req.JobID,
		ProductID: req.ProductID,
		Status:    string(status),
		Stats:     stats,
	})
}

func positive(scores []int) []int {
	out := make([]int, 0, len(scores))
	for _, s := range scores {
		if s > 0 {
			out = append(out, s)
		}
	}
	return out
}

func humanDuration(d time.Duration) string {
	if d >= time.Minute {
		return fmt.Sprintf("%d minuti", int(d.Minutes()))
	}
	return fmt.Sprintf("%d secondi", int(d.Seconds()))
}
