package jobs

import (
	"sort"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/model"
)

var (
	// ErrJobNotFound is returned for unknown job ids.
	ErrJobNotFound = eris.New("jobs: job not found")
	// ErrJobExists is returned when creating a job id twice.
	ErrJobExists = eris.New("jobs: job already exists")
)

// Registry tracks search jobs for the lifetime of the process.
type Registry interface {
	Create(jobID, productID string) error
	CreateUnlessRunning(jobID, productID string) (string, error)
	Update(jobID string, u Update) error
	Get(jobID string) (*Job, error)
	RequestStop(jobID string) (StopResult, error)
	IsStopRequested(jobID string) bool
	Sweep(maxAge time.Duration) int
	List() []*Job
}

// Option configures a MemoryRegistry.
type Option func(*MemoryRegistry)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(r *MemoryRegistry) { r.now = now }
}

// MemoryRegistry is an in-process Registry guarded by one RWMutex.
type MemoryRegistry struct {
	mu   sync.RWMutex
	jobs map[string]*Job
	now  func() time.Time
}

// NewMemoryRegistry creates an empty registry.
func NewMemoryRegistry(opts ...Option) *MemoryRegistry {
	r := &MemoryRegistry{
		jobs: make(map[string]*Job),
		now:  time.Now,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Create registers a running job with empty buckets.
func (r *MemoryRegistry) Create(jobID, productID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.create(jobID, productID)
}

// CreateUnlessRunning registers jobID unless productID already has a running
// job, in which case that job's id is returned and nothing is created. The
// check and the insert happen under one lock.
func (r *MemoryRegistry) CreateUnlessRunning(jobID, productID string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, job := range r.jobs {
		if job.ProductID == productID && job.Status == StatusRunning {
			return id, nil
		}
	}
	return "", r.create(jobID, productID)
}

func (r *MemoryRegistry) create(jobID, productID string) error {
	if _, ok := r.jobs[jobID]; ok {
		return eris.Wrapf(ErrJobExists, "jobs: create %s", jobID)
	}
	r.jobs[jobID] = &Job{
		ID:             jobID,
		Status:         StatusRunning,
		Progress:       "Avvio ricerca...",
		ProductID:      productID,
		Accepted:       []model.LeadSummary{},
		Discarded:      []model.LeadSummary{},
		BelowThreshold: []model.LeadSummary{},
		CreatedAt:      r.now(),
	}
	return nil
}

// Update merges u into the job atomically. Once a job is terminal its status
// is frozen; later status changes are ignored.
func (r *MemoryRegistry) Update(jobID string, u Update) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[jobID]
	if !ok {
		return eris.Wrapf(ErrJobNotFound, "jobs: update %s", jobID)
	}

	if u.Status != nil {
		switch {
		case !job.Status.Terminal():
			job.Status = *u.Status
		case *u.Status != job.Status:
			zap.L().Debug("jobs: ignoring status change on finished job",
				zap.String("job_id", jobID),
				zap.String("status", string(job.Status)),
				zap.String("requested", string(*u.Status)),
			)
		}
	}
	if u.Progress != "" {
		job.Progress = u.Progress
	}
	if u.Buckets != nil {
		job.Accepted = cloneSummaries(u.Buckets.Accepted)
		job.Discarded = cloneSummaries(u.Buckets.Discarded)
		job.BelowThreshold = cloneSummaries(u.Buckets.BelowThreshold)
	}
	if u.Stats != nil {
		job.Stats = *u.Stats
	}
	if u.CompletedAt != nil && job.CompletedAt == nil {
		t := *u.CompletedAt
		job.CompletedAt = &t
	}
	if u.StopRequested {
		job.StopRequested = true
	}
	if u.StoppedReason != nil {
		job.StoppedReason = *u.StoppedReason
	}
	return nil
}

// Get returns a deep snapshot of the job.
func (r *MemoryRegistry) Get(jobID string) (*Job, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	job, ok := r.jobs[jobID]
	if !ok {
		return nil, eris.Wrapf(ErrJobNotFound, "jobs: get %s", jobID)
	}
	return job.clone(), nil
}

// RequestStop flags a running job for cooperative cancellation.
func (r *MemoryRegistry) RequestStop(jobID string) (StopResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[jobID]
	if !ok {
		return "", eris.Wrapf(ErrJobNotFound, "jobs: stop %s", jobID)
	}
	if job.Status.Terminal() {
		return StopAlreadyFinished, nil
	}
	job.StopRequested = true
	return StopStopRequested, nil
}

// IsStopRequested reports the stop flag. Unknown jobs count as stopped so an
// orchestration whose job was swept winds down.
func (r *MemoryRegistry) IsStopRequested(jobID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	job, ok := r.jobs[jobID]
	if !ok {
		return true
	}
	return job.StopRequested
}

// Sweep removes terminal jobs finished strictly more than maxAge ago. Jobs
// that ended without a completion time age from their creation time.
func (r *MemoryRegistry) Sweep(maxAge time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	removed := 0
	for id, job := range r.jobs {
		if !job.Status.Terminal() {
			continue
		}
		ref := job.CreatedAt
		if job.CompletedAt != nil {
			ref = *job.CompletedAt
		}
		if now.Sub(ref) > maxAge {
			delete(r.jobs, id)
			removed++
		}
	}
	if removed > 0 {
		zap.L().Info("jobs: swept finished jobs", zap.Int("removed", removed))
	}
	return removed
}

// List returns snapshots of all jobs, newest first.
func (r *MemoryRegistry) List() []*Job {
	r.mu.RLock()
	out := make([]*Job, 0, len(r.jobs))
	for _, job := range r.jobs {
		out = append(out, job.clone())
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}
