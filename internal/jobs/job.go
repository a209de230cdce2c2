package jobs

import (
	"time"

	"github.com/sells-group/leadgen-cli/internal/model"
)

// Status is the lifecycle state of a search job.
type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusError     Status = "error"
)

// Terminal reports whether the job has finished.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusError
}

// StoppedReason records why a completed search ended early.
type StoppedReason string

const (
	StoppedNone    StoppedReason = ""
	StoppedManual  StoppedReason = "manual"
	StoppedTimeout StoppedReason = "timeout"
)

// StopResult is the outcome of a stop request.
type StopResult string

const (
	StopStopRequested   StopResult = "stop_requested"
	StopAlreadyFinished StopResult = "already_finished"
)

// Job is the observable state of one search.
type Job struct {
	ID             string              `json:"id"`
	Status         Status              `json:"status"`
	Progress       string              `json:"progress"`
	ProductID      string              `json:"product_id"`
	Accepted       []model.LeadSummary `json:"accepted"`
	Discarded      []model.LeadSummary `json:"discarded"`
	BelowThreshold []model.LeadSummary `json:"below_threshold"`
	Stats          model.Stats         `json:"stats"`
	CreatedAt      time.Time           `json:"created_at"`
	CompletedAt    *time.Time          `json:"completed_at,omitempty"`
	StopRequested  bool                `json:"stop_requested"`
	StoppedReason  StoppedReason       `json:"stopped_reason,omitempty"`
}

// clone returns a deep copy so callers never share slices with the registry.
func (j *Job) clone() *Job {
	cp := *j
	cp.Accepted = cloneSummaries(j.Accepted)
	cp.Discarded = cloneSummaries(j.Discarded)
	cp.BelowThreshold = cloneSummaries(j.BelowThreshold)
	if j.CompletedAt != nil {
		t := *j.CompletedAt
		cp.CompletedAt = &t
	}
	return &cp
}

func cloneSummaries(in []model.LeadSummary) []model.LeadSummary {
	out := make([]model.LeadSummary, len(in))
	copy(out, in)
	return out
}

// Buckets is a snapshot of the three disjoint outcome lists.
type Buckets struct {
	Accepted       []model.LeadSummary
	Discarded      []model.LeadSummary
	BelowThreshold []model.LeadSummary
}

// Update is a typed partial update. Nil pointers and an empty Progress leave
// the corresponding fields untouched.
type Update struct {
	Status        *Status
	Progress      string
	Buckets       *Buckets
	Stats         *model.Stats
	CompletedAt   *time.Time
	StopRequested bool
	StoppedReason *StoppedReason
}

// Ptr returns a pointer to v, for building Updates inline.
func Ptr[T any](v T) *T {
	return &v
}
