package scheduler

import (
	"time"

	"github.com/google/uuid"
)

// JobStatus represents the status of a refresh run
type JobStatus string

const (
	JobStatusRunning JobStatus = "RUNNING"
	JobStatusSuccess JobStatus = "SUCCESS"
	JobStatusFailed  JobStatus = "FAILED"
)

// Trigger records what started a run
type Trigger string

const (
	TriggerScheduled Trigger = "scheduled"
	TriggerManual    Trigger = "manual"
)

// RunRecord describes one refresh run
type RunRecord struct {
	ID          uuid.UUID  `json:"id"`
	Trigger     Trigger    `json:"trigger"`
	Status      JobStatus  `json:"status"`
	Error       string     `json:"error,omitempty"`
	Rows        int        `json:"rows"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

func newRunRecord(trigger Trigger, now time.Time) *RunRecord {
	return &RunRecord{
		ID:        uuid.New(),
		Trigger:   trigger,
		Status:    JobStatusRunning,
		StartedAt: now,
	}
}

func (r *RunRecord) complete(now time.Time, rows int, err error) {
	r.CompletedAt = &now
	r.Rows = rows
	if err != nil {
		r.Status = JobStatusFailed
		r.Error = err.Error()
		return
	}
	r.Status = JobStatusSuccess
}

// Duration returns how long a finished run took
func (r *RunRecord) Duration() time.Duration {
	if r.CompletedAt == nil {
		return 0
	}
	return r.CompletedAt.Sub(r.StartedAt)
}
