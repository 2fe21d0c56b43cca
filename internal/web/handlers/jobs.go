package handlers

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/kozaktomas/tag-search/internal/dupefinder"
)

// JobStatus represents the status of an async job.
type JobStatus string

// JobStatus constants define the lifecycle states of an async job.
const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusCancelled JobStatus = "cancelled"
)

// DupeJob represents an async duplicate-detection run.
type DupeJob struct {
	ID          string             `json:"id"`
	Status      JobStatus          `json:"status"`
	Phase       string             `json:"phase,omitempty"`
	Progress    int                `json:"progress"`
	Total       int                `json:"total"`
	Error       string             `json:"error,omitempty"`
	StartedAt   time.Time          `json:"started_at"`
	CompletedAt *time.Time         `json:"completed_at,omitempty"`
	Options     DupeJobOptions     `json:"options"`
	Result      *dupefinder.Report `json:"result,omitempty"`

	cancel context.CancelFunc
	mu     sync.RWMutex
}

// DupeJobOptions carries the thresholds a run was started with.
type DupeJobOptions struct {
	Scope            []string `json:"scope,omitempty"`
	CatchThreshold   float64  `json:"catch_threshold"`
	DisplayThreshold float64  `json:"display_threshold"`
}

// UpdateProgress records phase progress from the running finder.
func (j *DupeJob) UpdateProgress(p dupefinder.Progress) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Phase = p.Phase
	j.Progress = p.Current
	j.Total = p.Total
}

// Complete marks the job finished with its report.
func (j *DupeJob) Complete(report *dupefinder.Report) {
	j.mu.Lock()
	defer j.mu.Unlock()
	now := time.Now()
	j.Status = JobStatusCompleted
	j.CompletedAt = &now
	j.Result = report
}

// Fail marks the job failed. A context cancellation counts as cancelled,
// not failed.
func (j *DupeJob) Fail(err error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	now := time.Now()
	j.CompletedAt = &now
	if errors.Is(err, context.Canceled) {
		j.Status = JobStatusCancelled
		return
	}
	j.Status = JobStatusFailed
	j.Error = err.Error()
}

// Cancel stops the running job.
func (j *DupeJob) Cancel() {
	j.mu.Lock()
	if j.cancel != nil {
		j.cancel()
	}
	j.Status = JobStatusCancelled
	j.mu.Unlock()
}

// Snapshot returns a copy of the job safe for JSON encoding while the run
// keeps mutating the original.
func (j *DupeJob) Snapshot() DupeJob {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return DupeJob{
		ID:          j.ID,
		Status:      j.Status,
		Phase:       j.Phase,
		Progress:    j.Progress,
		Total:       j.Total,
		Error:       j.Error,
		StartedAt:   j.StartedAt,
		CompletedAt: j.CompletedAt,
		Options:     j.Options,
		Result:      j.Result,
	}
}

func (j *DupeJob) setRunning(cancel context.CancelFunc) {
	j.mu.Lock()
	j.Status = JobStatusRunning
	j.cancel = cancel
	j.mu.Unlock()
}

// JobManager manages async jobs.
type JobManager struct {
	jobs map[string]*DupeJob
	mu   sync.RWMutex
}

// NewJobManager creates a new job manager.
func NewJobManager() *JobManager {
	return &JobManager{
		jobs: make(map[string]*DupeJob),
	}
}

// CreateJob creates a new duplicate-detection job.
func (m *JobManager) CreateJob(id string, options DupeJobOptions) *DupeJob {
	job := &DupeJob{
		ID:        id,
		Status:    JobStatusPending,
		StartedAt: time.Now(),
		Options:   options,
	}

	m.mu.Lock()
	m.jobs[id] = job
	m.mu.Unlock()

	return job
}

// GetJob retrieves a job by ID.
func (m *JobManager) GetJob(id string) *DupeJob {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.jobs[id]
}

// DeleteJob removes a job.
func (m *JobManager) DeleteJob(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.jobs, id)
}
