// Package jobs defines the background job contracts for reconciliation runs.
// The abstractions allow swapping the in-memory queue for an external broker
// without touching the worker.
package jobs

import (
	"context"
	"time"
)

// JobType identifies what a job does.
type JobType string

const (
	// JobTypeSync is a reconciliation run for one user.
	JobTypeSync JobType = "sync"
)

// Trigger records what caused a sync job to be published.
type Trigger string

const (
	// TriggerManual means the user asked for a sync explicitly.
	TriggerManual Trigger = "manual"
	// TriggerScheduled means the periodic ticker published the job.
	TriggerScheduled Trigger = "scheduled"
	// TriggerMutation means a local data change requested an early push.
	TriggerMutation Trigger = "mutation"
)

// JobStatus is the lifecycle state of a job.
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusRetrying  JobStatus = "retrying"
)

// SyncJob is one queued reconciliation run.
type SyncJob struct {
	JobID   string  `json:"job_id"`
	UserID  uint    `json:"user_id"`
	Trigger Trigger `json:"trigger"`
	DryRun  bool    `json:"dry_run,omitempty"`

	Status      JobStatus  `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Error       string     `json:"error,omitempty"`

	RetryCount int `json:"retry_count"`
	MaxRetries int `json:"max_retries"`
}

// Publisher enqueues sync jobs.
type Publisher interface {
	PublishSync(ctx context.Context, job *SyncJob) error
	Close() error
}

// Consumer drains the queue, calling the handler for each job.
type Consumer interface {
	Start(ctx context.Context, handler JobHandler) error
	Stop(ctx context.Context) error
}

// JobHandler processes one job. A returned error makes the job eligible for
// retry.
type JobHandler func(ctx context.Context, job *SyncJob) error

// JobStore tracks job state for inspection.
type JobStore interface {
	SaveJob(ctx context.Context, job *SyncJob) error
	GetJob(ctx context.Context, jobID string) (*SyncJob, error)
	ListJobs(ctx context.Context, filter JobFilter) ([]*SyncJob, error)
}

// JobFilter narrows ListJobs results.
type JobFilter struct {
	UserID uint
	Status JobStatus
	Limit  int
	Offset int
}
