// Package jobs defines the asynchronous work model: once a transaction is
// verified, exporting it to the analytics ledger and to Notion happens off
// the request path.
package jobs

import (
	"context"
	"time"
)

// JobType identifies the kind of work a job carries.
type JobType string

const (
	JobTypeExportTransaction JobType = "export_transaction"
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

// ExportTransactionJob asks the worker to mirror a verified transaction into
// the external sinks (BigQuery ledger, Notion).
type ExportTransactionJob struct {
	JobID         string    `json:"job_id"`
	TransactionID string    `json:"transaction_id"`
	UserID        string    `json:"user_id"`
	Status        JobStatus `json:"status"`

	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	Error      string `json:"error,omitempty"`
	RetryCount int    `json:"retry_count"`
	MaxRetries int    `json:"max_retries"`
}

// Job is the generic interface all job types satisfy.
type Job interface {
	GetID() string
	GetType() JobType
	GetStatus() JobStatus
}

func (j *ExportTransactionJob) GetID() string        { return j.JobID }
func (j *ExportTransactionJob) GetType() JobType     { return JobTypeExportTransaction }
func (j *ExportTransactionJob) GetStatus() JobStatus { return j.Status }

// Publisher enqueues jobs. The abstraction keeps the door open for Cloud
// Tasks or Pub/Sub without touching callers.
type Publisher interface {
	PublishExport(ctx context.Context, job *ExportTransactionJob) error
	Close() error
}

// Consumer drains jobs and hands them to a handler.
type Consumer interface {
	Start(ctx context.Context, handler JobHandler) error
	Stop(ctx context.Context) error
}

// JobHandler processes one job. A returned error triggers a retry until the
// job's MaxRetries is exhausted.
type JobHandler func(ctx context.Context, job Job) error

// JobStore tracks job state so exports can be inspected after the fact.
type JobStore interface {
	SaveJob(ctx context.Context, job *ExportTransactionJob) error
	GetJob(ctx context.Context, jobID string) (*ExportTransactionJob, error)
	ListJobs(ctx context.Context, filter JobFilter) ([]*ExportTransactionJob, error)
}

// JobFilter narrows ListJobs results. Zero values mean no filtering.
type JobFilter struct {
	TransactionID string
	Status        JobStatus
	Limit         int
	Offset        int
}
