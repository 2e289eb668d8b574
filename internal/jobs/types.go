package jobs

import (
	"context"
	"time"

	"github.com/dvloznov/redeban-reporter/internal/domain"
)

// JobType represents the type of job to be executed.
type JobType string

const (
	// JobTypeReportRun represents one scrape-and-report run.
	JobTypeReportRun JobType = "report_run"
)

// JobStatus represents the current status of a job.
type JobStatus string

const (
	// JobStatusPending indicates the job is waiting to be processed.
	JobStatusPending JobStatus = "pending"
	// JobStatusRunning indicates the job is currently being processed.
	JobStatusRunning JobStatus = "running"
	// JobStatusCompleted indicates the run finished and produced a result,
	// which may itself report a failure.
	JobStatusCompleted JobStatus = "completed"
	// JobStatusFailed indicates the run crashed without a result.
	JobStatusFailed JobStatus = "failed"
)

// RunJob is one queued report run.
type RunJob struct {
	// JobID is the unique identifier for this job. It doubles as the run ID.
	JobID string `json:"job_id"`

	// Trigger names what requested the run, e.g. "http".
	Trigger string `json:"trigger"`

	// Status is the current status of the job.
	Status JobStatus `json:"status"`

	// CreatedAt is when the job was created.
	CreatedAt time.Time `json:"created_at"`

	// StartedAt is when the job started processing.
	StartedAt *time.Time `json:"started_at,omitempty"`

	// CompletedAt is when the job completed (success or failure).
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	// Result is the run outcome once completed.
	Result *domain.PipelineResult `json:"result,omitempty"`

	// Error contains error details if the job failed.
	Error string `json:"error,omitempty"`

	done chan struct{}
}

// NewRunJob creates a pending job for the given trigger.
func NewRunJob(trigger string) *RunJob {
	return &RunJob{Trigger: trigger, done: make(chan struct{})}
}

// Job is a generic interface for all job types.
type Job interface {
	// GetID returns the unique job identifier.
	GetID() string

	// GetType returns the job type.
	GetType() JobType

	// GetStatus returns the current job status.
	GetStatus() JobStatus
}

// GetID implements the Job interface.
func (j *RunJob) GetID() string {
	return j.JobID
}

// GetType implements the Job interface.
func (j *RunJob) GetType() JobType {
	return JobTypeReportRun
}

// GetStatus implements the Job interface.
func (j *RunJob) GetStatus() JobStatus {
	return j.Status
}

// Done is closed once the job reaches a final status. Jobs not built with
// NewRunJob have no done channel and Done returns nil.
func (j *RunJob) Done() <-chan struct{} {
	return j.done
}

// Finish closes the done channel. It must be called exactly once, by the
// queue, after the final status is set.
func (j *RunJob) Finish() {
	if j.done != nil {
		close(j.done)
	}
}

// Wait blocks until the job finishes or ctx is done.
func (j *RunJob) Wait(ctx context.Context) error {
	select {
	case <-j.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Publisher defines the interface for publishing jobs to a queue.
type Publisher interface {
	// PublishRun enqueues a report run.
	PublishRun(ctx context.Context, job *RunJob) error

	// Close closes the publisher and releases resources.
	Close() error
}

// Consumer defines the interface for consuming jobs from a queue.
type Consumer interface {
	// Start begins consuming jobs from the queue.
	// The handler function is called for each job received.
	Start(ctx context.Context, handler JobHandler) error

	// Stop stops consuming jobs and waits for in-flight jobs to complete.
	Stop(ctx context.Context) error
}

// JobHandler processes a job. An error means no result could be produced.
type JobHandler func(ctx context.Context, job *RunJob) (domain.PipelineResult, error)

// JobStore defines the interface for storing and retrieving job status.
type JobStore interface {
	// SaveJob saves or updates a job's state.
	SaveJob(ctx context.Context, job *RunJob) error

	// GetJob retrieves a job by ID.
	GetJob(ctx context.Context, jobID string) (*RunJob, error)

	// ListJobs retrieves jobs with optional filtering, newest first.
	ListJobs(ctx context.Context, filter JobFilter) ([]*RunJob, error)
}

// JobFilter defines filtering criteria for listing jobs.
type JobFilter struct {
	// Status filters jobs by status.
	Status JobStatus

	// Limit limits the number of results.
	Limit int

	// Offset for pagination.
	Offset int
}
