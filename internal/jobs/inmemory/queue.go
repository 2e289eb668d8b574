package inmemory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dvloznov/redeban-reporter/internal/domain"
	"github.com/dvloznov/redeban-reporter/internal/jobs"
	"github.com/dvloznov/redeban-reporter/internal/logger"
	"github.com/google/uuid"
)

// ErrQueueClosed is returned when publishing to or starting a stopped queue.
var ErrQueueClosed = errors.New("queue is closed")

// Queue is an in-memory implementation of job publisher and consumer.
// A single worker drains it, so runs never overlap within one process.
type Queue struct {
	jobChan   chan *jobs.RunJob
	closeChan chan struct{}
	wg        sync.WaitGroup
	mu        sync.RWMutex
	store     jobs.JobStore
	closed    bool
	started   bool
}

// NewQueue creates a new in-memory job queue.
// bufferSize determines how many jobs can wait before PublishRun blocks.
func NewQueue(bufferSize int, store jobs.JobStore) *Queue {
	return &Queue{
		jobChan:   make(chan *jobs.RunJob, bufferSize),
		closeChan: make(chan struct{}),
		store:     store,
	}
}

// PublishRun implements the Publisher interface.
func (q *Queue) PublishRun(ctx context.Context, job *jobs.RunJob) error {
	q.mu.RLock()
	closed := q.closed
	q.mu.RUnlock()

	if closed {
		return ErrQueueClosed
	}

	// Generate job ID if not provided
	if job.JobID == "" {
		job.JobID = uuid.New().String()
	}

	job.Status = jobs.JobStatusPending
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now()
	}

	if q.store != nil {
		if err := q.store.SaveJob(ctx, job); err != nil {
			return fmt.Errorf("failed to save job: %w", err)
		}
	}

	select {
	case q.jobChan <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-q.closeChan:
		return ErrQueueClosed
	}
}

// Start implements the Consumer interface. It launches the single worker.
func (q *Queue) Start(ctx context.Context, handler jobs.JobHandler) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ErrQueueClosed
	}
	if q.started {
		return fmt.Errorf("queue already started")
	}
	q.started = true

	q.wg.Add(1)
	go q.worker(ctx, handler)

	return nil
}

// worker processes jobs from the queue.
func (q *Queue) worker(ctx context.Context, handler jobs.JobHandler) {
	defer q.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-q.closeChan:
			return
		case job := <-q.jobChan:
			if job == nil {
				return
			}

			q.processJob(ctx, job, handler)
		}
	}
}

// processJob executes a single job. Runs are not retried.
func (q *Queue) processJob(ctx context.Context, job *jobs.RunJob, handler jobs.JobHandler) {
	log := logger.WithFields(logger.FromContext(ctx), map[string]interface{}{
		"job_id":  job.JobID,
		"trigger": job.Trigger,
	})

	now := time.Now()
	job.Status = jobs.JobStatusRunning
	job.StartedAt = &now

	if q.store != nil {
		_ = q.store.SaveJob(ctx, job)
	}

	result, err := q.safeHandle(ctx, job, handler)

	completedAt := time.Now()
	job.CompletedAt = &completedAt

	if err != nil {
		job.Status = jobs.JobStatusFailed
		job.Error = err.Error()
		log.Error().Err(err).Msg("Run job failed")
	} else {
		job.Status = jobs.JobStatusCompleted
		job.Result = &result
		job.Error = ""
	}

	if q.store != nil {
		_ = q.store.SaveJob(ctx, job)
	}
	job.Finish()
}

func (q *Queue) safeHandle(ctx context.Context, job *jobs.RunJob, handler jobs.JobHandler) (result domain.PipelineResult, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic: %v", rec)
		}
	}()
	return handler(ctx, job)
}

// Stop implements the Consumer interface.
// It stops the queue and waits for the in-flight job to complete.
func (q *Queue) Stop(ctx context.Context) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	close(q.closeChan)
	q.mu.Unlock()

	// Wait for the worker to finish with timeout
	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		q.drain()
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// drain fails jobs that were queued but never started so their waiters
// return.
func (q *Queue) drain() {
	for {
		select {
		case job := <-q.jobChan:
			now := time.Now()
			job.Status = jobs.JobStatusFailed
			job.Error = ErrQueueClosed.Error()
			job.CompletedAt = &now
			if q.store != nil {
				_ = q.store.SaveJob(context.Background(), job)
			}
			job.Finish()
		default:
			return
		}
	}
}

// Close implements the Publisher interface.
func (q *Queue) Close() error {
	return q.Stop(context.Background())
}

// Ensure Queue implements both Publisher and Consumer interfaces.
var _ jobs.Publisher = (*Queue)(nil)
var _ jobs.Consumer = (*Queue)(nil)
