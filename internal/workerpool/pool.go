// Package workerpool bounds cross-round concurrency for the orchestrator.
// It follows a semaphore-over-a-buffered-channel pattern to cap concurrent
// work, structured as a standing goroutine pool so it can sit in the
// supervisor tree as its own suture.Service rather than a one-shot
// fan-out.
package workerpool

import (
	"context"
	"fmt"
	"sync"
)

// Job is one unit of pool work. Run receives the pool's own Serve context,
// not the caller's request context, so a job keeps executing for its own
// bookkeeping even if the submitting request is canceled; callers that need
// cancellation propagate it themselves via a closure over their own ctx.
type Job struct {
	Run func(ctx context.Context)
}

// Pool runs at most `workers` jobs concurrently. Submissions beyond that
// queue in a bounded buffer; once the buffer is full, Submit blocks until
// a slot frees up or the submitter's context is canceled.
type Pool struct {
	jobs    chan Job
	workers int
}

// New creates a Pool with the given worker count. A non-positive count is
// treated as 1, so the pool is never silently inert.
func New(workers int) *Pool {
	if workers <= 0 {
		workers = 1
	}
	return &Pool{jobs: make(chan Job, workers*4), workers: workers}
}

// Submit enqueues job, blocking until it is accepted or ctx is canceled.
func (p *Pool) Submit(ctx context.Context, job Job) error {
	select {
	case p.jobs <- job:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("submit to round-worker pool: %w", ctx.Err())
	}
}

// Serve implements suture.Service: it runs the pool's workers until ctx is
// canceled, then waits for any in-flight job to finish before returning.
func (p *Pool) Serve(ctx context.Context) error {
	var wg sync.WaitGroup
	wg.Add(p.workers)
	for i := 0; i < p.workers; i++ {
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case job := <-p.jobs:
					job.Run(ctx)
				}
			}
		}()
	}
	<-ctx.Done()
	wg.Wait()
	return ctx.Err()
}

// String implements fmt.Stringer so suture identifies this service by name
// in its lifecycle logging.
func (p *Pool) String() string {
	return "round-worker-pool"
}
