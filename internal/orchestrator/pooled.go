package orchestrator

import (
	"context"

	"github.com/naividh/member-profile-processor/internal/logging"
	"github.com/naividh/member-profile-processor/internal/workerpool"
)

// Pooled wraps an Orchestrator so concurrent calculate() invocations run on
// a bounded workerpool.Pool instead of unboundedly on whichever goroutine
// dispatched them. This bounds cross-round parallelism; RoundWorkerCount
// (config.go) sizes the pool.
type Pooled struct {
	orch *Orchestrator
	pool *workerpool.Pool
}

// NewPooled creates a Pooled calculator backed by pool.
func NewPooled(orch *Orchestrator, pool *workerpool.Pool) *Pooled {
	return &Pooled{orch: orch, pool: pool}
}

// Calculate submits a calculate(challenge_id, legacy_id) job to the pool and
// blocks until it runs, so callers (the router) still see a synchronous
// outcome; the bound is on how many rounds run at once, not on whether a
// caller waits for its own round.
func (p *Pooled) Calculate(ctx context.Context, challengeID, legacyID int64) (Result, error) {
	type outcome struct {
		result Result
		err    error
	}
	done := make(chan outcome, 1)
	correlationID, hasCorrelationID := logging.CorrelationID(ctx)

	if err := p.pool.Submit(ctx, workerpool.Job{Run: func(jobCtx context.Context) {
		if hasCorrelationID {
			jobCtx = logging.WithCorrelationID(jobCtx, correlationID)
		}
		result, err := p.orch.Calculate(jobCtx, challengeID, legacyID)
		done <- outcome{result, err}
	}}); err != nil {
		return AlreadyCalculated, err
	}

	select {
	case o := <-done:
		return o.result, o.err
	case <-ctx.Done():
		return AlreadyCalculated, ctx.Err()
	}
}
