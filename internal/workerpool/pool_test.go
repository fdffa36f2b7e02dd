package workerpool

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoolRunsSubmittedJobs(t *testing.T) {
	pool := New(2)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{}, 1)
	go func() { _ = pool.Serve(ctx) }()

	var ran atomic.Bool
	require.NoError(t, pool.Submit(ctx, Job{Run: func(context.Context) {
		ran.Store(true)
		done <- struct{}{}
	}}))

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("job never ran")
	}
	assert.True(t, ran.Load())
}

func TestPoolBoundsConcurrency(t *testing.T) {
	pool := New(2)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = pool.Serve(ctx) }()

	var inFlight, maxInFlight atomic.Int32
	const jobCount = 6
	release := make(chan struct{})
	finished := make(chan struct{}, jobCount)

	for i := 0; i < jobCount; i++ {
		require.NoError(t, pool.Submit(ctx, Job{Run: func(context.Context) {
			n := inFlight.Add(1)
			for {
				cur := maxInFlight.Load()
				if n <= cur || maxInFlight.CompareAndSwap(cur, n) {
					break
				}
			}
			<-release
			inFlight.Add(-1)
			finished <- struct{}{}
		}}))
	}

	time.Sleep(50 * time.Millisecond)
	assert.LessOrEqual(t, int(maxInFlight.Load()), 2)

	close(release)
	for i := 0; i < jobCount; i++ {
		select {
		case <-finished:
		case <-time.After(time.Second):
			t.Fatal("job never finished")
		}
	}
}

func TestPoolSubmitReturnsErrorWhenContextCanceled(t *testing.T) {
	// No Serve running: nothing drains the buffered queue, so once it is
	// full a canceled context is the only way Submit can return.
	pool := New(1)
	background := context.Background()
	for i := 0; i < cap(pool.jobs); i++ {
		require.NoError(t, pool.Submit(background, Job{Run: func(context.Context) {}}))
	}

	ctx, cancel := context.WithCancel(background)
	cancel()

	err := pool.Submit(ctx, Job{Run: func(context.Context) {}})
	assert.Error(t, err)
}
