// Package supervisor builds the two-layer Suture supervision tree the
// processor runs under: a "messaging" layer for the Kafka consumer harness
// and a "work" layer for the bounded round-worker pool, so a crash in one
// never takes down the other.
package supervisor

import (
	"context"
	"log/slog"
	"time"

	"github.com/thejerf/suture/v4"
	"github.com/thejerf/sutureslog"
)

// TreeConfig tunes the root supervisor's restart/backoff behavior.
type TreeConfig struct {
	FailureThreshold float64
	FailureDecay     float64
	FailureBackoff   time.Duration
	ShutdownTimeout  time.Duration
}

// DefaultTreeConfig returns the values suture itself defaults to.
func DefaultTreeConfig() TreeConfig {
	return TreeConfig{
		FailureThreshold: 5.0,
		FailureDecay:     30.0,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  10 * time.Second,
	}
}

// Tree is the root supervisor with its two child layers.
type Tree struct {
	root      *suture.Supervisor
	messaging *suture.Supervisor
	work      *suture.Supervisor
}

// NewTree creates a Tree. logger feeds suture's own lifecycle events
// (service start/stop/panic), kept separate from the zerolog-based
// application logging the rest of the processor uses.
func NewTree(logger *slog.Logger, cfg TreeConfig) *Tree {
	if cfg.FailureThreshold == 0 {
		cfg = DefaultTreeConfig()
	}

	handler := &sutureslog.Handler{Logger: logger}
	rootSpec := suture.Spec{
		EventHook:        handler.MustHook(),
		FailureThreshold: cfg.FailureThreshold,
		FailureDecay:     cfg.FailureDecay,
		FailureBackoff:   cfg.FailureBackoff,
		Timeout:          cfg.ShutdownTimeout,
	}
	childSpec := suture.Spec{
		FailureThreshold: cfg.FailureThreshold,
		FailureDecay:     cfg.FailureDecay,
		FailureBackoff:   cfg.FailureBackoff,
		Timeout:          cfg.ShutdownTimeout,
	}

	root := suture.New("rating-processor", rootSpec)
	messaging := suture.New("messaging-layer", childSpec)
	work := suture.New("work-layer", childSpec)
	root.Add(messaging)
	root.Add(work)

	return &Tree{root: root, messaging: messaging, work: work}
}

// AddMessagingService adds svc (the consumer harness) to the messaging layer.
func (t *Tree) AddMessagingService(svc suture.Service) suture.ServiceToken {
	return t.messaging.Add(svc)
}

// AddWorkService adds svc (a round-worker) to the work layer.
func (t *Tree) AddWorkService(svc suture.Service) suture.ServiceToken {
	return t.work.Add(svc)
}

// Serve runs the tree until ctx is canceled.
func (t *Tree) Serve(ctx context.Context) error {
	return t.root.Serve(ctx)
}
