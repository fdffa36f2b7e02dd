package router

import (
	"context"

	"github.com/naividh/member-profile-processor/internal/logging"
)

// StubLegacyLoader implements LegacyLoader as a log-and-return no-op: the
// legacy data-warehouse hand-offs are out of scope, but this keeps Topic
// B's two stages wired (the router calls LoadCoders on
// RATINGS_CALCULATION-success and LoadRatings on LOAD_CODERS-success,
// acting on whichever arrives without checking that the earlier stage was
// seen) without performing the actual hand-off.
type StubLegacyLoader struct{}

// LoadCoders logs the invocation and returns.
func (StubLegacyLoader) LoadCoders(ctx context.Context, roundID int64) {
	logging.From(ctx).Info().Int64("round_id", roundID).Msg("loadCoders stub invoked")
}

// LoadRatings logs the invocation and returns.
func (StubLegacyLoader) LoadRatings(ctx context.Context, roundID int64) {
	logging.From(ctx).Info().Int64("round_id", roundID).Msg("loadRatings stub invoked")
}
