package store

import (
	"context"
	"fmt"
)

// RoundByLegacyContestID resolves a legacy contest_id to the round_id the
// rest of the pipeline keys off. The second return value is false when no
// round carries that contest_id — the orchestrator then falls back to
// treating legacyID itself as the round id, preserving legacy behaviour.
func (s *Store) RoundByLegacyContestID(ctx context.Context, contestID int64) (int64, bool, error) {
	var roundID int64
	const selectRound = `SELECT round_id FROM round WHERE contest_id = $1`
	if err := s.db.GetContext(ctx, &roundID, selectRound, contestID); err != nil {
		if isNoRows(err) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("resolve round for contest %d: %w", contestID, err)
	}
	return roundID, true, nil
}
