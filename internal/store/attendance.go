package store

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/naividh/member-profile-processor/internal/model"
)

// FlipAttendance sets attended = 'Y' for every coderID in memberIDs whose
// long_comp_result row for roundID currently reads attended = 'N'. A
// nil/empty memberIDs is a no-op.
func (s *Store) FlipAttendance(ctx context.Context, roundID int64, memberIDs []int64) error {
	if len(memberIDs) == 0 {
		return nil
	}

	query, args, err := sqlx.In(`
		UPDATE long_comp_result
		SET attended = ?
		WHERE round_id = ? AND attended = ? AND coder_id IN (?)`,
		model.AttendedYes, roundID, model.AttendedNo, memberIDs,
	)
	if err != nil {
		return fmt.Errorf("build attendance update for round %d: %w", roundID, err)
	}
	query = s.db.Rebind(query)

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("flip attendance for round %d: %w", roundID, err)
	}
	return nil
}
