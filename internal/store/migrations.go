package store

import (
	"context"
	"fmt"
)

// schema creates the three core tables, with (round_id, coder_id) unique
// on long_comp_result and (coder_id, algo_rating_type_id) unique on
// algo_rating.
const schema = `
CREATE TABLE IF NOT EXISTS round (
	round_id   BIGINT PRIMARY KEY,
	rated_ind  BOOLEAN NOT NULL DEFAULT FALSE,
	contest_id BIGINT
);

CREATE INDEX IF NOT EXISTS idx_round_contest_id ON round (contest_id);

CREATE TABLE IF NOT EXISTS long_comp_result (
	round_id           BIGINT NOT NULL,
	coder_id           BIGINT NOT NULL,
	attended           CHAR(1) NOT NULL DEFAULT 'N',
	system_point_total NUMERIC(12, 4) NOT NULL DEFAULT 0,
	old_rating         INTEGER,
	old_vol            INTEGER,
	new_rating         INTEGER,
	new_vol            INTEGER,
	rated_ind          BOOLEAN NOT NULL DEFAULT FALSE,
	PRIMARY KEY (round_id, coder_id)
);

CREATE INDEX IF NOT EXISTS idx_lcr_round_unrated
	ON long_comp_result (round_id)
	WHERE new_rating IS NULL AND new_vol IS NULL;

CREATE TABLE IF NOT EXISTS algo_rating (
	coder_id              BIGINT NOT NULL,
	algo_rating_type_id   INTEGER NOT NULL,
	rating                INTEGER NOT NULL,
	vol                   INTEGER NOT NULL,
	num_ratings           INTEGER NOT NULL DEFAULT 0,
	round_id              BIGINT,
	highest_rating        INTEGER,
	lowest_rating         INTEGER,
	first_rated_round_id  BIGINT,
	last_rated_round_id   BIGINT,
	PRIMARY KEY (coder_id, algo_rating_type_id)
);
`

// Migrate creates the schema if it doesn't already exist. Gated by
// Config.DatabaseAutomigrate — production deployments are expected to
// manage schema externally, guarded the way any automatic-at-startup
// behavior should be.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
