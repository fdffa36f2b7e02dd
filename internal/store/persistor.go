package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/naividh/member-profile-processor/internal/logging"
	"github.com/naividh/member-profile-processor/internal/metrics"
	"github.com/naividh/member-profile-processor/internal/model"
)

// Persistor writes back engine outputs for one pass of one round in a
// single logical transaction. Two calls — provisional then
// non-provisional — compose a round; each call's guarantees are
// independent of the other.
type Persistor struct {
	store *Store
}

// NewPersistor returns a Persistor backed by store.
func NewPersistor(store *Store) *Persistor {
	return &Persistor{store: store}
}

// Persist writes the engine outputs in participants back to
// long_comp_result and upserts algo_rating, then flips round.rated_ind.
// Safe to call with an empty participants slice (the non-provisional pass
// over an all-first-timer round, for instance) — it still flips the round
// flag, idempotently.
func (p *Persistor) Persist(ctx context.Context, roundID int64, participants []model.Participant) error {
	start := time.Now()
	defer func() {
		metrics.StoreQueryDuration.WithLabelValues("persist").Observe(time.Since(start).Seconds())
	}()

	tx, err := p.store.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction for round %d: %w", roundID, err)
	}
	defer func() {
		if rerr := tx.Rollback(); rerr != nil && rerr != sql.ErrTxDone {
			logging.Warn().Err(rerr).Int64("round_id", roundID).Msg("rollback after persist failure")
		}
	}()

	for _, participant := range participants {
		if err := p.persistOne(ctx, tx, roundID, participant); err != nil {
			return fmt.Errorf("persist coder %d in round %d: %w", participant.CoderID, roundID, err)
		}
	}

	const flipRound = `UPDATE round SET rated_ind = TRUE WHERE round_id = $1`
	if _, err := tx.ExecContext(ctx, flipRound, roundID); err != nil {
		return fmt.Errorf("flip rated_ind for round %d: %w", roundID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit round %d: %w", roundID, err)
	}
	return nil
}

func (p *Persistor) persistOne(ctx context.Context, tx txExecer, roundID int64, participant model.Participant) error {
	var prior algoRatingRow
	hadPrior := true
	const selectPrior = `SELECT rating, vol, num_ratings FROM algo_rating WHERE coder_id = $1 AND algo_rating_type_id = $2 FOR UPDATE`
	if err := tx.GetContext(ctx, &prior, selectPrior, participant.CoderID, model.MarathonRatingType); err != nil {
		if !isNoRows(err) {
			return fmt.Errorf("snapshot prior algo_rating: %w", err)
		}
		hadPrior = false
	}

	const updateLCR = `
		UPDATE long_comp_result
		SET old_rating = $1, old_vol = $2, new_rating = $3, new_vol = $4, rated_ind = TRUE
		WHERE round_id = $5 AND coder_id = $6`

	var oldRating, oldVol *int
	if hadPrior {
		oldRating = &prior.Rating
		oldVol = &prior.Vol
	}

	if _, err := tx.ExecContext(ctx, updateLCR,
		oldRating, oldVol, participant.NewRating, participant.NewVolatility,
		roundID, participant.CoderID,
	); err != nil {
		return fmt.Errorf("update long_comp_result: %w", err)
	}

	if hadPrior {
		const updateRating = `
			UPDATE algo_rating
			SET rating = $1,
			    vol = $2,
			    round_id = $3,
			    num_ratings = num_ratings + 1,
			    last_rated_round_id = $3,
			    highest_rating = GREATEST(highest_rating, $1),
			    lowest_rating = LEAST(lowest_rating, $1)
			WHERE coder_id = $4 AND algo_rating_type_id = $5`

		if _, err := tx.ExecContext(ctx, updateRating,
			participant.NewRating, participant.NewVolatility, roundID,
			participant.CoderID, model.MarathonRatingType,
		); err != nil {
			return fmt.Errorf("update algo_rating: %w", err)
		}
		return nil
	}

	const insertRating = `
		INSERT INTO algo_rating (
			coder_id, algo_rating_type_id, rating, vol, num_ratings,
			round_id, highest_rating, lowest_rating, first_rated_round_id, last_rated_round_id
		) VALUES ($1, $2, $3, $4, 1, $5, $3, $3, $5, $5)`

	if _, err := tx.ExecContext(ctx, insertRating,
		participant.CoderID, model.MarathonRatingType, participant.NewRating, participant.NewVolatility, roundID,
	); err != nil {
		return fmt.Errorf("insert algo_rating: %w", err)
	}
	return nil
}

// txExecer is the narrow slice of *sqlx.Tx this file needs, kept as an
// interface so persistOne is testable against a fake.
type txExecer interface {
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}
