package store

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/naividh/member-profile-processor/internal/metrics"
	"github.com/naividh/member-profile-processor/internal/model"
)

// Loader reads the unrated slate for a round and seeds each participant
// with their current marathon AlgoRating.
type Loader struct {
	store *Store
}

// NewLoader returns a Loader backed by store.
func NewLoader(store *Store) *Loader {
	return &Loader{store: store}
}

type unratedRow struct {
	CoderID          int64           `db:"coder_id"`
	SystemPointTotal decimal.Decimal `db:"system_point_total"`
}

type algoRatingRow struct {
	Rating     int `db:"rating"`
	Vol        int `db:"vol"`
	NumRatings int `db:"num_ratings"`
}

// Load returns the unrated slate for roundID, each seeded with its current
// marathon rating tuple (or the (0,0,0) first-timer marker).
func (l *Loader) Load(ctx context.Context, roundID int64) ([]model.Participant, error) {
	start := time.Now()
	defer func() {
		metrics.StoreQueryDuration.WithLabelValues("load").Observe(time.Since(start).Seconds())
	}()

	var rows []unratedRow
	const selectUnrated = `
		SELECT coder_id, system_point_total
		FROM long_comp_result
		WHERE round_id = $1
		  AND (attended = 'Y' OR attended = 'y')
		  AND new_rating IS NULL
		  AND new_vol IS NULL
		ORDER BY system_point_total DESC`

	if err := l.store.db.SelectContext(ctx, &rows, selectUnrated, roundID); err != nil {
		return nil, fmt.Errorf("select unrated slate for round %d: %w", roundID, err)
	}

	participants := make([]model.Participant, 0, len(rows))
	scoreOf := func(row unratedRow) float64 {
		f, _ := row.SystemPointTotal.Float64()
		return f
	}
	const selectRating = `
		SELECT rating, vol, num_ratings
		FROM algo_rating
		WHERE coder_id = $1 AND algo_rating_type_id = $2`

	for _, row := range rows {
		var ar algoRatingRow
		err := l.store.db.GetContext(ctx, &ar, selectRating, row.CoderID, model.MarathonRatingType)
		switch {
		case err == nil:
			participants = append(participants, model.Participant{
				CoderID:    row.CoderID,
				Rating:     ar.Rating,
				Volatility: ar.Vol,
				NumRatings: ar.NumRatings,
				Score:      scoreOf(row),
			})
		case isNoRows(err):
			participants = append(participants, model.Participant{
				CoderID:    row.CoderID,
				Rating:     0,
				Volatility: 0,
				NumRatings: 0,
				Score:      scoreOf(row),
			})
		default:
			return nil, fmt.Errorf("lookup algo_rating for coder %d: %w", row.CoderID, err)
		}
	}

	return participants, nil
}
