package store

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/naividh/member-profile-processor/internal/model"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return &Store{db: sqlx.NewDb(db, "postgres")}, mock
}

func TestLoaderLoadSeedsExperiencedAndFirstTimers(t *testing.T) {
	store, mock := newMockStore(t)
	loader := NewLoader(store)

	mock.ExpectQuery(`SELECT coder_id, system_point_total`).
		WithArgs(int64(10001)).
		WillReturnRows(sqlmock.NewRows([]string{"coder_id", "system_point_total"}).
			AddRow(int64(1001), "500.0000").
			AddRow(int64(1002), "400.0000"))

	mock.ExpectQuery(`SELECT rating, vol, num_ratings`).
		WithArgs(int64(1001), model.MarathonRatingType).
		WillReturnRows(sqlmock.NewRows([]string{"rating", "vol", "num_ratings"}).
			AddRow(1500, 300, 5))

	mock.ExpectQuery(`SELECT rating, vol, num_ratings`).
		WithArgs(int64(1002), model.MarathonRatingType).
		WillReturnError(sql.ErrNoRows)

	participants, err := loader.Load(context.Background(), 10001)
	require.NoError(t, err)
	require.Len(t, participants, 2)

	assert.Equal(t, int64(1001), participants[0].CoderID)
	assert.Equal(t, 1500, participants[0].Rating)
	assert.Equal(t, 300, participants[0].Volatility)
	assert.Equal(t, 5, participants[0].NumRatings)
	assert.Equal(t, 500.0, participants[0].Score)

	assert.Equal(t, int64(1002), participants[1].CoderID)
	assert.Equal(t, 0, participants[1].Rating)
	assert.Equal(t, 0, participants[1].Volatility)
	assert.Equal(t, 0, participants[1].NumRatings)
	assert.Equal(t, 400.0, participants[1].Score)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoaderLoadEmptySlate(t *testing.T) {
	store, mock := newMockStore(t)
	loader := NewLoader(store)

	mock.ExpectQuery(`SELECT coder_id, system_point_total`).
		WithArgs(int64(99999)).
		WillReturnRows(sqlmock.NewRows([]string{"coder_id", "system_point_total"}))

	participants, err := loader.Load(context.Background(), 99999)
	require.NoError(t, err)
	assert.Empty(t, participants)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoaderLoadPropagatesQueryError(t *testing.T) {
	store, mock := newMockStore(t)
	loader := NewLoader(store)

	mock.ExpectQuery(`SELECT coder_id, system_point_total`).
		WithArgs(int64(10001)).
		WillReturnError(assert.AnError)

	_, err := loader.Load(context.Background(), 10001)
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
