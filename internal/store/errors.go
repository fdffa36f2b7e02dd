package store

import (
	"database/sql"
	"errors"
)

// isNoRows reports whether err is sql.ErrNoRows, the signal the loader and
// persistor use to distinguish "no AlgoRating row yet" (first-timer) from a
// genuine query failure.
func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
