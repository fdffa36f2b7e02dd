// Package store implements the relational-store side of the round
// calculation transaction: loading the unrated slate (internal/store.Loader)
// and writing back ratings (internal/store.Persistor).
//
// Connection management follows a standard sqlx + lib/pq pattern: a pooled
// *sqlx.DB wrapped in a small Store type that owns migrations and exposes
// the Loader/Persistor/Round operations the orchestrator needs.
package store

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // Postgres driver, registered via database/sql
)

// Store wraps a pooled Postgres connection.
type Store struct {
	db *sqlx.DB
}

// Open connects to dsn, configures the connection pool, and verifies
// connectivity. A fatal error here is a fatal initialization failure that
// should exit the process.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(runtime.NumCPU() * 2)
	db.SetMaxIdleConns(runtime.NumCPU())
	db.SetConnMaxLifetime(time.Hour)
	db.SetConnMaxIdleTime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// Healthy implements health.Checker.
func (s *Store) Healthy() (bool, string) {
	if err := s.db.Ping(); err != nil {
		return false, err.Error()
	}
	return true, ""
}
