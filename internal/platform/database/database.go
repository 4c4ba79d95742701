// Package database opens the PostgreSQL connection and applies the embedded
// schema on startup.
package database

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/lib/pq"
)

//go:embed schema.sql
var schema string

const (
	pingAttempts = 10
	pingInterval = 2 * time.Second
)

// Open connects to PostgreSQL and waits for the database to become ready.
// Container orchestration often starts the service before the database
// accepts connections, so the ping is retried with a fixed interval.
func Open(ctx context.Context, url string, log *slog.Logger) (*sql.DB, error) {
	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	for attempt := 1; ; attempt++ {
		err = db.PingContext(ctx)
		if err == nil {
			break
		}
		if attempt >= pingAttempts {
			_ = db.Close()
			return nil, fmt.Errorf("database not ready after %d attempts: %w", pingAttempts, err)
		}
		log.WarnContext(ctx, "database not ready, retrying",
			"attempt", attempt,
			"error", err,
		)
		select {
		case <-ctx.Done():
			_ = db.Close()
			return nil, ctx.Err()
		case <-time.After(pingInterval):
		}
	}
	return db, nil
}

// EnsureSchema applies the embedded schema. Every statement is idempotent so
// repeated startups are safe.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
