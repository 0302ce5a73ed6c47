package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/finlake/warehouse-transfer/lib/jitter"
)

const (
	maxAttempts   = 3
	backoffBaseMs = 500
)

// Store wraps the subset of *sql.DB that the pipelines use. Exec goes through
// transient-error retry; transactions are handed back raw so callers own
// commit and rollback.
type Store interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
	Close() error
}

type storeWrapper struct {
	*sql.DB
}

func (s *storeWrapper) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	var result sql.Result
	var err error
	for attempts := range maxAttempts {
		if attempts > 0 {
			sleepDuration := jitter.Jitter(backoffBaseMs, jitter.DefaultMaxMs, attempts)
			slog.Warn("Failed to execute the query, retrying...",
				slog.Any("err", err),
				slog.Duration("sleep", sleepDuration),
				slog.Int("attempts", attempts),
			)
			if sleepErr := sleepWithContext(ctx, sleepDuration); sleepErr != nil {
				return nil, sleepErr
			}
		}

		result, err = s.DB.ExecContext(ctx, query, args...)
		if err == nil || !isRetryableError(err) {
			break
		}
	}

	return result, err
}

func sleepWithContext(ctx context.Context, duration time.Duration) error {
	timer := time.NewTimer(duration)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// NewStore wraps an existing handle, primarily for tests.
func NewStore(db *sql.DB) Store {
	return &storeWrapper{DB: db}
}

func Open(driverName, dsn string) (Store, error) {
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create a SQL client for driver %q: %w", driverName, err)
	}

	if err = db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to validate the DB connection for driver %q: %w", driverName, err)
	}

	return &storeWrapper{DB: db}, nil
}
