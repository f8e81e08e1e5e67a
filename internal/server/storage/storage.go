// Package storage opens the credential store database, waiting for it to
// come up, and applies the schema migrations.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gatorauth/internal/logging"
	"github.com/dmitrijs2005/gatorauth/internal/server/repositories/repomanager"
	"github.com/sethvargo/go-retry"
)

const (
	retryBase = 100 * time.Millisecond
	retryCap  = 5 * time.Second
)

// Seams for tests.
var (
	sqlOpen = sql.Open
	ping    = func(ctx context.Context, db *sql.DB) error { return db.PingContext(ctx) }
)

// Open connects to the database, retrying with exponential backoff (from
// 100ms, capped at 5s per attempt) until maxWait elapses, then runs the
// migrations through rm. The caller owns the returned *sql.DB.
func Open(ctx context.Context, driver, dsn string, maxWait time.Duration, rm repomanager.RepositoryManager, logger logging.Logger) (*sql.DB, error) {
	db, err := sqlOpen(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if driver == repomanager.DriverSQLite {
		db.SetMaxOpenConns(1)
	}

	b := retry.NewExponential(retryBase)
	b = retry.WithCappedDuration(retryCap, b)
	b = retry.WithMaxDuration(maxWait, b)

	attempt := 0
	err = retry.Do(ctx, b, func(ctx context.Context) error {
		attempt++
		if err := ping(ctx, db); err != nil {
			logger.Warn(ctx, "database not ready", "driver", driver, "attempt", attempt, "error", err)
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connect %s after %d attempts: %w", driver, attempt, err)
	}

	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	logger.Info(ctx, "database ready", "driver", driver)
	return db, nil
}
