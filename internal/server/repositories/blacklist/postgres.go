package blacklist

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gatorauth/internal/dbx"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Exists(ctx context.Context, token string) (bool, error) {
	query := `SELECT COUNT(*) FROM blacklist WHERE token = $1`

	var n int64
	if err := r.db.QueryRowContext(ctx, query, token).Scan(&n); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return n > 0, nil
}

func (r *PostgresRepository) Add(ctx context.Context, token string, expiresAt *time.Time, at time.Time) (bool, error) {
	query :=
		`INSERT INTO blacklist (token, expires_at, created_at)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (token) DO NOTHING
		 `

	var exp sql.NullTime
	if expiresAt != nil {
		exp = sql.NullTime{Time: expiresAt.UTC(), Valid: true}
	}

	res, err := r.db.ExecContext(ctx, query, token, exp, at.UTC())
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return n > 0, nil
}

// DeleteExpired keeps entries without a known expiry. Times are stored in
// UTC so SQLite's text comparison orders them correctly.
func (r *PostgresRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	query :=
		`DELETE FROM blacklist
		 WHERE expires_at IS NOT NULL AND expires_at < $1
		 `

	res, err := r.db.ExecContext(ctx, query, now.UTC())
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}
