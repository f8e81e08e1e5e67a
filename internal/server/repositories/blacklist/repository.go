// Package blacklist declares the repository contract for revoked tokens and
// its SQL implementation.
package blacklist

import (
	"context"
	"time"
)

// Repository stores revoked token strings.
type Repository interface {
	// Exists reports whether token has been revoked.
	Exists(ctx context.Context, token string) (bool, error)
	// Add records token as revoked. Adding a token that is already present is
	// not an error; inserted is false in that case.
	Add(ctx context.Context, token string, expiresAt *time.Time, at time.Time) (inserted bool, err error)
	// DeleteExpired removes entries whose expiry is before now.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
