// Package blacklist records revoked token strings and answers membership
// queries for the token codec.
package blacklist

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gatorauth/internal/logging"
	"github.com/dmitrijs2005/gatorauth/internal/server/auth"
	blacklistrepo "github.com/dmitrijs2005/gatorauth/internal/server/repositories/blacklist"
)

// Gate wraps a blacklist repository. It is safe for concurrent use as long
// as the repository is.
type Gate struct {
	repo blacklistrepo.Repository
	now  func() time.Time
}

func NewGate(repo blacklistrepo.Repository) *Gate {
	return &Gate{repo: repo, now: time.Now}
}

func (g *Gate) IsBlacklisted(ctx context.Context, token string) (bool, error) {
	return g.repo.Exists(ctx, token)
}

// Revoke blacklists token. Revoking an already revoked token is a no-op and
// an empty token is ignored.
func (g *Gate) Revoke(ctx context.Context, token string) error {
	_, err := g.Consume(ctx, token)
	return err
}

// Consume blacklists token and reports whether this call was the one that
// inserted it.
func (g *Gate) Consume(ctx context.Context, token string) (bool, error) {
	if token == "" {
		return false, nil
	}
	inserted, err := g.repo.Add(ctx, token, auth.UnverifiedExpiry(token), g.now())
	if err != nil {
		return false, fmt.Errorf("revoke token: %w", err)
	}
	return inserted, nil
}

// Prune drops entries for tokens that expired before now. Such tokens fail
// signature-time expiry checks on their own.
func (g *Gate) Prune(ctx context.Context, now time.Time) (int64, error) {
	n, err := g.repo.DeleteExpired(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("prune blacklist: %w", err)
	}
	return n, nil
}

// RunPruner calls Prune every interval until ctx is done. A non-positive
// interval disables pruning.
func (g *Gate) RunPruner(ctx context.Context, interval time.Duration, logger logging.Logger) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := g.Prune(ctx, g.now())
			if err != nil {
				logger.Error(ctx, "blacklist prune failed", "error", err)
				continue
			}
			if n > 0 {
				logger.Debug(ctx, "blacklist pruned", "removed", n)
			}
		}
	}
}
