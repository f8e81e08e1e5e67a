// Package services contains server-side business logic. This file implements
// SessionService, which logs users in, rotates and revokes token pairs, and
// resolves the identity behind a presented access token.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gatorauth/internal/common"
	"github.com/dmitrijs2005/gatorauth/internal/dbx"
	"github.com/dmitrijs2005/gatorauth/internal/logging"
	"github.com/dmitrijs2005/gatorauth/internal/server/apperr"
	"github.com/dmitrijs2005/gatorauth/internal/server/auth"
	"github.com/dmitrijs2005/gatorauth/internal/server/blacklist"
	"github.com/dmitrijs2005/gatorauth/internal/server/config"
	"github.com/dmitrijs2005/gatorauth/internal/server/models"
	"github.com/dmitrijs2005/gatorauth/internal/server/repositories/repomanager"
)

// TokenPair bundles a short-lived access token and a longer-lived refresh
// token. The zero value is the "no pair" result of a failed rotation.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// IsZero reports whether p is the empty pair.
func (p TokenPair) IsZero() bool {
	return p.AccessToken == "" && p.RefreshToken == ""
}

// AuthResponse is the result of a successful login.
type AuthResponse struct {
	User   *models.User
	Tokens TokenPair
}

// Identity is the outcome of ResolveIdentity. Claims is nil for anonymous
// requests. Rotated is set only when an expired access token was silently
// replaced using the refresh token.
type Identity struct {
	Claims  *auth.Claims
	Rotated *TokenPair
}

// TokenCodec signs and verifies tokens. *auth.Codec satisfies it.
type TokenCodec interface {
	Sign(claims auth.Claims, class auth.Class, expiresIn time.Duration) (string, error)
	Verify(ctx context.Context, token string, class auth.Class) (auth.VerifyResult, error)
}

// errAlreadyConsumed aborts a one-time rotation whose refresh token was
// blacklisted by a concurrent call.
var errAlreadyConsumed = errors.New("refresh token already consumed")

type SessionService struct {
	db             *sql.DB
	repomanager    repomanager.RepositoryManager
	codec          TokenCodec
	hasher         PasswordHasher
	logger         logging.Logger
	accessTTL      time.Duration
	refreshTTL     time.Duration
	oneTimeRefresh bool
}

func NewSessionService(db *sql.DB, m repomanager.RepositoryManager, codec TokenCodec, hasher PasswordHasher,
	cfg *config.Config, logger logging.Logger) *SessionService {
	return &SessionService{
		db:             db,
		repomanager:    m,
		codec:          codec,
		hasher:         hasher,
		logger:         logger.With("module", "session"),
		accessTTL:      cfg.AccessTokenValidityDuration,
		refreshTTL:     cfg.RefreshTokenValidityDuration,
		oneTimeRefresh: cfg.OneTimeRefresh,
	}
}

// RefreshTTL is the lifetime of refresh tokens minted by this service.
func (s *SessionService) RefreshTTL() time.Duration { return s.refreshTTL }

// Login checks the password of the user registered under email and mints a
// new TokenPair. Unknown emails and wrong passwords are reported as distinct
// errors.
func (s *SessionService) Login(ctx context.Context, email, password string) (*AuthResponse, error) {
	user, err := s.repomanager.Users(s.db).GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, apperr.UserNotFound()
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	ok, err := s.hasher.Compare(user.PasswordHash, password)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.IncorrectPassword()
	}

	pair, err := s.IssuePair(user)
	if err != nil {
		return nil, err
	}
	return &AuthResponse{User: user, Tokens: pair}, nil
}

// IssuePair mints a fresh access and refresh token for user.
func (s *SessionService) IssuePair(user *models.User) (TokenPair, error) {
	access, err := s.codec.Sign(auth.Claims{UserID: user.ID, Email: user.Email}, auth.Access, s.accessTTL)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := s.codec.Sign(auth.Claims{UserID: user.ID}, auth.Refresh, s.refreshTTL)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// Rotate exchanges a refresh token for a new pair built from the current
// user record. Blacklisted, invalid and expired tokens, as well as tokens of
// deleted users, yield the zero pair. The error is non-nil only for store or
// signing faults.
func (s *SessionService) Rotate(ctx context.Context, refreshToken string) (TokenPair, error) {
	res, err := s.codec.Verify(ctx, refreshToken, auth.Refresh)
	if err != nil {
		return TokenPair{}, err
	}
	if !res.Valid {
		return TokenPair{}, nil
	}

	if s.oneTimeRefresh {
		return s.rotateOnce(ctx, refreshToken, res.Claims.UserID)
	}

	user, err := s.repomanager.Users(s.db).GetUserByID(ctx, res.Claims.UserID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return TokenPair{}, nil
		}
		return TokenPair{}, fmt.Errorf("lookup user: %w", err)
	}
	return s.IssuePair(user)
}

// rotateOnce blacklists the presented refresh token and loads the user in
// one transaction, so only one of several concurrent rotations succeeds.
func (s *SessionService) rotateOnce(ctx context.Context, refreshToken, userID string) (TokenPair, error) {
	var user *models.User

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		inserted, err := blacklist.NewGate(s.repomanager.Blacklist(tx)).Consume(ctx, refreshToken)
		if err != nil {
			return err
		}
		if !inserted {
			return errAlreadyConsumed
		}

		user, err = s.repomanager.Users(tx).GetUserByID(ctx, userID)
		if err != nil && !errors.Is(err, common.ErrorNotFound) {
			return fmt.Errorf("lookup user: %w", err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, errAlreadyConsumed) {
			return TokenPair{}, nil
		}
		return TokenPair{}, err
	}

	if user == nil {
		return TokenPair{}, nil
	}
	return s.IssuePair(user)
}

// Logout blacklists every non-empty token given. It never fails; store
// errors are logged.
func (s *SessionService) Logout(ctx context.Context, accessToken, refreshToken string) {
	gate := blacklist.NewGate(s.repomanager.Blacklist(s.db))
	for _, token := range []string{accessToken, refreshToken} {
		if err := gate.Revoke(ctx, token); err != nil {
			s.logger.Error(ctx, "logout: revoke failed", "error", err)
		}
	}
}

// ResolveIdentity turns the presented tokens into the request identity. A
// valid access token yields its claims. An expired one is rotated with
// refreshToken when possible, and the new pair is returned for the caller
// to deliver. Anything else resolves to the anonymous identity.
func (s *SessionService) ResolveIdentity(ctx context.Context, accessToken, refreshToken string) (Identity, error) {
	if accessToken == "" {
		return Identity{}, nil
	}

	res, err := s.codec.Verify(ctx, accessToken, auth.Access)
	if err != nil {
		return Identity{}, err
	}
	if res.Valid {
		return Identity{Claims: res.Claims}, nil
	}
	if !res.Expired || refreshToken == "" {
		return Identity{}, nil
	}

	pair, err := s.Rotate(ctx, refreshToken)
	if err != nil {
		return Identity{}, err
	}
	if pair.IsZero() {
		return Identity{}, nil
	}

	res, err = s.codec.Verify(ctx, pair.AccessToken, auth.Access)
	if err != nil {
		return Identity{}, err
	}
	if !res.Valid {
		return Identity{}, nil
	}

	s.logger.Debug(ctx, "access token rotated", "user_id", res.Claims.UserID)
	return Identity{Claims: res.Claims, Rotated: &pair}, nil
}
