// Package auth signs and verifies the two token classes (access and refresh)
// as RS256 JWTs, each class with its own RSA keypair.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gatorauth/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Class selects the keypair a token is signed and verified with.
type Class int

const (
	Access Class = iota
	Refresh
)

func (c Class) String() string {
	switch c {
	case Access:
		return "access"
	case Refresh:
		return "refresh"
	default:
		return fmt.Sprintf("class(%d)", int(c))
	}
}

// Claims is the token payload. Email is only carried by access tokens.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"userId"`
	Email  string `json:"email,omitempty"`
}

// VerifyResult is the outcome of Verify. At most one of Valid and Expired is
// set, and Claims is non-nil only when Valid is.
type VerifyResult struct {
	Valid   bool
	Expired bool
	Claims  *Claims
}

// BlacklistChecker reports whether a raw token string has been revoked.
type BlacklistChecker interface {
	IsBlacklisted(ctx context.Context, token string) (bool, error)
}

// Option configures a Codec.
type Option func(*Codec)

// WithClock overrides the time source used for iat/exp.
func WithClock(now func() time.Time) Option {
	return func(c *Codec) { c.now = now }
}

type Codec struct {
	keys      map[Class]KeyPair
	blacklist BlacklistChecker
	now       func() time.Time
}

// NewCodec returns a Codec for the given keypairs. Both pairs must be present
// and must not share a key.
func NewCodec(access, refresh KeyPair, bl BlacklistChecker, opts ...Option) (*Codec, error) {
	if access.Private == nil || refresh.Private == nil {
		return nil, common.ErrMissingKey
	}
	if access.Private.Equal(refresh.Private) {
		return nil, common.ErrSharedKey
	}

	c := &Codec{
		keys:      map[Class]KeyPair{Access: access.withPublic(), Refresh: refresh.withPublic()},
		blacklist: bl,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Sign mints a token of the given class. IssuedAt, ExpiresAt, Subject and ID
// are set here; anything the caller put in them is overwritten.
func (c *Codec) Sign(claims Claims, class Class, expiresIn time.Duration) (string, error) {
	kp, ok := c.keys[class]
	if !ok {
		return "", fmt.Errorf("sign %s token: %w", class, common.ErrMissingKey)
	}

	now := c.now()
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.ExpiresAt = jwt.NewNumericDate(now.Add(expiresIn))
	claims.Subject = claims.UserID
	claims.ID = uuid.NewString()

	token, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(kp.Private)
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", class, err)
	}
	return token, nil
}

// Verify checks the blacklist, then the signature, then expiry. The returned
// error is non-nil only when the blacklist lookup itself fails.
func (c *Codec) Verify(ctx context.Context, token string, class Class) (VerifyResult, error) {
	if token == "" {
		return VerifyResult{}, nil
	}

	if c.blacklist != nil {
		revoked, err := c.blacklist.IsBlacklisted(ctx, token)
		if err != nil {
			return VerifyResult{}, fmt.Errorf("blacklist lookup: %w", err)
		}
		if revoked {
			return VerifyResult{}, nil
		}
	}

	kp, ok := c.keys[class]
	if !ok {
		return VerifyResult{}, nil
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims,
		func(t *jwt.Token) (any, error) { return kp.Public, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	switch {
	case err == nil:
		if claims.UserID == "" {
			return VerifyResult{}, nil
		}
		return VerifyResult{Valid: true, Claims: claims}, nil
	case errors.Is(err, jwt.ErrTokenExpired):
		// the parser checks the signature before the claims
		return VerifyResult{Expired: true}, nil
	default:
		return VerifyResult{}, nil
	}
}

// UnverifiedExpiry reads the exp claim without checking the signature. It
// returns nil when the token cannot be decoded or carries no exp.
func UnverifiedExpiry(token string) *time.Time {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil
	}
	if claims.ExpiresAt == nil {
		return nil
	}
	exp := claims.ExpiresAt.Time
	return &exp
}
