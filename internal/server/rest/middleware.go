package rest

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/gatorauth/internal/common"
	"github.com/dmitrijs2005/gatorauth/internal/server/apperr"
	"github.com/dmitrijs2005/gatorauth/internal/server/auth"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type ctxKey string

const identityKey ctxKey = "identity"

// IdentityFrom returns the claims attached by the Identity middleware, or
// nil for anonymous requests.
func IdentityFrom(ctx context.Context) *auth.Claims {
	claims, _ := ctx.Value(identityKey).(*auth.Claims)
	return claims
}

func withIdentity(ctx context.Context, claims *auth.Claims) context.Context {
	return context.WithValue(ctx, identityKey, claims)
}

func secretEqual(got, want string) bool {
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}

// APIKey rejects requests that do not carry the shared API key. When an app
// id is configured the app id header must match as well.
func (s *HTTPServer) APIKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get(common.APIKeyHeaderName)
		if key == "" || !secretEqual(key, s.apiKey) {
			writeError(w, apperr.E(apperr.KindUnauthorized, "invalid api key"))
			return
		}
		if s.appID != "" && !secretEqual(r.Header.Get(common.AppIDHeaderName), s.appID) {
			writeError(w, apperr.E(apperr.KindUnauthorized, "invalid app id"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Identity resolves the bearer token into the request identity. It never
// rejects a request for an auth reason; an expired access token is rotated
// with the refresh cookie and the new pair is sent back in the Authorization
// header and the cookie.
func (s *HTTPServer) Identity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		access := bearerToken(r)
		if access == "" {
			next.ServeHTTP(w, r)
			return
		}

		var refresh string
		if c, err := r.Cookie(common.RefreshTokenCookieName); err == nil {
			refresh = c.Value
		}

		id, err := s.sessions.ResolveIdentity(r.Context(), access, refresh)
		if err != nil {
			s.logger.Error(r.Context(), "resolve identity failed", "error", err)
			writeError(w, apperr.Internal())
			return
		}

		if id.Rotated != nil {
			w.Header().Set(common.AuthorizationHeaderName, common.BearerPrefix+id.Rotated.AccessToken)
			s.setRefreshCookie(w, id.Rotated.RefreshToken)
		}
		if id.Claims != nil {
			r = r.WithContext(withIdentity(r.Context(), id.Claims))
		}
		next.ServeHTTP(w, r)
	})
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get(common.AuthorizationHeaderName)
	if len(h) < len(common.BearerPrefix) || !strings.EqualFold(h[:len(common.BearerPrefix)], common.BearerPrefix) {
		return ""
	}
	return strings.TrimSpace(h[len(common.BearerPrefix):])
}

// RequireUser rejects anonymous requests.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if IdentityFrom(r.Context()) == nil {
			writeError(w, apperr.Unauthorized())
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Ownership rejects requests whose identity does not own the resource named
// by the route parameter param. It must run after RequireUser.
func Ownership(param string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := chi.URLParam(r, param)
			if id == "" {
				writeError(w, apperr.E(apperr.KindBadRequest, "missing "+param))
				return
			}
			claims := IdentityFrom(r.Context())
			if claims == nil {
				writeError(w, apperr.Unauthorized())
				return
			}
			if claims.UserID != id {
				writeError(w, apperr.Forbidden())
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (s *HTTPServer) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		s.logger.Info(r.Context(), "request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
