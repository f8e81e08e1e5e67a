// Package rest is the HTTP transport: a chi router carrying the auth
// middleware chain, the user and token handlers and the API docs.
package rest

import (
	"context"
	_ "embed"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/gatorauth/internal/common"
	"github.com/dmitrijs2005/gatorauth/internal/logging"
	"github.com/dmitrijs2005/gatorauth/internal/server/config"
	"github.com/dmitrijs2005/gatorauth/internal/server/models"
	"github.com/dmitrijs2005/gatorauth/internal/server/services"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	openapimw "github.com/go-openapi/runtime/middleware"
)

//go:embed openapi.yaml
var openapiSpec []byte

const shutdownTimeout = 10 * time.Second

// UserService is the account CRUD used by the handlers.
type UserService interface {
	SignUp(ctx context.Context, email, password string) (*models.User, error)
	Get(ctx context.Context, id string) (*models.User, error)
	UpdateEmail(ctx context.Context, id, email string) error
	UpdatePassword(ctx context.Context, id, password string) error
	Delete(ctx context.Context, id string) error
}

// SessionService is the token lifecycle used by the handlers and the
// identity middleware.
type SessionService interface {
	Login(ctx context.Context, email, password string) (*services.AuthResponse, error)
	Rotate(ctx context.Context, refreshToken string) (services.TokenPair, error)
	Logout(ctx context.Context, accessToken, refreshToken string)
	ResolveIdentity(ctx context.Context, accessToken, refreshToken string) (services.Identity, error)
	RefreshTTL() time.Duration
}

type HTTPServer struct {
	address       string
	basePath      string
	apiKey        string
	appID         string
	secureCookies bool
	corsOrigins   []string
	users         UserService
	sessions      SessionService
	logger        logging.Logger
}

func NewHTTPServer(cfg *config.Config, l logging.Logger, us UserService, ss SessionService) *HTTPServer {
	return &HTTPServer{
		address:       cfg.EndpointAddrHTTP,
		basePath:      cfg.BasePath(),
		apiKey:        cfg.APIKey,
		appID:         cfg.AppID,
		secureCookies: cfg.SecureCookies,
		corsOrigins:   cfg.CORSAllowedOrigins,
		users:         us,
		sessions:      ss,
		logger:        l.With("module", "http_server"),
	}
}

// Router returns the root handler with every route mounted under the base
// path.
func (s *HTTPServer) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.corsOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", common.AuthorizationHeaderName, common.APIKeyHeaderName, common.AppIDHeaderName},
		ExposedHeaders: []string{common.AuthorizationHeaderName},
		MaxAge:         300,
	}))

	r.Route(s.basePath, func(r chi.Router) {
		r.Get("/hc", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("OK"))
		})

		r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/yaml")
			_, _ = w.Write(openapiSpec)
		})
		r.Handle("/docs*", openapimw.SwaggerUI(openapimw.SwaggerUIOpts{
			SpecURL: s.basePath + "/openapi.yaml",
			Path:    s.basePath[1:] + "/docs",
		}, nil))

		r.Group(func(r chi.Router) {
			r.Use(s.APIKey)

			r.Post("/users/sign-up", s.SignUp)
			r.Post("/users/login", s.Login)

			// Only the user routes resolve identity; token routes never rotate.
			r.Route("/users/{userId}", func(r chi.Router) {
				r.Use(s.Identity)
				r.Use(RequireUser)
				r.Use(Ownership("userId"))
				r.Get("/", s.GetUser)
				r.Delete("/", s.DeleteUser)
				r.Put("/update-email", s.UpdateEmail)
				r.Put("/update-password", s.UpdatePassword)
			})

			r.Post("/tokens/reissue-token", s.ReissueToken)
			r.Post("/tokens/invalidate-token", s.InvalidateToken)
		})
	})

	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *HTTPServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	done := make(chan error, 1)
	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		done <- srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String(), "base_path", s.basePath)

	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return <-done
}
