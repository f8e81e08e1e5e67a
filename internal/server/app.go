// Package server wires the gatorauth components together and runs them:
// it opens the credential store, loads the signing keys, builds the
// services and serves the HTTP API until shutdown.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/gatorauth/internal/cryptox"
	"github.com/dmitrijs2005/gatorauth/internal/logging"
	"github.com/dmitrijs2005/gatorauth/internal/server/auth"
	"github.com/dmitrijs2005/gatorauth/internal/server/blacklist"
	"github.com/dmitrijs2005/gatorauth/internal/server/config"
	"github.com/dmitrijs2005/gatorauth/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gatorauth/internal/server/rest"
	"github.com/dmitrijs2005/gatorauth/internal/server/services"
	"github.com/dmitrijs2005/gatorauth/internal/server/storage"
)

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	gate   *blacklist.Gate
	server *rest.HTTPServer
}

// NewApp builds every component from c. Logs go to w.
func NewApp(ctx context.Context, c *config.Config, w io.Writer) (*App, error) {
	logger := logging.New(w, c.LogLevel, c.LogFormat)

	access, err := auth.LoadKeyPair(c.AccessTokenPrivateKey, c.AccessTokenPublicKey)
	if err != nil {
		return nil, fmt.Errorf("access token key: %w", err)
	}
	refresh, err := auth.LoadKeyPair(c.RefreshTokenPrivateKey, c.RefreshTokenPublicKey)
	if err != nil {
		return nil, fmt.Errorf("refresh token key: %w", err)
	}

	rm, err := repomanager.NewSQLRepositoryManager(c.DatabaseDriver, repomanager.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	db, err := storage.Open(ctx, c.DatabaseDriver, c.DatabaseDSN, c.ConnectMaxWait, rm, logger)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	gate := blacklist.NewGate(rm.Blacklist(db))
	codec, err := auth.NewCodec(access, refresh, gate)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	hasher := cryptox.NewBcryptHasher(c.BcryptCost)
	us := services.NewUserService(db, rm, hasher)
	ss := services.NewSessionService(db, rm, codec, hasher, c, logger)

	return &App{
		config: c,
		logger: logger,
		db:     db,
		gate:   gate,
		server: rest.NewHTTPServer(c, logger, us, ss),
	}, nil
}

func (app *App) initSignalHandler(ctx context.Context, cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT, syscall.SIGHUP)

	go func() {
		defer signal.Stop(sigs)
		select {
		case sig := <-sigs:
			app.logger.Info(ctx, "Received signal", "signal", sig.String())
			cancelFunc()
		case <-ctx.Done():
		}
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) error {
	if err := app.server.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
		return err
	}
	return nil
}

// Run serves until ctx is cancelled or a termination signal arrives, then
// waits for the server and the blacklist pruner and closes the store.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(ctx, cancelFunc)

	var (
		wg     sync.WaitGroup
		runErr error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		runErr = app.startHTTPServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.gate.RunPruner(ctx, app.config.BlacklistPruneInterval, app.logger)
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "close db", "error", err)
	}
	app.logger.Info(ctx, "App stopped")

	return runErr
}
