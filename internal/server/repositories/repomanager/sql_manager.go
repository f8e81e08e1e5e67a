// Package repomanager provides a concrete RepositoryManager for the SQL
// backends, wiring together repository constructors and database migrations
// (via goose).
package repomanager

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"

	"github.com/dmitrijs2005/gatorauth/internal/dbx"
	"github.com/dmitrijs2005/gatorauth/internal/logging"
	"github.com/dmitrijs2005/gatorauth/internal/server/migrations"
	"github.com/dmitrijs2005/gatorauth/internal/server/repositories/blacklist"
	"github.com/dmitrijs2005/gatorauth/internal/server/repositories/users"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

// Driver names accepted by NewSQLRepositoryManager. They match the names the
// drivers register with database/sql.
const (
	DriverPostgres = "pgx"
	DriverSQLite   = "sqlite"
)

// gooseDialects maps a database/sql driver name to its goose dialect.
var gooseDialects = map[string]string{
	DriverPostgres: "pgx",
	DriverSQLite:   "sqlite3",
}

// SQLRepositoryManager vends SQL-backed repository implementations and
// exposes a schema migration hook.
type SQLRepositoryManager struct {
	dialect string
	logger  logging.Logger
}

// Option configures a SQLRepositoryManager.
type Option func(*SQLRepositoryManager)

// WithLogger sends migration output to l. Without it goose is silent.
func WithLogger(l logging.Logger) Option {
	return func(m *SQLRepositoryManager) {
		m.logger = l.With("module", "migrations")
	}
}

// gooseLogger adapts logging.Logger to goose.Logger.
type gooseLogger struct {
	ctx    context.Context
	logger logging.Logger
}

func (l gooseLogger) Printf(format string, v ...any) {
	l.logger.Info(l.ctx, strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (l gooseLogger) Fatalf(format string, v ...any) {
	l.logger.Error(l.ctx, strings.TrimSpace(fmt.Sprintf(format, v...)))
	os.Exit(1)
}

// Users returns a users.Repository bound to the provided DBTX.
func (m *SQLRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return users.NewPostgresRepository(db)
}

// Blacklist returns a blacklist.Repository bound to the provided DBTX.
func (m *SQLRepositoryManager) Blacklist(db dbx.DBTX) blacklist.Repository {
	return blacklist.NewPostgresRepository(db)
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations sets up goose with the embedded migrations and runs them
// against the provided database connection.
func (m *SQLRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	logger := m.logger
	if logger == nil {
		logger = logging.Nop()
	}
	goose.SetLogger(gooseLogger{ctx: ctx, logger: logger})
	if err := goose.SetDialect(m.dialect); err != nil {
		return err
	}
	if err := gooseUpContext(ctx, db, "."); err != nil {
		return err
	}
	return nil
}

// NewSQLRepositoryManager constructs a RepositoryManager for the given
// database/sql driver name.
func NewSQLRepositoryManager(driver string, opts ...Option) (RepositoryManager, error) {
	dialect, ok := gooseDialects[driver]
	if !ok {
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
	m := &SQLRepositoryManager{dialect: dialect, logger: logging.Nop()}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}
