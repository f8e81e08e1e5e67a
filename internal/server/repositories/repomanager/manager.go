package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/gatorauth/internal/dbx"
	"github.com/dmitrijs2005/gatorauth/internal/server/repositories/blacklist"
	"github.com/dmitrijs2005/gatorauth/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Blacklist(db dbx.DBTX) blacklist.Repository
}
