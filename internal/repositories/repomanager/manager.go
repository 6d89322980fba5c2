package repomanager

import (
	"context"
	"database/sql"

	"github.com/okozlov/identityd/internal/dbx"
	"github.com/okozlov/identityd/internal/repositories/groups"
	"github.com/okozlov/identityd/internal/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	GroupsTx(db *sql.DB) *groups.TxStore
}
