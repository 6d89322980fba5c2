package groups

import (
	"context"
	"database/sql"

	"github.com/okozlov/identityd/internal/dbx"
)

// TxStore runs group repository operations inside a single database
// transaction per call.
type TxStore struct {
	db *sql.DB
}

func NewTxStore(db *sql.DB) *TxStore {
	return &TxStore{db: db}
}

// WithTx begins a transaction, hands fn a Repository bound to it, and
// commits on success or rolls back on error.
func (s *TxStore) WithTx(ctx context.Context, fn func(repo Repository) error) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return fn(NewPostgresRepository(tx))
	})
}
