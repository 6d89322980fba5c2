package groups

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/okozlov/identityd/internal/common"
	"github.com/okozlov/identityd/internal/dbx"
	"github.com/okozlov/identityd/internal/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) GetByName(ctx context.Context, name string) (*models.Group, error) {
	query :=
		`SELECT id, name, system, created_at FROM groups
		 WHERE name = $1
		 `

	group := &models.Group{}
	err := r.db.QueryRowContext(ctx, query, name).
		Scan(&group.ID, &group.Name, &group.System, &group.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return group, nil
}

// Create inserts the group; a duplicate name yields ErrorAlreadyExists.
// ON CONFLICT DO NOTHING keeps the duplicate path from raising a unique
// violation, which would abort an enclosing transaction.
func (r *PostgresRepository) Create(ctx context.Context, group *models.Group) (*models.Group, error) {

	query :=
		`INSERT INTO groups (name, system)
         VALUES ($1, $2)
		 ON CONFLICT (name) DO NOTHING
		 RETURNING id, created_at
		 `

	err := r.db.QueryRowContext(ctx, query, group.Name, group.System).
		Scan(&group.ID, &group.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return group, nil
}

// AddMember inserts the membership row; ON CONFLICT DO NOTHING makes repeat
// additions a no-op.
func (r *PostgresRepository) AddMember(ctx context.Context, group *models.Group, user *models.User) error {
	query :=
		`INSERT INTO group_members (group_id, user_id)
		 VALUES ($1, $2)
		 ON CONFLICT DO NOTHING
		 `

	if _, err := r.db.ExecContext(ctx, query, group.ID, user.EntityID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}
