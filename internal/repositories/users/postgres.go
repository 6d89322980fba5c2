package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/okozlov/identityd/internal/common"
	"github.com/okozlov/identityd/internal/dbx"
	"github.com/okozlov/identityd/internal/models"
)

// Postgres unique_violation; translated here so callers only ever see the
// typed common.ErrorAlreadyExists.
const uniqueViolation = "23505"

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {

	query :=
		`INSERT INTO users (uid, name, email, active, admin, auth_realm)
         VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING entity_id, created_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		user.UID, user.Name, user.Email, user.Active, user.Admin, user.Realm).
		Scan(&user.EntityID, &user.CreatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *PostgresRepository) GetByEntityID(ctx context.Context, entityID int64) (*models.User, error) {
	query :=
		`SELECT entity_id, uid, name, email, active, admin, auth_realm, created_at FROM users
		 WHERE entity_id = $1
		 `

	return r.scanOne(r.db.QueryRowContext(ctx, query, entityID))
}

func (r *PostgresRepository) GetByUID(ctx context.Context, uid string) (*models.User, error) {
	query :=
		`SELECT entity_id, uid, name, email, active, admin, auth_realm, created_at FROM users
		 WHERE uid = $1
		 `

	return r.scanOne(r.db.QueryRowContext(ctx, query, uid))
}

// List returns users matching every set constraint in filter, ordered by
// entity id. The filter vocabulary is closed; no caller-supplied SQL.
func (r *PostgresRepository) List(ctx context.Context, filter Filter) ([]*models.User, error) {
	query := `SELECT entity_id, uid, name, email, active, admin, auth_realm, created_at FROM users u`

	var where []string
	var args []any

	if filter.UID != "" {
		args = append(args, filter.UID)
		where = append(where, fmt.Sprintf("u.uid = $%d", len(args)))
	}
	if filter.Name != "" {
		args = append(args, filter.Name)
		where = append(where, fmt.Sprintf("u.name = $%d", len(args)))
	}
	if filter.AdminsOfActiveServers {
		where = append(where, `EXISTS (
			SELECT 1 FROM server_admins sa
			JOIN servers s ON s.id = sa.server_id
			WHERE sa.user_id = u.entity_id AND NOT s.decommissioned)`)
	}

	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY u.entity_id"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.User
	for rows.Next() {
		user := &models.User{}
		if err := rows.Scan(&user.EntityID, &user.UID, &user.Name, &user.Email,
			&user.Active, &user.Admin, &user.Realm, &user.CreatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}

func (r *PostgresRepository) scanOne(row *sql.Row) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(&user.EntityID, &user.UID, &user.Name, &user.Email,
		&user.Active, &user.Admin, &user.Realm, &user.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}
