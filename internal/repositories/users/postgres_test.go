package users

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/okozlov/identityd/internal/common"
	"github.com/okozlov/identityd/internal/models"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

var userColumns = []string{"entity_id", "uid", "name", "email", "active", "admin", "auth_realm", "created_at"}

func adaRow() *sqlmock.Rows {
	return sqlmock.NewRows(userColumns).
		AddRow(int64(42), "ada", "Ada Lovelace", "ada@x", true, false, "ldap", time.Now())
}

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `INSERT\s+INTO\s+users\s*\(uid,\s*name,\s*email,\s*active,\s*admin,\s*auth_realm\)`

	rows := sqlmock.NewRows([]string{"entity_id", "created_at"}).AddRow(int64(42), time.Now())
	mock.ExpectQuery(q).
		WithArgs("ada", "Ada Lovelace", "ada@x", true, false, "ldap").
		WillReturnRows(rows)

	u := &models.User{UID: "ada", Name: "Ada Lovelace", Email: "ada@x", Active: true, Realm: models.RealmLDAP}
	got, err := repo.Create(context.Background(), u)
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if got.EntityID != 42 || got.UID != "ada" {
		t.Fatalf("unexpected user: %+v", got)
	}
}

func TestCreate_DuplicateUIDIsAlreadyExists(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`INSERT\s+INTO\s+users`).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_uid_key"})

	_, err := repo.Create(context.Background(), &models.User{UID: "ada"})
	if !errors.Is(err, common.ErrorAlreadyExists) {
		t.Fatalf("expected ErrorAlreadyExists, got %v", err)
	}
}

func TestCreate_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`INSERT\s+INTO\s+users`).
		WillReturnError(errors.New("db down"))

	_, err := repo.Create(context.Background(), &models.User{UID: "ada"})
	if err == nil || !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestGetByUID_Found(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT\s+entity_id,.*FROM\s+users\s+WHERE\s+uid\s*=\s*\$1`).
		WithArgs("ada").
		WillReturnRows(adaRow())

	got, err := repo.GetByUID(context.Background(), "ada")
	if err != nil {
		t.Fatalf("GetByUID error: %v", err)
	}
	if got.EntityID != 42 || got.UID != "ada" || got.Realm != models.RealmLDAP {
		t.Fatalf("unexpected user: %+v", got)
	}
}

func TestGetByUID_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT\s+entity_id,.*FROM\s+users\s+WHERE\s+uid\s*=\s*\$1`).
		WithArgs("nobody").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByUID(context.Background(), "nobody")
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("expected ErrorNotFound, got %v", err)
	}
}

func TestGetByEntityID_Found(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT\s+entity_id,.*FROM\s+users\s+WHERE\s+entity_id\s*=\s*\$1`).
		WithArgs(int64(42)).
		WillReturnRows(adaRow())

	got, err := repo.GetByEntityID(context.Background(), 42)
	if err != nil {
		t.Fatalf("GetByEntityID error: %v", err)
	}
	if got.UID != "ada" {
		t.Fatalf("unexpected user: %+v", got)
	}
}

func TestGetByEntityID_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT\s+entity_id,.*FROM\s+users\s+WHERE\s+entity_id\s*=\s*\$1`).
		WithArgs(int64(7)).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByEntityID(context.Background(), 7)
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("expected ErrorNotFound, got %v", err)
	}
}

func TestList_NoFilter(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT\s+entity_id,.*FROM\s+users\s+u\s+ORDER\s+BY\s+u\.entity_id`).
		WillReturnRows(adaRow())

	got, err := repo.List(context.Background(), Filter{})
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(got) != 1 || got[0].UID != "ada" {
		t.Fatalf("unexpected result: %+v", got)
	}
}

func TestList_ByUIDAndName(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`FROM\s+users\s+u\s+WHERE\s+u\.uid\s*=\s*\$1\s+AND\s+u\.name\s*=\s*\$2`).
		WithArgs("ada", "Ada Lovelace").
		WillReturnRows(adaRow())

	got, err := repo.List(context.Background(), Filter{UID: "ada", Name: "Ada Lovelace"})
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 user, got %d", len(got))
	}
}

func TestList_AdminsOfActiveServers(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`WHERE\s+EXISTS\s*\((?s).*server_admins\s+sa(?s).*NOT\s+s\.decommissioned\)`).
		WillReturnRows(adaRow())

	got, err := repo.List(context.Background(), Filter{AdminsOfActiveServers: true})
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 user, got %d", len(got))
	}
}

func TestList_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`FROM\s+users\s+u`).
		WillReturnError(errors.New("db down"))

	_, err := repo.List(context.Background(), Filter{})
	if err == nil || !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}
