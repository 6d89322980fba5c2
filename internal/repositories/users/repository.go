package users

import (
	"context"

	"github.com/okozlov/identityd/internal/models"
)

// Filter is the enumerated listing vocabulary the store exposes. Zero values
// mean "no constraint". AdminsOfActiveServers keeps only users administering
// at least one server that has not been decommissioned.
type Filter struct {
	UID                   string
	Name                  string
	AdminsOfActiveServers bool
}

// Repository is the persistent-store contract for user records. The store
// assigns EntityID on Create and owns uid uniqueness: a duplicate uid yields
// common.ErrorAlreadyExists, lookups of absent records yield
// common.ErrorNotFound.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByEntityID(ctx context.Context, entityID int64) (*models.User, error)
	GetByUID(ctx context.Context, uid string) (*models.User, error)
	List(ctx context.Context, filter Filter) ([]*models.User, error)
}
