package groups

import (
	"context"

	"github.com/okozlov/identityd/internal/models"
)

// Repository is the persistent-store contract for groups and their
// memberships. Group names are unique: Create of a duplicate name yields
// common.ErrorAlreadyExists. AddMember is idempotent; adding an existing
// member is a no-op, not an error.
type Repository interface {
	GetByName(ctx context.Context, name string) (*models.Group, error)
	Create(ctx context.Context, group *models.Group) (*models.Group, error)
	AddMember(ctx context.Context, group *models.Group, user *models.User) error
}
