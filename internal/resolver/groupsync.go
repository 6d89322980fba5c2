package resolver

import (
	"context"
	"errors"
	"fmt"

	"github.com/okozlov/identityd/internal/common"
	"github.com/okozlov/identityd/internal/logging"
	"github.com/okozlov/identityd/internal/models"
	"github.com/okozlov/identityd/internal/repositories/groups"
)

// GroupStore runs group repository operations inside one database
// transaction per call.
type GroupStore interface {
	WithTx(ctx context.Context, fn func(repo groups.Repository) error) error
}

// GroupSync ensures directory-reported groups exist locally and the user is
// a member of each. Groups it creates carry system=true; a group that
// already exists is reused as-is, its system flag untouched.
type GroupSync struct {
	store  GroupStore
	logger logging.Logger
}

func NewGroupSync(store GroupStore, logger logging.Logger) *GroupSync {
	return &GroupSync{
		store:  store,
		logger: logger.With("module", "group_sync"),
	}
}

// Sync processes names in no particular order and stops at the first error.
// There is no atomicity across groups: memberships applied before a failure
// stay in place, and no rollback is attempted.
func (g *GroupSync) Sync(ctx context.Context, user *models.User, names []string) error {
	for _, name := range names {
		if err := g.syncOne(ctx, user, name); err != nil {
			return fmt.Errorf("sync group %q: %w", name, err)
		}
	}
	return nil
}

// syncOne runs one group's ensure-group and membership insert inside a
// single transaction, so a group row never commits without its membership.
// Each group gets its own transaction; groups stay independent of each
// other.
func (g *GroupSync) syncOne(ctx context.Context, user *models.User, name string) error {
	return g.store.WithTx(ctx, func(repo groups.Repository) error {
		group, err := repo.GetByName(ctx, name)
		if errors.Is(err, common.ErrorNotFound) {
			group, err = repo.Create(ctx, &models.Group{Name: name, System: true})
			if errors.Is(err, common.ErrorAlreadyExists) {
				// a concurrent sync created it first; use theirs
				group, err = repo.GetByName(ctx, name)
			}
			if err == nil {
				g.logger.Info(ctx, "group ensured", "name", name)
			}
		}
		if err != nil {
			return err
		}

		return repo.AddMember(ctx, group, user)
	})
}
