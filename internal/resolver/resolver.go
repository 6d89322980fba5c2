// Package resolver implements the layered identifier resolution chain:
// in-process cache, then persistent store, then the external directory with
// first-use provisioning and group synchronization.
package resolver

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/singleflight"

	"github.com/okozlov/identityd/internal/common"
	"github.com/okozlov/identityd/internal/config"
	"github.com/okozlov/identityd/internal/directory"
	"github.com/okozlov/identityd/internal/logging"
	"github.com/okozlov/identityd/internal/models"
	"github.com/okozlov/identityd/internal/repositories/users"
)

// Resolver resolves opaque user identifiers to fully populated records,
// provisioning them from the directory the first time an identifier is
// seen. One Resolver owns one Cache; their lifetimes match.
type Resolver struct {
	users     users.Repository
	dir       directory.Client
	cache     *Cache
	groupSync *GroupSync
	logger    logging.Logger

	serviceUID string
	dirEnabled bool
	syncGroups bool

	// provision collapses concurrent first-time resolutions of one uid so
	// that at most one of them performs directory provisioning; the
	// store-level AlreadyExists check remains the safety net.
	provision singleflight.Group
}

func NewResolver(usersRepo users.Repository, groupStore GroupStore, dir directory.Client, cfg *config.Config, logger logging.Logger) *Resolver {
	r := &Resolver{
		users:      usersRepo,
		dir:        dir,
		cache:      NewCache(),
		logger:     logger.With("module", "resolver"),
		serviceUID: cfg.ServiceUID,
		dirEnabled: cfg.DirectoryEnabled && dir != nil,
		syncGroups: cfg.GroupSyncEnabled,
	}
	if r.syncGroups {
		r.groupSync = NewGroupSync(groupStore, logger)
	}
	return r
}

// ResolveByEntityID looks a user up by surrogate key, store only: surrogate
// keys are never directory-sourced, so there is no caching and no directory
// fallback.
func (r *Resolver) ResolveByEntityID(ctx context.Context, entityID int64) (*models.User, error) {
	return r.users.GetByEntityID(ctx, entityID)
}

// ListUsers delegates to the store's enumerated filter vocabulary.
func (r *Resolver) ListUsers(ctx context.Context, filter users.Filter) ([]*models.User, error) {
	return r.users.List(ctx, filter)
}

// ResolveByUID resolves uid through cache, store, and directory, in that
// order. Only a confirmed absence falls through to the next layer; any
// other failure is returned as-is.
//
// When first-use provisioning succeeds but group synchronization does not,
// the committed user is returned together with an error wrapping
// common.ErrorGroupSyncPartial: callers that only need the record may keep
// it, callers that care about sync degradation can errors.Is the error.
func (r *Resolver) ResolveByUID(ctx context.Context, uid string) (*models.User, error) {
	if u, ok := r.cache.Get(uid); ok {
		return u, nil
	}

	u, err := r.users.GetByUID(ctx, uid)
	if err == nil {
		return r.cache.PutIfAbsent(u), nil
	}
	if !errors.Is(err, common.ErrorNotFound) {
		return nil, err
	}

	if !r.dirEnabled {
		return nil, common.ErrorNotFound
	}

	v, err, _ := r.provision.Do(uid, func() (any, error) {
		return r.provisionFromDirectory(ctx, uid)
	})
	// a failed flight yields a typed nil inside v, so the two-value form
	// is required here
	u, _ = v.(*models.User)
	if u == nil {
		return nil, err
	}
	return u, err
}

func (r *Resolver) provisionFromDirectory(ctx context.Context, uid string) (*models.User, error) {
	if _, err := r.resolveServiceIdentity(ctx); err != nil {
		return nil, err
	}

	rec, err := r.dir.Lookup(ctx, uid)
	if err != nil {
		// a confirmed absence and an outage propagate unchanged; the
		// caller must be able to tell them apart
		return nil, err
	}

	user := &models.User{
		UID:    uid,
		Name:   rec.Name,
		Email:  rec.Email,
		Active: rec.Active,
		Admin:  rec.Admin,
		Realm:  models.RealmLDAP,
	}

	// Cache before the store commit: side effects running for this uid
	// (group sync included) must observe the in-flight record instead of
	// re-triggering provisioning.
	if cached := r.cache.PutIfAbsent(user); cached != user {
		return cached, nil
	}

	if _, err := r.users.Create(ctx, user); err != nil {
		r.cache.Delete(uid)
		if errors.Is(err, common.ErrorAlreadyExists) {
			// lost the insert race; the caller should resolve again
			return nil, common.ErrorAlreadyExists
		}
		return nil, err
	}

	r.logger.Info(ctx, "provisioned user from directory",
		"uid", uid, "entity_id", user.EntityID, "groups", len(rec.Groups))

	if r.syncGroups && len(rec.Groups) > 0 {
		if err := r.groupSync.Sync(ctx, user, rec.Groups); err != nil {
			r.logger.Warn(ctx, "group sync incomplete", "uid", uid, "error", err.Error())
			// the user record stays committed; report the degradation
			// alongside the resolved user
			return user, fmt.Errorf("%w: %v", common.ErrorGroupSyncPartial, err)
		}
	}

	return user, nil
}

// resolveServiceIdentity resolves the pre-seeded identity that authorizes
// directory operations. It deliberately checks only the cache and the
// store: falling into the provisioning branch here would recurse. A missing
// service identity stops processing rather than failing one request.
func (r *Resolver) resolveServiceIdentity(ctx context.Context) (*models.User, error) {
	if u, ok := r.cache.Get(r.serviceUID); ok {
		return u, nil
	}

	u, err := r.users.GetByUID(ctx, r.serviceUID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, fmt.Errorf("%w: uid %q is not seeded in the store", common.ErrorServiceIdentity, r.serviceUID)
		}
		return nil, err
	}

	return r.cache.PutIfAbsent(u), nil
}
