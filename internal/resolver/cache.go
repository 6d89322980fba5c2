package resolver

import (
	"sync"

	"github.com/okozlov/identityd/internal/models"
)

// Cache memoizes resolved users by uid for the lifetime of one Resolver.
// Entries are write-once: the first record stored for a uid wins and later
// stores observe the existing entry. There is no eviction and no size bound;
// bounding the cache (LRU/TTL) is an extension point, not current behavior.
type Cache struct {
	mu    sync.RWMutex
	users map[string]*models.User
}

func NewCache() *Cache {
	return &Cache{users: make(map[string]*models.User)}
}

func (c *Cache) Get(uid string) (*models.User, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	u, ok := c.users[uid]
	return u, ok
}

// PutIfAbsent stores user under its UID unless an entry already exists, and
// returns whatever entry is in the cache after the call. Callers must use
// the returned value: under concurrent insertion the stored record may not
// be their own.
func (c *Cache) PutIfAbsent(user *models.User) *models.User {
	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.users[user.UID]; ok {
		return existing
	}
	c.users[user.UID] = user
	return user
}

// Delete removes an entry; used to discard a provisional record whose store
// commit failed.
func (c *Cache) Delete(uid string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.users, uid)
}

func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.users)
}
