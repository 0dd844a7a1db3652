package cache

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/yungbote/saarthak-backend/internal/platform/logger"
)

// Family groups cache keys that are invalidated together.
type Family string

const (
	FamilyVideos    Family = "videos"
	FamilyPosters   Family = "posters"
	FamilyContacts  Family = "contacts"
	FamilyDashboard Family = "dashboard"
)

// ScopeAll is the scope of an unfiltered admin listing.
const ScopeAll = "all"

type Key struct {
	Family Family
	Scope  string
}

// Observer receives hit and miss events, typically for metrics.
type Observer interface {
	CacheHit(family string)
	CacheMiss(family string)
}

// Cache memoizes query results per Key. Each family carries a generation,
// held in the Store, that is bumped on invalidation and embedded in stored
// keys, so a load that began before an invalidation by any Cache sharing the
// store can never be served afterwards.
type Cache struct {
	store    Store
	log      *logger.Logger
	observer Observer
}

func New(log *logger.Logger, store Store, observer Observer) *Cache {
	if store == nil {
		store = NewMemoryStore(DefaultSize, DefaultTTL)
	}
	return &Cache{
		store:    store,
		log:      log.With("service", "QueryCache"),
		observer: observer,
	}
}

func (c *Cache) storeKey(k Key, gen uint64) string {
	return fmt.Sprintf("%s:g%d:%s", k.Family, gen, k.Scope)
}

// Fetch returns the cached value for key or calls load and caches its result.
// Load errors are returned as-is and never cached. Backend failures degrade
// to an uncached load.
func Fetch[T any](ctx context.Context, c *Cache, key Key, load func(context.Context) (T, error)) (T, error) {
	if c == nil {
		return load(ctx)
	}
	gen, err := c.store.Generation(ctx, string(key.Family))
	if err != nil {
		c.log.Warn("Cache generation read failed", "family", key.Family, "error", err)
		c.miss(key.Family)
		return load(ctx)
	}
	sk := c.storeKey(key, gen)

	if raw, ok, err := c.store.Get(ctx, sk); err != nil {
		c.log.Warn("Cache read failed", "key", sk, "error", err)
	} else if ok {
		var out T
		if err := json.Unmarshal(raw, &out); err == nil {
			c.hit(key.Family)
			return out, nil
		}
		c.log.Warn("Cache entry undecodable", "key", sk)
	}
	c.miss(key.Family)

	val, err := load(ctx)
	if err != nil {
		return val, err
	}
	if cur, err := c.store.Generation(ctx, string(key.Family)); err != nil || cur != gen {
		return val, nil
	}
	raw, err := json.Marshal(val)
	if err != nil {
		c.log.Warn("Cache encode failed", "key", sk, "error", err)
		return val, nil
	}
	if err := c.store.Set(ctx, sk, raw); err != nil {
		c.log.Warn("Cache write failed", "key", sk, "error", err)
	}
	return val, nil
}

// InvalidateFamilies drops every key of the given families. Calling it
// repeatedly has the same effect as calling it once.
func (c *Cache) InvalidateFamilies(ctx context.Context, families ...Family) {
	if c == nil {
		return
	}
	for _, f := range families {
		if _, err := c.store.BumpGeneration(ctx, string(f)); err != nil {
			c.log.Warn("Cache generation bump failed", "family", f, "error", err)
		}
		if err := c.store.DeletePrefix(ctx, string(f)+":"); err != nil {
			c.log.Warn("Cache invalidation failed", "family", f, "error", err)
		}
	}
}

// Invalidate drops the families that depend on mutation m.
func (c *Cache) Invalidate(ctx context.Context, m Mutation) {
	c.InvalidateFamilies(ctx, Affected(m)...)
}

func (c *Cache) hit(f Family) {
	if c.observer != nil {
		c.observer.CacheHit(string(f))
	}
}

func (c *Cache) miss(f Family) {
	if c.observer != nil {
		c.observer.CacheMiss(string(f))
	}
}
