package rbac

import (
	"context"
	"log/slog"
	"strconv"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/dmitrymomot/authkit/pkg/logger"
)

// hierarchyCache holds the current hierarchy snapshot. It is filled lazily
// and dropped on every invalidation.
type hierarchyCache struct {
	load    func(ctx context.Context) ([]Role, error)
	log     *slog.Logger
	metrics *metrics

	group singleflight.Group

	mu         sync.RWMutex
	current    *hierarchy
	generation uint64
}

func newHierarchyCache(load func(ctx context.Context) ([]Role, error), log *slog.Logger, m *metrics) *hierarchyCache {
	return &hierarchyCache{load: load, log: log, metrics: m}
}

func (c *hierarchyCache) get(ctx context.Context) (*hierarchy, error) {
	c.mu.RLock()
	h, gen := c.current, c.generation
	c.mu.RUnlock()

	if h != nil {
		c.metrics.cacheLookup(true)
		return h, nil
	}
	c.metrics.cacheLookup(false)

	// Fills are keyed by generation so a caller arriving after an
	// invalidation never joins a fill that started before it.
	v, err, _ := c.group.Do(strconv.FormatUint(gen, 10), func() (any, error) {
		roles, err := c.load(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}
		fresh := newHierarchy(roles)

		c.mu.Lock()
		if c.generation == gen {
			c.current = fresh
		}
		c.mu.Unlock()

		c.log.DebugContext(ctx, "role hierarchy loaded", logger.Count(len(roles)))
		return fresh, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*hierarchy), nil
}

func (c *hierarchyCache) invalidate() {
	c.mu.Lock()
	c.generation++
	c.current = nil
	c.mu.Unlock()

	c.metrics.cacheInvalidated()
}

func (c *hierarchyCache) warm() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current != nil
}
