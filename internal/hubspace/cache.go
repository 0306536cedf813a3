package hubspace

import (
	"sync"
	"time"

	"hubspace_bridge/internal/models"
)

// statusCache holds last-known statuses keyed by device id, each valid for
// the configured TTL. Invalidation is delete-if-present and population is
// insert/overwrite, so concurrent use from callers and the worker is
// benign: the worst case is a stale read replaced moments later.
type statusCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time // injectable for tests
	entries map[string]statusEntry
}

type statusEntry struct {
	status     models.Status
	observedAt time.Time
}

func newStatusCache(ttl time.Duration) *statusCache {
	return &statusCache{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]statusEntry),
	}
}

// Get returns the cached status for id if it is still fresh.
func (c *statusCache) Get(id string) (models.Status, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[id]
	if !ok {
		return models.Status{}, false
	}
	if c.now().Sub(e.observedAt) >= c.ttl {
		delete(c.entries, id)
		return models.Status{}, false
	}
	return e.status, true
}

// Put records a freshly observed status for id.
func (c *statusCache) Put(id string, st models.Status) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[id] = statusEntry{status: st, observedAt: c.now()}
}

// Invalidate removes the entry for id, if any. Every accepted mutation
// calls this before the mutation is attempted so a stale success is never
// served.
func (c *statusCache) Invalidate(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, id)
}
