package whitelist

import (
	"sync"
	"time"
)

// pruneEvery is the number of cache writes between two passes over the cache
// that drop expired entries.
const pruneEvery = 64

// cache is a read-through view of the store. Entries are written only after the
// store acknowledged a write, or when a read finished without any write racing it.
type cache struct {
	mu    sync.RWMutex
	ttl   time.Duration
	data   map[Identity]cacheEntry
	epoch  uint64
	writes int

	now func() time.Time
}

// cacheEntry ...
type cacheEntry struct {
	allowed bool
	expires time.Time
}

// newCache creates a cache whose entries expire after ttl. A ttl of zero or
// less disables caching entirely.
func newCache(ttl time.Duration) *cache {
	return &cache{
		ttl:  ttl,
		data: make(map[Identity]cacheEntry),
		now:  time.Now,
	}
}

// get returns the cached value and whether it existed and was still fresh.
func (c *cache) get(id Identity) (bool, bool) {
	if c.ttl <= 0 {
		return false, false
	}

	c.mu.RLock()
	e, ok := c.data[id]
	c.mu.RUnlock()
	if !ok {
		return false, false
	}

	if c.now().After(e.expires) {
		c.mu.Lock()
		if e, ok := c.data[id]; ok && c.now().After(e.expires) {
			delete(c.data, id)
		}
		c.mu.Unlock()
		return false, false
	}
	return e.allowed, true
}

// snapshot returns the current write epoch, to be passed to fill.
func (c *cache) snapshot() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.epoch
}

// fill stores a value read from the store, unless a write happened since epoch
// was taken, in which case the read may be stale and is discarded.
func (c *cache) fill(id Identity, allowed bool, epoch uint64) {
	if c.ttl <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.epoch != epoch {
		return
	}
	c.put(id, allowed)
}

// set stores a value the store has acknowledged.
func (c *cache) set(id Identity, allowed bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.epoch++
	if c.ttl <= 0 {
		return
	}
	c.put(id, allowed)
}

// put stores an entry and periodically drops expired ones. c.mu must be held.
func (c *cache) put(id Identity, allowed bool) {
	now := c.now()
	c.data[id] = cacheEntry{allowed: allowed, expires: now.Add(c.ttl)}

	c.writes++
	if c.writes%pruneEvery != 0 {
		return
	}
	for k, e := range c.data {
		if now.After(e.expires) {
			delete(c.data, k)
		}
	}
}

// size returns the number of entries held, fresh or not.
func (c *cache) size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data)
}

// drop forgets id, forcing the next read to go to the store.
func (c *cache) drop(id Identity) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.epoch++
	delete(c.data, id)
}
