package location

import (
	"sync"
	"time"
)

// DefaultCacheTTL is how long a fix stays reusable once stored.
const DefaultCacheTTL = 30 * time.Second

// Cache holds the last known fix with a TTL. It replaces the process-wide
// last-location global of older builds: ownership is explicit and the cache
// can be cleared when the caller knows the device moved.
type Cache struct {
	mu       sync.Mutex
	sample   Sample
	storedAt time.Time
	hasFix   bool
	ttl      time.Duration
	now      func() time.Time
}

// NewCache creates a cache with the given TTL; a non-positive TTL falls back
// to DefaultCacheTTL.
func NewCache(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Cache{ttl: ttl, now: time.Now}
}

// Get returns the cached sample when it is younger than both the cache TTL
// and the caller's maxAge. A maxAge of zero always misses, forcing a fresh
// device read.
func (c *Cache) Get(maxAge time.Duration) (Sample, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.hasFix || maxAge <= 0 {
		return Sample{}, false
	}

	age := c.now().Sub(c.storedAt)
	if age > c.ttl || age > maxAge {
		return Sample{}, false
	}
	return c.sample, true
}

// Put stores a fix as the last known location.
func (c *Cache) Put(s Sample) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.sample = s
	c.storedAt = c.now()
	c.hasFix = true
}

// Clear drops the cached fix.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.sample = Sample{}
	c.hasFix = false
}
