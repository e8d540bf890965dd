package listing

import (
	"slices"
	"sync"
	"time"
)

// Clock returns the current time.
type Clock func() time.Time

// Cache is a single time-boxed entry holding one fetched collection.
type Cache[T any] struct {
	mu        sync.RWMutex
	ttl       time.Duration
	now       Clock
	data      []T
	timestamp time.Time
	loaded    bool
	fresh     bool
}

// NewCache creates a cache whose entries stay valid for ttl.
func NewCache[T any](ttl time.Duration, now Clock) *Cache[T] {
	if now == nil {
		now = time.Now
	}
	return &Cache[T]{ttl: ttl, now: now}
}

// Get returns the data while now - timestamp < ttl.
func (c *Cache[T]) Get() ([]T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.loaded || !c.fresh || c.now().Sub(c.timestamp) >= c.ttl {
		return nil, false
	}
	return slices.Clone(c.data), true
}

// Stale returns whatever data was last stored, expired or not.
func (c *Cache[T]) Stale() ([]T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.loaded {
		return nil, false
	}
	return slices.Clone(c.data), true
}

// Set replaces the entry with {data, timestamp: now}.
func (c *Cache[T]) Set(data []T) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = slices.Clone(data)
	c.timestamp = c.now()
	c.loaded = true
	c.fresh = true
	return c.timestamp
}

// Timestamp returns when the data was stored.
func (c *Cache[T]) Timestamp() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.timestamp
}

// Invalidate expires the entry but keeps its data for stale reads.
func (c *Cache[T]) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fresh = false
}
