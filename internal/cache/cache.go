// Package cache provides a small in-memory TTL cache used to amortize
// repeated DNS lookups across validation batches.
package cache

import (
	"sync"
	"time"
)

const (
	// DefaultTTL matches the 24h domain-record lifetime used by the engine.
	DefaultTTL = 24 * time.Hour
	// DefaultMaxEntries bounds memory for long-running processes.
	DefaultMaxEntries = 1000
)

type entry[T any] struct {
	value      T
	insertedAt time.Time
}

// Cache is a capacity- and TTL-bounded key/value store.
//
// When the store is full, Set evicts the oldest surviving key by insertion
// order (FIFO). This is deliberately not LRU: re-reading a key does not
// protect it from eviction, and downstream cache-miss patterns depend on
// that ordering.
type Cache[T any] struct {
	mu         sync.RWMutex
	entries    map[string]entry[T]
	insertions []string // insertion order; may contain keys already deleted
	ttl        time.Duration
	maxSize    int
	now        func() time.Time
}

// New creates a cache with the given TTL and capacity. Non-positive
// arguments fall back to the defaults.
func New[T any](ttl time.Duration, maxSize int) *Cache[T] {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if maxSize <= 0 {
		maxSize = DefaultMaxEntries
	}
	return &Cache[T]{
		entries: make(map[string]entry[T]),
		ttl:     ttl,
		maxSize: maxSize,
		now:     time.Now,
	}
}

// Set stores value under key, evicting the oldest surviving entry first if
// the cache is at capacity. Updating an existing key refreshes its value and
// timestamp but keeps its original insertion position.
func (c *Cache[T]) Set(key string, value T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[key]; !ok {
		if len(c.entries) >= c.maxSize {
			c.evictOldestLocked()
		}
		c.insertions = append(c.insertions, key)
	}
	c.entries[key] = entry[T]{value: value, insertedAt: c.now()}
}

// Get returns the value for key if it is present and not expired. Expired
// entries are deleted on read.
func (c *Cache[T]) Get(key string) (T, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	var zero T
	if !ok {
		return zero, false
	}
	if c.now().Sub(e.insertedAt) > c.ttl {
		c.mu.Lock()
		// Re-check under the write lock; another goroutine may have
		// refreshed the entry in the meantime.
		if cur, ok := c.entries[key]; ok && c.now().Sub(cur.insertedAt) > c.ttl {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return zero, false
	}
	return e.value, true
}

// Delete removes key if present.
func (c *Cache[T]) Delete(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// Len returns the number of stored entries, counting expired entries that
// have not been read since expiring.
func (c *Cache[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Clear drops all entries.
func (c *Cache[T]) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]entry[T])
	c.insertions = nil
	c.mu.Unlock()
}

// evictOldestLocked removes the earliest-inserted key that still exists.
// The insertion list can hold keys deleted by Get-side expiry; those are
// skipped and compacted away here.
func (c *Cache[T]) evictOldestLocked() {
	for len(c.insertions) > 0 {
		oldest := c.insertions[0]
		c.insertions = c.insertions[1:]
		if _, ok := c.entries[oldest]; ok {
			delete(c.entries, oldest)
			return
		}
	}
}
