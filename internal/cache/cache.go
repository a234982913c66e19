// Package cache provides the small in-memory TTL cache backing the calendar
// screens. Entries stay valid for the TTL unless explicitly invalidated after
// a mutation (habit created, log added or removed).
package cache

import (
	"fmt"
	"sync"
	"time"
)

// DefaultTTL is how long a fetched value is served without re-fetching.
const DefaultTTL = 5 * time.Minute

// HabitsKey caches the user's habit list.
const HabitsKey = "habits"

// RangeKey derives the cache key for a date-range log fetch.
func RangeKey(startDate, endDate string) string {
	return fmt.Sprintf("logs_%s_%s", startDate, endDate)
}

type entry struct {
	value     any
	fetchedAt time.Time
}

// Cache is a TTL-based in-memory cache. The UI is single-threaded
// cooperative, but the mutex keeps the cache safe if fetch completions land
// on other goroutines; concurrent writers for the same key are last-write-wins.
type Cache struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]entry
}

// New creates a cache with the given TTL. A TTL of zero uses DefaultTTL.
func New(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]entry),
	}
}

// SetClock replaces the time source. Tests use this to simulate TTL expiry.
func (c *Cache) SetClock(now func() time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

// Get returns the cached value for key if it is still within its TTL.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.now().Sub(e.fetchedAt) >= c.ttl {
		delete(c.entries, key)
		return nil, false
	}
	return e.value, true
}

// Put stores value under key with the current timestamp, replacing any prior
// entry.
func (c *Cache) Put(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry{value: value, fetchedAt: c.now()}
}

// Invalidate drops the entry for key so the next Get misses regardless of
// elapsed time.
func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// InvalidateAll drops every entry.
func (c *Cache) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]entry)
}
