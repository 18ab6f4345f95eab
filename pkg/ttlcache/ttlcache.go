// Package ttlcache provides a generic in-process cache with per-entry
// absolute expiration. It memoizes upstream Steam API results so that
// repeated requests within the TTL window do not re-hit the Web API.
// No external dependencies - uses only standard library.
package ttlcache

import (
	"sync"
	"time"
)

// entry holds a cached value together with its expiry deadline.
type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// expired reports whether the entry is past its deadline at now.
func (e entry[V]) expired(now time.Time) bool {
	return now.After(e.expiresAt)
}

// Cache is a concurrency-safe key→value cache with per-entry TTL.
// Expired entries are treated as absent on read and are swept
// opportunistically; Set unconditionally overwrites (last write wins).
type Cache[V any] struct {
	mu      sync.RWMutex
	entries map[string]entry[V]
	clock   func() time.Time
}

// New creates an empty Cache.
func New[V any]() *Cache[V] {
	return &Cache[V]{
		entries: make(map[string]entry[V]),
		clock:   time.Now,
	}
}

// NewWithClock creates a Cache using the given clock. Tests use this to
// control expiry deterministically.
func NewWithClock[V any](clock func() time.Time) *Cache[V] {
	return &Cache[V]{
		entries: make(map[string]entry[V]),
		clock:   clock,
	}
}

// Get returns the value stored under key. The second return value is
// false when the key is absent or its entry has expired.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok || e.expired(c.clock()) {
		var zero V
		return zero, false
	}
	return e.value, true
}

// Set stores value under key for the given ttl, replacing any existing
// entry. A non-positive ttl stores an already-expired entry, which is
// equivalent to not caching at all.
func (c *Cache[V]) Set(key string, value V, ttl time.Duration) {
	now := c.clock()

	c.mu.Lock()
	c.entries[key] = entry[V]{value: value, expiresAt: now.Add(ttl)}
	c.mu.Unlock()
}

// Delete removes the entry under key, if any.
func (c *Cache[V]) Delete(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// Len returns the number of entries currently held, including entries
// that have expired but have not been swept yet.
func (c *Cache[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Sweep removes all expired entries and returns how many were dropped.
// Callers that keep a cache alive for a long time should run this
// periodically to bound memory; reads stay correct without it.
func (c *Cache[V]) Sweep() int {
	now := c.clock()

	c.mu.Lock()
	defer c.mu.Unlock()

	dropped := 0
	for key, e := range c.entries {
		if e.expired(now) {
			delete(c.entries, key)
			dropped++
		}
	}
	return dropped
}

// StartJanitor runs Sweep every interval until stop is closed.
// It returns immediately; sweeping happens on a background goroutine.
func (c *Cache[V]) StartJanitor(interval time.Duration, stop <-chan struct{}) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				c.Sweep()
			case <-stop:
				return
			}
		}
	}()
}
