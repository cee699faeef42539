// Package cache holds short-lived query results that are thrown away
// whenever the data behind them changes.
package cache

import (
	"sync"
	"time"
)

type item[V any] struct {
	value   V
	expires time.Time
}

// TTLCache is a thread-safe map whose entries expire individually. Purge
// drops everything at once, for when the underlying data changes.
type TTLCache[K comparable, V any] struct {
	mu      sync.RWMutex
	data    map[K]item[V]
	ttl     time.Duration
	maxSize int
	now     func() time.Time
}

// New creates a cache whose entries live for ttl. When maxSize is positive
// and the cache is full, Set first drops expired entries and then, if still
// full, everything.
func New[K comparable, V any](ttl time.Duration, maxSize int) *TTLCache[K, V] {
	return &TTLCache[K, V]{
		data:    make(map[K]item[V]),
		ttl:     ttl,
		maxSize: maxSize,
		now:     time.Now,
	}
}

// Get returns the value for key if it is present and not expired.
func (c *TTLCache[K, V]) Get(key K) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	it, ok := c.data[key]
	if !ok || !c.now().Before(it.expires) {
		var zero V
		return zero, false
	}
	return it.value, true
}

// Set stores value under key for one TTL.
func (c *TTLCache[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if _, exists := c.data[key]; !exists && c.maxSize > 0 && len(c.data) >= c.maxSize {
		c.expireLocked(now)
		if len(c.data) >= c.maxSize {
			c.data = make(map[K]item[V])
		}
	}
	c.data[key] = item[V]{value: value, expires: now.Add(c.ttl)}
}

// GetOrLoad returns the cached value for key, calling load on a miss.
// Errors are returned and not cached.
func (c *TTLCache[K, V]) GetOrLoad(key K, load func() (V, error)) (V, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}
	v, err := load()
	if err != nil {
		return v, err
	}
	c.Set(key, v)
	return v, nil
}

// Purge drops every entry.
func (c *TTLCache[K, V]) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = make(map[K]item[V])
}

// Expire drops expired entries and returns how many were dropped.
func (c *TTLCache[K, V]) Expire() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.expireLocked(c.now())
}

// expireLocked must be called with the write lock held.
func (c *TTLCache[K, V]) expireLocked(now time.Time) int {
	n := 0
	for k, it := range c.data {
		if !now.Before(it.expires) {
			delete(c.data, k)
			n++
		}
	}
	return n
}

// Len counts stored entries, expired or not.
func (c *TTLCache[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data)
}
