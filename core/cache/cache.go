// Package cache provides a small generic LRU cache. The scanner uses it to keep
// compiled book patterns keyed by scan configuration.
package cache

import (
	"container/list"
	"sync"
	"time"
)

// Cache is a generic LRU cache interface.
type Cache[K comparable, V any] interface {
	// Get retrieves a value from the cache.
	Get(key K) (V, bool)

	// Put stores a value in the cache.
	Put(key K, value V)

	// GetOrLoad returns the cached value for key, calling load and storing
	// its result on a miss. Errors from load are returned and not cached.
	GetOrLoad(key K, load func() (V, error)) (V, error)

	// Remove removes a value from the cache.
	Remove(key K)

	// Clear removes all entries from the cache.
	Clear()

	// Len returns the number of entries in the cache.
	Len() int

	// Stats returns cache statistics.
	Stats() Stats
}

// Stats contains cache statistics.
type Stats struct {
	Hits      int64
	Misses    int64
	Evictions int64
	Size      int
	MaxSize   int
}

// Config contains cache configuration options.
type Config struct {
	// MaxSize is the maximum number of entries (0 = unlimited).
	MaxSize int

	// TTL is the time-to-live for entries (0 = no expiration).
	TTL time.Duration

	// OnEvict is called when an entry is evicted.
	OnEvict func(key, value any)
}

// DefaultConfig returns a default cache configuration.
func DefaultConfig() Config {
	return Config{
		MaxSize: 64,
	}
}

type entry[K comparable, V any] struct {
	key       K
	value     V
	expiresAt time.Time
}

// lruCache is a thread-safe LRU cache implementation.
type lruCache[K comparable, V any] struct {
	mu        sync.Mutex
	config    Config
	entries   map[K]*list.Element
	evictList *list.List
	stats     Stats
}

// NewLRUCache creates a new LRU cache with the given configuration.
func NewLRUCache[K comparable, V any](config Config) Cache[K, V] {
	if config.MaxSize < 0 {
		config.MaxSize = 0
	}

	return &lruCache[K, V]{
		config:    config,
		entries:   make(map[K]*list.Element),
		evictList: list.New(),
	}
}

// Get retrieves a value from the cache.
func (c *lruCache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.getLocked(key)
}

func (c *lruCache[K, V]) getLocked(key K) (V, bool) {
	ent, ok := c.entries[key]
	if !ok {
		c.stats.Misses++
		var zero V
		return zero, false
	}

	e := ent.Value.(*entry[K, V])
	if c.config.TTL > 0 && time.Now().After(e.expiresAt) {
		c.removeElement(ent)
		c.stats.Misses++
		var zero V
		return zero, false
	}

	c.evictList.MoveToFront(ent)
	c.stats.Hits++
	return e.value, true
}

// Put stores a value in the cache.
func (c *lruCache[K, V]) Put(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.putLocked(key, value)
}

func (c *lruCache[K, V]) putLocked(key K, value V) {
	if ent, ok := c.entries[key]; ok {
		c.evictList.MoveToFront(ent)
		e := ent.Value.(*entry[K, V])
		e.value = value
		if c.config.TTL > 0 {
			e.expiresAt = time.Now().Add(c.config.TTL)
		}
		return
	}

	e := &entry[K, V]{
		key:   key,
		value: value,
	}
	if c.config.TTL > 0 {
		e.expiresAt = time.Now().Add(c.config.TTL)
	}

	c.entries[key] = c.evictList.PushFront(e)

	if c.config.MaxSize > 0 && c.evictList.Len() > c.config.MaxSize {
		c.removeOldest()
	}
}

// GetOrLoad returns the cached value or loads and stores it. The lock is held
// while load runs, so concurrent callers for the same key load only once.
func (c *lruCache[K, V]) GetOrLoad(key K, load func() (V, error)) (V, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if v, ok := c.getLocked(key); ok {
		return v, nil
	}
	v, err := load()
	if err != nil {
		var zero V
		return zero, err
	}
	c.putLocked(key, v)
	return v, nil
}

// Remove removes a value from the cache.
func (c *lruCache[K, V]) Remove(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ent, ok := c.entries[key]; ok {
		c.removeElement(ent)
	}
}

// Clear removes all entries from the cache.
func (c *lruCache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[K]*list.Element)
	c.evictList.Init()
}

// Len returns the number of entries in the cache.
func (c *lruCache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.evictList.Len()
}

// Stats returns cache statistics.
func (c *lruCache[K, V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.stats
	s.Size = c.evictList.Len()
	s.MaxSize = c.config.MaxSize
	return s
}

func (c *lruCache[K, V]) removeOldest() {
	if ent := c.evictList.Back(); ent != nil {
		c.removeElement(ent)
		c.stats.Evictions++
	}
}

func (c *lruCache[K, V]) removeElement(ent *list.Element) {
	c.evictList.Remove(ent)
	e := ent.Value.(*entry[K, V])
	delete(c.entries, e.key)

	if c.config.OnEvict != nil {
		c.config.OnEvict(e.key, e.value)
	}
}
