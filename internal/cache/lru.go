package cache

import (
	"container/list"
	"sync"
	"time"
)

// EvictReason says why an item left the cache.
type EvictReason int

const (
	EvictExpired EvictReason = iota
	EvictCapacity
)

func (r EvictReason) String() string {
	switch r {
	case EvictExpired:
		return "expired"
	default:
		return "capacity"
	}
}

// LRUCache is a size-bounded cache whose items expire ttl after their last
// write or read. Reads slide the expiry so active sessions stay alive.
type LRUCache[T any] struct {
	mu      sync.Mutex
	maxSize int
	ttl     time.Duration
	sliding bool
	items   map[string]*list.Element
	lru     *list.List
	now     func() time.Time
	onEvict func(key string, data T, reason EvictReason)
}

type cacheItem[T any] struct {
	key       string
	data      T
	expiresAt time.Time
}

// Option configures an LRUCache.
type Option[T any] func(*LRUCache[T])

// WithSliding makes Get refresh the item's expiry.
func WithSliding[T any]() Option[T] {
	return func(c *LRUCache[T]) { c.sliding = true }
}

// WithClock replaces time.Now, for tests.
func WithClock[T any](now func() time.Time) Option[T] {
	return func(c *LRUCache[T]) { c.now = now }
}

// WithEvictHook is called, outside the cache lock, for every removed item.
func WithEvictHook[T any](fn func(key string, data T, reason EvictReason)) Option[T] {
	return func(c *LRUCache[T]) { c.onEvict = fn }
}

// NewLRUCache creates a new LRU cache with TTL. A non-positive maxSize
// leaves the size unbounded.
func NewLRUCache[T any](maxSize int, ttl time.Duration, opts ...Option[T]) *LRUCache[T] {
	c := &LRUCache[T]{
		maxSize: maxSize,
		ttl:     ttl,
		items:   make(map[string]*list.Element),
		lru:     list.New(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type eviction[T any] struct {
	item   *cacheItem[T]
	reason EvictReason
}

// Get retrieves a value from the cache
func (c *LRUCache[T]) Get(key string) (T, bool) {
	c.mu.Lock()
	data, ok, gone := c.get(key)
	c.mu.Unlock()
	c.fire(gone)
	return data, ok
}

func (c *LRUCache[T]) get(key string) (T, bool, []eviction[T]) {
	var zero T
	elem, exists := c.items[key]
	if !exists {
		return zero, false, nil
	}

	item := elem.Value.(*cacheItem[T])
	now := c.now()
	if now.After(item.expiresAt) {
		c.removeElement(elem)
		return zero, false, []eviction[T]{{item, EvictExpired}}
	}

	if c.sliding {
		item.expiresAt = now.Add(c.ttl)
	}
	c.lru.MoveToFront(elem)
	return item.data, true, nil
}

// GetOrCreate returns the cached value for key, creating and storing one
// with create when it is missing or expired. The bool reports creation.
func (c *LRUCache[T]) GetOrCreate(key string, create func() T) (T, bool) {
	c.mu.Lock()
	data, ok, gone := c.get(key)
	if !ok {
		data = create()
		gone = append(gone, c.set(key, data)...)
	}
	c.mu.Unlock()
	c.fire(gone)
	return data, !ok
}

// Set stores a value in the cache
func (c *LRUCache[T]) Set(key string, data T) {
	c.mu.Lock()
	gone := c.set(key, data)
	c.mu.Unlock()
	c.fire(gone)
}

func (c *LRUCache[T]) set(key string, data T) []eviction[T] {
	item := &cacheItem[T]{
		key:       key,
		data:      data,
		expiresAt: c.now().Add(c.ttl),
	}

	if elem, exists := c.items[key]; exists {
		elem.Value = item
		c.lru.MoveToFront(elem)
		return nil
	}

	c.items[key] = c.lru.PushFront(item)

	var gone []eviction[T]
	for c.maxSize > 0 && c.lru.Len() > c.maxSize {
		oldest := c.lru.Back()
		c.removeElement(oldest)
		gone = append(gone, eviction[T]{oldest.Value.(*cacheItem[T]), EvictCapacity})
	}
	return gone
}

// Take removes key and returns its value if it was present and fresh.
func (c *LRUCache[T]) Take(key string) (T, bool) {
	c.mu.Lock()
	data, ok, gone := c.get(key)
	if ok {
		elem := c.items[key]
		c.removeElement(elem)
	}
	c.mu.Unlock()
	c.fire(gone)
	return data, ok
}

func (c *LRUCache[T]) removeElement(elem *list.Element) {
	item := elem.Value.(*cacheItem[T])
	delete(c.items, item.key)
	c.lru.Remove(elem)
}

func (c *LRUCache[T]) fire(gone []eviction[T]) {
	if c.onEvict == nil {
		return
	}
	for _, g := range gone {
		c.onEvict(g.item.key, g.item.data, g.reason)
	}
}

// CleanExpired removes all expired entries and returns count of removed items
func (c *LRUCache[T]) CleanExpired() int {
	c.mu.Lock()
	now := c.now()
	var gone []eviction[T]
	for elem := c.lru.Front(); elem != nil; {
		next := elem.Next()
		item := elem.Value.(*cacheItem[T])
		if now.After(item.expiresAt) {
			c.removeElement(elem)
			gone = append(gone, eviction[T]{item, EvictExpired})
		}
		elem = next
	}
	c.mu.Unlock()

	c.fire(gone)
	return len(gone)
}

// Size returns the current number of items in the cache
func (c *LRUCache[T]) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}
