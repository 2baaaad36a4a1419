package cache

import (
	"container/list"
	"sync"
)

// entry is the value stored in each list element.
type entry[K comparable, V any] struct {
	key   K
	value V
}

// LRUCache is a fixed-capacity cache that evicts the least recently used entry.
type LRUCache[K comparable, V any] struct {
	mu       sync.Mutex
	capacity int
	items    map[K]*list.Element
	order    *list.List // front is most recently used
	onEvict  func(K, V)
}

// NewLRUCache creates a cache holding at most capacity entries.
// A capacity below 1 is treated as 1.
func NewLRUCache[K comparable, V any](capacity int) *LRUCache[K, V] {
	if capacity < 1 {
		capacity = 1
	}
	return &LRUCache[K, V]{
		capacity: capacity,
		items:    make(map[K]*list.Element, capacity),
		order:    list.New(),
	}
}

// SetEvictCallback registers fn to be called for entries evicted by capacity pressure.
func (c *LRUCache[K, V]) SetEvictCallback(fn func(key K, value V)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onEvict = fn
}

// Get returns the value for key and marks it as most recently used.
func (c *LRUCache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		var zero V
		return zero, false
	}
	c.order.MoveToFront(el)
	return el.Value.(*entry[K, V]).value, true
}

// Peek returns the value for key without updating its recency.
func (c *LRUCache[K, V]) Peek(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		var zero V
		return zero, false
	}
	return el.Value.(*entry[K, V]).value, true
}

// Put stores value under key, marking it as most recently used.
// It reports whether an older entry was evicted to make room.
func (c *LRUCache[K, V]) Put(key K, value V) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		el.Value.(*entry[K, V]).value = value
		c.order.MoveToFront(el)
		return false
	}

	c.items[key] = c.order.PushFront(&entry[K, V]{key: key, value: value})

	if c.order.Len() <= c.capacity {
		return false
	}

	oldest := c.order.Back()
	c.order.Remove(oldest)
	e := oldest.Value.(*entry[K, V])
	delete(c.items, e.key)
	if c.onEvict != nil {
		c.onEvict(e.key, e.value)
	}
	return true
}

// Remove deletes key and returns its value if it was present.
func (c *LRUCache[K, V]) Remove(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		var zero V
		return zero, false
	}
	c.order.Remove(el)
	delete(c.items, key)
	return el.Value.(*entry[K, V]).value, true
}

// RemoveFunc deletes every entry for which fn returns true and returns the number removed.
func (c *LRUCache[K, V]) RemoveFunc(fn func(key K, value V) bool) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for el := c.order.Front(); el != nil; {
		next := el.Next()
		e := el.Value.(*entry[K, V])
		if fn(e.key, e.value) {
			c.order.Remove(el)
			delete(c.items, e.key)
			removed++
		}
		el = next
	}
	return removed
}

// Len returns the number of entries currently cached.
func (c *LRUCache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Capacity returns the maximum number of entries.
func (c *LRUCache[K, V]) Capacity() int {
	return c.capacity
}

// Clear removes all entries without invoking the eviction callback.
func (c *LRUCache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[K]*list.Element, c.capacity)
	c.order.Init()
}
