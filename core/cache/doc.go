// Package cache provides a thread-safe, generic LRU cache with a hard capacity.
//
// LRUCache evicts the least recently used entry once the configured capacity
// is reached, so the cache never grows beyond capacity regardless of how many
// distinct keys callers insert. This makes it suitable for state keyed by
// attacker-influenced values, such as rate-limit counters keyed by client
// digests.
//
// # Usage
//
//	c := cache.NewLRUCache[string, *Counter](10_000)
//
//	c.Put("global:ab12", &Counter{})
//
//	if counter, found := c.Get("global:ab12"); found {
//		counter.Count++
//	}
//
//	c.Remove("global:ab12")
//
// # Eviction Callbacks
//
// A callback registered with SetEvictCallback runs for entries removed by
// capacity pressure (not for explicit Remove, RemoveFunc or Clear calls):
//
//	c.SetEvictCallback(func(key string, counter *Counter) {
//		evicted.Add(1)
//	})
//
// The callback runs while the cache lock is held and must not call back into
// the cache.
//
// # Bulk Removal
//
// RemoveFunc drops every entry for which the predicate returns true, which
// is how expired entries are swept in the background:
//
//	removed := c.RemoveFunc(func(_ string, counter *Counter) bool {
//		return now.After(counter.WindowEnd)
//	})
//
// # Performance Characteristics
//
// Get, Peek, Put and Remove are O(1). RemoveFunc is O(n). Memory is
// O(capacity). The implementation combines a hash map with a doubly-linked
// list.
package cache
