package lutkit

import (
	"container/list"
	"sync"
)

const (
	cacheMinBytes = 8 << 20
	cacheMaxBytes = 64 << 20
	// Fraction of the host memory class granted to the cache, mirroring the
	// mobile deployment this engine came from.
	cacheMemoryDivisor = 8
)

// Cache is a bounded, memory-aware LRU cache of decoded LUTs. All operations
// are serialized behind a single mutex; lookups return the shared *Lut, never
// a copy, so eviction can never invalidate a table an in-flight Apply call is
// reading.
type Cache struct {
	mu        sync.Mutex
	capacity  int
	size      int
	ll        *list.List // front is most recently used
	items     map[string]*list.Element
	hits      uint64
	misses    uint64
	evictions uint64
}

type cacheEntry struct {
	key  string
	lut  *Lut
	size int
}

// CacheStats is a snapshot of the diagnostic counters.
type CacheStats struct {
	Hits      uint64
	Misses    uint64
	Evictions uint64
	Entries   int
	SizeBytes int
	Capacity  int
}

// NewCache sizes a cache from the host memory-class hint in megabytes
// (zero or negative hints get the minimum). Capacity is hint/8, clamped to
// the 8-64 MB range, and fixed for the cache's lifetime.
func NewCache(memoryClassMB int) *Cache {
	capacity := (memoryClassMB << 20) / cacheMemoryDivisor
	if capacity < cacheMinBytes {
		capacity = cacheMinBytes
	}
	if capacity > cacheMaxBytes {
		capacity = cacheMaxBytes
	}
	return &Cache{
		capacity: capacity,
		ll:       list.New(),
		items:    make(map[string]*list.Element),
	}
}

// Get returns the cached LUT for key, marking it most recently used.
func (c *Cache) Get(key string) (*Lut, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		c.misses++
		return nil, false
	}
	c.hits++
	c.ll.MoveToFront(el)
	return el.Value.(*cacheEntry).lut, true
}

// Put stores a decoded LUT, evicting least-recently-used entries until the
// total size fits the capacity. A LUT larger than the whole cache is not
// stored. Put never fails.
func (c *Cache) Put(key string, l *Lut) {
	if !l.valid() {
		return
	}
	size := l.SizeBytes()
	if size > c.capacity {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		e := el.Value.(*cacheEntry)
		c.size += size - e.size
		e.lut, e.size = l, size
		c.ll.MoveToFront(el)
	} else {
		c.items[key] = c.ll.PushFront(&cacheEntry{key: key, lut: l, size: size})
		c.size += size
	}
	c.evictTo(c.capacity)
}

// Trim evicts least-recently-used entries until the total size is at most
// capacity*(1-fraction). Trim(1) clears everything. Safe to call concurrently
// with Get/Put; evicted LUTs stay alive for any caller still holding them.
func (c *Cache) Trim(fraction float32) {
	fraction = clamp01(fraction)
	target := int(float64(c.capacity) * float64(1-fraction))

	c.mu.Lock()
	defer c.mu.Unlock()
	c.evictTo(target)
}

// Clear drops every entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.evictTo(0)
}

// Stats returns a snapshot of the hit/miss/eviction counters and occupancy.
func (c *Cache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return CacheStats{
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
		Entries:   len(c.items),
		SizeBytes: c.size,
		Capacity:  c.capacity,
	}
}

// evictTo drops LRU entries until size <= target. Caller holds the lock.
func (c *Cache) evictTo(target int) {
	for c.size > target {
		el := c.ll.Back()
		if el == nil {
			return
		}
		e := el.Value.(*cacheEntry)
		c.ll.Remove(el)
		delete(c.items, e.key)
		c.size -= e.size
		c.evictions++
	}
}
