package coastline

import (
	"container/list"
	"fmt"
	"sync"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// CollectionCache keeps parsed feature collections in memory with LRU
// eviction, so a viewer serving repeated viewport queries does not re-read
// and re-parse chunk files on every request.
//
// Memory accounting is approximate, based on feature and coordinate counts.
//
// Example:
//
//	cache := coastline.NewCollectionCache(256 * 1024 * 1024) // 256MB
//	fc, err := cache.Get("data/shoreline_puget.geojson", func() (*geojson.FeatureCollection, error) {
//	    return coastline.LoadCollection("data/shoreline_puget.geojson")
//	})
type CollectionCache struct {
	maxMemory  int64
	usedMemory int64
	entries    map[string]*cacheEntry
	lru        *list.List // most recent at front
	mu         sync.RWMutex
}

type cacheEntry struct {
	key          string
	collection   *geojson.FeatureCollection
	memorySize   int64
	element      *list.Element
	lastAccessed time.Time
	accessCount  int
}

// NewCollectionCache creates a cache with the specified memory limit in
// bytes. A limit of 0 disables eviction.
func NewCollectionCache(maxMemoryBytes int64) *CollectionCache {
	return &CollectionCache{
		maxMemory: maxMemoryBytes,
		entries:   make(map[string]*cacheEntry),
		lru:       list.New(),
	}
}

// Get retrieves a collection from cache or loads it with the provided
// loader function on a miss. Loaded collections are cached for future
// access, evicting least-recently-used entries as needed.
func (c *CollectionCache) Get(key string, loader func() (*geojson.FeatureCollection, error)) (*geojson.FeatureCollection, error) {
	c.mu.RLock()
	if entry, ok := c.entries[key]; ok {
		c.mu.RUnlock()

		c.mu.Lock()
		entry.lastAccessed = time.Now()
		entry.accessCount++
		c.lru.MoveToFront(entry.element)
		c.mu.Unlock()

		return entry.collection, nil
	}
	c.mu.RUnlock()

	fc, err := loader()
	if err != nil {
		return nil, fmt.Errorf("load collection: %w", err)
	}

	if err := c.Add(key, fc); err != nil {
		// Too large to cache; still return the loaded collection.
		return fc, nil
	}
	return fc, nil
}

// Add inserts a collection into the cache, evicting LRU entries to make
// room. Returns an error if the collection alone exceeds the memory limit.
func (c *CollectionCache) Add(key string, fc *geojson.FeatureCollection) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if entry, ok := c.entries[key]; ok {
		entry.collection = fc
		entry.lastAccessed = time.Now()
		entry.accessCount++
		c.lru.MoveToFront(entry.element)
		return nil
	}

	memSize := estimateCollectionMemory(fc)
	if c.maxMemory > 0 && memSize > c.maxMemory {
		return fmt.Errorf("collection too large for cache (%d bytes > %d bytes max)",
			memSize, c.maxMemory)
	}

	if c.maxMemory > 0 {
		for c.usedMemory+memSize > c.maxMemory && c.lru.Len() > 0 {
			c.evictLRU()
		}
	}

	entry := &cacheEntry{
		key:          key,
		collection:   fc,
		memorySize:   memSize,
		lastAccessed: time.Now(),
		accessCount:  1,
	}
	entry.element = c.lru.PushFront(entry)
	c.entries[key] = entry
	c.usedMemory += memSize

	return nil
}

// evictLRU removes the least recently used entry. Caller holds c.mu.
func (c *CollectionCache) evictLRU() {
	elem := c.lru.Back()
	if elem == nil {
		return
	}
	entry := elem.Value.(*cacheEntry)
	c.lru.Remove(elem)
	delete(c.entries, entry.key)
	c.usedMemory -= entry.memorySize
}

// Remove explicitly removes an entry from the cache.
func (c *CollectionCache) Remove(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if entry, ok := c.entries[key]; ok {
		c.lru.Remove(entry.element)
		delete(c.entries, key)
		c.usedMemory -= entry.memorySize
	}
}

// Clear removes all entries from the cache.
func (c *CollectionCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*cacheEntry)
	c.lru.Init()
	c.usedMemory = 0
}

// Stats returns cache statistics.
func (c *CollectionCache) Stats() CacheStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	totalAccess := 0
	for _, entry := range c.entries {
		totalAccess += entry.accessCount
	}

	return CacheStats{
		Collections: len(c.entries),
		UsedMemory:  c.usedMemory,
		MaxMemory:   c.maxMemory,
		TotalAccess: totalAccess,
	}
}

// CacheStats holds cache performance metrics.
type CacheStats struct {
	Collections int   // Number of collections currently cached
	UsedMemory  int64 // Estimated memory usage in bytes
	MaxMemory   int64 // Maximum memory limit in bytes
	TotalAccess int   // Total accesses across cached collections
}

// estimateCollectionMemory approximates the in-memory size of a parsed
// collection: a fixed overhead per feature plus 16 bytes per coordinate.
func estimateCollectionMemory(fc *geojson.FeatureCollection) int64 {
	if fc == nil {
		return 0
	}

	size := int64(1024)
	for _, feature := range fc.Features {
		size += 512
		if feature == nil || feature.Geometry == nil {
			continue
		}
		switch geom := feature.Geometry.(type) {
		case orb.Point:
			size += 16
		case orb.LineString:
			size += int64(len(geom)) * 16
		case orb.MultiLineString:
			for _, line := range geom {
				size += int64(len(line)) * 16
			}
		case orb.Polygon:
			for _, ring := range geom {
				size += int64(len(ring)) * 16
			}
		}
	}
	return size
}
