package coverage

import (
	"sync"
	"sync/atomic"

	"github.com/sells-group/coverage-cli/internal/arcgis"
)

// ResultCache holds the most recent completed batch per query target.
// A full BatchResult is inserted atomically; entries live until process
// exit. Writes are last-writer-wins per key.
type ResultCache struct {
	mu      sync.RWMutex
	entries map[string]BatchResult

	hits   atomic.Int64
	misses atomic.Int64
}

// CacheStats is a point-in-time snapshot of cache effectiveness.
type CacheStats struct {
	Hits    int64
	Misses  int64
	Entries int
}

// NewResultCache creates an empty cache.
func NewResultCache() *ResultCache {
	return &ResultCache{entries: make(map[string]BatchResult)}
}

// Get returns the cached batch for a target, if present.
func (c *ResultCache) Get(target arcgis.QueryTarget) (BatchResult, bool) {
	c.mu.RLock()
	result, ok := c.entries[target.CacheKey()]
	c.mu.RUnlock()

	if ok {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	return result, ok
}

// Put stores a completed batch for a target, replacing any prior entry.
func (c *ResultCache) Put(target arcgis.QueryTarget, result BatchResult) {
	c.mu.Lock()
	c.entries[target.CacheKey()] = result
	c.mu.Unlock()
}

// Stats returns hit/miss counters and the current entry count.
func (c *ResultCache) Stats() CacheStats {
	c.mu.RLock()
	entries := len(c.entries)
	c.mu.RUnlock()

	return CacheStats{
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
		Entries: entries,
	}
}
