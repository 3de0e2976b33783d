// Package detectcache is the process-wide detection-result cache: keyed by
// table.column, safe for concurrent read/write, and flushed whenever
// detection configuration changes. Callers hold an explicit handle
// (*Cache) rather than reaching for ambient package-level state.
package detectcache

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/neurondb/NeuronIP/api/internal/piimodel"
)

type entry struct {
	result       piimodel.DetectionResult
	configStamp  string
	lastAccessed time.Time
}

/* Cache holds one DetectionResult per "table.column" key, stamped with the
detection config fingerprint that produced it so a config change can be
detected lazily even before an explicit InvalidateAll. */
type Cache struct {
	mu      sync.RWMutex
	items   map[string]*entry
	maxSize int

	hits   atomic.Int64
	misses atomic.Int64
}

/* Init constructs an empty cache bounded to maxSize entries (0 = unbounded). */
func Init(maxSize int) *Cache {
	return &Cache{
		items:   make(map[string]*entry),
		maxSize: maxSize,
	}
}

/* Get returns the cached result for key if present and stamped with the
current configStamp. A stamp mismatch is treated as a miss, so a config
change invalidates results lazily even without an explicit InvalidateAll. */
func (c *Cache) Get(key, configStamp string) (piimodel.DetectionResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.items[key]
	if !ok || e.configStamp != configStamp {
		c.misses.Add(1)
		return piimodel.DetectionResult{}, false
	}
	e.lastAccessed = time.Now()
	c.hits.Add(1)
	return e.result, true
}

/* HitRatio reports hits / (hits + misses) observed since the cache was
created or last reset by InvalidateAll. Returns 0 if Get has never been
called. */
func (c *Cache) HitRatio() float64 {
	hits := c.hits.Load()
	total := hits + c.misses.Load()
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}

/* Put stores result under key, stamped with the detection config that
produced it. */
func (c *Cache) Put(key, configStamp string, result piimodel.DetectionResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.maxSize > 0 && len(c.items) >= c.maxSize {
		if _, exists := c.items[key]; !exists {
			c.evictLRU()
		}
	}

	c.items[key] = &entry{
		result:       result,
		configStamp:  configStamp,
		lastAccessed: time.Now(),
	}
}

func (c *Cache) evictLRU() {
	var lruKey string
	var lruTime time.Time
	first := true
	for k, e := range c.items {
		if first || e.lastAccessed.Before(lruTime) {
			lruKey, lruTime, first = k, e.lastAccessed, false
		}
	}
	if lruKey != "" {
		delete(c.items, lruKey)
	}
}

/* InvalidateAll drops every cached entry. Called when detection
configuration changes . */
func (c *Cache) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[string]*entry)
	c.hits.Store(0)
	c.misses.Store(0)
}

/* Size reports the current entry count. */
func (c *Cache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

/* Close releases the cache's entries. No background goroutine is started by
Init, so there is nothing else to stop. */
func (c *Cache) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = nil
}
