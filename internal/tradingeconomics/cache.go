package tradingeconomics

import (
	"sync"
	"time"
)

// DefaultCacheTTL is how long a fetched calendar payload is reused.
const DefaultCacheTTL = time.Hour

// Cache stores raw calendar payloads keyed by requested date range.
type Cache interface {
	Get(key string) ([]Record, bool)
	Set(key string, records []Record)
}

// cacheEntry holds one payload and the time it was stored.
type cacheEntry struct {
	records  []Record
	storedAt time.Time
}

// MemoryCache is an in-process Cache with a fixed time-to-live.
type MemoryCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]cacheEntry
}

// NewMemoryCache creates a MemoryCache. A non-positive ttl selects
// DefaultCacheTTL; a nil now selects time.Now.
func NewMemoryCache(ttl time.Duration, now func() time.Time) *MemoryCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if now == nil {
		now = time.Now
	}
	return &MemoryCache{
		ttl:     ttl,
		now:     now,
		entries: make(map[string]cacheEntry),
	}
}

func (c *MemoryCache) Get(key string) ([]Record, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.now().Sub(e.storedAt) >= c.ttl {
		delete(c.entries, key)
		return nil, false
	}
	return e.records, true
}

func (c *MemoryCache) Set(key string, records []Record) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{records: records, storedAt: c.now()}
}

// storedAt reports when key was last stored.
func (c *MemoryCache) storedAt(key string) (time.Time, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	return e.storedAt, ok
}

// rangeKey is the cache key for a requested date range.
func rangeKey(start, end string) string {
	return start + "/" + end
}
