package source

import (
	"container/list"
	"fmt"
	"sync"
	"time"

	"github.com/calspread/screener/internal/contracts"
	"github.com/calspread/screener/pkg/logger"
)

// RecordCache is an in-memory TTL cache for market records with LRU
// capacity eviction, shared across providers.
// ⭐ SSOT: record caching happens only in this struct
type RecordCache struct {
	mu       sync.Mutex
	entries  map[string]*cacheEntry
	order    *list.List // front = most recently used
	ttl      time.Duration
	capacity int
	logger   *logger.Logger
}

type cacheEntry struct {
	key       string
	record    *contracts.MarketRecord
	expiresAt time.Time
	elem      *list.Element
}

// CacheKey builds the cache key for one provider/symbol/period triple
func CacheKey(provider, symbol string, period contracts.Period) string {
	return fmt.Sprintf("%s|%s|%s", provider, symbol, period)
}

// NewRecordCache creates a new record cache
func NewRecordCache(ttl time.Duration, capacity int, log *logger.Logger) *RecordCache {
	if capacity < 1 {
		capacity = 1
	}
	return &RecordCache{
		entries:  make(map[string]*cacheEntry),
		order:    list.New(),
		ttl:      ttl,
		capacity: capacity,
		logger:   log,
	}
}

// Get returns the cached record for key if present and not expired
func (c *RecordCache) Get(key string) (*contracts.MarketRecord, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}

	if time.Now().After(e.expiresAt) {
		c.remove(e)
		c.logger.WithField("key", key).Debug("Cache entry expired")
		return nil, false
	}

	c.order.MoveToFront(e.elem)
	return e.record, true
}

// Put stores a record under key, replacing any previous entry wholesale.
// The least recently used entry is evicted when the cache is full.
func (c *RecordCache) Put(key string, rec *contracts.MarketRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.record = rec
		e.expiresAt = time.Now().Add(c.ttl)
		c.order.MoveToFront(e.elem)
		return
	}

	for len(c.entries) >= c.capacity {
		oldest := c.order.Back()
		if oldest == nil {
			break
		}
		evicted := oldest.Value.(*cacheEntry)
		c.remove(evicted)
		c.logger.WithField("key", evicted.key).Debug("Evicted LRU cache entry")
	}

	e := &cacheEntry{
		key:       key,
		record:    rec,
		expiresAt: time.Now().Add(c.ttl),
	}
	e.elem = c.order.PushFront(e)
	c.entries[key] = e
}

// remove deletes an entry. Caller holds the lock.
func (c *RecordCache) remove(e *cacheEntry) {
	c.order.Remove(e.elem)
	delete(c.entries, e.key)
}

// Len returns the number of cached entries, expired included
func (c *RecordCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// PurgeExpired drops expired entries and returns how many were removed
func (c *RecordCache) PurgeExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	count := 0
	for _, e := range c.entries {
		if now.After(e.expiresAt) {
			c.remove(e)
			count++
		}
	}

	if count > 0 {
		c.logger.WithField("count", count).Info("Purged expired cache entries")
	}
	return count
}

// Clear drops every entry
func (c *RecordCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*cacheEntry)
	c.order.Init()
	c.logger.Info("Cleared record cache")
}
