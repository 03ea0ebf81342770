package data

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"sync"
	"time"
)

// TMYCache stores fetched TMY data by coordinate key. Implementations must be safe
// for concurrent use and treat a failed read as a miss.
type TMYCache interface {
	Get(ctx context.Context, key string) (*TMY, bool)
	Set(ctx context.Context, key string, tmy *TMY)
}

// CacheEntry is one cached TMY.
type CacheEntry struct {
	TMY       *TMY
	ExpiresAt time.Time
}

// MemoryCache keeps TMY data in process memory.
type MemoryCache struct {
	mu    sync.RWMutex
	store map[string]*CacheEntry
	ttl   time.Duration
	now   func() time.Time
	stop  chan struct{}
	once  sync.Once
}

// NewMemoryCache creates a cache whose entries expire after ttl and starts the
// cleanup goroutine. Call Close to stop it.
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	c := &MemoryCache{
		store: make(map[string]*CacheEntry),
		ttl:   ttl,
		now:   time.Now,
		stop:  make(chan struct{}),
	}
	go c.cleanup(5 * time.Minute)
	return c
}

// Get retrieves a cached TMY if available and not expired
func (c *MemoryCache) Get(_ context.Context, key string) (*TMY, bool) {
	if c == nil {
		return nil, false
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, exists := c.store[key]
	if !exists {
		return nil, false
	}
	if c.now().After(entry.ExpiresAt) {
		return nil, false
	}
	return entry.TMY, true
}

// Set stores a TMY in the cache
func (c *MemoryCache) Set(_ context.Context, key string, tmy *TMY) {
	if c == nil || tmy == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.store[key] = &CacheEntry{
		TMY:       tmy,
		ExpiresAt: c.now().Add(c.ttl),
	}
}

// Len returns the number of stored entries, expired or not.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.store)
}

// Clear removes all entries from the cache
func (c *MemoryCache) Clear() {
	if c == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.store = make(map[string]*CacheEntry)
}

func (c *MemoryCache) Close() {
	c.once.Do(func() { close(c.stop) })
}

// cleanup periodically removes expired entries
func (c *MemoryCache) cleanup(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.evictExpired()
		}
	}
}

func (c *MemoryCache) evictExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	for key, entry := range c.store {
		if now.After(entry.ExpiresAt) {
			delete(c.store, key)
		}
	}
}

// CacheKey builds the cache key for a coordinate. Coordinates are rounded to four
// decimals (about 11 m) so that only requests for the same spot share an entry.
func CacheKey(lat, lon float64) string {
	keyStr := fmt.Sprintf("tmy:%.4f:%.4f", roundCoord(lat), roundCoord(lon))
	hash := sha256.Sum256([]byte(keyStr))
	return hex.EncodeToString(hash[:])
}

func roundCoord(v float64) float64 {
	// +0 folds -0 into 0 so that both hemispheres' zero share a key.
	return math.Round(v*1e4)/1e4 + 0
}
