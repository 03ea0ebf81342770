package data

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheKeyRounding(t *testing.T) {
	assert.Equal(t, CacheKey(51.92231, 4.46971), CacheKey(51.922312, 4.469708))
	assert.NotEqual(t, CacheKey(51.9223, 4.4697), CacheKey(51.9224, 4.4697))
	assert.NotEqual(t, CacheKey(10, 20), CacheKey(20, 10))
	assert.Equal(t, CacheKey(0, 0), CacheKey(-0.00001, 0.00001))
}

func TestMemoryCacheExpiry(t *testing.T) {
	c := NewMemoryCache(time.Hour)
	defer c.Close()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	ctx := context.Background()
	tmy := &TMY{ElevationM: 12}
	c.Set(ctx, "k", tmy)

	got, ok := c.Get(ctx, "k")
	require.True(t, ok)
	assert.Same(t, tmy, got)

	now = now.Add(2 * time.Hour)
	_, ok = c.Get(ctx, "k")
	assert.False(t, ok)

	c.evictExpired()
	assert.Equal(t, 0, c.Len())
}

func TestMemoryCacheNilSafe(t *testing.T) {
	var c *MemoryCache
	_, ok := c.Get(context.Background(), "k")
	assert.False(t, ok)
	c.Set(context.Background(), "k", &TMY{})
	c.Clear()
}

func TestRedisCacheUnavailableIsMiss(t *testing.T) {
	c := NewRedisCache(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	}, time.Hour)
	defer c.Close()

	ctx := context.Background()
	c.Set(ctx, "k", &TMY{ElevationM: 1})
	_, ok := c.Get(ctx, "k")
	assert.False(t, ok)
	assert.Error(t, c.Ping(ctx))
}
