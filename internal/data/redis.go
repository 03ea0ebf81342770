package data

import (
	"context"
	"time"

	json "github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// RedisCache shares TMY data between API replicas. Read and write failures are
// logged and treated as misses so an unavailable Redis never fails a request.
type RedisCache struct {
	redis  *redis.Client
	ttl    time.Duration
	prefix string
}

func NewRedisCache(opts *redis.Options, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisCache{
		redis:  redis.NewClient(opts),
		ttl:    ttl,
		prefix: "pvconf:tmy:",
	}
}

func (c *RedisCache) Get(ctx context.Context, key string) (*TMY, bool) {
	raw, err := c.redis.Get(ctx, c.prefix+key).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		log.Warn().Str("component", "tmy_cache").Err(err).Msg("redis get failed")
		return nil, false
	}
	var tmy TMY
	if err := json.Unmarshal(raw, &tmy); err != nil {
		log.Warn().Str("component", "tmy_cache").Err(err).Msg("discarding undecodable cache entry")
		return nil, false
	}
	return &tmy, true
}

func (c *RedisCache) Set(ctx context.Context, key string, tmy *TMY) {
	if tmy == nil {
		return
	}
	raw, err := json.Marshal(tmy)
	if err != nil {
		log.Warn().Str("component", "tmy_cache").Err(err).Msg("encode failed")
		return
	}
	if err := c.redis.Set(ctx, c.prefix+key, raw, c.ttl).Err(); err != nil {
		log.Warn().Str("component", "tmy_cache").Err(err).Msg("redis set failed")
	}
}

// Ping checks connectivity, used at startup to decide whether to fall back to the
// in-memory cache.
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.redis.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.redis.Close()
}
