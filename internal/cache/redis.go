package cache

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache stores occupancy snapshots in Redis as JSON under
// occupancy:<date>.  Entries carry a TTL so a lost invalidation only
// bounds staleness instead of pinning it forever.  Redis errors are
// treated as cache misses: the snapshot is rebuilt from the store and
// the service keeps answering.
type RedisCache struct {
	rdb    *redis.Client
	ttl    time.Duration
	prefix string
}

// NewRedisCache returns a Redis-backed occupancy cache.  The client
// must be non-nil; callers fall back to NewMemoryCache otherwise.
func NewRedisCache(rdb *redis.Client, ttl time.Duration, prefix string) *RedisCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if prefix == "" {
		prefix = "occupancy"
	}
	return &RedisCache{rdb: rdb, ttl: ttl, prefix: prefix}
}

func (c *RedisCache) key(date string) string { return c.prefix + ":" + date }

// GetOrBuild fetches the snapshot from Redis, or builds one and writes
// it back with the configured TTL.
func (c *RedisCache) GetOrBuild(ctx context.Context, date string, build BuildFunc) (Snapshot, error) {
	if raw, err := c.rdb.Get(ctx, c.key(date)).Bytes(); err == nil {
		var snap Snapshot
		if err := json.Unmarshal(raw, &snap); err == nil {
			return snap, nil
		}
		// Unreadable entry: drop it and rebuild below.
		_ = c.rdb.Del(ctx, c.key(date)).Err()
	}
	snap, err := build()
	if err != nil {
		return nil, err
	}
	raw, err := json.Marshal(snap)
	if err != nil {
		return nil, err
	}
	if err := c.rdb.Set(ctx, c.key(date), raw, c.ttl).Err(); err != nil {
		log.Printf("occupancy-cache: set %s failed: %v", date, err)
	}
	return snap, nil
}

// Invalidate deletes the Redis entry for the date.
func (c *RedisCache) Invalidate(ctx context.Context, date string) error {
	return c.rdb.Del(ctx, c.key(date)).Err()
}
