package infrastructure

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const availabilityKey = "mesaya:availability"

// RedisSnapshotCache publishes availability snapshots for the read-only
// consoles. A nil client disables caching; the engine works without it.
type RedisSnapshotCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisSnapshotCache(client *redis.Client, ttl time.Duration) *RedisSnapshotCache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &RedisSnapshotCache{client: client, ttl: ttl}
}

func (c *RedisSnapshotCache) StoreSnapshot(ctx context.Context, snapshot any) error {
	if c == nil || c.client == nil {
		return nil
	}
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("marshal availability snapshot: %w", err)
	}
	if err := c.client.Set(ctx, availabilityKey, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache availability snapshot: %w", err)
	}
	return nil
}
