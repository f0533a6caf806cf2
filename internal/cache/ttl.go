package cache

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// TTLCache is a best-effort JSON cache. Misses and backend errors look the
// same to callers; writes that fail are logged and dropped.
type TTLCache struct {
	client *redis.Client
}

func NewTTLCache(client *redis.Client) *TTLCache {
	return &TTLCache{client: client}
}

func (c *TTLCache) GetJSON(ctx context.Context, key string, dest any) bool {
	if c == nil || c.client == nil {
		return false
	}
	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		log.Printf("cache: dropping unreadable entry %s: %v", key, err)
		return false
	}
	return true
}

func (c *TTLCache) SetJSON(ctx context.Context, key string, v any, ttl time.Duration) {
	if c == nil || c.client == nil {
		return
	}
	raw, err := json.Marshal(v)
	if err != nil {
		log.Printf("cache: failed to marshal %s: %v", key, err)
		return
	}
	if err := c.client.Set(ctx, key, raw, ttl).Err(); err != nil {
		log.Printf("cache: failed to set %s: %v", key, err)
	}
}
