package cache

import (
	"context"
	"log"
	"os"
	"strings"

	"github.com/redis/go-redis/v9"
)

var Client *redis.Client

var (
	dialRedis = func(opts *redis.Options) *redis.Client {
		return redis.NewClient(opts)
	}
	pingRedis = func(ctx context.Context, client *redis.Client) error {
		return client.Ping(ctx).Err()
	}
	parseRedisURL = redis.ParseURL
)

// InitRedis connects the shared client. REDIS_URL may be a bare host:port or
// a redis:// URL; an unreachable server is fatal because every collector read
// goes through the cache first.
func InitRedis(ctx context.Context) {
	target := os.Getenv("REDIS_URL")
	if target == "" {
		target = "localhost:6379"
	}

	opts := &redis.Options{Addr: target}
	if strings.Contains(target, "://") {
		parsed, err := parseRedisURL(target)
		if err != nil {
			log.Fatalf("redis: cannot parse REDIS_URL %q: %v", target, err)
		}
		opts = parsed
	}

	Client = dialRedis(opts)
	if err := pingRedis(ctx, Client); err != nil {
		log.Fatalf("redis: ping %s failed: %v", opts.Addr, err)
	}
	log.Printf("redis: connected to %s", opts.Addr)
}
