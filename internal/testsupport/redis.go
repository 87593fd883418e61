package testsupport

import (
	"context"
	"testing"

	"github.com/redis/go-redis/v9"

	"equitydesk/internal/adapters/config"
)

// NewRedisClient connects to the cache database from cfg and flushes it
// before and after the test. Point REDIS_DB at a scratch database.
func NewRedisClient(t *testing.T, cfg config.RedisConfig) *redis.Client {
	t.Helper()

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		t.Fatalf("redis unavailable at %s: %v", cfg.Addr(), err)
	}
	if err := client.FlushDB(ctx).Err(); err != nil {
		t.Fatalf("flush redis db %d: %v", cfg.DB, err)
	}

	t.Cleanup(func() {
		_ = client.FlushDB(context.Background()).Err()
		_ = client.Close()
	})
	return client
}

// NewTestRedis is NewRedisClient with configuration from the environment
func NewTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	return NewRedisClient(t, RedisFromEnv(t))
}
