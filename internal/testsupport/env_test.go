package testsupport

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPostgresFromEnv(t *testing.T) {
	if testing.Short() {
		t.Skip("loader skips in short mode")
	}
	t.Setenv("POSTGRES_HOST", "localhost")
	t.Setenv("POSTGRES_USER", "user")
	t.Setenv("POSTGRES_PASSWORD", "pass")
	t.Setenv("POSTGRES_DB", "equitydesk_test")
	t.Setenv("POSTGRES_PORT", "5543")
	t.Setenv("POSTGRES_SSL_MODE", "")

	cfg := PostgresFromEnv(t)
	assert.Equal(t, "localhost", cfg.Host)
	assert.Equal(t, 5543, cfg.Port)
	assert.Equal(t, "disable", cfg.SSLMode)
	assert.True(t, cfg.Enabled())
}

func TestRedisFromEnvDefaults(t *testing.T) {
	if testing.Short() {
		t.Skip("loader skips in short mode")
	}
	t.Setenv("REDIS_HOST", "redis")
	t.Setenv("REDIS_PORT", "not-a-port")
	t.Setenv("REDIS_DB", "")

	cfg := RedisFromEnv(t)
	assert.Equal(t, "redis:6379", cfg.Addr())
	assert.Equal(t, 15, cfg.DB)
}

func TestKafkaBrokersFromEnv(t *testing.T) {
	if testing.Short() {
		t.Skip("loader skips in short mode")
	}
	t.Setenv("KAFKA_BROKERS", " kafka-1:9092, ,kafka-2:9092 ")

	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, KafkaBrokersFromEnv(t))
}
