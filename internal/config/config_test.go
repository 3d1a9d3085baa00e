package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadRateLimitConfigDefaults(t *testing.T) {
	c := LoadRateLimitConfig()
	assert.True(t, c.Enabled)
	assert.Equal(t, 60, c.Capacity)
	assert.Equal(t, "rl", c.Prefix)
	assert.GreaterOrEqual(t, c.TTL, 5*c.RefillInterval)
}

func TestLoadPublicRateLimitConfigOverrides(t *testing.T) {
	t.Setenv("PUBLIC_RATE_LIMIT_BURST", "3")
	t.Setenv("PUBLIC_RATE_LIMIT_REFILL_EVERY", "1m")
	t.Setenv("PUBLIC_RATE_LIMIT_TTL", "1s")

	c := LoadPublicRateLimitConfig()
	assert.Equal(t, 3, c.Capacity)
	assert.Equal(t, 1, c.RefillTokens)
	assert.Equal(t, time.Minute, c.RefillInterval)
	assert.Equal(t, 5*time.Minute, c.TTL)
	assert.Equal(t, "ip_route", c.KeyStrategy)
}

func TestLoadStorageConfigFallsBackToLocal(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "s3")
	t.Setenv("AWS_S3_BUCKET", "")
	assert.Equal(t, "local", LoadStorageConfig().Driver)

	t.Setenv("AWS_S3_BUCKET", "docs")
	assert.Equal(t, "s3", LoadStorageConfig().Driver)
}

func TestLoadNotifyConfigPicksDriver(t *testing.T) {
	t.Setenv("RABBITMQ_URL", "")
	t.Setenv("AMQP_URL", "")
	assert.Equal(t, "log", LoadNotifyConfig().Driver)

	t.Setenv("RABBITMQ_URL", "amqp://u:p@broker:5672/")
	c := LoadNotifyConfig()
	assert.Equal(t, "amqp", c.Driver)
	assert.Equal(t, "amqp://u:p@broker:5672/", c.RabbitMQURL)
}

func TestLoadCacheConfig(t *testing.T) {
	t.Setenv("CACHE_METHODS", "get, head")
	c := LoadCacheConfig()
	assert.True(t, c.Methods["GET"])
	assert.True(t, c.Methods["HEAD"])
	assert.False(t, c.Methods["POST"])
}

func TestPositiveDur(t *testing.T) {
	t.Setenv("CLEANUP_INTERVAL", "")
	d, err := positiveDur("CLEANUP_INTERVAL", time.Hour)
	assert.NoError(t, err)
	assert.Equal(t, time.Hour, d)

	t.Setenv("CLEANUP_INTERVAL", "30m")
	d, err = positiveDur("CLEANUP_INTERVAL", time.Hour)
	assert.NoError(t, err)
	assert.Equal(t, 30*time.Minute, d)

	for _, bad := range []string{"0s", "-5m", "soon"} {
		t.Setenv("CLEANUP_INTERVAL", bad)
		_, err = positiveDur("CLEANUP_INTERVAL", time.Hour)
		assert.Error(t, err, bad)
	}
}
