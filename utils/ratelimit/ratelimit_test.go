package ratelimit

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// setupTestRedis creates a miniredis instance for testing
func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() { client.Close() })

	return client, mr
}

func TestWindowLimiter_Allow(t *testing.T) {
	client, _ := setupTestRedis(t)
	limiter := NewWindowLimiter(client, zap.NewNop(), false)

	ctx := context.Background()
	key := "ip:192.0.2.1"
	limit := 5
	window := time.Minute

	for i := range limit {
		allowed, err := limiter.Allow(ctx, key, limit, window)
		assert.NoError(t, err)
		assert.True(t, allowed, "request %d should be allowed", i+1)
	}

	allowed, err := limiter.Allow(ctx, key, limit, window)
	assert.NoError(t, err)
	assert.False(t, allowed, "request should be denied after limit exceeded")
}

func TestWindowLimiter_AllowN(t *testing.T) {
	client, _ := setupTestRedis(t)
	limiter := NewWindowLimiter(client, zap.NewNop(), false)

	ctx := context.Background()
	key := "ip:192.0.2.2"
	limit := 10
	window := time.Minute

	allowed, err := limiter.AllowN(ctx, key, 8, limit, window)
	assert.NoError(t, err)
	assert.True(t, allowed)

	allowed, err = limiter.AllowN(ctx, key, 3, limit, window)
	assert.NoError(t, err)
	assert.False(t, allowed)
}

func TestWindowLimiter_KeysIndependent(t *testing.T) {
	client, _ := setupTestRedis(t)
	limiter := NewWindowLimiter(client, zap.NewNop(), false)

	ctx := context.Background()
	window := time.Minute

	allowed, err := limiter.AllowN(ctx, "ip:a", 5, 5, window)
	require.NoError(t, err)
	require.True(t, allowed)

	// 另一个 IP 不受影响
	allowed, err = limiter.Allow(ctx, "ip:b", 5, window)
	assert.NoError(t, err)
	assert.True(t, allowed)
}

func TestWindowLimiter_FailOpen(t *testing.T) {
	client, mr := setupTestRedis(t)
	mr.Close()

	t.Run("fail-open allows when redis is down", func(t *testing.T) {
		limiter := NewWindowLimiter(client, zap.NewNop(), true)
		allowed, err := limiter.Allow(context.Background(), "ip:x", 1, time.Minute)
		assert.NoError(t, err)
		assert.True(t, allowed)
	})

	t.Run("fail-closed surfaces the error", func(t *testing.T) {
		limiter := NewWindowLimiter(client, zap.NewNop(), false)
		_, err := limiter.Allow(context.Background(), "ip:x", 1, time.Minute)
		assert.Error(t, err)
	})
}
