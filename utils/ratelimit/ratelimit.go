package ratelimit

import (
	"context"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Limiter checks whether a request should be allowed under a fixed window.
type Limiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
	AllowN(ctx context.Context, key string, n int, limit int, window time.Duration) (bool, error)
}

// WindowLimiter counts requests per key in fixed Redis windows. Counters
// live alongside the chat data, so limits hold across instances.
type WindowLimiter struct {
	redisClient *redis.Client
	logger      *zap.Logger
	failOpen    bool
}

// NewWindowLimiter creates a limiter. When failOpen is true, requests are
// allowed if Redis is unreachable; chat availability beats strict limits.
func NewWindowLimiter(redisClient *redis.Client, logger *zap.Logger, failOpen bool) *WindowLimiter {
	return &WindowLimiter{
		redisClient: redisClient,
		logger:      logger,
		failOpen:    failOpen,
	}
}

func (l *WindowLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	return l.AllowN(ctx, key, 1, limit, window)
}

func (l *WindowLimiter) AllowN(ctx context.Context, key string, n int, limit int, window time.Duration) (bool, error) {
	now := time.Now()
	bucketKey := l.getBucketKey(key, now, window)

	pipe := l.redisClient.Pipeline()
	incrCmd := pipe.IncrBy(ctx, bucketKey, int64(n))
	// 窗口边界上多留一秒，避免计数键比窗口先过期
	pipe.Expire(ctx, bucketKey, window+time.Second)

	if _, err := pipe.Exec(ctx); err != nil {
		if l.failOpen {
			l.logger.Warn("rate limit check failed, allowing request (fail-open)",
				zap.String("key", key),
				zap.Error(err),
			)
			return true, nil
		}
		return false, fmt.Errorf("rate limit check failed: %w", err)
	}

	count := incrCmd.Val()
	allowed := count <= int64(limit)
	if !allowed {
		l.logger.Warn("rate limit exceeded",
			zap.String("key", key),
			zap.Int64("count", count),
			zap.Int("limit", limit),
			zap.Duration("window", window),
		)
	}
	return allowed, nil
}

// getBucketKey aligns the counter key to the start of the current window.
func (l *WindowLimiter) getBucketKey(key string, now time.Time, window time.Duration) string {
	windowStart := now.Truncate(window).Unix()
	return fmt.Sprintf("ratelimit:%s:%d", key, windowStart)
}
