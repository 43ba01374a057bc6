package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisLimiter is a fixed-window limiter shared by every instance using the
// same Redis and key prefix. The counter for a window lives under
// "<prefix>:<window start unix>" and expires with the window.
// When Redis fails, calls are counted by the fallback limiter instead.
type RedisLimiter struct {
	rdb      *redis.Client
	limit    int64
	interval time.Duration
	prefix   string
	fallback Limiter
	now      func() time.Time
}

// NewRedisLimiter returns a shared limiter. An empty prefix defaults to "ratelimit:twelvedata".
func NewRedisLimiter(rdb *redis.Client, limit int, interval time.Duration, prefix string, fallback Limiter) *RedisLimiter {
	if prefix == "" {
		prefix = "ratelimit:twelvedata"
	}
	if fallback == nil {
		fallback = NewMemoryLimiter(limit, interval)
	}
	return &RedisLimiter{
		rdb:      rdb,
		limit:    int64(limit),
		interval: interval,
		prefix:   prefix,
		fallback: fallback,
		now:      time.Now,
	}
}

// Wait increments the shared counter for the current window and sleeps until
// the next window while the counter is over the limit.
func (l *RedisLimiter) Wait(ctx context.Context) error {
	for {
		now := l.now()
		window := now.Truncate(l.interval)
		key := l.windowKey(window)

		n, err := l.rdb.Incr(ctx, key).Result()
		if err != nil {
			slog.Warn("redis rate limiter unavailable, using local limiter", "error", err)
			return l.fallback.Wait(ctx)
		}
		if n == 1 {
			// 最初の呼び出しでウィンドウの有効期限を設定
			if err := l.rdb.Expire(ctx, key, l.interval).Err(); err != nil {
				slog.Warn("failed to set rate limit window expiry", "key", key, "error", err)
			}
		}
		if n <= l.limit {
			return nil
		}

		sleep := window.Add(l.interval).Sub(now)
		slog.Info("shared rate limit reached, waiting", "limit", l.limit, "sleep", sleep)
		if err := sleepCtx(ctx, sleep); err != nil {
			return err
		}
	}
}

func (l *RedisLimiter) windowKey(window time.Time) string {
	return fmt.Sprintf("%s:%d", l.prefix, window.Unix())
}
