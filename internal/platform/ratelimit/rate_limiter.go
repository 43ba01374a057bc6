// Package ratelimit keeps calls to the market-data provider under its per-minute quota.
package ratelimit

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Limiter blocks until one more call is allowed or ctx is done.
type Limiter interface {
	Wait(ctx context.Context) error
}

// MemoryLimiter is a fixed-window limiter local to the process.
type MemoryLimiter struct {
	mu        sync.Mutex
	limit     int           // 1 window あたりの上限
	interval  time.Duration // どの単位でリセットするか
	count     int
	lastReset time.Time
	now       func() time.Time
}

// NewMemoryLimiter returns a limiter allowing limit calls per interval.
func NewMemoryLimiter(limit int, interval time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		limit:     limit,
		interval:  interval,
		lastReset: time.Now(),
		now:       time.Now,
	}
}

// Wait reserves a slot in the current window, sleeping until the next window
// when the current one is full.
func (rl *MemoryLimiter) Wait(ctx context.Context) error {
	for {
		sleep := rl.reserve()
		if sleep <= 0 {
			return nil
		}
		slog.Info("rate limit reached, waiting", "limit", rl.limit, "sleep", sleep)
		if err := sleepCtx(ctx, sleep); err != nil {
			return err
		}
	}
}

// reserve counts the call and returns 0, or returns how long to wait.
func (rl *MemoryLimiter) reserve() time.Duration {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	// interval を過ぎたらカウントリセット
	if now.Sub(rl.lastReset) >= rl.interval {
		rl.count = 0
		rl.lastReset = now
	}
	if rl.count < rl.limit {
		rl.count++
		return 0
	}
	return rl.interval - now.Sub(rl.lastReset)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
