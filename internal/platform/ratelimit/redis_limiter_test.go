package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
)

type countingLimiter struct {
	calls int
	err   error
}

func (c *countingLimiter) Wait(ctx context.Context) error {
	c.calls++
	return c.err
}

var fixedNow = time.Date(2024, 1, 8, 14, 30, 15, 0, time.UTC)

func newTestRedisLimiter(t *testing.T, limit int, fallback Limiter) (*RedisLimiter, redismock.ClientMock) {
	t.Helper()

	rdb, mock := redismock.NewClientMock()
	t.Cleanup(func() { _ = rdb.Close() })

	l := NewRedisLimiter(rdb, limit, time.Minute, "", fallback)
	l.now = func() time.Time { return fixedNow }
	return l, mock
}

// TestRedisLimiter_FirstCallSetsExpiry はウィンドウ最初の呼び出しでキーに有効期限が設定されることを検証します。
func TestRedisLimiter_FirstCallSetsExpiry(t *testing.T) {
	t.Parallel()

	l, mock := newTestRedisLimiter(t, 8, nil)
	key := "ratelimit:twelvedata:1704724200"

	mock.ExpectIncr(key).SetVal(1)
	mock.ExpectExpire(key, time.Minute).SetVal(true)

	if err := l.Wait(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled mock expectations: %v", err)
	}
}

// TestRedisLimiter_UnderLimit は上限以下のカウントでは有効期限を再設定せずに許可されることを検証します。
func TestRedisLimiter_UnderLimit(t *testing.T) {
	t.Parallel()

	l, mock := newTestRedisLimiter(t, 8, nil)
	mock.ExpectIncr("ratelimit:twelvedata:1704724200").SetVal(8)

	if err := l.Wait(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled mock expectations: %v", err)
	}
}

// TestRedisLimiter_OverLimitWaits は上限を超えた場合に次のウィンドウまで待機することを検証します。
func TestRedisLimiter_OverLimitWaits(t *testing.T) {
	t.Parallel()

	l, mock := newTestRedisLimiter(t, 8, nil)
	mock.ExpectIncr("ratelimit:twelvedata:1704724200").SetVal(9)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := l.Wait(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

// TestRedisLimiter_FallbackOnError はRedis障害時にローカルのリミッターへフォールバックすることを検証します。
func TestRedisLimiter_FallbackOnError(t *testing.T) {
	t.Parallel()

	fallback := &countingLimiter{}
	l, mock := newTestRedisLimiter(t, 8, fallback)
	mock.ExpectIncr("ratelimit:twelvedata:1704724200").SetErr(errors.New("connection refused"))

	if err := l.Wait(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fallback.calls != 1 {
		t.Errorf("expected fallback to be used once, got %d", fallback.calls)
	}
}

// TestNewRedisLimiter_Defaults はデフォルトのプレフィックスとフォールバックが設定されることを検証します。
func TestNewRedisLimiter_Defaults(t *testing.T) {
	t.Parallel()

	l := NewRedisLimiter(nil, 5, time.Minute, "", nil)
	if l.prefix != "ratelimit:twelvedata" {
		t.Errorf("expected default prefix, got %q", l.prefix)
	}
	if _, ok := l.fallback.(*MemoryLimiter); !ok {
		t.Errorf("expected memory fallback, got %T", l.fallback)
	}
}
