// Package handler はプラットフォームレベルのエンドポイント用HTTPハンドラーを提供します。
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// CheckFunc は依存先の疎通を確認します。nil を返せば正常です。
type CheckFunc func(ctx context.Context) error

// RedisCheck はRedisへのPINGによる疎通確認を返します。
func RedisCheck(rdb *redis.Client) CheckFunc {
	return func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	}
}

// HealthHandler は /healthz を処理します。
// 登録された依存先はどれも任意のため、失敗しても 200 のまま status を "degraded" にします。
type HealthHandler struct {
	checks  map[string]CheckFunc
	timeout time.Duration
}

// NewHealthHandler は依存先チェックを持つ HealthHandler を生成します。
func NewHealthHandler(checks map[string]CheckFunc) *HealthHandler {
	if checks == nil {
		checks = map[string]CheckFunc{}
	}
	return &HealthHandler{checks: checks, timeout: 2 * time.Second}
}

// Health はHTTPメソッドに応じて適切にレスポンスし、キャッシュを防止します。
func (h *HealthHandler) Health(c *gin.Context) {
	// 明示的にキャッシュを防止
	c.Header("Cache-Control", "no-store")

	switch c.Request.Method {
	case http.MethodHead:
		c.Status(http.StatusOK)
		return
	case http.MethodOptions:
		c.Status(http.StatusNoContent)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	status := "ok"
	results := make(map[string]string, len(h.checks))
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			results[name] = err.Error()
			status = "degraded"
			continue
		}
		results[name] = "ok"
	}

	body := gin.H{"status": status}
	if len(results) > 0 {
		body["checks"] = results
	}
	c.JSON(http.StatusOK, body)
}
