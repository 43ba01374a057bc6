// Package di provides dependency injection factories for creating application components.
package di

import (
	"log/slog"
	"time"

	"stock_dashboard/internal/feature/dashboard/usecase"
	"stock_dashboard/internal/platform/config"
	"stock_dashboard/internal/platform/externalapi/twelvedata"
	infrahttp "stock_dashboard/internal/platform/http"
	"stock_dashboard/internal/platform/ratelimit"

	"github.com/redis/go-redis/v9"
)

// NewMarket creates the Twelve Data market client behind the upstream quota
// limiter. With a Redis client the quota is shared by every instance, the
// in-memory limiter is used otherwise and as the Redis fallback.
func NewMarket(cfg config.Config, rdb *redis.Client) usecase.MarketRepository {
	tdCfg := twelvedata.Config{
		APIKey:  cfg.TwelveData.APIKey,
		BaseURL: cfg.TwelveData.BaseURL,
		Timeout: cfg.TwelveData.Timeout,
	}
	httpClient := infrahttp.NewHTTPClient(tdCfg.Timeout)
	market := twelvedata.NewTwelveDataMarket(tdCfg, httpClient)

	return ratelimit.NewLimitedMarket(market, NewLimiter(cfg, rdb))
}

// NewLimiter picks the Redis limiter when rdb is set.
func NewLimiter(cfg config.Config, rdb *redis.Client) ratelimit.Limiter {
	memory := ratelimit.NewMemoryLimiter(cfg.RateLimit.PerMinute, time.Minute)
	if rdb == nil {
		slog.Info("using in-memory rate limiter", "per_minute", cfg.RateLimit.PerMinute)
		return memory
	}
	slog.Info("using redis rate limiter", "per_minute", cfg.RateLimit.PerMinute)
	return ratelimit.NewRedisLimiter(rdb, cfg.RateLimit.PerMinute, time.Minute, "", memory)
}
