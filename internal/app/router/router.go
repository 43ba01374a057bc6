// Package router wires the HTTP handlers into a gin engine.
package router

import (
	"log/slog"
	"time"

	dashboardhandler "stock_dashboard/internal/feature/dashboard/transport/handler"
	symbollisthandler "stock_dashboard/internal/feature/symbollist/transport/handler"
	platformhandler "stock_dashboard/internal/platform/http/handler"
	"stock_dashboard/internal/platform/http/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Handlers groups the handlers served by the router.
type Handlers struct {
	Health    *platformhandler.HealthHandler
	Symbol    *symbollisthandler.SymbolHandler
	Dashboard *dashboardhandler.DashboardHandler
}

// NewRouter builds the engine. An empty allowedOrigins allows any origin.
func NewRouter(h Handlers, allowedOrigins []string, logger *slog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestID(), middleware.Logger(logger))
	r.Use(cors.New(corsConfig(allowedOrigins)))

	// 導通確認用
	r.GET("/healthz", h.Health.Health)
	r.HEAD("/healthz", h.Health.Health)
	r.OPTIONS("/healthz", h.Health.Health)

	r.GET("/symbols", h.Symbol.List)
	r.GET("/dashboard/:ticker", h.Dashboard.GetDashboard)

	return r
}

func corsConfig(allowedOrigins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "HEAD", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", middleware.HeaderRequestID},
		ExposeHeaders: []string{middleware.HeaderRequestID},
		MaxAge:        12 * time.Hour,
	}
	if len(allowedOrigins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = allowedOrigins
	}
	return cfg
}
