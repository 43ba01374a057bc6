package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"stock_dashboard/internal/app/di"
	"stock_dashboard/internal/app/router"
	dashboardhandler "stock_dashboard/internal/feature/dashboard/transport/handler"
	dashboardusecase "stock_dashboard/internal/feature/dashboard/usecase"
	symbollistadapters "stock_dashboard/internal/feature/symbollist/adapters"
	symbolentity "stock_dashboard/internal/feature/symbollist/domain/entity"
	symbollisthandler "stock_dashboard/internal/feature/symbollist/transport/handler"
	symbollistusecase "stock_dashboard/internal/feature/symbollist/usecase"
	"stock_dashboard/internal/platform/config"
	infradb "stock_dashboard/internal/platform/db"
	platformhandler "stock_dashboard/internal/platform/http/handler"
	infraredis "stock_dashboard/internal/platform/redis"

	redisv9 "github.com/redis/go-redis/v9"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 設定
	config.LoadEnvFile(".env")
	path := os.Getenv("CONFIG_FILE")
	if path == "" {
		path = "config.yaml"
	}
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.TwelveData.APIKey == "" {
		slog.Warn("TWELVE_DATA_API_KEY is not set; upstream calls will be rejected")
	}

	// 銘柄カタログ（DBは任意、起動時に一度だけ読む）
	var symbolRepo symbollistusecase.SymbolRepository
	if cfg.Database.Driver != "" {
		db, err := infradb.Open(infradb.Config{
			Driver:     cfg.Database.Driver,
			User:       cfg.Database.User,
			Password:   cfg.Database.Password,
			Name:       cfg.Database.Name,
			Host:       cfg.Database.Host,
			Port:       cfg.Database.Port,
			SQLitePath: cfg.Database.SQLitePath,
		}, &symbolentity.Symbol{})
		if err != nil {
			return err
		}
		if sqlDB, err := db.DB(); err == nil {
			defer func() {
				if err := sqlDB.Close(); err != nil {
					slog.Warn("failed to close DB", "error", err)
				}
			}()
		}
		symbolRepo = symbollistadapters.NewSymbolRepository(db)
	}
	catalog, err := symbollistusecase.LoadCatalog(ctx, symbolRepo, cfg.Dashboard.Tickers)
	if err != nil {
		return err
	}
	symbolUC := symbollistusecase.NewSymbolUsecase(catalog, cfg.Dashboard.WindowMonths)

	// Redis（任意、無ければインメモリのレート制限）
	var rdb *redisv9.Client
	checks := map[string]platformhandler.CheckFunc{}
	if cfg.RedisEnabled() {
		client, err := infraredis.NewRedisClient(ctx, infraredis.Options{
			Addr:     cfg.RedisAddr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			slog.Warn("Redis unavailable, using in-memory rate limiter", "error", err)
		} else {
			rdb = client
			checks["redis"] = platformhandler.RedisCheck(rdb)
			defer func() {
				if err := rdb.Close(); err != nil {
					slog.Warn("failed to close Redis client", "error", err)
				}
			}()
		}
	}

	// Usecase
	dashboardUC := dashboardusecase.NewDashboardUsecase(di.NewMarket(cfg, rdb), dashboardusecase.Options{
		Tickers:       symbolUC.Codes(),
		AllowUnlisted: cfg.Dashboard.AllowUnlisted,
		WindowMonths:  cfg.Dashboard.WindowMonths,
	})

	// ルータ生成
	r := router.NewRouter(router.Handlers{
		Health:    platformhandler.NewHealthHandler(checks),
		Symbol:    symbollisthandler.NewSymbolHandler(symbolUC),
		Dashboard: dashboardhandler.NewDashboardHandler(dashboardUC),
	}, cfg.Server.CORSAllowedOrigins, logger)

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", srv.Addr, "tickers", symbolUC.Codes())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
