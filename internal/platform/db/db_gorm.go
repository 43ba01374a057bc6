// Package db opens the optional gorm connection that backs the symbol catalog.
package db

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	connectTimeout = 60 * time.Second
	retryInterval  = 3 * time.Second
)

// Config describes one database connection.
type Config struct {
	Driver     string
	User       string
	Password   string
	Name       string
	Host       string
	Port       string
	SQLitePath string
}

// Opener opens a gorm connection for a DSN. Tests swap it for a fake.
type Opener func(dsn string) (*gorm.DB, error)

// BuildDSN returns the driver-specific DSN for cfg. Postgres gets a
// key=value DSN, sqlite gets the file path.
func BuildDSN(cfg Config) string {
	if cfg.Driver == DriverSQLite {
		return cfg.SQLitePath
	}
	port := cfg.Port
	if port == "" {
		port = "5432"
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable TimeZone=UTC",
		cfg.Host, port, cfg.User, cfg.Password, cfg.Name)
}

// ConnectWithRetry calls opener until it succeeds or timeout elapses,
// sleeping 3s between attempts.
func ConnectWithRetry(dsn string, timeout time.Duration, opener Opener) (*gorm.DB, error) {
	return connectWithRetry(dsn, timeout, retryInterval, opener)
}

func connectWithRetry(dsn string, timeout, interval time.Duration, opener Opener) (*gorm.DB, error) {
	deadline := time.Now().Add(timeout)
	for {
		db, err := opener(dsn)
		if err == nil {
			return db, nil
		}
		if time.Now().Add(interval).After(deadline) {
			return nil, fmt.Errorf("db connect failed after %s: %w", timeout, err)
		}
		slog.Warn("DB connect failed, retrying", "error", err, "retry_in", interval)
		time.Sleep(interval)
	}
}

// Open connects to the configured database and migrates models.
func Open(cfg Config, models ...any) (*gorm.DB, error) {
	opener, err := openerFor(cfg.Driver)
	if err != nil {
		return nil, err
	}
	if cfg.Driver == DriverSQLite {
		if dir := filepath.Dir(cfg.SQLitePath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create sqlite dir: %w", err)
			}
		}
	}

	db, err := ConnectWithRetry(BuildDSN(cfg), connectTimeout, opener)
	if err != nil {
		return nil, err
	}
	if len(models) > 0 {
		if err := db.AutoMigrate(models...); err != nil {
			return nil, fmt.Errorf("failed to migrate: %w", err)
		}
	}
	slog.Info("DB connection successful", "driver", cfg.Driver)
	return db, nil
}

func openerFor(driver string) (Opener, error) {
	gormCfg := &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)}
	switch driver {
	case DriverPostgres:
		return func(dsn string) (*gorm.DB, error) {
			return gorm.Open(postgres.Open(dsn), gormCfg)
		}, nil
	case DriverSQLite:
		return func(dsn string) (*gorm.DB, error) {
			return gorm.Open(sqlite.Open(dsn), gormCfg)
		}, nil
	case "":
		return nil, errors.New("db driver is not configured")
	default:
		return nil, fmt.Errorf("unsupported db driver %q", driver)
	}
}
