// Package config loads the process-wide configuration once at startup.
//
// Values come from an optional YAML file, then environment variables override
// them, then defaults fill whatever is still unset. The resulting Config is
// passed by value and never mutated afterwards.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Server struct {
		Port               string   `yaml:"port"`
		CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`
	} `yaml:"server"`
	Dashboard struct {
		Tickers       []string `yaml:"tickers"`
		WindowMonths  int      `yaml:"window_months"`
		AllowUnlisted bool     `yaml:"allow_unlisted"`
	} `yaml:"dashboard"`
	TwelveData struct {
		APIKey  string        `yaml:"api_key"`
		BaseURL string        `yaml:"base_url"`
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"twelve_data"`
	RateLimit struct {
		PerMinute int `yaml:"per_minute"`
	} `yaml:"rate_limit"`
	Redis struct {
		Host     string `yaml:"host"`
		Port     string `yaml:"port"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	Database struct {
		Driver     string `yaml:"driver"` // "", "postgres" or "sqlite"
		Host       string `yaml:"host"`
		Port       string `yaml:"port"`
		User       string `yaml:"user"`
		Password   string `yaml:"password"`
		Name       string `yaml:"name"`
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
}

// DefaultTickers is the ticker list offered when none is configured.
var DefaultTickers = []string{"AAPL", "AMZN", "GOOGL", "MSFT", "TSLA"}

// LoadEnvFile loads KEY=VALUE pairs from path into the environment.
// A missing file is not an error.
func LoadEnvFile(path string) {
	if err := godotenv.Load(path); err != nil {
		slog.Info("env file not loaded; using system environment variables", "path", path)
	}
}

// Load reads config from a YAML file, then applies environment variable overrides and defaults.
func Load(path string) (Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	applyDefaults(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	str := map[string]*string{
		"PORT":                 &cfg.Server.Port,
		"TWELVE_DATA_API_KEY":  &cfg.TwelveData.APIKey,
		"TWELVE_DATA_BASE_URL": &cfg.TwelveData.BaseURL,
		"REDIS_HOST":           &cfg.Redis.Host,
		"REDIS_PORT":           &cfg.Redis.Port,
		"REDIS_PASSWORD":       &cfg.Redis.Password,
		"DB_DRIVER":            &cfg.Database.Driver,
		"DB_HOST":              &cfg.Database.Host,
		"DB_PORT":              &cfg.Database.Port,
		"DB_USER":              &cfg.Database.User,
		"DB_PASSWORD":          &cfg.Database.Password,
		"DB_NAME":              &cfg.Database.Name,
		"SQLITE_PATH":          &cfg.Database.SQLitePath,
	}
	for key, dst := range str {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	if v := os.Getenv("SUPPORTED_TICKERS"); v != "" {
		cfg.Dashboard.Tickers = splitList(v)
	}
	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		cfg.Server.CORSAllowedOrigins = splitList(v)
	}
	if v := os.Getenv("TWELVE_DATA_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("TWELVE_DATA_TIMEOUT: %w", err)
		}
		cfg.TwelveData.Timeout = d
	}
	if v := os.Getenv("RATE_LIMIT_PER_MINUTE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("RATE_LIMIT_PER_MINUTE: %w", err)
		}
		cfg.RateLimit.PerMinute = n
	}
	if v := os.Getenv("ALLOW_UNLISTED_TICKERS"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("ALLOW_UNLISTED_TICKERS: %w", err)
		}
		cfg.Dashboard.AllowUnlisted = b
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == "" {
		cfg.Server.Port = "8080"
	}
	if len(cfg.Dashboard.Tickers) == 0 {
		cfg.Dashboard.Tickers = append([]string(nil), DefaultTickers...)
	}
	if cfg.Dashboard.WindowMonths == 0 {
		cfg.Dashboard.WindowMonths = 12
	}
	if cfg.TwelveData.BaseURL == "" {
		cfg.TwelveData.BaseURL = "https://api.twelvedata.com"
	}
	if cfg.TwelveData.Timeout == 0 {
		cfg.TwelveData.Timeout = 10 * time.Second
	}
	if cfg.RateLimit.PerMinute == 0 {
		// Twelve Data の無料プランは 8 credits/min
		cfg.RateLimit.PerMinute = 8
	}
	if cfg.Database.Driver == "sqlite" && cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/symbols.db"
	}
}

// Validate checks that the configuration is usable.
func (c Config) Validate() error {
	if len(c.Dashboard.Tickers) == 0 {
		return errors.New("dashboard.tickers must not be empty")
	}
	if c.Dashboard.WindowMonths <= 0 {
		return errors.New("dashboard.window_months must be positive")
	}
	if c.RateLimit.PerMinute <= 0 {
		return errors.New("rate_limit.per_minute must be positive")
	}
	if c.TwelveData.Timeout <= 0 {
		return errors.New("twelve_data.timeout must be positive")
	}
	switch c.Database.Driver {
	case "", "postgres", "sqlite":
	default:
		return fmt.Errorf("database.driver %q is not supported", c.Database.Driver)
	}
	return nil
}

// RedisEnabled reports whether a Redis address is configured.
func (c Config) RedisEnabled() bool {
	return c.Redis.Host != ""
}

// RedisAddr returns host:port, defaulting the port to 6379.
func (c Config) RedisAddr() string {
	port := c.Redis.Port
	if port == "" {
		port = "6379"
	}
	return c.Redis.Host + ":" + port
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
