package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv は他の環境変数の影響を受けないようにテスト中だけ空にします。
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"PORT", "TWELVE_DATA_API_KEY", "TWELVE_DATA_BASE_URL", "TWELVE_DATA_TIMEOUT",
		"REDIS_HOST", "REDIS_PORT", "REDIS_PASSWORD",
		"DB_DRIVER", "DB_HOST", "DB_PORT", "DB_USER", "DB_PASSWORD", "DB_NAME", "SQLITE_PATH",
		"SUPPORTED_TICKERS", "CORS_ALLOWED_ORIGINS", "RATE_LIMIT_PER_MINUTE", "ALLOW_UNLISTED_TICKERS",
	} {
		t.Setenv(k, "")
	}
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// TestLoad_Defaults は設定ファイルが無い場合にデフォルト値が使われることを検証します。
func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, []string{"AAPL", "AMZN", "GOOGL", "MSFT", "TSLA"}, cfg.Dashboard.Tickers)
	assert.Equal(t, 12, cfg.Dashboard.WindowMonths)
	assert.Equal(t, "https://api.twelvedata.com", cfg.TwelveData.BaseURL)
	assert.Equal(t, 10*time.Second, cfg.TwelveData.Timeout)
	assert.Equal(t, 8, cfg.RateLimit.PerMinute)
	assert.False(t, cfg.RedisEnabled())
	assert.NoError(t, cfg.Validate())
}

// TestLoad_File はYAMLファイルの値が読み込まれることを検証します。
func TestLoad_File(t *testing.T) {
	clearEnv(t)

	path := writeFile(t, `
server:
  port: "9090"
dashboard:
  tickers: [NVDA, AMD]
  window_months: 6
  allow_unlisted: true
twelve_data:
  api_key: file-key
  timeout: 3s
rate_limit:
  per_minute: 55
redis:
  host: cache
database:
  driver: sqlite
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, []string{"NVDA", "AMD"}, cfg.Dashboard.Tickers)
	assert.Equal(t, 6, cfg.Dashboard.WindowMonths)
	assert.True(t, cfg.Dashboard.AllowUnlisted)
	assert.Equal(t, "file-key", cfg.TwelveData.APIKey)
	assert.Equal(t, 3*time.Second, cfg.TwelveData.Timeout)
	assert.Equal(t, 55, cfg.RateLimit.PerMinute)
	assert.Equal(t, "cache:6379", cfg.RedisAddr())
	assert.Equal(t, "data/symbols.db", cfg.Database.SQLitePath)
}

// TestLoad_EnvOverrides は環境変数がファイルの値より優先されることを検証します。
func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("TWELVE_DATA_API_KEY", "env-key")
	t.Setenv("SUPPORTED_TICKERS", " aapl, msft ,,")
	t.Setenv("RATE_LIMIT_PER_MINUTE", "30")
	t.Setenv("TWELVE_DATA_TIMEOUT", "2s")
	t.Setenv("REDIS_HOST", "localhost")
	t.Setenv("REDIS_PORT", "6380")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://localhost:3000")

	path := writeFile(t, "twelve_data:\n  api_key: file-key\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "env-key", cfg.TwelveData.APIKey)
	assert.Equal(t, []string{"aapl", "msft"}, cfg.Dashboard.Tickers)
	assert.Equal(t, 30, cfg.RateLimit.PerMinute)
	assert.Equal(t, 2*time.Second, cfg.TwelveData.Timeout)
	assert.Equal(t, "localhost:6380", cfg.RedisAddr())
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.Server.CORSAllowedOrigins)
}

// TestLoad_Errors は不正な入力がエラーになることを検証します。
func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		file string
	}{
		{name: "invalid yaml", file: "dashboard: [unclosed"},
		{name: "invalid timeout", env: map[string]string{"TWELVE_DATA_TIMEOUT": "soon"}},
		{name: "invalid rate limit", env: map[string]string{"RATE_LIMIT_PER_MINUTE": "many"}},
		{name: "invalid bool", env: map[string]string{"ALLOW_UNLISTED_TICKERS": "maybe"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load(writeFile(t, tt.file))
			assert.Error(t, err)
		})
	}
}

// TestValidate は不正な設定が検出されることを検証します。
func TestValidate(t *testing.T) {
	t.Parallel()

	valid := func() Config {
		var c Config
		applyDefaults(&c)
		return c
	}

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"empty tickers", func(c *Config) { c.Dashboard.Tickers = nil }},
		{"negative window", func(c *Config) { c.Dashboard.WindowMonths = -1 }},
		{"zero rate limit", func(c *Config) { c.RateLimit.PerMinute = 0 }},
		{"negative timeout", func(c *Config) { c.TwelveData.Timeout = -time.Second }},
		{"unknown driver", func(c *Config) { c.Database.Driver = "oracle" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c := valid()
			tt.mutate(&c)
			assert.Error(t, c.Validate())
		})
	}
}
