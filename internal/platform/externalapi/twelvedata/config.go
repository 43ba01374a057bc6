// Package twelvedata provides a client for the Twelve Data stock market API.
package twelvedata

import "time"

const (
	// DefaultBaseURL is the public Twelve Data REST endpoint.
	DefaultBaseURL = "https://api.twelvedata.com"
	// DefaultTimeout bounds a single request when no timeout is configured.
	DefaultTimeout = 10 * time.Second
)

// Config holds configuration for the Twelve Data API client.
type Config struct {
	APIKey  string        // API key for authentication
	BaseURL string        // Base URL for the API (e.g., "https://api.twelvedata.com")
	Timeout time.Duration // HTTP request timeout
}

// withDefaults fills unset fields with their defaults.
func (c Config) withDefaults() Config {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	return c
}
