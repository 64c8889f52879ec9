package fetcher

import (
	"fmt"
	"net/http"
	"time"

	"github.com/mkk2026/Security.News.Scraper/pkg/config"
)

// Config holds the configuration for SSRF-hardened fetching.
type Config struct {
	// Timeout is the maximum duration for a single HTTP request (one hop).
	// Default: 10s
	Timeout time.Duration

	// MaxBodySize is the maximum response body size in bytes, enforced while
	// reading rather than trusting Content-Length. Default: 10MB
	MaxBodySize int64

	// MaxRedirects is the redirect hop budget. Each hop is re-validated
	// before it is followed. Default: 5
	MaxRedirects int

	// UserAgent is sent on every outbound request.
	UserAgent string

	// EnhanceContent enables fetching full article pages for feed items that
	// carry no body. Default: true
	EnhanceContent bool

	// Transport overrides the HTTP transport when non-nil. Used to wrap the
	// transport with instrumentation and by tests to redirect dials.
	Transport http.RoundTripper
}

// DefaultConfig returns the production defaults for fetching.
func DefaultConfig() Config {
	return Config{
		Timeout:        10 * time.Second,
		MaxBodySize:    10 * 1024 * 1024,
		MaxRedirects:   5,
		UserAgent:      "SecurityNewsScraper/1.0 (+https://securitymonitor.example.com)",
		EnhanceContent: true,
	}
}

// Validate checks the configuration for values that would weaken the
// security posture or exhaust resources.
func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %v", c.Timeout)
	}
	if c.MaxBodySize < 1024 || c.MaxBodySize > 100*1024*1024 {
		return fmt.Errorf("max body size must be between 1KB and 100MB, got %d", c.MaxBodySize)
	}
	if c.MaxRedirects < 0 || c.MaxRedirects > 10 {
		return fmt.Errorf("max redirects must be between 0 and 10, got %d", c.MaxRedirects)
	}
	if c.UserAgent == "" {
		return fmt.Errorf("user agent must not be empty")
	}
	return nil
}

// LoadConfigFromEnv loads fetch configuration from environment variables,
// falling back to defaults for unset values.
//
// Environment variables:
//   - FETCH_TIMEOUT: duration string, e.g. "10s"
//   - FETCH_MAX_BODY_SIZE: integer bytes
//   - FETCH_MAX_REDIRECTS: integer
//   - FETCH_USER_AGENT: string
//   - FETCH_ENHANCE_CONTENT: boolean
func LoadConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()
	cfg.Timeout = config.GetEnvDuration("FETCH_TIMEOUT", cfg.Timeout)
	cfg.MaxBodySize = int64(config.GetEnvInt("FETCH_MAX_BODY_SIZE", int(cfg.MaxBodySize)))
	cfg.MaxRedirects = config.GetEnvInt("FETCH_MAX_REDIRECTS", cfg.MaxRedirects)
	cfg.UserAgent = config.GetEnvString("FETCH_USER_AGENT", cfg.UserAgent)
	cfg.EnhanceContent = config.GetEnvBool("FETCH_ENHANCE_CONTENT", cfg.EnhanceContent)

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("fetch configuration validation failed: %w", err)
	}
	return cfg, nil
}
