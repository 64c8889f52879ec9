package worker

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/mkk2026/Security.News.Scraper/internal/pkg/config"
)

// WorkerConfig controls the scheduled scrape worker: when the ingest job
// runs, in which timezone, how long a single run may take, and where the
// health endpoints listen.
type WorkerConfig struct {
	// CronSchedule is a five-field cron expression ("minute hour day month
	// weekday"). Default: "0 */6 * * *" (every six hours).
	CronSchedule string

	// Timezone is the IANA timezone name used by the cron scheduler.
	// Default: "UTC".
	Timezone string

	// ScrapeTimeout bounds a single scheduled ingest run. The run's context
	// is cancelled when it elapses. Default: 15 minutes.
	ScrapeTimeout time.Duration

	// HealthPort is where the liveness/readiness HTTP server listens.
	// Range 1024-65535. Default: 9091.
	HealthPort int
}

// DefaultConfig returns production defaults for the worker.
func DefaultConfig() WorkerConfig {
	return WorkerConfig{
		CronSchedule:  "0 */6 * * *",
		Timezone:      "UTC",
		ScrapeTimeout: 15 * time.Minute,
		HealthPort:    9091,
	}
}

// Validate checks every field and returns all failures at once.
func (c *WorkerConfig) Validate() error {
	var errs []error

	if err := config.ValidateCronSchedule(c.CronSchedule); err != nil {
		errs = append(errs, fmt.Errorf("cron schedule: %w", err))
	}
	if err := config.ValidateTimezone(c.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("timezone: %w", err))
	}
	if err := config.ValidatePositiveDuration(c.ScrapeTimeout); err != nil {
		errs = append(errs, fmt.Errorf("scrape timeout: %w", err))
	}
	if err := config.ValidateIntRange(c.HealthPort, 1024, 65535); err != nil {
		errs = append(errs, fmt.Errorf("health port: %w", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed: %v", errs)
	}
	return nil
}

// LoadConfigFromEnv loads worker configuration with a fail-open strategy:
// every invalid environment value falls back to its default with a warning
// and a metrics record, so the worker always starts with usable settings.
//
// Environment variables:
//   - CRON_SCHEDULE: cron expression (default "0 */6 * * *")
//   - WORKER_TIMEZONE: IANA timezone name (default "UTC")
//   - SCRAPE_TIMEOUT: duration string, 1m-4h (default "15m")
//   - WORKER_HEALTH_PORT: integer 1024-65535 (default 9091)
//
// The returned error is always nil; the signature leaves room for future
// strict modes.
func LoadConfigFromEnv(logger *slog.Logger, metrics *WorkerMetrics) (*WorkerConfig, error) {
	cfg := DefaultConfig()
	fallbackApplied := false

	recordFallback := func(field, envKey string, warnings []string) {
		fallbackApplied = true
		metrics.RecordValidationError(field)
		metrics.RecordFallback(field)
		for _, warning := range warnings {
			logger.Warn("Configuration fallback applied",
				slog.String("field", field),
				slog.String("env_key", envKey),
				slog.String("warning", warning))
		}
	}

	result := config.LoadEnvWithFallback("CRON_SCHEDULE", cfg.CronSchedule, config.ValidateCronSchedule)
	cfg.CronSchedule = result.Value.(string)
	if result.FallbackApplied {
		recordFallback("cron_schedule", "CRON_SCHEDULE", result.Warnings)
	}

	result = config.LoadEnvWithFallback("WORKER_TIMEZONE", cfg.Timezone, config.ValidateTimezone)
	cfg.Timezone = result.Value.(string)
	if result.FallbackApplied {
		recordFallback("timezone", "WORKER_TIMEZONE", result.Warnings)
	}

	result = config.LoadEnvDuration("SCRAPE_TIMEOUT", cfg.ScrapeTimeout, func(d time.Duration) error {
		return config.ValidateDuration(d, 1*time.Minute, 4*time.Hour)
	})
	cfg.ScrapeTimeout = result.Value.(time.Duration)
	if result.FallbackApplied {
		recordFallback("scrape_timeout", "SCRAPE_TIMEOUT", result.Warnings)
	}

	result = config.LoadEnvInt("WORKER_HEALTH_PORT", cfg.HealthPort, func(v int) error {
		return config.ValidateIntRange(v, 1024, 65535)
	})
	cfg.HealthPort = result.Value.(int)
	if result.FallbackApplied {
		recordFallback("health_port", "WORKER_HEALTH_PORT", result.Warnings)
	}

	metrics.SetFallbackActive(fallbackApplied)
	metrics.RecordLoadTimestamp()

	return &cfg, nil
}
