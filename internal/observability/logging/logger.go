package logging

import (
	"context"
	"log/slog"
	"os"

	"github.com/mkk2026/Security.News.Scraper/internal/handler/http/requestid"
)

func levelFromEnv() slog.Level {
	switch os.Getenv("LOG_LEVEL") {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger creates a structured logger with JSON output. The log level is
// controlled by the LOG_LEVEL environment variable (debug, info, warn,
// error) and defaults to info.
func NewLogger() *slog.Logger {
	logLevel := levelFromEnv()

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
		// Source locations are only worth the cost when debugging.
		AddSource: logLevel <= slog.LevelDebug,
	})

	return slog.New(handler)
}

// NewTextLogger creates a logger with human-readable text output for local
// development.
func NewTextLogger() *slog.Logger {
	logLevel := levelFromEnv()

	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level:     logLevel,
		AddSource: logLevel <= slog.LevelDebug,
	})

	return slog.New(handler)
}

// WithRequestID returns a logger that includes the request ID from the
// context, if one is present.
func WithRequestID(ctx context.Context, logger *slog.Logger) *slog.Logger {
	reqID := requestid.FromContext(ctx)
	if reqID == "" {
		return logger
	}
	return logger.With("request_id", reqID)
}

// FromContext retrieves the logger stored in the context, falling back to
// the default logger.
func FromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(loggerContextKey).(*slog.Logger); ok {
		return logger
	}
	return slog.Default()
}

// WithLogger stores a logger in the context.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerContextKey, logger)
}

type contextKey string

const loggerContextKey contextKey = "logger"
