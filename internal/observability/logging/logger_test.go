package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/mkk2026/Security.News.Scraper/internal/handler/http/requestid"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBufferLogger(level slog.Level) (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	handler := slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: level})
	return slog.New(handler), &buf
}

func TestNewLogger_Levels(t *testing.T) {
	tests := []struct {
		name     string
		logLevel string
	}{
		{"default level", ""},
		{"debug level", "debug"},
		{"warn level", "warn"},
		{"error level", "error"},
		{"unknown level falls back to info", "verbose"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("LOG_LEVEL", tt.logLevel)

			assert.NotNil(t, NewLogger())
			assert.NotNil(t, NewTextLogger())
		})
	}
}

func TestLevelFromEnv(t *testing.T) {
	tests := []struct {
		env      string
		expected slog.Level
	}{
		{"", slog.LevelInfo},
		{"debug", slog.LevelDebug},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"nonsense", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run("LOG_LEVEL="+tt.env, func(t *testing.T) {
			t.Setenv("LOG_LEVEL", tt.env)
			assert.Equal(t, tt.expected, levelFromEnv())
		})
	}
}

func TestLogger_JSONStructure(t *testing.T) {
	logger, buf := newBufferLogger(slog.LevelInfo)

	logger.Info("scrape finished",
		"source_id", "krebs",
		"items", 42,
	)

	var logEntry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &logEntry))

	assert.Equal(t, "scrape finished", logEntry["msg"])
	assert.Equal(t, "INFO", logEntry["level"])
	assert.NotEmpty(t, logEntry["time"])
	assert.Equal(t, "krebs", logEntry["source_id"])
	assert.Equal(t, float64(42), logEntry["items"])
}

func TestLogger_DebugFilteredAtInfoLevel(t *testing.T) {
	logger, buf := newBufferLogger(slog.LevelInfo)

	logger.Debug("this should not appear")
	logger.Info("this should appear")

	output := buf.String()
	assert.NotContains(t, output, "this should not appear")
	assert.Contains(t, output, "this should appear")
}

func TestWithRequestID(t *testing.T) {
	logger, buf := newBufferLogger(slog.LevelInfo)

	ctx := requestid.WithRequestID(context.Background(), "550e8400-e29b-41d4-a716-446655440000")

	WithRequestID(ctx, logger).Info("test message")

	var logEntry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &logEntry))
	assert.Equal(t, "550e8400-e29b-41d4-a716-446655440000", logEntry["request_id"])
}

func TestWithRequestID_NoIDInContext(t *testing.T) {
	logger, buf := newBufferLogger(slog.LevelInfo)

	WithRequestID(context.Background(), logger).Info("test message")

	output := buf.String()
	assert.Contains(t, output, "test message")
	assert.NotContains(t, output, "request_id")
}

func TestFromContext(t *testing.T) {
	t.Run("with logger in context", func(t *testing.T) {
		logger, buf := newBufferLogger(slog.LevelInfo)
		ctx := WithLogger(context.Background(), logger)

		FromContext(ctx).Info("stored logger used")
		assert.Contains(t, buf.String(), "stored logger used")
	})

	t.Run("without logger in context", func(t *testing.T) {
		assert.Equal(t, slog.Default(), FromContext(context.Background()))
	})

	t.Run("with wrong value type in context", func(t *testing.T) {
		ctx := context.WithValue(context.Background(), loggerContextKey, "not a logger")
		assert.Equal(t, slog.Default(), FromContext(ctx))
	})
}

func BenchmarkLogger_Info(b *testing.B) {
	logger, _ := newBufferLogger(slog.LevelInfo)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		logger.Info("benchmark message")
	}
}

func BenchmarkLogger_WithRequestID(b *testing.B) {
	logger, _ := newBufferLogger(slog.LevelInfo)
	ctx := requestid.WithRequestID(context.Background(), "benchmark-req-id")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		WithRequestID(ctx, logger).Info("benchmark message")
	}
}
