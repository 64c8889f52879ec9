// Package logging provides structured logging helpers built on log/slog.
//
// Loggers emit JSON by default, honor the LOG_LEVEL environment variable and
// can carry the request ID from the context so every log line of a request
// is correlatable.
//
//	logger := logging.NewLogger()
//	logger.Info("scraper started", slog.Int("sources", len(sources)))
//
//	logger = logging.WithRequestID(ctx, logger)
//	logger.Info("processing trigger")
package logging
