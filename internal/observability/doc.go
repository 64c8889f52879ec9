// Package observability provides the logging, metrics and tracing
// infrastructure shared by the scraper worker and the API server.
//
// Subpackages:
//   - logging: structured logging with slog
//   - metrics: Prometheus metrics registry and recorders
//   - tracing: OpenTelemetry tracing integration
//   - slo: service level objective tracking built on the metrics registry
package observability
