package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/mkk2026/Security.News.Scraper/internal/handler/http/responsewriter"
	"github.com/mkk2026/Security.News.Scraper/internal/observability/metrics"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// knownPaths is the fixed route set exposed by the API server. Requests
// outside it are recorded under a single label to keep metric cardinality
// bounded no matter what paths clients probe.
var knownPaths = map[string]struct{}{
	"/healthz":       {},
	"/healthz/ready": {},
	"/healthz/live":  {},
	"/metrics":       {},
	"/api/scrape":    {},
}

func normalizePath(path string) string {
	if _, ok := knownPaths[path]; ok {
		return path
	}
	return "other"
}

// MetricsMiddleware records request counts, latency and active connections
// for every HTTP request.
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		metrics.ActiveConnections.Inc()
		defer metrics.ActiveConnections.Dec()

		wrapped := responsewriter.Wrap(w)

		start := time.Now()
		next.ServeHTTP(wrapped, r)
		duration := time.Since(start)

		status := strconv.Itoa(wrapped.StatusCode())
		metrics.RecordHTTPRequest(r.Method, normalizePath(r.URL.Path), status, duration)
	})
}

// MetricsHandler returns the Prometheus metrics endpoint handler.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
