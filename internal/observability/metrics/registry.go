// Package metrics provides centralized Prometheus metrics for the application.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics track HTTP request patterns and performance
var (
	// HTTPRequestsTotal counts total HTTP requests by method, path, and status
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration measures HTTP request duration in seconds
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// ActiveConnections tracks the number of active HTTP connections
	ActiveConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_active_connections",
			Help: "Number of active HTTP connections",
		},
	)
)

// Security metrics track SSRF protections
var (
	// BlockedURLsTotal counts URLs rejected by safety validation, by the
	// pipeline stage that rejected them (fetch, feed, item)
	BlockedURLsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "blocked_urls_total",
			Help: "Total number of URLs blocked by safety validation",
		},
		[]string{"stage"},
	)
)

// Scrape metrics track feed scraping operations
var (
	// ItemsScrapedTotal counts feed items scraped from each source
	ItemsScrapedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "items_scraped_total",
			Help: "Total number of feed items scraped from sources",
		},
		[]string{"source_id"},
	)

	// ScrapeDuration measures time to scrape a single source
	ScrapeDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "scrape_duration_seconds",
			Help:    "Time taken to scrape a feed source",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		},
		[]string{"source_id"},
	)

	// ScrapeErrors counts errors during feed scraping
	ScrapeErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scrape_errors_total",
			Help: "Total number of feed scrape errors",
		},
		[]string{"source_id", "error_type"},
	)

	// ContentFetchAttemptsTotal counts full-page content fetch attempts by result
	ContentFetchAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "content_fetch_attempts_total",
			Help: "Total number of content fetch attempts",
		},
		[]string{"result"}, // result: success, failure, skipped
	)

	// ContentFetchDuration measures time to fetch article content
	ContentFetchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "content_fetch_duration_seconds",
			Help:    "Time taken to fetch article content",
			Buckets: []float64{0.1, 0.2, 0.4, 0.8, 1.6, 3.2, 6.4, 12.8},
		},
	)
)

// Ingest metrics track the ingestion pipeline
var (
	// ArticlesTotal tracks total number of articles in the database
	ArticlesTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "articles_total",
			Help: "Total number of articles in the database",
		},
	)

	// ArticlesIngestedTotal counts new articles persisted
	ArticlesIngestedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "articles_ingested_total",
			Help: "Total number of new articles persisted",
		},
	)

	// ArticlesDuplicateTotal counts items skipped as duplicates, by how the
	// duplicate was detected (url, content, batch)
	ArticlesDuplicateTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "articles_duplicate_total",
			Help: "Total number of scraped items skipped as duplicates",
		},
		[]string{"reason"},
	)

	// VulnerabilitiesIngestedTotal counts new vulnerability records created
	VulnerabilitiesIngestedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vulnerabilities_ingested_total",
			Help: "Total number of new vulnerability records created",
		},
	)

	// IngestRunDuration measures the duration of a full ingestion run
	IngestRunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ingest_run_duration_seconds",
			Help:    "Duration of a full scrape and ingest run",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
		},
	)
)

// Database metrics track database performance
var (
	// DBQueryDuration measures database query duration
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 10),
		},
		[]string{"operation"},
	)

	// DBConnectionsActive tracks active database connections
	DBConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "db_connections_active",
			Help: "Number of active database connections",
		},
	)

	// DBConnectionsIdle tracks idle database connections
	DBConnectionsIdle = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "db_connections_idle",
			Help: "Number of idle database connections",
		},
	)
)

// RecordHTTPRequest records an HTTP request with its metadata
func RecordHTTPRequest(method, path, status string, duration time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}
