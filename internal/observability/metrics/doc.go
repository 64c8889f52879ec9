// Package metrics provides Prometheus metrics registry and recording utilities.
//
// This package centralizes all application metrics including:
//   - HTTP request metrics (duration, count)
//   - Security metrics (blocked URLs)
//   - Scrape and ingest pipeline metrics
//   - Database query metrics
//
// All metrics are automatically registered with the Prometheus default registry
// and exposed via the /metrics endpoint.
//
// Example usage:
//
//	import "github.com/mkk2026/Security.News.Scraper/internal/observability/metrics"
//
//	func scrapeSource(sourceID string) {
//	    start := time.Now()
//	    // ... scrape the feed ...
//	    found := 10
//
//	    metrics.RecordScrape(sourceID, time.Since(start), found)
//	}
package metrics
