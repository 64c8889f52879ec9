package metrics

import (
	"time"
)

// RecordBlockedURL records a URL rejected by safety validation.
// Stage identifies where in the pipeline the rejection happened
// (e.g. "fetch" for the HTTP client, "item" for feed item links).
func RecordBlockedURL(stage string) {
	BlockedURLsTotal.WithLabelValues(stage).Inc()
}

// RecordScrape records metrics for a single source scrape.
func RecordScrape(sourceID string, duration time.Duration, itemsFound int) {
	ScrapeDuration.WithLabelValues(sourceID).Observe(duration.Seconds())
	if itemsFound > 0 {
		ItemsScrapedTotal.WithLabelValues(sourceID).Add(float64(itemsFound))
	}
}

// RecordScrapeError records an error during a source scrape.
// ErrorType should be a coarse category such as "fetch", "parse" or "breaker".
func RecordScrapeError(sourceID, errorType string) {
	ScrapeErrors.WithLabelValues(sourceID, errorType).Inc()
}

// RecordContentFetchSuccess records a successful content fetch operation.
func RecordContentFetchSuccess(duration time.Duration) {
	ContentFetchAttemptsTotal.WithLabelValues("success").Inc()
	ContentFetchDuration.Observe(duration.Seconds())
}

// RecordContentFetchFailed records a failed content fetch operation.
func RecordContentFetchFailed(duration time.Duration) {
	ContentFetchAttemptsTotal.WithLabelValues("failure").Inc()
	ContentFetchDuration.Observe(duration.Seconds())
}

// RecordContentFetchSkipped records a content fetch that was unnecessary
// because the feed already carried a sufficient body.
func RecordContentFetchSkipped() {
	ContentFetchAttemptsTotal.WithLabelValues("skipped").Inc()
}

// RecordArticleIngested records a newly persisted article.
func RecordArticleIngested() {
	ArticlesIngestedTotal.Inc()
}

// RecordDuplicateSkipped records a scraped item dropped as a duplicate.
// Reason should be "url" (already persisted), "content" (near-duplicate of a
// recent article) or "batch" (duplicate within the same run).
func RecordDuplicateSkipped(reason string) {
	ArticlesDuplicateTotal.WithLabelValues(reason).Inc()
}

// RecordVulnerabilityIngested records a newly created vulnerability record.
func RecordVulnerabilityIngested() {
	VulnerabilitiesIngestedTotal.Inc()
}

// RecordIngestRun records the duration of a full scrape and ingest run.
func RecordIngestRun(duration time.Duration) {
	IngestRunDuration.Observe(duration.Seconds())
}

// UpdateArticlesTotal updates the total count of articles in the database.
// This gauge should be updated periodically to reflect the current state.
func UpdateArticlesTotal(count int) {
	ArticlesTotal.Set(float64(count))
}

// RecordDBQuery records the duration of a database query operation.
// Operation should describe the query type (e.g. "select_articles", "insert_article").
func RecordDBQuery(operation string, duration time.Duration) {
	DBQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
}
