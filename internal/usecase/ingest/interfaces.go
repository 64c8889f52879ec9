package ingest

import (
	"context"

	"github.com/mkk2026/Security.News.Scraper/internal/domain/entity"
)

// VulnerabilityRef is a vulnerability identifier extracted from article text.
type VulnerabilityRef struct {
	ExternalID string
	CVSSScore  float64
	Severity   string
}

// Analysis is the classification result for one article.
type Analysis struct {
	SeverityScore   float64
	SeverityLevel   string
	Vulnerabilities []VulnerabilityRef
}

// ContentClassifier scores article content, extracts vulnerability
// identifiers, hashes content, and judges near-duplicates.
type ContentClassifier interface {
	AnalyzeContent(title, summary, body string) Analysis
	HashContent(text string) string
	IsDuplicateArticle(titleA, summaryA, titleB, summaryB string) bool
}

// SourceScraper produces scraped items from the configured sources.
type SourceScraper interface {
	ScrapeAllSources(ctx context.Context, sources []entity.Source) []entity.ScrapedItem
}

// ContentFetcher retrieves full article text for items whose feed carried no
// body. Implementations are expected to fail often; errors are non-fatal.
type ContentFetcher interface {
	FetchContent(ctx context.Context, url string) (string, error)
}
