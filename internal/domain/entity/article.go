// Package entity defines the core domain entities for the security news
// aggregation system: feed sources, scraped items, stored articles and
// vulnerability records.
package entity

import "time"

// Article represents a persisted security news article.
// Articles are created exactly once per distinct URL; the content hash is an
// auxiliary duplicate signal, not a uniqueness constraint.
type Article struct {
	ID            int64
	URL           string
	Title         string
	Summary       string
	Body          string
	SourceID      string
	SourceName    string
	PublishedAt   time.Time
	ScrapedAt     time.Time
	ContentHash   string
	SeverityScore float64
	SeverityLevel string
}

// ScrapedItem is a transient item produced by the feed scraper and consumed
// once by the ingestion pipeline. It is never persisted directly.
type ScrapedItem struct {
	URL         string
	Title       string
	Summary     string
	Body        string
	SourceID    string
	SourceName  string
	PublishedAt time.Time
}
