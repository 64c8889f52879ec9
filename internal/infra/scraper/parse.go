package scraper

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/mkk2026/Security.News.Scraper/internal/domain/entity"
	"github.com/mkk2026/Security.News.Scraper/internal/observability/metrics"
	"github.com/mkk2026/Security.News.Scraper/internal/security"
)

// ErrParse reports unusable feed markup.
var ErrParse = errors.New("feed parse failure")

// ParseFeed extracts scraped items from RSS/Atom markup. Parsing is lenient:
// items missing a usable title or link are skipped, as are items whose link
// fails the synchronous URL safety check. A feed can legitimately yield zero
// items; an error is returned only when the markup itself cannot be parsed.
func ParseFeed(markup string, source entity.Source) ([]entity.ScrapedItem, error) {
	feed, err := gofeed.NewParser().ParseString(markup)
	if err != nil {
		return nil, fmt.Errorf("%w: source %s: %v", ErrParse, source.ID, err)
	}

	items := make([]entity.ScrapedItem, 0, len(feed.Items))
	for _, it := range feed.Items {
		if it == nil {
			continue
		}

		title := CleanText(it.Title)
		link := strings.TrimSpace(it.Link)
		if title == "" || link == "" {
			continue
		}

		// The feed transport was already validated, but the feed body is
		// attacker-controlled content. A link to javascript: or to an
		// internal address must never be stored or fetched downstream.
		if !security.IsSafeURL(link) {
			slog.Warn("dropping feed item with unsafe link",
				slog.String("source_id", source.ID),
				slog.String("link", link))
			metrics.RecordBlockedURL("item")
			continue
		}

		summary := CleanText(it.Description)
		if summary == "" {
			summary = CleanText(it.Content)
		}
		summary = Truncate(summary, maxSummaryLength)

		body := ""
		if it.Content != "" {
			body = CleanText(it.Content)
		}

		pubAt := time.Now()
		if it.PublishedParsed != nil {
			pubAt = *it.PublishedParsed
		} else if it.UpdatedParsed != nil {
			pubAt = *it.UpdatedParsed
		}

		items = append(items, entity.ScrapedItem{
			URL:         link,
			Title:       title,
			Summary:     summary,
			Body:        body,
			SourceID:    source.ID,
			SourceName:  source.Name,
			PublishedAt: pubAt,
		})
	}

	return items, nil
}
