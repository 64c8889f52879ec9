// Package scraper fetches and parses security news feeds.
// Transport goes through the redirect-safe fetcher; parsing uses gofeed.
package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/sync/errgroup"

	"github.com/mkk2026/Security.News.Scraper/internal/domain/entity"
	"github.com/mkk2026/Security.News.Scraper/internal/infra/fetcher"
	"github.com/mkk2026/Security.News.Scraper/internal/observability/metrics"
	"github.com/mkk2026/Security.News.Scraper/internal/resilience/circuitbreaker"
	"github.com/mkk2026/Security.News.Scraper/internal/resilience/retry"
)

// Scraper fetches configured feed sources and turns them into scraped items.
// Each source gets its own circuit breaker so one flaky feed cannot trip
// fetching for the others.
type Scraper struct {
	client      *fetcher.SafeClient
	retryConfig retry.Config

	mu       sync.Mutex
	breakers map[string]*circuitbreaker.CircuitBreaker
}

// NewScraper creates a Scraper that fetches through the given SafeClient.
func NewScraper(client *fetcher.SafeClient) *Scraper {
	return &Scraper{
		client:      client,
		retryConfig: retry.FeedFetchConfig(),
		breakers:    make(map[string]*circuitbreaker.CircuitBreaker),
	}
}

// ScrapeSource fetches and parses a single source. It never returns an
// error: any transport, validation or parse failure is logged and yields an
// empty result for this source only.
func (s *Scraper) ScrapeSource(ctx context.Context, source entity.Source) []entity.ScrapedItem {
	start := time.Now()

	var items []entity.ScrapedItem
	retryErr := retry.WithBackoff(ctx, s.retryConfig, func() error {
		cbResult, err := s.breakerFor(source.ID).Execute(func() (interface{}, error) {
			return s.doScrape(ctx, source)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) {
				slog.Warn("feed scrape circuit breaker open, request rejected",
					slog.String("source_id", source.ID),
					slog.String("url", source.FeedURL))
			}
			return err
		}
		items = cbResult.([]entity.ScrapedItem)
		return nil
	})

	if retryErr != nil {
		slog.Error("source scrape failed",
			slog.String("source_id", source.ID),
			slog.String("source_name", source.Name),
			slog.String("url", source.FeedURL),
			slog.Any("error", retryErr))
		metrics.RecordScrapeError(source.ID, errorType(retryErr))
		return nil
	}

	metrics.RecordScrape(source.ID, time.Since(start), len(items))
	slog.Info("source scraped",
		slog.String("source_id", source.ID),
		slog.Int("items", len(items)),
		slog.Duration("duration", time.Since(start)))
	return items
}

// ScrapeAllSources scrapes every source concurrently and flattens the
// results in source order. Wall-clock time is bounded by the slowest source;
// a failing source contributes nothing but never blocks or fails the rest.
func (s *Scraper) ScrapeAllSources(ctx context.Context, sources []entity.Source) []entity.ScrapedItem {
	results := make([][]entity.ScrapedItem, len(sources))

	g, gctx := errgroup.WithContext(ctx)
	for i, source := range sources {
		g.Go(func() error {
			results[i] = s.ScrapeSource(gctx, source)
			return nil
		})
	}
	// Goroutines never return errors; failures are absorbed per source.
	_ = g.Wait()

	var all []entity.ScrapedItem
	for _, items := range results {
		all = append(all, items...)
	}
	return all
}

func (s *Scraper) doScrape(ctx context.Context, source entity.Source) ([]entity.ScrapedItem, error) {
	body, err := s.client.FetchBody(ctx, source.FeedURL, fetcher.RequestOptions{})
	if err != nil {
		return nil, fmt.Errorf("fetch feed %s: %w", source.FeedURL, err)
	}
	return ParseFeed(string(body), source)
}

// State reports the most degraded breaker state across all sources for
// health reporting. Open wins over half-open, half-open over closed.
func (s *Scraper) State() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	worst := gobreaker.StateClosed
	for _, cb := range s.breakers {
		switch cb.State() {
		case gobreaker.StateOpen:
			return gobreaker.StateOpen.String()
		case gobreaker.StateHalfOpen:
			worst = gobreaker.StateHalfOpen
		}
	}
	return worst.String()
}

func (s *Scraper) breakerFor(sourceID string) *circuitbreaker.CircuitBreaker {
	s.mu.Lock()
	defer s.mu.Unlock()

	cb, ok := s.breakers[sourceID]
	if !ok {
		cfg := circuitbreaker.FeedFetchConfig()
		cfg.Name = "feed-fetch:" + sourceID
		cb = circuitbreaker.New(cfg)
		s.breakers[sourceID] = cb
	}
	return cb
}

func errorType(err error) string {
	switch {
	case errors.Is(err, gobreaker.ErrOpenState):
		return "breaker"
	case errors.Is(err, fetcher.ErrSecurityViolation):
		return "blocked"
	case errors.Is(err, ErrParse):
		return "parse"
	default:
		return "fetch"
	}
}
