package fetcher

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/go-shiori/go-readability"

	"github.com/mkk2026/Security.News.Scraper/internal/resilience/circuitbreaker"
)

// ReadabilityFetcher extracts full article text from a page when the feed
// itself did not carry a usable body. All transport goes through SafeFetch,
// so redirect targets are validated the same way as the initial URL.
//
// Thread safety: ReadabilityFetcher is safe for concurrent use.
type ReadabilityFetcher struct {
	client         *SafeClient
	circuitBreaker *circuitbreaker.CircuitBreaker
}

// NewReadabilityFetcher creates a content fetcher backed by the given
// SafeClient.
func NewReadabilityFetcher(client *SafeClient) *ReadabilityFetcher {
	return &ReadabilityFetcher{
		client:         client,
		circuitBreaker: circuitbreaker.New(circuitbreaker.ContentFetchConfig()),
	}
}

// FetchContent fetches the article page at urlStr and returns its extracted
// plain text. Failures here are expected to be treated as non-fatal by the
// caller, which falls back to the feed-provided summary.
func (f *ReadabilityFetcher) FetchContent(ctx context.Context, urlStr string) (string, error) {
	result, err := f.circuitBreaker.Execute(func() (interface{}, error) {
		return f.doFetch(ctx, urlStr)
	})
	if err != nil {
		return "", err
	}
	return result.(string), nil
}

// State reports the content fetch breaker state for health reporting.
func (f *ReadabilityFetcher) State() string {
	return f.circuitBreaker.State().String()
}

func (f *ReadabilityFetcher) doFetch(ctx context.Context, urlStr string) (interface{}, error) {
	htmlBytes, err := f.client.FetchBody(ctx, urlStr, RequestOptions{})
	if err != nil {
		return "", err
	}

	pageURL, err := url.Parse(urlStr)
	if err != nil {
		pageURL = nil // readability can work without a base URL
	}

	article, err := readability.FromReader(bytes.NewReader(htmlBytes), pageURL)
	if err != nil {
		return "", fmt.Errorf("readability extraction for %s: %w", urlStr, err)
	}

	if article.TextContent == "" {
		if article.Content == "" {
			return "", fmt.Errorf("%w: %s", ErrNoContent, urlStr)
		}
		slog.Debug("using raw content instead of text content",
			slog.String("url", urlStr),
			slog.Int("content_length", len(article.Content)))
		return article.Content, nil
	}
	return article.TextContent, nil
}
