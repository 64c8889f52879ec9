package fetcher

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/mkk2026/Security.News.Scraper/internal/observability/metrics"
	"github.com/mkk2026/Security.News.Scraper/internal/security"
)

// SafeClient fetches URLs with per-hop SSRF validation. Redirects are never
// followed by the transport; each hop is validated (including DNS
// resolution, immediately before use) and then requested explicitly.
//
// Thread safety: SafeClient is safe for concurrent use.
type SafeClient struct {
	client    *http.Client
	validator *security.URLValidator
	config    Config
}

// RequestOptions controls the method, headers and body of a SafeFetch call.
// The zero value issues a bodyless GET.
type RequestOptions struct {
	Method string
	Header http.Header
	Body   []byte
}

// NewSafeClient creates a SafeClient with the given validator and config.
func NewSafeClient(validator *security.URLValidator, cfg Config) *SafeClient {
	var transport http.RoundTripper = &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
	}
	if cfg.Transport != nil {
		transport = cfg.Transport
	}

	return &SafeClient{
		validator: validator,
		config:    cfg,
		client: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
			// Redirects are handled manually in SafeFetch so that every hop
			// can be re-validated before it is contacted.
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

// SafeFetch performs an HTTP request with SSRF validation on the initial URL
// and on every redirect target. It returns ErrSecurityViolation if any hop
// is unsafe (the unsafe target is never contacted), ErrTooManyRedirects when
// the hop budget is exhausted, and the final response otherwise. The caller
// must close the response body.
//
// Redirect semantics follow conventional browser behavior: 303 always
// downgrades to a bodyless GET, 301/302 downgrade a POST to a bodyless GET,
// and 307/308 preserve method and body.
func (c *SafeClient) SafeFetch(ctx context.Context, rawURL string, opts RequestOptions) (*http.Response, error) {
	method := opts.Method
	if method == "" {
		method = http.MethodGet
	}
	body := opts.Body
	current := rawURL

	for hop := 0; hop <= c.config.MaxRedirects; hop++ {
		if !c.validator.IsSafeURLContext(ctx, current) {
			slog.Warn("unsafe URL blocked",
				slog.String("url", current),
				slog.Int("hop", hop))
			metrics.RecordBlockedURL("fetch")
			return nil, fmt.Errorf("%w: %s", ErrSecurityViolation, current)
		}

		var reader io.Reader
		if len(body) > 0 {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, current, reader)
		if err != nil {
			return nil, fmt.Errorf("create request for %s: %w", current, err)
		}
		for k, vals := range opts.Header {
			for _, v := range vals {
				req.Header.Add(k, v)
			}
		}
		if req.Header.Get("User-Agent") == "" {
			req.Header.Set("User-Agent", c.config.UserAgent)
		}

		resp, err := c.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("request %s: %w", current, err)
		}

		location := resp.Header.Get("Location")
		if !isRedirect(resp.StatusCode) || location == "" {
			return resp, nil
		}

		next, err := req.URL.Parse(location)
		// The redirect body is never needed; drain and close before the
		// next hop so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		_ = resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("resolve redirect target %q: %w", location, err)
		}

		switch resp.StatusCode {
		case http.StatusSeeOther:
			method = http.MethodGet
			body = nil
		case http.StatusMovedPermanently, http.StatusFound:
			if method == http.MethodPost {
				method = http.MethodGet
				body = nil
			}
		}

		slog.Debug("following redirect",
			slog.String("from", current),
			slog.String("to", next.String()),
			slog.Int("status", resp.StatusCode),
			slog.Int("hop", hop+1))
		current = next.String()
	}

	return nil, fmt.Errorf("%w: exceeded %d redirects fetching %s",
		ErrTooManyRedirects, c.config.MaxRedirects, rawURL)
}

// FetchBody fetches a URL expecting a 2xx response and returns the body,
// enforcing the configured size limit while reading.
func (c *SafeClient) FetchBody(ctx context.Context, rawURL string, opts RequestOptions) ([]byte, error) {
	resp, err := c.SafeFetch(ctx, rawURL, opts)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: HTTP %d from %s", ErrUnexpectedStatus, resp.StatusCode, rawURL)
	}

	limited := io.LimitReader(resp.Body, c.config.MaxBodySize+1)
	data, err := io.ReadAll(limited)
	if err != nil {
		return nil, fmt.Errorf("read response body from %s: %w", rawURL, err)
	}
	if int64(len(data)) > c.config.MaxBodySize {
		return nil, fmt.Errorf("%w: %s exceeds %d bytes", ErrBodyTooLarge, rawURL, c.config.MaxBodySize)
	}
	return data, nil
}

func isRedirect(status int) bool {
	switch status {
	case http.StatusMovedPermanently, // 301
		http.StatusFound,             // 302
		http.StatusSeeOther,          // 303
		http.StatusTemporaryRedirect, // 307
		http.StatusPermanentRedirect: // 308
		return true
	}
	return false
}
