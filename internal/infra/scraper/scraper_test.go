package scraper_test

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mkk2026/Security.News.Scraper/internal/domain/entity"
	"github.com/mkk2026/Security.News.Scraper/internal/infra/fetcher"
	"github.com/mkk2026/Security.News.Scraper/internal/infra/scraper"
	"github.com/mkk2026/Security.News.Scraper/internal/security"
)

// publicResolver resolves every hostname to a public address so validation
// of test hostnames passes while dials are redirected to the test server.
type publicResolver struct{}

func (publicResolver) LookupIPAddr(context.Context, string) ([]net.IPAddr, error) {
	return []net.IPAddr{{IP: net.ParseIP("93.184.216.34")}}, nil
}

func newTestScraper(t *testing.T, srv *httptest.Server) *scraper.Scraper {
	t.Helper()

	addr := srv.Listener.Addr().String()
	cfg := fetcher.DefaultConfig()
	cfg.Timeout = 5 * time.Second
	cfg.Transport = &http.Transport{
		DialContext: func(ctx context.Context, network, _ string) (net.Conn, error) {
			var d net.Dialer
			return d.DialContext(ctx, network, addr)
		},
	}
	client := fetcher.NewSafeClient(security.NewURLValidator(publicResolver{}), cfg)
	return scraper.NewScraper(client)
}

const sampleFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Security Feed</title>
    <item>
      <title>Critical Advisory</title>
      <link>https://example.com/advisory-1</link>
      <description>A critical vulnerability was disclosed</description>
      <pubDate>Mon, 15 Jan 2024 10:30:00 +0000</pubDate>
    </item>
    <item>
      <title>Second Advisory</title>
      <link>https://example.com/advisory-2</link>
      <description>Another disclosure</description>
      <pubDate>Tue, 16 Jan 2024 08:00:00 +0000</pubDate>
    </item>
  </channel>
</rss>`

func TestScrapeSource_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(sampleFeed))
	}))
	defer srv.Close()

	s := newTestScraper(t, srv)
	items := s.ScrapeSource(context.Background(), entity.Source{
		ID:      "test-feed",
		Name:    "Test Feed",
		FeedURL: "http://feeds.test/rss",
	})

	if len(items) != 2 {
		t.Fatalf("items length = %d, want 2", len(items))
	}
	if items[0].Title != "Critical Advisory" {
		t.Errorf("items[0].Title = %q", items[0].Title)
	}
	if items[0].SourceID != "test-feed" {
		t.Errorf("items[0].SourceID = %q, want test-feed", items[0].SourceID)
	}
}

func TestScrapeSource_TransportFailureYieldsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	s := newTestScraper(t, srv)
	items := s.ScrapeSource(context.Background(), entity.Source{
		ID:      "gone",
		Name:    "Gone Feed",
		FeedURL: "http://feeds.test/missing",
	})

	if len(items) != 0 {
		t.Errorf("items length = %d, want 0 on transport failure", len(items))
	}
}

func TestScrapeSource_ParseFailureYieldsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>not a feed</html>"))
	}))
	defer srv.Close()

	s := newTestScraper(t, srv)
	items := s.ScrapeSource(context.Background(), entity.Source{
		ID:      "broken",
		Name:    "Broken Feed",
		FeedURL: "http://feeds.test/broken",
	})

	if len(items) != 0 {
		t.Errorf("items length = %d, want 0 on parse failure", len(items))
	}
}

func TestScrapeSource_UnsafeFeedURLYieldsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	s := newTestScraper(t, srv)
	items := s.ScrapeSource(context.Background(), entity.Source{
		ID:      "internal",
		Name:    "Internal Feed",
		FeedURL: "http://127.0.0.1/feed",
	})

	if len(items) != 0 {
		t.Errorf("items length = %d, want 0 for unsafe feed URL", len(items))
	}
}

func TestScrapeAllSources_FailureIsolation(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/good", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(sampleFeed))
	})
	mux.HandleFunc("/bad", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	s := newTestScraper(t, srv)
	items := s.ScrapeAllSources(context.Background(), []entity.Source{
		{ID: "good", Name: "Good", FeedURL: "http://feeds.test/good"},
		{ID: "bad", Name: "Bad", FeedURL: "http://feeds.test/bad"},
	})

	if len(items) != 2 {
		t.Fatalf("items length = %d, want 2 from the healthy source", len(items))
	}
	for _, it := range items {
		if it.SourceID != "good" {
			t.Errorf("item from source %q, want only good", it.SourceID)
		}
	}
}

func TestScrapeAllSources_RunsConcurrently(t *testing.T) {
	const delay = 300 * time.Millisecond

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(delay)
		_, _ = w.Write([]byte(sampleFeed))
	}))
	defer srv.Close()

	s := newTestScraper(t, srv)
	sources := []entity.Source{
		{ID: "a", Name: "A", FeedURL: "http://feeds.test/a"},
		{ID: "b", Name: "B", FeedURL: "http://feeds.test/b"},
		{ID: "c", Name: "C", FeedURL: "http://feeds.test/c"},
	}

	start := time.Now()
	items := s.ScrapeAllSources(context.Background(), sources)
	elapsed := time.Since(start)

	if len(items) != 6 {
		t.Fatalf("items length = %d, want 6", len(items))
	}
	// Sequential scraping would take at least 3x the per-source delay.
	if elapsed >= 3*delay {
		t.Errorf("elapsed = %v, want concurrent fan-out well under %v", elapsed, 3*delay)
	}
}

func TestScrapeAllSources_Empty(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	s := newTestScraper(t, srv)
	items := s.ScrapeAllSources(context.Background(), nil)
	if len(items) != 0 {
		t.Errorf("items length = %d, want 0", len(items))
	}
}
