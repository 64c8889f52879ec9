package scraper_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/mkk2026/Security.News.Scraper/internal/domain/entity"
	"github.com/mkk2026/Security.News.Scraper/internal/infra/scraper"
)

var testSource = entity.Source{
	ID:      "krebs",
	Name:    "Krebs on Security",
	FeedURL: "https://krebsonsecurity.com/feed/",
}

func TestParseFeed_RSS(t *testing.T) {
	markup := `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Krebs on Security</title>
    <link>https://krebsonsecurity.com</link>
    <item>
      <title><![CDATA[Breach at Example Corp &amp; Partners]]></title>
      <link>https://krebsonsecurity.com/2024/01/breach</link>
      <description><![CDATA[<p>Attackers stole <b>records</b>.</p>]]></description>
      <pubDate>Mon, 15 Jan 2024 10:30:00 +0000</pubDate>
    </item>
    <item>
      <title>Second Story</title>
      <link>https://krebsonsecurity.com/2024/01/second</link>
      <description>Short summary</description>
      <pubDate>Tue, 16 Jan 2024 08:00:00 +0000</pubDate>
    </item>
  </channel>
</rss>`

	items, err := scraper.ParseFeed(markup, testSource)
	if err != nil {
		t.Fatalf("ParseFeed() error = %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("items length = %d, want 2", len(items))
	}

	first := items[0]
	if first.Title != "Breach at Example Corp & Partners" {
		t.Errorf("Title = %q, want cleaned title", first.Title)
	}
	if first.URL != "https://krebsonsecurity.com/2024/01/breach" {
		t.Errorf("URL = %q", first.URL)
	}
	if first.Summary != "Attackers stole records." {
		t.Errorf("Summary = %q, want stripped summary", first.Summary)
	}
	if first.SourceID != "krebs" || first.SourceName != "Krebs on Security" {
		t.Errorf("source fields = %q/%q", first.SourceID, first.SourceName)
	}
	want := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
	if !first.PublishedAt.Equal(want) {
		t.Errorf("PublishedAt = %v, want %v", first.PublishedAt, want)
	}
}

func TestParseFeed_SkipsIncompleteItems(t *testing.T) {
	markup := `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Feed</title>
    <item>
      <title>No link here</title>
      <description>skipped</description>
    </item>
    <item>
      <link>https://example.com/no-title</link>
      <description>skipped too</description>
    </item>
    <item>
      <title>Complete</title>
      <link>https://example.com/ok</link>
    </item>
  </channel>
</rss>`

	items, err := scraper.ParseFeed(markup, testSource)
	if err != nil {
		t.Fatalf("ParseFeed() error = %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("items length = %d, want 1", len(items))
	}
	if items[0].Title != "Complete" {
		t.Errorf("Title = %q, want %q", items[0].Title, "Complete")
	}
}

func TestParseFeed_DropsUnsafeLinks(t *testing.T) {
	markup := `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Feed</title>
    <item>
      <title>Script link</title>
      <link>javascript:alert(1)</link>
    </item>
    <item>
      <title>Internal link</title>
      <link>http://192.168.1.10/admin</link>
    </item>
    <item>
      <title>Localhost link</title>
      <link>http://localhost/debug</link>
    </item>
    <item>
      <title>Safe link</title>
      <link>https://example.com/advisory</link>
    </item>
  </channel>
</rss>`

	items, err := scraper.ParseFeed(markup, testSource)
	if err != nil {
		t.Fatalf("ParseFeed() error = %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("items length = %d, want only the safe item", len(items))
	}
	if items[0].URL != "https://example.com/advisory" {
		t.Errorf("URL = %q", items[0].URL)
	}
}

func TestParseFeed_TruncatesSummary(t *testing.T) {
	long := strings.Repeat("x", 800)
	markup := `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Feed</title>
    <item>
      <title>Long item</title>
      <link>https://example.com/long</link>
      <description>` + long + `</description>
    </item>
  </channel>
</rss>`

	items, err := scraper.ParseFeed(markup, testSource)
	if err != nil {
		t.Fatalf("ParseFeed() error = %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("items length = %d, want 1", len(items))
	}
	if got := len(items[0].Summary); got != 500 {
		t.Errorf("summary length = %d, want 500", got)
	}
}

func TestParseFeed_MissingDateDefaultsToNow(t *testing.T) {
	markup := `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Feed</title>
    <item>
      <title>Undated</title>
      <link>https://example.com/undated</link>
    </item>
  </channel>
</rss>`

	before := time.Now()
	items, err := scraper.ParseFeed(markup, testSource)
	if err != nil {
		t.Fatalf("ParseFeed() error = %v", err)
	}
	after := time.Now()

	if len(items) != 1 {
		t.Fatalf("items length = %d, want 1", len(items))
	}
	got := items[0].PublishedAt
	if got.Before(before) || got.After(after) {
		t.Errorf("PublishedAt = %v, want within [%v, %v]", got, before, after)
	}
}

func TestParseFeed_Atom(t *testing.T) {
	markup := `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>Advisories</title>
  <updated>2024-02-01T00:00:00Z</updated>
  <entry>
    <title>Atom Advisory</title>
    <link href="https://example.com/atom-advisory"/>
    <id>advisory-1</id>
    <updated>2024-02-01T00:00:00Z</updated>
    <summary>An atom summary</summary>
  </entry>
</feed>`

	items, err := scraper.ParseFeed(markup, testSource)
	if err != nil {
		t.Fatalf("ParseFeed() error = %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("items length = %d, want 1", len(items))
	}
	if items[0].Title != "Atom Advisory" {
		t.Errorf("Title = %q", items[0].Title)
	}
	if items[0].Summary != "An atom summary" {
		t.Errorf("Summary = %q", items[0].Summary)
	}
}

func TestParseFeed_MalformedMarkup(t *testing.T) {
	_, err := scraper.ParseFeed("this is not a feed", testSource)
	if !errors.Is(err, scraper.ErrParse) {
		t.Fatalf("ParseFeed error = %v, want ErrParse", err)
	}
}
