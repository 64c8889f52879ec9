// Command diagnose_feeds checks every configured feed source and reports
// which ones are healthy, redirected, or broken. It reads the same source
// configuration as the scraper (SOURCES_FILE or the built-in defaults) and
// writes a text report and a JSON report to the working directory.
//
// Unlike the scraper itself this tool fetches directly, without SSRF
// validation or circuit breakers, so it can diagnose feeds the pipeline
// refuses to touch.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/mkk2026/Security.News.Scraper/internal/config"
)

// FeedDiagnostic is the diagnostic result for a single feed source.
type FeedDiagnostic struct {
	SourceID      string `json:"source_id"`
	Name          string `json:"name"`
	URL           string `json:"url"`
	Status        string `json:"status"` // "OK", "HTTP_ERROR", "PARSE_ERROR", "EMPTY", "TIMEOUT", "REDIRECT"
	HTTPCode      int    `json:"http_code"`
	ItemCount     int    `json:"item_count"`
	LatestDate    string `json:"latest_date"`
	ErrorMessage  string `json:"error_message,omitempty"`
	FeedType      string `json:"feed_type"` // "rss", "atom", "json", "UNKNOWN"
	RedirectURL   string `json:"redirect_url,omitempty"`
	ResponseTime  int64  `json:"response_time_ms"`
	ContentLength int64  `json:"content_length"`
}

func main() {
	sources, err := config.LoadSourcesFromEnv()
	if err != nil {
		log.Fatalf("Failed to load sources: %v", err)
	}

	log.Printf("Diagnosing %d feed sources...\n", len(sources))

	diagnostics := make([]FeedDiagnostic, 0, len(sources))
	for i, source := range sources {
		log.Printf("[%d/%d] Diagnosing: %s", i+1, len(sources), source.Name)
		diag := diagnoseFeed(source.ID, source.Name, source.FeedURL, 30*time.Second)
		diagnostics = append(diagnostics, diag)

		// Rate limiting to be nice to servers
		time.Sleep(500 * time.Millisecond)
	}

	generateReport(diagnostics)
	generateJSONReport(diagnostics)
}

func diagnoseFeed(id, name, url string, timeout time.Duration) FeedDiagnostic {
	diag := FeedDiagnostic{
		SourceID: id,
		Name:     name,
		URL:      url,
	}

	startTime := time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		diag.Status = "REQUEST_ERROR"
		diag.ErrorMessage = err.Error()
		return diag
	}

	req.Header.Set("User-Agent", "SecurityNewsScraper-Diagnostic/1.0")
	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/xml, text/xml")

	client := &http.Client{
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 10 {
				return fmt.Errorf("too many redirects")
			}
			return nil
		},
	}

	resp, err := client.Do(req)
	diag.ResponseTime = time.Since(startTime).Milliseconds()

	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			diag.Status = "TIMEOUT"
			diag.ErrorMessage = fmt.Sprintf("Request timeout after %v", timeout)
		} else {
			diag.Status = "HTTP_ERROR"
			diag.ErrorMessage = err.Error()
		}
		return diag
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			log.Printf("Failed to close response body: %v", err)
		}
	}()

	diag.HTTPCode = resp.StatusCode
	diag.ContentLength = resp.ContentLength

	if resp.Request.URL.String() != url {
		diag.RedirectURL = resp.Request.URL.String()
		diag.Status = "REDIRECT"
	}

	if resp.StatusCode != 200 {
		diag.Status = "HTTP_ERROR"
		diag.ErrorMessage = fmt.Sprintf("HTTP %d: %s", resp.StatusCode, resp.Status)
		return diag
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		diag.Status = "READ_ERROR"
		diag.ErrorMessage = err.Error()
		return diag
	}

	feed, err := gofeed.NewParser().ParseString(string(body))
	if err != nil {
		diag.Status = "PARSE_ERROR"
		diag.FeedType = "UNKNOWN"
		preview := string(body)
		if len(preview) > 200 {
			preview = preview[:200] + "..."
		}
		diag.ErrorMessage = fmt.Sprintf("%v. Content preview: %s", err, preview)
		return diag
	}

	diag.FeedType = feed.FeedType
	diag.ItemCount = len(feed.Items)
	if len(feed.Items) > 0 && feed.Items[0].PublishedParsed != nil {
		diag.LatestDate = feed.Items[0].PublishedParsed.Format(time.RFC3339)
	}

	if diag.ItemCount == 0 {
		diag.Status = "EMPTY"
		diag.ErrorMessage = "Feed has no items"
		return diag
	}

	if diag.Status != "REDIRECT" {
		diag.Status = "OK"
	}
	return diag
}

// writef is a helper to write to file and handle errors
func writef(f *os.File, format string, args ...interface{}) error {
	_, err := fmt.Fprintf(f, format, args...)
	return err
}

func generateReport(diagnostics []FeedDiagnostic) {
	f, err := os.Create("feed_diagnostic_report.txt")
	if err != nil {
		log.Printf("Failed to create report file: %v", err)
		return
	}
	defer func() {
		if err := f.Close(); err != nil {
			log.Printf("Failed to close report file: %v", err)
		}
	}()

	writeErr := func(err error) bool {
		if err != nil {
			log.Printf("Failed to write to report: %v", err)
			return true
		}
		return false
	}

	if writeErr(writef(f, "===============================================\n")) {
		return
	}
	if writeErr(writef(f, "Security Feed Diagnostic Report\n")) {
		return
	}
	if writeErr(writef(f, "Generated: %s\n", time.Now().Format(time.RFC3339))) {
		return
	}
	if writeErr(writef(f, "Total Sources: %d\n", len(diagnostics))) {
		return
	}
	if writeErr(writef(f, "===============================================\n\n")) {
		return
	}

	statusCount := make(map[string]int)
	var okCount, errorCount int
	for _, d := range diagnostics {
		statusCount[d.Status]++
		if d.Status == "OK" || d.Status == "REDIRECT" {
			okCount++
		} else {
			errorCount++
		}
	}

	_ = writef(f, "SUMMARY:\n")
	_ = writef(f, "  ✅ Working: %d (%.1f%%)\n", okCount, float64(okCount)/float64(len(diagnostics))*100)
	_ = writef(f, "  ❌ Broken: %d (%.1f%%)\n", errorCount, float64(errorCount)/float64(len(diagnostics))*100)
	_ = writef(f, "\nSTATUS BREAKDOWN:\n")
	for status, count := range statusCount {
		_ = writef(f, "  %s: %d\n", status, count)
	}
	_ = writef(f, "\n")

	_ = writef(f, "DETAILED RESULTS:\n")
	_ = writef(f, "===============================================\n\n")

	_ = writef(f, "✅ WORKING FEEDS (%d):\n", okCount)
	_ = writef(f, "-------------------------------------------\n")
	for _, d := range diagnostics {
		if d.Status == "OK" || d.Status == "REDIRECT" {
			_ = writef(f, "Name: %s (%s)\n", d.Name, d.SourceID)
			_ = writef(f, "  URL: %s\n", d.URL)
			_ = writef(f, "  Type: %s | Items: %d | Latest: %s\n", d.FeedType, d.ItemCount, d.LatestDate)
			_ = writef(f, "  Response: %dms | HTTP: %d\n", d.ResponseTime, d.HTTPCode)
			if d.RedirectURL != "" {
				_ = writef(f, "  ⚠️  Redirected to: %s\n", d.RedirectURL)
			}
			_ = writef(f, "\n")
		}
	}

	_ = writef(f, "\n❌ BROKEN FEEDS (%d):\n", errorCount)
	_ = writef(f, "-------------------------------------------\n")
	for _, d := range diagnostics {
		if d.Status != "OK" && d.Status != "REDIRECT" {
			_ = writef(f, "Name: %s (%s)\n", d.Name, d.SourceID)
			_ = writef(f, "  URL: %s\n", d.URL)
			_ = writef(f, "  Status: %s | HTTP: %d\n", d.Status, d.HTTPCode)
			_ = writef(f, "  Error: %s\n", d.ErrorMessage)
			_ = writef(f, "  Response: %dms\n", d.ResponseTime)
			_ = writef(f, "\n")
		}
	}

	log.Println("✅ Text report generated: feed_diagnostic_report.txt")
}

func generateJSONReport(diagnostics []FeedDiagnostic) {
	f, err := os.Create("feed_diagnostic_report.json")
	if err != nil {
		log.Printf("Failed to create JSON report: %v", err)
		return
	}
	defer func() {
		if err := f.Close(); err != nil {
			log.Printf("Failed to close JSON report file: %v", err)
		}
	}()

	encoder := json.NewEncoder(f)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(diagnostics); err != nil {
		log.Printf("Failed to write JSON report: %v", err)
		return
	}

	log.Println("✅ JSON report generated: feed_diagnostic_report.json")
}
