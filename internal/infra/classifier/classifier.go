// Package classifier scores security news content, extracts vulnerability
// identifiers, and provides the near-duplicate predicate used by ingestion.
package classifier

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"

	"github.com/mkk2026/Security.News.Scraper/internal/usecase/ingest"
)

var cvePattern = regexp.MustCompile(`(?i)\bCVE-\d{4}-\d{4,}\b`)

// severityKeywords maps indicator phrases to score contributions. Scores are
// summed and capped at 10 to stay comparable with CVSS.
var severityKeywords = map[string]float64{
	"zero-day":              4,
	"zero day":              4,
	"actively exploited":    4,
	"exploited in the wild": 4,
	"remote code execution": 3.5,
	"rce":                   3.5,
	"critical":              3,
	"ransomware":            3,
	"backdoor":              2.5,
	"supply chain":          2.5,
	"privilege escalation":  2,
	"data breach":           2,
	"unauthenticated":       2,
	"vulnerability":         1.5,
	"exploit":               1.5,
	"malware":               1.5,
	"patch":                 1,
	"phishing":              1,
}

// duplicateThreshold is the minimum token overlap ratio for two articles to
// be considered the same story.
const duplicateThreshold = 0.7

// Classifier is a stateless keyword-based content classifier.
type Classifier struct{}

func New() *Classifier {
	return &Classifier{}
}

// AnalyzeContent derives a severity score and level from indicator keywords
// and extracts CVE identifiers from the combined text. Extracted
// vulnerabilities inherit the article-level severity since feeds rarely
// carry per-CVE scores.
func (c *Classifier) AnalyzeContent(title, summary, body string) ingest.Analysis {
	text := strings.ToLower(title + " " + summary + " " + body)

	var score float64
	for keyword, weight := range severityKeywords {
		if strings.Contains(text, keyword) {
			score += weight
		}
	}
	if score > 10 {
		score = 10
	}
	level := severityLevel(score)

	var vulns []ingest.VulnerabilityRef
	for _, id := range extractCVEs(title + " " + summary + " " + body) {
		vulns = append(vulns, ingest.VulnerabilityRef{
			ExternalID: id,
			CVSSScore:  score,
			Severity:   level,
		})
	}

	return ingest.Analysis{
		SeverityScore:   score,
		SeverityLevel:   level,
		Vulnerabilities: vulns,
	}
}

// HashContent returns the hex-encoded SHA-256 of the text.
func (c *Classifier) HashContent(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// IsDuplicateArticle reports whether two articles cover the same story,
// judged by token overlap of their titles and summaries.
func (c *Classifier) IsDuplicateArticle(titleA, summaryA, titleB, summaryB string) bool {
	if overlap(tokenize(titleA), tokenize(titleB)) >= duplicateThreshold {
		return true
	}
	return overlap(
		tokenize(titleA+" "+summaryA),
		tokenize(titleB+" "+summaryB),
	) >= duplicateThreshold
}

func severityLevel(score float64) string {
	switch {
	case score >= 9:
		return "critical"
	case score >= 7:
		return "high"
	case score >= 4:
		return "medium"
	default:
		return "low"
	}
}

// extractCVEs returns normalized, deduplicated CVE identifiers in order of
// first appearance.
func extractCVEs(text string) []string {
	matches := cvePattern.FindAllString(text, -1)
	if len(matches) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(matches))
	ids := make([]string, 0, len(matches))
	for _, m := range matches {
		id := strings.ToUpper(m)
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}

func tokenize(text string) map[string]struct{} {
	tokens := make(map[string]struct{})
	for _, field := range strings.Fields(strings.ToLower(text)) {
		token := strings.Trim(field, ".,;:!?\"'()[]{}")
		if len(token) < 3 {
			continue
		}
		tokens[token] = struct{}{}
	}
	return tokens
}

// overlap computes the Jaccard index of two token sets.
func overlap(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	common := 0
	for token := range a {
		if _, ok := b[token]; ok {
			common++
		}
	}
	union := len(a) + len(b) - common
	return float64(common) / float64(union)
}
