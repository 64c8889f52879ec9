package scraper

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// maxSummaryLength bounds stored summary text.
const maxSummaryLength = 500

// entityReplacer decodes the entities that survive feed double-encoding.
var entityReplacer = strings.NewReplacer(
	"&amp;", "&",
	"&lt;", "<",
	"&gt;", ">",
	"&quot;", `"`,
	"&#39;", "'",
	"&nbsp;", " ",
)

// CleanText normalizes a feed-supplied string: CDATA wrappers are removed,
// HTML tags are stripped, residual entities are decoded and whitespace is
// collapsed. Feeds disagree wildly about how much markup belongs in a title
// or description, so everything passes through here before use.
func CleanText(raw string) string {
	s := stripCDATA(raw)

	// The HTML parser drops CDATA sections as comments, so CDATA removal
	// must happen before tag stripping.
	if strings.Contains(s, "<") {
		if doc, err := goquery.NewDocumentFromReader(strings.NewReader(s)); err == nil {
			s = doc.Text()
		}
	}

	s = entityReplacer.Replace(s)
	return collapseWhitespace(s)
}

// Truncate shortens s to at most max runes.
func Truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

func stripCDATA(s string) string {
	s = strings.ReplaceAll(s, "<![CDATA[", "")
	return strings.ReplaceAll(s, "]]>", "")
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
