package scrape

import (
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// extractText returns the visible text of an HTML document with page chrome
// (scripts, styles, navigation, header, footer) removed. Each line is trimmed,
// runs of double spaces split phrases, and blank pieces are dropped.
func extractText(body []byte) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return ""
	}
	doc.Find("script, style, nav, footer, header, noscript, template").Remove()

	var out []string
	for _, line := range strings.Split(doc.Text(), "\n") {
		for _, phrase := range strings.Split(strings.TrimSpace(line), "  ") {
			if phrase = strings.TrimSpace(phrase); phrase != "" {
				out = append(out, phrase)
			}
		}
	}
	return strings.Join(out, "\n")
}
