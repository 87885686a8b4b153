// Package htmlutil converts Mastodon status HTML into plain text.
package htmlutil

import (
	"html"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	tagPattern        = regexp.MustCompile(`<[^>]+>`)
	multiSpacePattern = regexp.MustCompile(`[ \t]+`)
)

// Text renders status HTML as plain text. Paragraphs, divs, list items and <br>
// become line breaks; entities are decoded and blank lines dropped.
func Text(htmlContent string) string {
	if strings.TrimSpace(htmlContent) == "" {
		return ""
	}
	if !strings.Contains(htmlContent, "<") {
		return cleanLines(html.UnescapeString(htmlContent))
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return StripTags(htmlContent)
	}

	doc.Find("br").ReplaceWithHtml("\n")
	doc.Find("p, div, li, blockquote").Each(func(_ int, s *goquery.Selection) {
		s.AppendHtml("\n")
	})

	return cleanLines(doc.Text())
}

// StripTags removes HTML tags and returns single-line plain text.
func StripTags(htmlContent string) string {
	if htmlContent == "" {
		return ""
	}
	content := tagPattern.ReplaceAllString(htmlContent, " ")
	content = html.UnescapeString(content)
	content = multiSpacePattern.ReplaceAllString(content, " ")
	return strings.TrimSpace(content)
}

// Truncate shortens s to at most n runes, appending "..." when cut.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return strings.TrimSpace(string(r[:n])) + "..."
}

func cleanLines(s string) string {
	lines := strings.Split(s, "\n")
	cleaned := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(multiSpacePattern.ReplaceAllString(line, " "))
		if line != "" {
			cleaned = append(cleaned, line)
		}
	}
	return strings.Join(cleaned, "\n")
}
