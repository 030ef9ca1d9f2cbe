// Package htmlmd converts the HTML bodies EKAP serves for tender
// announcements into markdown, plus short plain-text previews for list
// views.
package htmlmd

import (
	"regexp"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
)

var (
	tagPattern        = regexp.MustCompile(`<[^>]+>`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

// Converter turns announcement HTML into markdown. Safe for concurrent use.
type Converter struct {
	conv *md.Converter
}

// NewConverter creates a converter with the default rule set.
func NewConverter() *Converter {
	return &Converter{conv: md.NewConverter("", true, nil)}
}

// ToMarkdown converts HTML to markdown. Empty input or conversion failure
// yields an empty string; announcements are useful even without the
// rendered body, so callers treat this as best effort.
func (c *Converter) ToMarkdown(html string) string {
	if strings.TrimSpace(html) == "" {
		return ""
	}
	out, err := c.conv.ConvertString(html)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(out)
}

// Preview extracts a plain-text preview of the HTML body, like the
// package-level Preview.
func (c *Converter) Preview(html string, maxLen int) string {
	return Preview(html, maxLen)
}

// Preview extracts a plain-text preview from HTML, collapsing whitespace
// and truncating to maxLen runes with an ellipsis.
func Preview(html string, maxLen int) string {
	if html == "" {
		return ""
	}

	text := tagPattern.ReplaceAllString(html, "")
	text = strings.TrimSpace(whitespacePattern.ReplaceAllString(text, " "))

	runes := []rune(text)
	if len(runes) > maxLen {
		return string(runes[:maxLen]) + "..."
	}
	return text
}
