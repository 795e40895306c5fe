package adapter

import (
	"html"
	"regexp"
	"strings"
)

var htmlTagRegex = regexp.MustCompile(`<[^>]*>`)

// PlainText converts an HTML or HTML-encoded description to plain text.
// Entities are unescaped first (Greenhouse double-encodes its content), then
// tags are stripped and whitespace collapsed. Job descriptions are stored
// raw; callers use this for display only.
func PlainText(content string) string {
	unescaped := html.UnescapeString(content)
	plain := htmlTagRegex.ReplaceAllString(unescaped, "")
	return strings.Join(strings.Fields(plain), " ")
}
