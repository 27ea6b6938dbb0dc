package sanitizer

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
)

var strict = bluemonday.StrictPolicy()

// PlainText removes every HTML element from input and returns the remaining text unescaped,
// so "Tom &amp; <b>Jerry</b>" becomes "Tom & Jerry". Script and style bodies are dropped.
//
// Input without '<' or '&' is returned unchanged, including surrounding whitespace.
func PlainText(input string) string {
	if !strings.ContainsAny(input, "<&") {
		return input
	}
	return html.UnescapeString(strict.Sanitize(input))
}
