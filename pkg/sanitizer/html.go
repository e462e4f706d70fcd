package sanitizer

import (
	"html"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	strictPolicy *bluemonday.Policy
	spacedPolicy *bluemonday.Policy
	initOnce     sync.Once
)

func initPolicies() {
	initOnce.Do(func() {
		strictPolicy = bluemonday.StrictPolicy()

		// Replaces each stripped tag with a space so "a<br>b" keeps its word break.
		spacedPolicy = bluemonday.StrictPolicy()
		spacedPolicy.AddSpaceWhenStrippingTag(true)
	})
}

// StripHTML removes every tag and returns plain text. Script and style bodies are
// dropped; entities are decoded so the result is safe to re-escape downstream.
func StripHTML(s string) string {
	if s == "" {
		return ""
	}
	initPolicies()
	return html.UnescapeString(strictPolicy.Sanitize(s))
}

// Clean strips HTML, treating tags as word breaks, and collapses runs of
// whitespace into single spaces.
func Clean(s string) string {
	if s == "" {
		return ""
	}
	initPolicies()
	return strings.Join(strings.Fields(html.UnescapeString(spacedPolicy.Sanitize(s))), " ")
}
