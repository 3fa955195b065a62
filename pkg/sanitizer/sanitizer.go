// Package sanitizer strips or constrains HTML in user-supplied text.
package sanitizer

import (
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	strictPolicy *bluemonday.Policy
	safePolicy   *bluemonday.Policy
	initOnce     sync.Once
)

func initPolicies() {
	initOnce.Do(func() {
		// Strict strips all HTML and returns plain text.
		strictPolicy = bluemonday.StrictPolicy()

		// Safe allows the formatting subset used for job blurbs.
		safePolicy = bluemonday.NewPolicy()
		safePolicy.AllowStandardURLs()
		safePolicy.AllowElements(
			"p", "br",
			"strong", "b", "em", "i",
			"ul", "ol", "li",
			"code", "pre", "blockquote",
			"h1", "h2", "h3",
		)
		safePolicy.AllowAttrs("href").OnElements("a")
		safePolicy.RequireNoFollowOnLinks(true)
	})
}

// Strip removes all HTML, returning trimmed plain text. Applied to form
// field input before validation.
func Strip(s string) string {
	initPolicies()
	return strings.TrimSpace(strictPolicy.Sanitize(s))
}

// Sanitize keeps a safe subset of formatting tags. Applied to rendered
// markdown before it reaches a template.
func Sanitize(s string) string {
	initPolicies()
	return safePolicy.Sanitize(s)
}
