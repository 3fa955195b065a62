// Package markdown renders user-authored markdown into sanitized HTML.
package markdown

import (
	"bytes"
	"html/template"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/dmitrymomot/soon/pkg/sanitizer"
)

var md = goldmark.New(
	goldmark.WithExtensions(extension.Linkify),
	goldmark.WithRendererOptions(html.WithHardWraps()),
)

// Render converts markdown to HTML and strips anything outside the safe
// formatting subset. The result is marked safe for templates; the
// sanitizer is what makes that claim hold.
func Render(src string) template.HTML {
	var buf bytes.Buffer
	if err := md.Convert([]byte(src), &buf); err != nil {
		// Conversion failure degrades to escaped plain text.
		return template.HTML(template.HTMLEscapeString(src))
	}
	return template.HTML(sanitizer.Sanitize(buf.String()))
}
