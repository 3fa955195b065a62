// Package static embeds the site's static assets.
package static

import "embed"

//go:embed css
var FS embed.FS
