// Package templates embeds the application's HTML templates.
package templates

import "embed"

//go:embed layouts partials auth admin *.html
var FS embed.FS
