package render

import "errors"

var (
	// ErrTemplateNotFound is returned when no page matches the requested name.
	ErrTemplateNotFound = errors.New("render: template not found")

	// ErrNoLayout is returned when a page's layout file is missing.
	ErrNoLayout = errors.New("render: layout not found")
)
