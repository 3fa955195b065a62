package view

import (
	"fmt"

	"github.com/dmitrymomot/soon/internal/web"
)

const defaultPerPage = 30

// Formatter transforms a raw column value before rendering. It receives
// the request context so formatters can vary output per request.
type Formatter func(c web.Context, value any) any

// Config carries per-view settings. Each constructor validates the
// fields it needs and returns a wrapped ErrConfig when one is missing.
type Config struct {
	// Template is the page name passed to the renderer. Required.
	Template string

	// SuccessURL is the redirect target after a successful mutation.
	SuccessURL string

	// CancelURL backs the cancel control on forms and confirmations.
	CancelURL string

	// SubmitURL overrides the form action. Defaults to the request path.
	SubmitURL string

	// CreateURL, UpdateURL and DeleteURL are optional list controls.
	// Templates omit the corresponding control when unset.
	CreateURL string
	UpdateURL string
	DeleteURL string

	// Columns are the model fields a list renders, in order.
	Columns []string

	// Formatters maps column names to display transforms.
	Formatters map[string]Formatter

	// Paginate enables paging with PerPage rows per page.
	Paginate bool
	PerPage  int

	// SkipConfirm bypasses the delete confirmation step.
	SkipConfirm bool

	// Flash overrides the success notification text.
	Flash string
}

func (cfg *Config) applyDefaults() {
	if cfg.PerPage <= 0 {
		cfg.PerPage = defaultPerPage
	}
}

func (cfg *Config) requireTemplate(kind string) error {
	if cfg.Template == "" {
		return fmt.Errorf("%w: %s view requires Template", ErrConfig, kind)
	}
	return nil
}

func (cfg *Config) requireSuccessURL(kind string) error {
	if cfg.SuccessURL == "" {
		return fmt.Errorf("%w: %s view requires SuccessURL", ErrConfig, kind)
	}
	return nil
}

func (cfg *Config) requireCancelURL(kind string) error {
	if cfg.CancelURL == "" {
		return fmt.Errorf("%w: %s view requires CancelURL", ErrConfig, kind)
	}
	return nil
}

// submitURL resolves the form action for the current request.
func (cfg *Config) submitURL(c web.Context) string {
	if cfg.SubmitURL != "" {
		return cfg.SubmitURL
	}
	return c.Request().URL.Path
}

// listURLs adds the optional list controls to a render context.
func (cfg *Config) listURLs(data map[string]any) {
	if cfg.CreateURL != "" {
		data["create_url"] = cfg.CreateURL
	}
	if cfg.UpdateURL != "" {
		data["update_url"] = cfg.UpdateURL
	}
	if cfg.DeleteURL != "" {
		data["delete_url"] = cfg.DeleteURL
	}
}
