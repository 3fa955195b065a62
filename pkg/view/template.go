package view

import "github.com/dmitrymomot/soon/internal/web"

// TemplateView renders a static page. Extra context comes from an
// optional context builder, so pages can mix fixed and per-request data.
type TemplateView struct {
	cfg     Config
	context func(c web.Context) map[string]any
}

// TemplateOption configures a TemplateView.
type TemplateOption func(*TemplateView)

// WithContext supplies a per-request context builder.
func WithContext(fn func(c web.Context) map[string]any) TemplateOption {
	return func(v *TemplateView) {
		v.context = fn
	}
}

// NewTemplate creates a static page view.
func NewTemplate(cfg Config, opts ...TemplateOption) (*TemplateView, error) {
	if err := cfg.requireTemplate("template"); err != nil {
		return nil, err
	}
	v := &TemplateView{cfg: cfg}
	for _, opt := range opts {
		opt(v)
	}
	return v, nil
}

func (v *TemplateView) Handle(c web.Context) error {
	data := map[string]any{}
	if v.context != nil {
		data = v.context(c)
	}
	return c.Render(v.cfg.Template, data)
}
