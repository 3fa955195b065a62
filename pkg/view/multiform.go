package view

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/dmitrymomot/soon/internal/web"
	"github.com/dmitrymomot/soon/pkg/form"
)

// SubForm is one named form on a multi-form page.
type SubForm[T any] struct {
	Name string
	New  func() Form[T]
}

// MultiFormView renders several named forms on one page, all bound to
// the same model instance. On POST only the form named by the "form"
// request parameter validates; the others render inert.
type MultiFormView[T any] struct {
	db    *gorm.DB
	cfg   Config
	forms []SubForm[T]
}

// NewMultiForm creates a multi-form view.
func NewMultiForm[T any](db *gorm.DB, cfg Config, forms ...SubForm[T]) (*MultiFormView[T], error) {
	if err := cfg.requireTemplate("multiform"); err != nil {
		return nil, err
	}
	if err := cfg.requireSuccessURL("multiform"); err != nil {
		return nil, err
	}
	if len(forms) == 0 {
		return nil, fmt.Errorf("%w: multiform view requires at least one form", ErrConfig)
	}
	seen := make(map[string]struct{}, len(forms))
	for _, f := range forms {
		if f.Name == "" || f.New == nil {
			return nil, fmt.Errorf("%w: multiform entries need a name and a constructor", ErrConfig)
		}
		if _, dup := seen[f.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate form name %q", ErrConfig, f.Name)
		}
		seen[f.Name] = struct{}{}
	}
	if cfg.Flash == "" {
		cfg.Flash = "Record updated."
	}
	return &MultiFormView[T]{db: db, cfg: cfg, forms: forms}, nil
}

func (v *MultiFormView[T]) HandleGet(c web.Context) error {
	pk, err := pkParam(c)
	if err != nil {
		return err
	}
	obj, err := fetch[T](c, v.db, pk)
	if err != nil {
		return err
	}

	forms := make(map[string]Form[T], len(v.forms))
	for _, sf := range v.forms {
		forms[sf.Name] = v.build(sf, obj)
	}
	return v.render(c, forms, obj, "", nil)
}

func (v *MultiFormView[T]) HandlePost(c web.Context) error {
	pk, err := pkParam(c)
	if err != nil {
		return err
	}
	obj, err := fetch[T](c, v.db, pk)
	if err != nil {
		return err
	}

	active := c.Form("form")
	target, ok := v.lookup(active)
	if !ok {
		return web.ErrBadRequest("unknown form " + active)
	}

	f := target.New()
	if err := f.Bind(c.Request()); err != nil {
		return web.ErrBadRequest("invalid form submission", web.WithError(err))
	}

	errs, err := f.Validate()
	if err != nil {
		return err
	}
	if errs.Any() {
		forms := make(map[string]Form[T], len(v.forms))
		for _, sf := range v.forms {
			if sf.Name == active {
				forms[sf.Name] = f
				continue
			}
			forms[sf.Name] = v.build(sf, obj)
		}
		return v.render(c, forms, obj, active, errs)
	}

	if err := f.Populate(c, obj); err != nil {
		return err
	}
	if err := v.db.WithContext(c).Save(obj).Error; err != nil {
		return err
	}

	flash(c, v.cfg.Flash)
	return c.Redirect(v.cfg.SuccessURL)
}

func (v *MultiFormView[T]) lookup(name string) (SubForm[T], bool) {
	for _, sf := range v.forms {
		if sf.Name == name {
			return sf, true
		}
	}
	return SubForm[T]{}, false
}

func (v *MultiFormView[T]) build(sf SubForm[T], obj *T) Form[T] {
	f := sf.New()
	if p, ok := any(f).(Prefiller[T]); ok {
		p.Prefill(obj)
	}
	return f
}

func (v *MultiFormView[T]) render(c web.Context, forms map[string]Form[T], obj *T, active string, errs form.Errors) error {
	if errs == nil {
		errs = form.Errors{}
	}
	data := map[string]any{
		"forms":      forms,
		"obj":        obj,
		"active":     active,
		"errors":     errs,
		"submit_url": v.cfg.submitURL(c),
		"cancel_url": v.cfg.CancelURL,
	}
	return c.Render(v.cfg.Template, data)
}
