package view

import (
	"gorm.io/gorm"

	"github.com/dmitrymomot/soon/internal/web"
	"github.com/dmitrymomot/soon/pkg/form"
)

// UpdateView mutates the row identified by the "pk" path parameter.
// A missing row renders as 404 on both GET and POST.
type UpdateView[T any] struct {
	db   *gorm.DB
	cfg  Config
	form func() Form[T]
}

// NewUpdate creates an update view. newForm builds a fresh form per
// request; forms implementing Prefiller are seeded from the loaded row.
func NewUpdate[T any](db *gorm.DB, cfg Config, newForm func() Form[T]) (*UpdateView[T], error) {
	if err := cfg.requireTemplate("update"); err != nil {
		return nil, err
	}
	if err := cfg.requireSuccessURL("update"); err != nil {
		return nil, err
	}
	if err := cfg.requireCancelURL("update"); err != nil {
		return nil, err
	}
	if cfg.Flash == "" {
		cfg.Flash = "Record updated."
	}
	return &UpdateView[T]{db: db, cfg: cfg, form: newForm}, nil
}

func (v *UpdateView[T]) HandleGet(c web.Context) error {
	pk, err := pkParam(c)
	if err != nil {
		return err
	}
	obj, err := fetch[T](c, v.db, pk)
	if err != nil {
		return err
	}

	f := v.form()
	if p, ok := any(f).(Prefiller[T]); ok {
		p.Prefill(obj)
	}
	return v.render(c, f, obj, nil)
}

func (v *UpdateView[T]) HandlePost(c web.Context) error {
	pk, err := pkParam(c)
	if err != nil {
		return err
	}
	obj, err := fetch[T](c, v.db, pk)
	if err != nil {
		return err
	}

	f := v.form()
	if err := f.Bind(c.Request()); err != nil {
		return web.ErrBadRequest("invalid form submission", web.WithError(err))
	}

	errs, err := f.Validate()
	if err != nil {
		return err
	}
	if errs.Any() {
		return v.render(c, f, obj, errs)
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

func (v *UpdateView[T]) render(c web.Context, f Form[T], obj *T, errs form.Errors) error {
	if errs == nil {
		errs = form.Errors{}
	}
	data := map[string]any{
		"form":       f,
		"obj":        obj,
		"errors":     errs,
		"submit_url": v.cfg.submitURL(c),
		"cancel_url": v.cfg.CancelURL,
	}
	return c.Render(v.cfg.Template, data)
}
