package view

import (
	"gorm.io/gorm"

	"github.com/dmitrymomot/soon/internal/web"
	"github.com/dmitrymomot/soon/pkg/form"
)

// CreateView inserts a new row from a validated form. A resubmission
// creates a second independent row; no de-duplication happens here.
type CreateView[T any] struct {
	db   *gorm.DB
	cfg  Config
	form func() Form[T]
}

// NewCreate creates a create view. newForm builds a fresh form per
// request.
func NewCreate[T any](db *gorm.DB, cfg Config, newForm func() Form[T]) (*CreateView[T], error) {
	if err := cfg.requireTemplate("create"); err != nil {
		return nil, err
	}
	if err := cfg.requireSuccessURL("create"); err != nil {
		return nil, err
	}
	if err := cfg.requireCancelURL("create"); err != nil {
		return nil, err
	}
	if cfg.Flash == "" {
		cfg.Flash = "Record created."
	}
	return &CreateView[T]{db: db, cfg: cfg, form: newForm}, nil
}

func (v *CreateView[T]) HandleGet(c web.Context) error {
	return v.render(c, v.form(), nil)
}

func (v *CreateView[T]) HandlePost(c web.Context) error {
	f := v.form()
	if err := f.Bind(c.Request()); err != nil {
		return web.ErrBadRequest("invalid form submission", web.WithError(err))
	}

	errs, err := f.Validate()
	if err != nil {
		return err
	}
	if errs.Any() {
		return v.render(c, f, errs)
	}

	obj := new(T)
	if err := f.Populate(c, obj); err != nil {
		return err
	}
	if err := v.db.WithContext(c).Create(obj).Error; err != nil {
		return err
	}

	flash(c, v.cfg.Flash)
	return c.Redirect(v.cfg.SuccessURL)
}

func (v *CreateView[T]) render(c web.Context, f Form[T], errs form.Errors) error {
	if errs == nil {
		errs = form.Errors{}
	}
	data := map[string]any{
		"form":       f,
		"errors":     errs,
		"submit_url": v.cfg.submitURL(c),
		"cancel_url": v.cfg.CancelURL,
	}
	return c.Render(v.cfg.Template, data)
}
