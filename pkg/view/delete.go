package view

import (
	"fmt"
	"strconv"

	"gorm.io/gorm"

	"github.com/dmitrymomot/soon/internal/web"
)

// BeforeDeleteHook runs with the rows about to be removed, before the
// delete statement executes. Used for cleanup such as removing files
// the rows reference. A returned error aborts the delete.
type BeforeDeleteHook[T any] func(c web.Context, objs []T) error

// DeleteOption configures delete views.
type DeleteOption[T any] func(*deleteSettings[T])

type deleteSettings[T any] struct {
	beforeDelete BeforeDeleteHook[T]
}

// WithBeforeDelete installs a pre-delete hook.
func WithBeforeDelete[T any](hook BeforeDeleteHook[T]) DeleteOption[T] {
	return func(s *deleteSettings[T]) {
		s.beforeDelete = hook
	}
}

// DeleteView removes the row identified by the "pk" path parameter.
// Without a confirm parameter it renders a confirmation page first;
// SkipConfirm disables that step.
type DeleteView[T any] struct {
	db           *gorm.DB
	cfg          Config
	beforeDelete BeforeDeleteHook[T]
}

// NewDelete creates a single-row delete view.
func NewDelete[T any](db *gorm.DB, cfg Config, opts ...DeleteOption[T]) (*DeleteView[T], error) {
	if err := cfg.requireTemplate("delete"); err != nil {
		return nil, err
	}
	if err := cfg.requireSuccessURL("delete"); err != nil {
		return nil, err
	}
	if err := cfg.requireCancelURL("delete"); err != nil {
		return nil, err
	}
	if cfg.Flash == "" {
		cfg.Flash = "Record deleted."
	}

	var s deleteSettings[T]
	for _, opt := range opts {
		opt(&s)
	}
	return &DeleteView[T]{db: db, cfg: cfg, beforeDelete: s.beforeDelete}, nil
}

func (v *DeleteView[T]) Handle(c web.Context) error {
	pk, err := pkParam(c)
	if err != nil {
		return err
	}

	if !v.confirmed(c) {
		obj, err := fetch[T](c, v.db, pk)
		if err != nil {
			return err
		}
		return c.Render(v.cfg.Template, map[string]any{
			"obj":         obj,
			"cancel_url":  v.cfg.CancelURL,
			"success_url": v.cfg.SuccessURL,
		})
	}

	if v.beforeDelete != nil {
		var objs []T
		if err := v.db.WithContext(c).Find(&objs, pk).Error; err != nil {
			return err
		}
		if err := v.beforeDelete(c, objs); err != nil {
			return err
		}
	}

	if err := v.db.WithContext(c).Delete(new(T), pk).Error; err != nil {
		return err
	}

	flash(c, v.cfg.Flash)
	return c.Redirect(v.cfg.SuccessURL)
}

func (v *DeleteView[T]) confirmed(c web.Context) bool {
	return v.cfg.SkipConfirm || isConfirm(c)
}

// MultiDeleteView removes all rows named by the repeated "objects"
// request parameter in one filtered statement. Values that are not
// positive integers are skipped. The flash message reports the number
// of rows actually removed.
type MultiDeleteView[T any] struct {
	db           *gorm.DB
	cfg          Config
	beforeDelete BeforeDeleteHook[T]
}

// NewMultiDelete creates a bulk delete view.
func NewMultiDelete[T any](db *gorm.DB, cfg Config, opts ...DeleteOption[T]) (*MultiDeleteView[T], error) {
	if err := cfg.requireTemplate("multidelete"); err != nil {
		return nil, err
	}
	if err := cfg.requireSuccessURL("multidelete"); err != nil {
		return nil, err
	}
	if err := cfg.requireCancelURL("multidelete"); err != nil {
		return nil, err
	}

	var s deleteSettings[T]
	for _, opt := range opts {
		opt(&s)
	}
	return &MultiDeleteView[T]{db: db, cfg: cfg, beforeDelete: s.beforeDelete}, nil
}

func (v *MultiDeleteView[T]) HandleGet(c web.Context) error {
	return v.renderConfirmation(c, objectIDs(c))
}

func (v *MultiDeleteView[T]) HandlePost(c web.Context) error {
	ids := objectIDs(c)

	if !v.cfg.SkipConfirm && !isConfirm(c) {
		return v.renderConfirmation(c, ids)
	}

	var deleted int64
	if len(ids) > 0 {
		if v.beforeDelete != nil {
			objs, err := v.fetchAll(c, ids)
			if err != nil {
				return err
			}
			if err := v.beforeDelete(c, objs); err != nil {
				return err
			}
		}

		res := v.db.WithContext(c).Delete(new(T), ids)
		if res.Error != nil {
			return res.Error
		}
		deleted = res.RowsAffected
	}

	flash(c, fmt.Sprintf("Deleted %d records.", deleted))
	return c.Redirect(v.cfg.SuccessURL)
}

// renderConfirmation shows the rows about to be deleted. An empty
// selection is valid and renders an empty confirmation.
func (v *MultiDeleteView[T]) renderConfirmation(c web.Context, ids []uint) error {
	objs, err := v.fetchAll(c, ids)
	if err != nil {
		return err
	}
	return c.Render(v.cfg.Template, map[string]any{
		"objs":        objs,
		"ids":         ids,
		"cancel_url":  v.cfg.CancelURL,
		"success_url": v.cfg.SuccessURL,
	})
}

func (v *MultiDeleteView[T]) fetchAll(c web.Context, ids []uint) ([]T, error) {
	objs := []T{}
	if len(ids) == 0 {
		return objs, nil
	}
	if err := v.db.WithContext(c).Find(&objs, ids).Error; err != nil {
		return nil, err
	}
	return objs, nil
}

// objectIDs collects the repeated "objects" parameter, skipping values
// that do not parse as positive integers.
func objectIDs(c web.Context) []uint {
	r := c.Request()
	_ = r.ParseForm()

	var ids []uint
	for _, raw := range r.Form["objects"] {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil || id == 0 {
			continue
		}
		ids = append(ids, uint(id))
	}
	return ids
}

func isConfirm(c web.Context) bool {
	switch c.Form("confirm") {
	case "", "0", "false":
		return false
	}
	return true
}
