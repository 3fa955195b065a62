package view

import (
	"errors"
	"net/http"
	"strconv"

	"gorm.io/gorm"

	"github.com/dmitrymomot/soon/internal/web"
	"github.com/dmitrymomot/soon/pkg/form"
)

// Form is the contract between form-backed views and concrete forms.
// Bind decodes the request, Validate reports field errors, and Populate
// writes the validated values onto the model instance. Populate runs
// only after Validate returned no errors.
type Form[T any] interface {
	Bind(r *http.Request) error
	Validate() (form.Errors, error)
	Populate(c web.Context, obj *T) error
}

// Prefiller is implemented by forms that pre-populate their fields from
// an existing model instance, used by update flows.
type Prefiller[T any] interface {
	Prefill(obj *T)
}

const flashKey = "success"

// pkParam parses the "pk" path parameter. An unparsable value renders
// as not found, matching the behavior of a missing row.
func pkParam(c web.Context) (uint, error) {
	raw := c.Param("pk")
	pk, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || pk == 0 {
		return 0, web.ErrNotFound("record not found", web.WithError(err))
	}
	return uint(pk), nil
}

// fetch loads the row with the given primary key, mapping a missing row
// to an HTTP 404. Other database failures propagate unchanged.
func fetch[T any](c web.Context, db *gorm.DB, pk uint) (*T, error) {
	obj := new(T)
	if err := db.WithContext(c).First(obj, pk).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, web.ErrNotFound("record not found", web.WithError(err))
		}
		return nil, err
	}
	return obj, nil
}

func flash(c web.Context, message string) {
	if err := c.SetFlash(flashKey, message); err != nil {
		c.Logger().Warn("failed to set flash", "error", err.Error())
	}
}
