// Package form binds submitted request values into tagged structs and
// validates them.
//
// The flow is bind, sanitize, validate: Decode copies request values
// into fields tagged `form:"name"`, stripping HTML from string input;
// Validate runs go-playground rules from `validate:` tags and reports
// failures as an Errors value keyed by form field name. Validation
// failure is data, not an error — callers re-render with the messages
// attached.
package form

import (
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/dmitrymomot/soon/pkg/sanitizer"
)

// maxMultipartMemory bounds in-memory buffering of multipart bodies.
const maxMultipartMemory = 16 << 20

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func instance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		// Report errors under the form field name, not the Go name.
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
			if name == "" || name == "-" {
				return fld.Name
			}
			return name
		})
	})
	return validate
}

// Decode parses the request body (url-encoded or multipart) and copies
// values into dst fields tagged `form:"name"`. String input is stripped
// of HTML. Supported field types: string, bool, int, uint, and their
// sized variants.
func Decode(r *http.Request, dst any) error {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
			return fmt.Errorf("form: parse multipart: %w", err)
		}
	} else if err := r.ParseForm(); err != nil {
		return fmt.Errorf("form: parse: %w", err)
	}
	return decodeValues(r.Form, dst)
}

func decodeValues(values map[string][]string, dst any) error {
	rv := reflect.ValueOf(dst)
	if rv.Kind() != reflect.Pointer || rv.Elem().Kind() != reflect.Struct {
		return ErrNotStructPointer
	}
	rv = rv.Elem()
	rt := rv.Type()

	for i := range rt.NumField() {
		field := rt.Field(i)
		name := strings.SplitN(field.Tag.Get("form"), ",", 2)[0]
		if name == "" || name == "-" || !field.IsExported() {
			continue
		}

		raw, ok := values[name]
		fv := rv.Field(i)

		switch fv.Kind() {
		case reflect.String:
			if ok {
				fv.SetString(sanitizer.Strip(raw[0]))
			}
		case reflect.Bool:
			// Unchecked checkboxes are absent from the payload, so a
			// bound bool is always written.
			fv.SetBool(ok && isTruthy(raw[0]))
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			if ok {
				n, err := strconv.ParseInt(strings.TrimSpace(raw[0]), 10, 64)
				if err == nil {
					fv.SetInt(n)
				}
			}
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			if ok {
				n, err := strconv.ParseUint(strings.TrimSpace(raw[0]), 10, 64)
				if err == nil {
					fv.SetUint(n)
				}
			}
		default:
			return fmt.Errorf("%w: %s (%s)", ErrUnsupportedType, field.Name, fv.Kind())
		}
	}
	return nil
}

func isTruthy(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "on", "y", "yes":
		return true
	}
	return false
}

// Validate runs the struct's `validate:` rules and translates failures
// into field-keyed messages. A non-Errors problem (bad rules, nil
// input) is returned as the error.
func Validate(v any) (Errors, error) {
	err := instance().Struct(v)
	if err == nil {
		// Non-nil so callers can Add their own field errors on top.
		return Errors{}, nil
	}

	var ferrs validator.ValidationErrors
	ok := false
	if ve, isVE := err.(validator.ValidationErrors); isVE {
		ferrs, ok = ve, true
	}
	if !ok {
		return nil, fmt.Errorf("form: validate: %w", err)
	}

	errs := Errors{}
	for _, fe := range ferrs {
		errs.Add(fe.Field(), message(fe))
	}
	return errs, nil
}

// message renders a human message for the common rules; anything else
// falls back to naming the failed rule.
func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "email":
		return "Enter a valid email address."
	case "min":
		return fmt.Sprintf("Must be at least %s characters.", fe.Param())
	case "max":
		return fmt.Sprintf("Must be at most %s characters.", fe.Param())
	case "eqfield":
		return "Fields must match."
	default:
		return fmt.Sprintf("Invalid value (%s).", fe.Tag())
	}
}
