package view

import (
	"reflect"
	"strings"
	"unicode"
)

const invalidAttrPrefix = "Invalid Attribute: "

// attrValue resolves a snake_case field name against a model instance,
// descending into anonymous embedded structs. The second return is
// false when no field matches.
func attrValue(instance any, field string) (any, bool) {
	v := reflect.ValueOf(instance)
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil, false
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return nil, false
	}

	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		if f.Anonymous {
			if val, ok := attrValue(v.Field(i).Interface(), field); ok {
				return val, true
			}
			continue
		}
		if snakeCase(f.Name) == field {
			return v.Field(i).Interface(), true
		}
	}
	return nil, false
}

// columnLabel resolves a human label for a field: the model's `label`
// struct tag when present, otherwise the title-cased field name.
func columnLabel(model any, field string) string {
	t := reflect.TypeOf(model)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t != nil && t.Kind() == reflect.Struct {
		if label, ok := fieldLabel(t, field); ok {
			return label
		}
	}
	return titleize(field)
}

func fieldLabel(t reflect.Type, field string) (string, bool) {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.Anonymous {
			ft := f.Type
			for ft.Kind() == reflect.Pointer {
				ft = ft.Elem()
			}
			if ft.Kind() == reflect.Struct {
				if label, ok := fieldLabel(ft, field); ok {
					return label, true
				}
			}
			continue
		}
		if snakeCase(f.Name) != field {
			continue
		}
		if label := f.Tag.Get("label"); label != "" {
			return label, true
		}
		return "", false
	}
	return "", false
}

// titleize turns "last_login_at" into "Last Login At".
func titleize(field string) string {
	words := strings.Split(field, "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// snakeCase converts a Go field name to its snake_case form, keeping
// initialisms together ("UserID" becomes "user_id").
func snakeCase(name string) string {
	var b strings.Builder
	runes := []rune(name)
	for i, r := range runes {
		if unicode.IsUpper(r) {
			if i > 0 && (!unicode.IsUpper(runes[i-1]) ||
				(i+1 < len(runes) && unicode.IsLower(runes[i+1]))) {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
