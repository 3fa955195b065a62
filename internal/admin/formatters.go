package admin

import (
	"time"

	"github.com/dmitrymomot/soon/internal/web"
	"github.com/dmitrymomot/soon/pkg/view"
)

const dateTimeLayout = "2006-01-02 15:04"

// BoolFormatter renders booleans as Yes/No.
func BoolFormatter(c web.Context, value any) any {
	if b, ok := value.(bool); ok && b {
		return "Yes"
	}
	return "No"
}

// DateTimeFormatter renders timestamps in a compact form. Nil and zero
// times render as an empty string.
func DateTimeFormatter(c web.Context, value any) any {
	switch t := value.(type) {
	case time.Time:
		if t.IsZero() {
			return ""
		}
		return t.Format(dateTimeLayout)
	case *time.Time:
		if t == nil || t.IsZero() {
			return ""
		}
		return t.Format(dateTimeLayout)
	}
	return value
}

var (
	_ view.Formatter = BoolFormatter
	_ view.Formatter = DateTimeFormatter
)
