package form

import "errors"

var (
	// ErrNotStructPointer is returned when Decode is given anything but
	// a pointer to a struct.
	ErrNotStructPointer = errors.New("form: destination must be a struct pointer")

	// ErrUnsupportedType is returned when a tagged field has a type the
	// decoder does not handle.
	ErrUnsupportedType = errors.New("form: unsupported field type")
)

// Errors maps field names to their validation messages. A nil or empty
// map means the form is valid; validation failure is a value, not an
// error return.
type Errors map[string][]string

// Add appends a message for a field.
func (e Errors) Add(field, msg string) {
	e[field] = append(e[field], msg)
}

// Any reports whether any field carries a message.
func (e Errors) Any() bool {
	return len(e) > 0
}

// Get returns the messages for a field, nil when clean.
func (e Errors) Get(field string) []string {
	if e == nil {
		return nil
	}
	return e[field]
}

// First returns the first message for a field, empty when clean.
func (e Errors) First(field string) string {
	msgs := e.Get(field)
	if len(msgs) == 0 {
		return ""
	}
	return msgs[0]
}
