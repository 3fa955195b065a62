package view

import "errors"

// ErrConfig wraps every configuration failure detected at view
// construction. The app treats these as fatal during startup.
var ErrConfig = errors.New("view: invalid configuration")
