package session

import "errors"

// Session errors.
var (
	// ErrNotConfigured is returned when session functionality is used
	// without a configured manager.
	ErrNotConfigured = errors.New("session: not configured")

	// ErrNotFound is returned when a session does not exist.
	ErrNotFound = errors.New("session: not found")

	// ErrExpired is returned when a session has expired.
	ErrExpired = errors.New("session: expired")
)
