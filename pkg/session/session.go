// Package session provides cookie-token sessions persisted in the
// application database.
package session

import "time"

// Session represents a browser session. The cookie carries Token, never
// ID, so a leaked store dump cannot be replayed directly.
type Session struct {
	ID        string
	Token     string
	UserID    *uint // nil = anonymous
	IP        string
	CreatedAt time.Time
	ExpiresAt time.Time

	dirty bool
}

// New creates an unauthenticated session.
func New(id, token string, expiresAt time.Time) *Session {
	return &Session{
		ID:        id,
		Token:     token,
		CreatedAt: time.Now(),
		ExpiresAt: expiresAt,
		dirty:     true,
	}
}

// IsAuthenticated reports whether a user is bound to the session.
func (s *Session) IsAuthenticated() bool {
	return s.UserID != nil && *s.UserID != 0
}

// IsExpired reports whether the session is past its expiry.
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// MarkDirty flags the session for persistence at response time.
func (s *Session) MarkDirty() { s.dirty = true }

// ClearDirty marks the session as saved.
func (s *Session) ClearDirty() { s.dirty = false }

// IsDirty reports whether the session has unsaved changes.
func (s *Session) IsDirty() bool { return s.dirty }
