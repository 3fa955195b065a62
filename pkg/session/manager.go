package session

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/soon/pkg/cookie"
)

const (
	defaultCookieName = "session"
	defaultTTL        = 7 * 24 * time.Hour
	tokenBytes        = 32
)

// Manager handles the session lifecycle: cookie reads and writes,
// store persistence and token rotation on privilege changes.
type Manager struct {
	store      Store
	cookies    *cookie.Manager
	cookieName string
	ttl        time.Duration
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithCookieName overrides the session cookie name.
func WithCookieName(name string) ManagerOption {
	return func(m *Manager) {
		if name != "" {
			m.cookieName = name
		}
	}
}

// WithTTL overrides the session lifetime.
func WithTTL(ttl time.Duration) ManagerOption {
	return func(m *Manager) {
		if ttl > 0 {
			m.ttl = ttl
		}
	}
}

// NewManager creates a session manager backed by the given store and
// cookie manager.
func NewManager(store Store, cookies *cookie.Manager, opts ...ManagerOption) (*Manager, error) {
	if store == nil || cookies == nil {
		return nil, ErrNotConfigured
	}
	m := &Manager{
		store:      store,
		cookies:    cookies,
		cookieName: defaultCookieName,
		ttl:        defaultTTL,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Load resolves the session referenced by the request cookie. A missing
// cookie is not an error; it returns (nil, nil) and the caller decides
// whether to create a session.
func (m *Manager) Load(ctx context.Context, r *http.Request) (*Session, error) {
	token, err := m.cookies.GetSigned(r, m.cookieName)
	if err != nil {
		return nil, nil
	}

	sess, err := m.store.Get(ctx, token)
	if err != nil {
		return nil, nil
	}
	return sess, nil
}

// Create starts a fresh anonymous session and sets the cookie.
func (m *Manager) Create(ctx context.Context, w http.ResponseWriter, r *http.Request) (*Session, error) {
	token, err := generateToken()
	if err != nil {
		return nil, fmt.Errorf("generate session token: %w", err)
	}

	sess := New(uuid.NewString(), token, time.Now().Add(m.ttl))
	sess.IP = clientIP(r)

	if err := m.store.Create(ctx, sess); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	if err := m.cookies.SetSigned(w, m.cookieName, token, int(m.ttl.Seconds())); err != nil {
		return nil, fmt.Errorf("set session cookie: %w", err)
	}

	sess.ClearDirty()
	return sess, nil
}

// Save persists pending changes. It is a no-op for clean sessions.
func (m *Manager) Save(ctx context.Context, sess *Session) error {
	if sess == nil || !sess.IsDirty() {
		return nil
	}
	if err := m.store.Update(ctx, sess); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	sess.ClearDirty()
	return nil
}

// RotateToken replaces the session token and refreshes the cookie.
// Called on login and logout to prevent session fixation.
func (m *Manager) RotateToken(ctx context.Context, w http.ResponseWriter, sess *Session) error {
	token, err := generateToken()
	if err != nil {
		return fmt.Errorf("generate session token: %w", err)
	}

	old := sess.Token
	sess.Token = token
	sess.ExpiresAt = time.Now().Add(m.ttl)
	sess.MarkDirty()

	if err := m.store.Update(ctx, sess); err != nil {
		sess.Token = old
		return fmt.Errorf("rotate session token: %w", err)
	}
	if err := m.cookies.SetSigned(w, m.cookieName, token, int(m.ttl.Seconds())); err != nil {
		return fmt.Errorf("set session cookie: %w", err)
	}

	sess.ClearDirty()
	return nil
}

// Delete removes the session and clears the cookie.
func (m *Manager) Delete(ctx context.Context, w http.ResponseWriter, sess *Session) error {
	if sess != nil {
		if err := m.store.Delete(ctx, sess.ID); err != nil {
			return fmt.Errorf("delete session: %w", err)
		}
	}
	m.cookies.Delete(w, m.cookieName)
	return nil
}

// Store exposes the underlying store for maintenance jobs.
func (m *Manager) Store() Store { return m.store }

func generateToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
