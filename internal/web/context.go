package web

import (
	"context"
	"log/slog"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/soon/pkg/cookie"
	"github.com/dmitrymomot/soon/pkg/render"
	"github.com/dmitrymomot/soon/pkg/session"
)

// Context provides request/response access and helper methods.
// It implements context.Context by delegating to the request context.
type Context interface {
	context.Context

	// Request returns the underlying *http.Request.
	Request() *http.Request

	// Response returns the underlying http.ResponseWriter.
	Response() http.ResponseWriter

	// Param returns the URL parameter value by name, or "" when absent.
	Param(name string) string

	// Query returns the query parameter value by name, or "" when absent.
	Query(name string) string

	// QueryDefault returns the query parameter value or a default.
	QueryDefault(name, defaultValue string) string

	// Form returns the form value by name. Parses the form on first access.
	Form(name string) string

	// FormFile returns the first file for the given form key.
	FormFile(name string) (multipart.File, *multipart.FileHeader, error)

	// Redirect sends a 303 See Other to the given URL.
	Redirect(url string) error

	// Render executes the named page with the given data merged over
	// any ambient render values.
	Render(name string, data map[string]any) error

	// RenderStatus is Render with an explicit status code.
	RenderStatus(status int, name string, data map[string]any) error

	// SetRenderValue stores an ambient value included in every Render
	// call for this request. Page data with the same key wins.
	SetRenderValue(key string, value any)

	// Flash reads and clears a flash message, decoding it into dest.
	Flash(key string, dest any) error

	// SetFlash stores a flash message for the next request.
	SetFlash(key string, value any) error

	// Session returns the current session, loading it lazily.
	// Returns nil when the request carries no valid session.
	Session() *session.Session

	// SetSession replaces the session for the rest of the request.
	SetSession(sess *session.Session)

	// UserID returns the authenticated user's ID, or 0 for anonymous.
	UserID() uint

	// IsAuthenticated reports whether a user is bound to the session.
	IsAuthenticated() bool

	// Logger returns the request-scoped logger.
	Logger() *slog.Logger
}

// Deps are the shared services every request context needs.
type Deps struct {
	Logger   *slog.Logger
	Cookies  *cookie.Manager
	Sessions *session.Manager
	Renderer *render.Renderer
}

// requestState is shared between the middleware and handler contexts
// of one request, so values set in middleware survive into the handler.
type requestState struct {
	sess         *session.Session
	sessLoaded   bool
	renderValues map[string]any
}

type stateKey struct{}

// ensureState attaches a shared requestState to the request context if
// one is not already present.
func ensureState(r *http.Request) (*http.Request, *requestState) {
	if st, ok := r.Context().Value(stateKey{}).(*requestState); ok {
		return r, st
	}
	st := &requestState{}
	return r.WithContext(context.WithValue(r.Context(), stateKey{}, st)), st
}

type requestContext struct {
	w     http.ResponseWriter
	r     *http.Request
	deps  *Deps
	state *requestState
}

var _ Context = (*requestContext)(nil)

func newContext(w http.ResponseWriter, r *http.Request, deps *Deps) *requestContext {
	r, st := ensureState(r)
	return &requestContext{w: w, r: r, deps: deps, state: st}
}

func (c *requestContext) Deadline() (time.Time, bool) { return c.r.Context().Deadline() }
func (c *requestContext) Done() <-chan struct{}       { return c.r.Context().Done() }
func (c *requestContext) Err() error                  { return c.r.Context().Err() }
func (c *requestContext) Value(key any) any           { return c.r.Context().Value(key) }

func (c *requestContext) Request() *http.Request        { return c.r }
func (c *requestContext) Response() http.ResponseWriter { return c.w }

func (c *requestContext) Param(name string) string {
	return chi.URLParam(c.r, name)
}

func (c *requestContext) Query(name string) string {
	return c.r.URL.Query().Get(name)
}

func (c *requestContext) QueryDefault(name, defaultValue string) string {
	if v := c.Query(name); v != "" {
		return v
	}
	return defaultValue
}

func (c *requestContext) Form(name string) string {
	return c.r.FormValue(name)
}

func (c *requestContext) FormFile(name string) (multipart.File, *multipart.FileHeader, error) {
	return c.r.FormFile(name)
}

func (c *requestContext) Redirect(url string) error {
	http.Redirect(c.w, c.r, url, http.StatusSeeOther)
	return nil
}

func (c *requestContext) Render(name string, data map[string]any) error {
	return c.RenderStatus(http.StatusOK, name, data)
}

func (c *requestContext) RenderStatus(status int, name string, data map[string]any) error {
	merged := make(map[string]any, len(c.state.renderValues)+len(data))
	for k, v := range c.state.renderValues {
		merged[k] = v
	}
	for k, v := range data {
		merged[k] = v
	}

	c.w.Header().Set("Content-Type", "text/html; charset=utf-8")
	c.w.WriteHeader(status)
	return c.deps.Renderer.Render(c.w, name, merged)
}

func (c *requestContext) SetRenderValue(key string, value any) {
	if c.state.renderValues == nil {
		c.state.renderValues = make(map[string]any)
	}
	c.state.renderValues[key] = value
}

func (c *requestContext) Flash(key string, dest any) error {
	return c.deps.Cookies.Flash(c.w, c.r, key, dest)
}

func (c *requestContext) SetFlash(key string, value any) error {
	return c.deps.Cookies.SetFlash(c.w, key, value)
}

func (c *requestContext) Session() *session.Session {
	if !c.state.sessLoaded {
		if c.deps.Sessions != nil {
			c.state.sess, _ = c.deps.Sessions.Load(c.r.Context(), c.r)
		}
		c.state.sessLoaded = true
	}
	return c.state.sess
}

func (c *requestContext) SetSession(sess *session.Session) {
	c.state.sess = sess
	c.state.sessLoaded = true
}

func (c *requestContext) UserID() uint {
	sess := c.Session()
	if sess == nil || sess.UserID == nil {
		return 0
	}
	return *sess.UserID
}

func (c *requestContext) IsAuthenticated() bool {
	sess := c.Session()
	return sess != nil && sess.IsAuthenticated()
}

func (c *requestContext) Logger() *slog.Logger {
	if c.deps.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return c.deps.Logger.With(
		slog.String("method", c.r.Method),
		slog.String("path", c.r.URL.Path),
	)
}

// flushSession persists pending session changes after a handler
// finishes. Called by the router; failures are logged, not fatal.
func (c *requestContext) flushSession() {
	if !c.state.sessLoaded || c.state.sess == nil || !c.state.sess.IsDirty() {
		return
	}
	if err := c.deps.Sessions.Save(c.r.Context(), c.state.sess); err != nil {
		c.Logger().ErrorContext(c.r.Context(), "failed to flush session",
			slog.String("error", err.Error()))
	}
}
