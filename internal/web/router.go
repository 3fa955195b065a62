package web

import (
	"net/http"
	"slices"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// Router is the interface handlers use to declare routes.
type Router interface {
	GET(path string, h HandlerFunc, mw ...Middleware)
	POST(path string, h HandlerFunc, mw ...Middleware)
	PUT(path string, h HandlerFunc, mw ...Middleware)
	DELETE(path string, h HandlerFunc, mw ...Middleware)

	// Route creates a route group with a pattern prefix.
	Route(pattern string, fn func(r Router))

	// Group creates an inline route group with its own middleware stack.
	Group(fn func(r Router))

	// Use appends middleware to the router's middleware stack.
	Use(mw ...Middleware)

	// Mount attaches a plain http.Handler at the given pattern.
	Mount(pattern string, h http.Handler)
}

// Mux is the root router. It adapts chi to the Context-based handler
// signature and routes handler errors to the configured error handler.
type Mux struct {
	chi     chi.Router
	deps    *Deps
	onError ErrorHandler
}

// NewMux creates the root router with recovery and request logging
// wired in. onError renders errors returned by handlers.
func NewMux(deps *Deps, onError ErrorHandler) *Mux {
	m := &Mux{
		chi:     chi.NewRouter(),
		deps:    deps,
		onError: onError,
	}
	m.chi.Use(chimw.RealIP)
	m.chi.Use(chimw.Recoverer)
	return m
}

func (m *Mux) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	m.chi.ServeHTTP(w, r)
}

// Router returns the root route declaration surface.
func (m *Mux) Router() Router {
	return &routerAdapter{router: m.chi, mux: m}
}

// NotFound installs the handler for unmatched routes.
func (m *Mux) NotFound(h HandlerFunc) {
	m.chi.NotFound(m.adaptHandler(h))
}

type routerAdapter struct {
	router chi.Router
	mux    *Mux
}

func (r *routerAdapter) GET(path string, h HandlerFunc, mw ...Middleware) {
	r.router.Get(path, r.wrap(h, mw...))
}

func (r *routerAdapter) POST(path string, h HandlerFunc, mw ...Middleware) {
	r.router.Post(path, r.wrap(h, mw...))
}

func (r *routerAdapter) PUT(path string, h HandlerFunc, mw ...Middleware) {
	r.router.Put(path, r.wrap(h, mw...))
}

func (r *routerAdapter) DELETE(path string, h HandlerFunc, mw ...Middleware) {
	r.router.Delete(path, r.wrap(h, mw...))
}

func (r *routerAdapter) Route(pattern string, fn func(Router)) {
	r.router.Route(pattern, func(cr chi.Router) {
		fn(&routerAdapter{router: cr, mux: r.mux})
	})
}

func (r *routerAdapter) Group(fn func(Router)) {
	r.router.Group(func(cr chi.Router) {
		fn(&routerAdapter{router: cr, mux: r.mux})
	})
}

func (r *routerAdapter) Use(mw ...Middleware) {
	for _, m := range mw {
		r.router.Use(r.mux.adaptMiddleware(m))
	}
}

func (r *routerAdapter) Mount(pattern string, h http.Handler) {
	// chi's Mount rejects wildcard patterns; Handle keeps the caller's
	// "/prefix/*" form working for plain handlers.
	r.router.Handle(pattern, h)
}

func (r *routerAdapter) wrap(h HandlerFunc, mw ...Middleware) http.HandlerFunc {
	// Route-level middleware applies in registration order.
	slices.Reverse(mw)
	for _, m := range mw {
		h = m(h)
	}
	return r.mux.adaptHandler(h)
}

func (m *Mux) adaptHandler(h HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		c := newContext(w, req, m.deps)
		if err := h(c); err != nil {
			m.onError(c, err)
			return
		}
		c.flushSession()
	}
}

// adaptMiddleware lets Context-based middleware run inside chi's
// http.Handler middleware chain.
func (m *Mux) adaptMiddleware(mw Middleware) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			nextFunc := func(c Context) error {
				next.ServeHTTP(c.Response(), c.Request())
				return nil
			}
			c := newContext(w, r, m.deps)
			if err := mw(nextFunc)(c); err != nil {
				m.onError(c, err)
			}
		})
	}
}
