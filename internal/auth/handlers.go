package auth

import (
	"net"
	"time"

	"gorm.io/gorm"

	"github.com/dmitrymomot/soon/internal/web"
	"github.com/dmitrymomot/soon/pkg/session"
)

const loginTemplate = "auth/login"

// Handler serves the sign-in and sign-out routes.
type Handler struct {
	db         *gorm.DB
	sessions   *session.Manager
	successURL string
}

// NewHandler creates the auth handler. successURL is where a signed-in
// user lands after login.
func NewHandler(db *gorm.DB, sessions *session.Manager, successURL string) *Handler {
	return &Handler{db: db, sessions: sessions, successURL: successURL}
}

func (h *Handler) Routes(r web.Router) {
	r.GET("/login", h.showLogin)
	r.POST("/login", h.handleLogin)
	r.GET("/logout", h.handleLogout)
}

func (h *Handler) showLogin(c web.Context) error {
	return c.Render(loginTemplate, map[string]any{
		"form":       NewAuthenticationForm(h.db),
		"submit_url": c.Request().URL.Path,
	})
}

func (h *Handler) handleLogin(c web.Context) error {
	f := NewAuthenticationForm(h.db)
	if err := f.Bind(c.Request()); err != nil {
		return web.ErrBadRequest("invalid form submission", web.WithError(err))
	}

	errs, err := f.Validate()
	if err != nil {
		return err
	}
	if errs.Any() {
		return c.Render(loginTemplate, map[string]any{
			"form":       f,
			"errors":     errs,
			"submit_url": c.Request().URL.Path,
		})
	}

	user := f.User()
	user.RecordLogin(clientIP(c), time.Now().UTC())
	if err := h.db.WithContext(c).Save(user).Error; err != nil {
		return err
	}

	// A fresh session already carries a never-exposed token and its
	// cookie; rotating again would emit a second session cookie.
	sess := c.Session()
	fresh := sess == nil
	if fresh {
		sess, err = h.sessions.Create(c, c.Response(), c.Request())
		if err != nil {
			return err
		}
		c.SetSession(sess)
	}

	sess.UserID = &user.ID
	sess.MarkDirty()
	if fresh {
		if err := h.sessions.Save(c, sess); err != nil {
			return err
		}
	} else if err := h.sessions.RotateToken(c, c.Response(), sess); err != nil {
		return err
	}

	return c.Redirect(h.successURL)
}

func (h *Handler) handleLogout(c web.Context) error {
	if sess := c.Session(); sess != nil {
		if err := h.sessions.Delete(c, c.Response(), sess); err != nil {
			return err
		}
		c.SetSession(nil)
	}
	return c.Redirect("/")
}

func clientIP(c web.Context) string {
	host, _, err := net.SplitHostPort(c.Request().RemoteAddr)
	if err != nil {
		return c.Request().RemoteAddr
	}
	return host
}
