// Package admin provides the admin area shell, section registry, and
// access control.
package admin

import (
	"errors"

	"gorm.io/gorm"

	"github.com/dmitrymomot/soon/internal/models"
	"github.com/dmitrymomot/soon/internal/web"
)

// Section is one entry in the admin navigation.
type Section struct {
	Title string
	Path  string
}

// Shell is the rendering context every admin page shares: brand and
// navigation. It is threaded into admin renders under the "admin" key.
type Shell struct {
	Brand    string
	Sections []Section
}

// Registry collects admin sections during app wiring. It is built
// explicitly at startup; nothing registers into it ambiently.
type Registry struct {
	shell Shell
}

// NewRegistry creates an empty registry with the given brand.
func NewRegistry(brand string) *Registry {
	return &Registry{shell: Shell{Brand: brand}}
}

// Register adds a section to the admin navigation, in call order.
func (r *Registry) Register(title, path string) {
	r.shell.Sections = append(r.shell.Sections, Section{Title: title, Path: path})
}

// Shell returns the assembled shell.
func (r *Registry) Shell() Shell {
	return r.shell
}

// WithShell threads the admin shell into every render of the wrapped
// handlers.
func (r *Registry) WithShell() web.Middleware {
	return func(next web.HandlerFunc) web.HandlerFunc {
		return func(c web.Context) error {
			c.SetRenderValue("admin", r.shell)
			return next(c)
		}
	}
}

// RequireAdmin denies the request before any handler runs unless the
// session belongs to an active super user. Anonymous requests are sent
// to the login page; signed-in non-admins get a 403.
func RequireAdmin(db *gorm.DB, loginURL string) web.Middleware {
	return func(next web.HandlerFunc) web.HandlerFunc {
		return func(c web.Context) error {
			uid := c.UserID()
			if uid == 0 {
				return c.Redirect(loginURL)
			}

			var user models.User
			if err := db.WithContext(c).First(&user, uid).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return c.Redirect(loginURL)
				}
				return err
			}
			if !user.Active || !user.IsAdmin() {
				return web.ErrForbidden("admin access required")
			}

			c.SetRenderValue("current_user", &user)
			return next(c)
		}
	}
}
