// Package app assembles the job board: configuration, database,
// sessions, media storage, routes, and the HTTP server lifecycle.
package app

import (
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"

	"github.com/dmitrymomot/soon/internal/admin"
	"github.com/dmitrymomot/soon/internal/auth"
	"github.com/dmitrymomot/soon/internal/config"
	"github.com/dmitrymomot/soon/internal/jobs"
	"github.com/dmitrymomot/soon/internal/web"
	"github.com/dmitrymomot/soon/migrations"
	"github.com/dmitrymomot/soon/pkg/cookie"
	"github.com/dmitrymomot/soon/pkg/db"
	"github.com/dmitrymomot/soon/pkg/health"
	"github.com/dmitrymomot/soon/pkg/logger"
	"github.com/dmitrymomot/soon/pkg/render"
	"github.com/dmitrymomot/soon/pkg/session"
	"github.com/dmitrymomot/soon/pkg/storage"
	"github.com/dmitrymomot/soon/static"
	"github.com/dmitrymomot/soon/templates"
)

const brand = "soon"

// App is the assembled application.
type App struct {
	cfg      config.Config
	log      *slog.Logger
	gdb      *gorm.DB
	media    *storage.Local
	sessions *session.Manager
	mux      *web.Mux
	cron     *cron.Cron
	server   *http.Server

	shutdownHooks []func(context.Context) error
}

// New builds the application from configuration. Every wiring failure
// is fatal; nothing starts half-configured.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	log := newLogger(cfg)

	gdb, err := db.Connect(ctx, db.Config{URL: cfg.DatabaseURL})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if err := db.Migrate(ctx, gdb, migrations.FS, log); err != nil {
		return nil, fmt.Errorf("apply migrations: %w", err)
	}

	media, err := storage.NewLocal(cfg.MediaRoot, cfg.MediaURL)
	if err != nil {
		return nil, fmt.Errorf("init media storage: %w", err)
	}

	cookies := cookie.New(
		cookie.WithSecret(cfg.SecretKey),
		cookie.WithSecure(!cfg.Debug),
	)

	store := session.NewGormStore(gdb)
	sessions, err := session.NewManager(store, cookies, session.WithTTL(cfg.SessionTTL))
	if err != nil {
		return nil, fmt.Errorf("init sessions: %w", err)
	}

	renderer, err := render.New(templates.FS, render.WithFuncs(template.FuncMap{
		"rowurl":   rowURL,
		"mediaurl": media.URL,
		"prev":     func(n int) int { return n - 1 },
		"next":     func(n int) int { return n + 1 },
	}))
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	a := &App{
		cfg:      cfg,
		log:      log,
		gdb:      gdb,
		media:    media,
		sessions: sessions,
		cron:     cron.New(),
	}

	a.mux = web.NewMux(&web.Deps{
		Logger:   log,
		Cookies:  cookies,
		Sessions: sessions,
		Renderer: renderer,
	}, a.handleError)

	if err := a.routes(); err != nil {
		return nil, err
	}

	sweeper := jobs.NewOrphanSweeper(gdb, media, log)
	if _, err := sweeper.Schedule(a.cron); err != nil {
		return nil, fmt.Errorf("schedule orphan sweep: %w", err)
	}

	a.server = &http.Server{
		Addr:    cfg.Addr,
		Handler: a.mux,
	}

	a.shutdownHooks = append(a.shutdownHooks, db.Shutdown(gdb, log))

	return a, nil
}

func newLogger(cfg config.Config) *slog.Logger {
	if cfg.SentryDSN != "" {
		env := "production"
		if cfg.Debug {
			env = "development"
		}
		return logger.NewWithSentry(logger.SentryConfig{
			DSN:         cfg.SentryDSN,
			Environment: env,
		}, cfg.Debug)
	}
	return logger.New(cfg.Debug)
}

func (a *App) routes() error {
	root := a.mux.Router()

	root.GET("/healthz", wrapStd(health.Liveness()))
	root.GET("/readyz", wrapStd(health.Readiness(health.Checks{
		"db": func(ctx context.Context) error {
			return db.Ping(ctx, a.gdb)
		},
	}, health.WithLogger(a.log))))

	root.Mount("/static/*", http.StripPrefix("/static/",
		http.FileServerFS(static.FS)))

	// Media files are served by the frontend proxy in production; the
	// app serves them only in debug mode.
	if a.cfg.Debug {
		root.Mount(a.cfg.MediaURL+"/*", http.StripPrefix(a.cfg.MediaURL+"/",
			http.FileServer(http.Dir(a.media.Root()))))
	}

	registry := admin.NewRegistry(brand)
	registry.Register("Users", "/admin/users")
	registry.Register("Roles", "/admin/roles")
	registry.Register("Jobs", "/admin/jobs")

	var err error
	root.Group(func(r web.Router) {
		r.Use(flashMiddleware)

		if e := jobs.RegisterPublic(r, a.gdb); e != nil {
			err = e
			return
		}

		r.Route("/auth", auth.NewHandler(a.gdb, a.sessions, "/admin").Routes)

		r.Route("/admin", func(ar web.Router) {
			ar.Use(admin.RequireAdmin(a.gdb, "/auth/login"))
			ar.Use(registry.WithShell())

			ar.GET("/", dashboard(registry))
			ar.Route("/users", func(ur web.Router) {
				if e := auth.RegisterUserAdmin(ur, a.gdb); e != nil {
					err = e
				}
			})
			ar.Route("/roles", func(rr web.Router) {
				if e := auth.RegisterRoleAdmin(rr, a.gdb); e != nil {
					err = e
				}
			})
			ar.Route("/jobs", func(jr web.Router) {
				if e := jobs.RegisterAdmin(jr, a.gdb, a.media); e != nil {
					err = e
				}
			})
		})
	})
	if err != nil {
		return err
	}

	a.mux.NotFound(func(c web.Context) error {
		return web.ErrNotFound("page not found")
	})
	return nil
}

// dashboard renders the admin landing page.
func dashboard(registry *admin.Registry) web.HandlerFunc {
	return func(c web.Context) error {
		return c.Render("admin/dashboard", map[string]any{
			"sections": registry.Shell().Sections,
		})
	}
}

// flashMiddleware surfaces the pending flash message to templates.
func flashMiddleware(next web.HandlerFunc) web.HandlerFunc {
	return func(c web.Context) error {
		var msg string
		if err := c.Flash("success", &msg); err == nil && msg != "" {
			c.SetRenderValue("flash", msg)
		}
		return next(c)
	}
}

func wrapStd(h http.HandlerFunc) web.HandlerFunc {
	return func(c web.Context) error {
		h(c.Response(), c.Request())
		return nil
	}
}

func rowURL(base string, pk any) string {
	return fmt.Sprintf("%s/%v", base, pk)
}
