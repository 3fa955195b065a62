package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dmitrymomot/soon/internal/web"
)

const shutdownTimeout = 15 * time.Second

// Run starts the cron runner and HTTP server, blocking until SIGINT,
// SIGTERM, or a server failure. Shutdown drains in-flight requests and
// runs the registered hooks.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a.cron.Start()

	errCh := make(chan error, 1)
	go func() {
		a.log.Info("server starting", slog.String("address", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	a.log.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	var errs []error
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, err)
	}

	cronCtx := a.cron.Stop()
	select {
	case <-cronCtx.Done():
	case <-shutdownCtx.Done():
	}

	for _, hook := range a.shutdownHooks {
		if err := hook(shutdownCtx); err != nil {
			errs = append(errs, err)
			a.log.Error("shutdown hook failed", slog.Any("error", err))
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	a.log.Info("shutdown completed")
	return nil
}

// handleError renders handler errors: 404s get the not-found page,
// everything else logs and renders the generic error page.
func (a *App) handleError(c web.Context, err error) {
	httpErr := web.AsHTTPError(err)
	if httpErr == nil {
		httpErr = web.ErrInternal("something went wrong", web.WithError(err))
	}

	if httpErr.Code >= http.StatusInternalServerError {
		a.log.ErrorContext(c, "request failed",
			slog.String("path", c.Request().URL.Path),
			slog.Any("error", err),
		)
	}

	page := "500"
	if httpErr.Code == http.StatusNotFound {
		page = "404"
	}

	if renderErr := c.RenderStatus(httpErr.Code, page, map[string]any{
		"message": httpErr.Message,
	}); renderErr != nil {
		http.Error(c.Response(), httpErr.Message, httpErr.Code)
	}
}
