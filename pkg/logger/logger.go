package logger

import (
	"context"
	"log/slog"
	"os"

	"github.com/getsentry/sentry-go"
	sentryslog "github.com/getsentry/sentry-go/slog"
)

// ContextExtractor extracts a slog attribute from context.
// Extractors run on every log call so request-scoped values stay fresh.
type ContextExtractor func(ctx context.Context) (slog.Attr, bool)

// New creates a JSON logger writing to stdout. When debug is true the
// level drops to Debug, otherwise Info.
func New(debug bool, extractors ...ContextExtractor) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	h := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	return slog.New(newDecorator(h, extractors...))
}

// SentryConfig holds Sentry integration settings.
type SentryConfig struct {
	DSN         string
	Environment string
}

// NewWithSentry creates a logger that fans out to stdout and Sentry.
// An empty DSN or a failed init falls back to stdout only, so the same
// code path is safe in development.
func NewWithSentry(cfg SentryConfig, debug bool, extractors ...ContextExtractor) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	stdout := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})

	if cfg.DSN == "" {
		return slog.New(newDecorator(stdout, extractors...))
	}

	if err := sentry.Init(sentry.ClientOptions{
		Dsn:         cfg.DSN,
		Environment: cfg.Environment,
		EnableLogs:  true,
	}); err != nil {
		slog.New(stdout).Error("failed to initialize sentry", slog.String("error", err.Error()))
		return slog.New(newDecorator(stdout, extractors...))
	}

	sh := sentryslog.Option{
		EventLevel: []slog.Level{slog.LevelError},
		LogLevel:   []slog.Level{slog.LevelWarn, slog.LevelError},
	}.NewSentryHandler(context.Background())

	return slog.New(newDecorator(newMultiHandler(stdout, sh), extractors...))
}

// Discard creates a no-op logger. Used as the default when logging is
// not configured, mostly in tests.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
