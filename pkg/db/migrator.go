package db

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/pressly/goose/v3"
	"gorm.io/gorm"
)

// Migrate applies embedded goose migrations through the gorm handle's
// underlying *sql.DB. The shared pool stays open; goose only borrows it.
func Migrate(ctx context.Context, gdb *gorm.DB, migrations fs.FS, log *slog.Logger) error {
	sqlDB, err := gdb.DB()
	if err != nil {
		return errors.Join(ErrApplyMigrations, err)
	}

	goose.SetBaseFS(migrations)
	goose.SetLogger(&gooseLogger{log})

	dialect := gdb.Dialector.Name()
	if dialect == "sqlite" {
		dialect = "sqlite3"
	}
	if err := goose.SetDialect(dialect); err != nil {
		return errors.Join(ErrSetDialect, err)
	}

	if err := goose.UpContext(ctx, sqlDB, "."); err != nil {
		return errors.Join(ErrApplyMigrations, err)
	}

	return nil
}

type gooseLogger struct {
	log *slog.Logger
}

func (g *gooseLogger) Printf(format string, args ...any) {
	g.log.Info(fmt.Sprintf(format, args...))
}

func (g *gooseLogger) Fatalf(format string, args ...any) {
	// Error level only; goose returns the error up the stack and the
	// caller decides whether to exit.
	g.log.Error(fmt.Sprintf(format, args...))
}
