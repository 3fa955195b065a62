package db

import "errors"

var (
	ErrMissingURL        = errors.New("db: connection URL required")
	ErrOpenFailed        = errors.New("db: failed to open database connection")
	ErrHealthcheckFailed = errors.New("db: healthcheck failed")
	ErrSetDialect        = errors.New("db migrator: failed to set dialect")
	ErrApplyMigrations   = errors.New("db migrator: failed to apply migrations")
)
