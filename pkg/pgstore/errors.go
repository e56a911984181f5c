package pgstore

import "errors"

var (
	ErrFailedToParseConfig    = errors.New("pgstore: failed to parse database configuration")
	ErrFailedToOpenConnection = errors.New("pgstore: failed to open database connection")
	ErrSetDialect             = errors.New("pgstore: failed to set migration dialect")
	ErrApplyMigrations        = errors.New("pgstore: failed to apply migrations")
)
