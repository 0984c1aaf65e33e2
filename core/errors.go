package core

import (
	"errors"
	"fmt"
)

var (
	// ErrNotConnected is returned by store operations that require an open
	// database connection.
	ErrNotConnected = errors.New("not connected to a database file")

	// ErrStoreFileNotFound is returned when the database file path does not
	// point to an existing .db file.
	ErrStoreFileNotFound = errors.New("database file not found")

	// ErrTableNotFound is returned when the leaderboard table is missing
	// from the connected database file.
	ErrTableNotFound = errors.New("leaderboard table not found")

	// ErrSchemaCorrupted is returned when the leaderboard table's shape no
	// longer matches the expected column layout. Checked before every store
	// operation, not just at startup.
	ErrSchemaCorrupted = errors.New("leaderboard table was altered: columns changed or deleted")

	// ErrFailSafe is returned by bulk-destructive operations when the
	// intentional flag was left false.
	ErrFailSafe = errors.New("fail-safe: destructive operation requires intentional=true")
)

// OutOfRangeError reports a level outside the 0-100 curve.
type OutOfRangeError struct {
	Level int
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("levels only go from 0-%d, %d is not a valid level", MaxLevel, e.Level)
}

// ConfigError reports an invalid configuration value supplied at setup.
// Configuration errors are fatal to the call that raised them and are never
// silently corrected.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
