package database

import (
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
)

// Dialect hides the differences between the supported databases
type Dialect interface {
	// DriverName returns the driver name for sqlx.Connect
	DriverName() string

	// DSN builds the data source name from the config
	DSN(cfg Config) (string, error)

	// ConfigureConnection applies pool settings and pragmas
	ConfigureConnection(db *sqlx.DB) error

	// SupportsLastInsertId is false when inserts need a RETURNING clause
	SupportsLastInsertId() bool

	// Schema returns the CREATE statements, executed in order
	Schema() []string
}

// DialectFor returns the dialect for a DB_TYPE value
func DialectFor(dbType string) (Dialect, error) {
	switch strings.ToLower(dbType) {
	case "", "sqlite", "sqlite3":
		return NewSQLiteDialect(), nil
	case "postgres", "postgresql":
		return NewPostgresDialect(), nil
	case "mysql":
		return NewMySQLDialect(), nil
	default:
		return nil, fmt.Errorf("unsupported database type %q", dbType)
	}
}
