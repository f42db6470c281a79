package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// Errors returned by the repositories
var (
	ErrNotFound        = errors.New("not found")
	ErrDuplicateCard   = errors.New("card already exists in deck")
	ErrDuplicateDeck   = errors.New("deck with this name already exists")
	ErrDeckNotEmpty    = errors.New("deck still has cards")
	ErrVersionConflict = errors.New("card was modified concurrently")
)

// Config selects the database backend
type Config struct {
	Type string // sqlite, postgres or mysql
	Path string // SQLite file
	URL  string // PostgreSQL/MySQL connection string
}

// DB wraps the sqlx connection with its dialect
type DB struct {
	*sqlx.DB
	Dialect Dialect
}

// Open establishes a connection to the database and creates the schema
func Open(cfg Config) (*DB, error) {
	dialect, err := DialectFor(cfg.Type)
	if err != nil {
		return nil, err
	}

	dsn, err := dialect.DSN(cfg)
	if err != nil {
		return nil, err
	}

	db, err := sqlx.Connect(dialect.DriverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := dialect.ConfigureConnection(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to configure connection: %w", err)
	}

	d := &DB{DB: db, Dialect: dialect}
	if err := d.initializeSchema(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return d, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	if db == nil || db.DB == nil {
		return nil
	}
	return db.DB.Close()
}

// initializeSchema creates necessary tables if they don't exist
func (db *DB) initializeSchema(ctx context.Context) error {
	for _, stmt := range db.Dialect.Schema() {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to initialize schema: %w", err)
		}
	}
	return nil
}

// timestamp normalizes times before they are written so every dialect
// stores and returns the same instant.
func timestamp(t time.Time) time.Time {
	return t.UTC().Round(time.Microsecond)
}

func nullableTimestamp(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := timestamp(*t)
	return &v
}
