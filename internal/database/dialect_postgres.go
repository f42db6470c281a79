package database

import (
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// PostgresDialect implements Dialect for PostgreSQL
type PostgresDialect struct{}

// NewPostgresDialect creates a new PostgreSQL dialect
func NewPostgresDialect() *PostgresDialect {
	return &PostgresDialect{}
}

func (d *PostgresDialect) DriverName() string {
	return "postgres"
}

func (d *PostgresDialect) DSN(cfg Config) (string, error) {
	if cfg.URL == "" {
		return "", fmt.Errorf("DATABASE_URL is required for postgres")
	}
	return cfg.URL, nil
}

func (d *PostgresDialect) ConfigureConnection(db *sqlx.DB) error {
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	return nil
}

func (d *PostgresDialect) SupportsLastInsertId() bool {
	// needs RETURNING id
	return false
}

func (d *PostgresDialect) Schema() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS decks (
			id TEXT PRIMARY KEY,
			owner_id BIGINT NOT NULL,
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			source_type TEXT NOT NULL DEFAULT 'manual',
			created_at TIMESTAMPTZ NOT NULL,
			last_studied_at TIMESTAMPTZ,
			UNIQUE(owner_id, name)
		)`,
		`CREATE TABLE IF NOT EXISTS cards (
			id TEXT NOT NULL,
			deck_id TEXT NOT NULL REFERENCES decks(id),
			term TEXT NOT NULL,
			definition TEXT NOT NULL DEFAULT '',
			context TEXT NOT NULL DEFAULT '',
			source_title TEXT NOT NULL DEFAULT '',
			ease_factor DOUBLE PRECISION NOT NULL,
			interval_days DOUBLE PRECISION NOT NULL DEFAULT 0,
			repetitions INTEGER NOT NULL DEFAULT 0,
			lapses INTEGER NOT NULL DEFAULT 0,
			due_at TIMESTAMPTZ NOT NULL,
			last_reviewed_at TIMESTAMPTZ,
			review_count INTEGER NOT NULL DEFAULT 0,
			last_grade TEXT NOT NULL DEFAULT '',
			version BIGINT NOT NULL DEFAULT 1,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL,
			PRIMARY KEY (deck_id, id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_cards_due ON cards (deck_id, due_at)`,
		`CREATE TABLE IF NOT EXISTS review_logs (
			id BIGSERIAL PRIMARY KEY,
			card_id TEXT NOT NULL,
			deck_id TEXT NOT NULL REFERENCES decks(id),
			grade TEXT NOT NULL,
			reviewed_at TIMESTAMPTZ NOT NULL,
			interval_before DOUBLE PRECISION NOT NULL,
			interval_after DOUBLE PRECISION NOT NULL,
			ease_before DOUBLE PRECISION NOT NULL,
			ease_after DOUBLE PRECISION NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_review_logs_deck ON review_logs (deck_id, reviewed_at)`,
	}
}
