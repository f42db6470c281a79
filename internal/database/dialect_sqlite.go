package database

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

// SQLiteDialect implements Dialect for SQLite
type SQLiteDialect struct{}

// NewSQLiteDialect creates a new SQLite dialect
func NewSQLiteDialect() *SQLiteDialect {
	return &SQLiteDialect{}
}

func (d *SQLiteDialect) DriverName() string {
	return "sqlite3"
}

func (d *SQLiteDialect) DSN(cfg Config) (string, error) {
	path := cfg.Path
	if path == "" {
		path = filepath.Join("data", "vocabsrs.db")
	}
	// Create data directory if it doesn't exist
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("failed to create data directory: %w", err)
		}
	}
	return path, nil
}

func (d *SQLiteDialect) ConfigureConnection(db *sqlx.DB) error {
	// SQLite doesn't support multiple writers
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	return nil
}

func (d *SQLiteDialect) SupportsLastInsertId() bool {
	return true
}

func (d *SQLiteDialect) Schema() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS decks (
			id TEXT PRIMARY KEY,
			owner_id INTEGER NOT NULL,
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			source_type TEXT NOT NULL DEFAULT 'manual',
			created_at TIMESTAMP NOT NULL,
			last_studied_at TIMESTAMP,
			UNIQUE(owner_id, name)
		)`,
		`CREATE TABLE IF NOT EXISTS cards (
			id TEXT NOT NULL,
			deck_id TEXT NOT NULL,
			term TEXT NOT NULL,
			definition TEXT NOT NULL DEFAULT '',
			context TEXT NOT NULL DEFAULT '',
			source_title TEXT NOT NULL DEFAULT '',
			ease_factor REAL NOT NULL,
			interval_days REAL NOT NULL DEFAULT 0,
			repetitions INTEGER NOT NULL DEFAULT 0,
			lapses INTEGER NOT NULL DEFAULT 0,
			due_at TIMESTAMP NOT NULL,
			last_reviewed_at TIMESTAMP,
			review_count INTEGER NOT NULL DEFAULT 0,
			last_grade TEXT NOT NULL DEFAULT '',
			version INTEGER NOT NULL DEFAULT 1,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL,
			PRIMARY KEY (deck_id, id),
			FOREIGN KEY (deck_id) REFERENCES decks(id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_cards_due ON cards (deck_id, due_at)`,
		`CREATE TABLE IF NOT EXISTS review_logs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			card_id TEXT NOT NULL,
			deck_id TEXT NOT NULL,
			grade TEXT NOT NULL,
			reviewed_at TIMESTAMP NOT NULL,
			interval_before REAL NOT NULL,
			interval_after REAL NOT NULL,
			ease_before REAL NOT NULL,
			ease_after REAL NOT NULL,
			FOREIGN KEY (deck_id) REFERENCES decks(id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_review_logs_deck ON review_logs (deck_id, reviewed_at)`,
	}
}
