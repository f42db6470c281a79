package database

import (
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
)

// MySQLDialect implements Dialect for MySQL
type MySQLDialect struct{}

// NewMySQLDialect creates a new MySQL dialect
func NewMySQLDialect() *MySQLDialect {
	return &MySQLDialect{}
}

func (d *MySQLDialect) DriverName() string {
	return "mysql"
}

// DSN forces parseTime and UTC so TIMESTAMP columns scan into time.Time.
func (d *MySQLDialect) DSN(cfg Config) (string, error) {
	if cfg.URL == "" {
		return "", fmt.Errorf("DATABASE_URL is required for mysql")
	}
	mc, err := mysql.ParseDSN(cfg.URL)
	if err != nil {
		return "", fmt.Errorf("failed to parse mysql DSN: %w", err)
	}
	mc.ParseTime = true
	mc.Loc = time.UTC
	return mc.FormatDSN(), nil
}

func (d *MySQLDialect) ConfigureConnection(db *sqlx.DB) error {
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	return nil
}

func (d *MySQLDialect) SupportsLastInsertId() bool {
	return true
}

func (d *MySQLDialect) Schema() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS decks (
			id VARCHAR(64) PRIMARY KEY,
			owner_id BIGINT NOT NULL,
			name VARCHAR(191) NOT NULL,
			description TEXT NOT NULL,
			source_type VARCHAR(32) NOT NULL DEFAULT 'manual',
			created_at DATETIME(6) NOT NULL,
			last_studied_at DATETIME(6) NULL,
			UNIQUE KEY uq_decks_owner_name (owner_id, name)
		) CHARACTER SET utf8mb4`,
		`CREATE TABLE IF NOT EXISTS cards (
			id VARCHAR(191) NOT NULL,
			deck_id VARCHAR(64) NOT NULL,
			term TEXT NOT NULL,
			definition TEXT NOT NULL,
			context TEXT NOT NULL,
			source_title TEXT NOT NULL,
			ease_factor DOUBLE NOT NULL,
			interval_days DOUBLE NOT NULL DEFAULT 0,
			repetitions INT NOT NULL DEFAULT 0,
			lapses INT NOT NULL DEFAULT 0,
			due_at DATETIME(6) NOT NULL,
			last_reviewed_at DATETIME(6) NULL,
			review_count INT NOT NULL DEFAULT 0,
			last_grade VARCHAR(16) NOT NULL DEFAULT '',
			version BIGINT NOT NULL DEFAULT 1,
			created_at DATETIME(6) NOT NULL,
			updated_at DATETIME(6) NOT NULL,
			PRIMARY KEY (deck_id, id),
			KEY idx_cards_due (deck_id, due_at),
			FOREIGN KEY (deck_id) REFERENCES decks(id)
		) CHARACTER SET utf8mb4`,
		`CREATE TABLE IF NOT EXISTS review_logs (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			card_id VARCHAR(191) NOT NULL,
			deck_id VARCHAR(64) NOT NULL,
			grade VARCHAR(16) NOT NULL,
			reviewed_at DATETIME(6) NOT NULL,
			interval_before DOUBLE NOT NULL,
			interval_after DOUBLE NOT NULL,
			ease_before DOUBLE NOT NULL,
			ease_after DOUBLE NOT NULL,
			KEY idx_review_logs_deck (deck_id, reviewed_at),
			FOREIGN KEY (deck_id) REFERENCES decks(id)
		) CHARACTER SET utf8mb4`,
	}
}
