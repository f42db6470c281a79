package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/example/vocabsrs/pkg/models"
)

// ReviewLogRepository stores grading events for reporting. Nothing in the
// scheduling path reads from it.
type ReviewLogRepository struct {
	db *DB
}

// NewReviewLogRepository creates a new repository instance
func NewReviewLogRepository(db *DB) *ReviewLogRepository {
	return &ReviewLogRepository{db: db}
}

// Insert appends a review log
func (r *ReviewLogRepository) Insert(ctx context.Context, log *models.ReviewLog) error {
	return insertReviewLog(ctx, r.db.DB, r.db.Dialect, log)
}

// ListByCard returns the review history of a card, oldest first
func (r *ReviewLogRepository) ListByCard(ctx context.Context, deckID, cardID string) ([]models.ReviewLog, error) {
	logs := []models.ReviewLog{}
	query := r.db.Rebind(`
		SELECT id, card_id, deck_id, grade, reviewed_at,
			interval_before, interval_after, ease_before, ease_after
		FROM review_logs
		WHERE deck_id = ? AND card_id = ?
		ORDER BY reviewed_at, id
	`)
	if err := r.db.SelectContext(ctx, &logs, query, deckID, cardID); err != nil {
		return nil, fmt.Errorf("failed to get review logs: %w", err)
	}
	return logs, nil
}

// CountByGradeSince counts the reviews of a deck per grade label
func (r *ReviewLogRepository) CountByGradeSince(ctx context.Context, deckID string, since time.Time) (map[string]int, error) {
	var rows []struct {
		Grade string `db:"grade"`
		Count int    `db:"n"`
	}
	query := r.db.Rebind(`
		SELECT grade, COUNT(*) AS n
		FROM review_logs
		WHERE deck_id = ? AND reviewed_at >= ?
		GROUP BY grade
	`)
	if err := r.db.SelectContext(ctx, &rows, query, deckID, timestamp(since)); err != nil {
		return nil, fmt.Errorf("failed to count reviews: %w", err)
	}

	counts := make(map[string]int, len(rows))
	for _, row := range rows {
		counts[row.Grade] = row.Count
	}
	return counts, nil
}

// DailyCounts returns the number of reviews per UTC day ("2006-01-02")
// over the last days days up to now, including days without reviews.
func (r *ReviewLogRepository) DailyCounts(ctx context.Context, deckID string, days int, now time.Time) (map[string]int, error) {
	end := now.UTC()
	start := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, -(days - 1))

	var times []time.Time
	query := r.db.Rebind("SELECT reviewed_at FROM review_logs WHERE deck_id = ? AND reviewed_at >= ? AND reviewed_at <= ?")
	if err := r.db.SelectContext(ctx, &times, query, deckID, timestamp(start), timestamp(end)); err != nil {
		return nil, fmt.Errorf("failed to get review dates: %w", err)
	}

	counts := make(map[string]int, days)
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		counts[d.Format("2006-01-02")] = 0
	}
	for _, t := range times {
		counts[t.UTC().Format("2006-01-02")]++
	}
	return counts, nil
}

func insertReviewLog(ctx context.Context, e sqlx.ExtContext, dialect Dialect, log *models.ReviewLog) error {
	query := e.Rebind(`
		INSERT INTO review_logs (
			card_id, deck_id, grade, reviewed_at,
			interval_before, interval_after, ease_before, ease_after
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	args := []interface{}{
		log.CardID,
		log.DeckID,
		log.Grade,
		timestamp(log.ReviewedAt),
		log.IntervalBefore,
		log.IntervalAfter,
		log.EaseBefore,
		log.EaseAfter,
	}

	if !dialect.SupportsLastInsertId() {
		if err := e.QueryRowxContext(ctx, query+" RETURNING id", args...).Scan(&log.ID); err != nil {
			return fmt.Errorf("failed to create review log: %w", err)
		}
		return nil
	}

	result, err := e.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to create review log: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert ID: %w", err)
	}
	log.ID = id
	return nil
}
