package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/example/vocabsrs/pkg/models"
)

const cardColumns = `id, deck_id, term, definition, context, source_title,
	ease_factor, interval_days, repetitions, lapses, due_at, last_reviewed_at,
	review_count, last_grade, version, created_at, updated_at`

// CardRepository handles database operations for cards
type CardRepository struct {
	db *DB
}

// NewCardRepository creates a new repository instance
func NewCardRepository(db *DB) *CardRepository {
	return &CardRepository{db: db}
}

// Create inserts a new card. An empty ID is derived from the term; a card
// with the same ID in the deck is rejected with ErrDuplicateCard.
func (r *CardRepository) Create(ctx context.Context, card *models.Card) error {
	if card.ID == "" {
		card.ID = models.CardKey(card.Term)
	}

	var count int
	err := r.db.GetContext(ctx, &count,
		r.db.Rebind("SELECT COUNT(*) FROM cards WHERE deck_id = ? AND id = ?"), card.DeckID, card.ID)
	if err != nil {
		return fmt.Errorf("failed to check existing card: %w", err)
	}
	if count > 0 {
		return fmt.Errorf("%w: %s", ErrDuplicateCard, card.ID)
	}

	now := time.Now()
	if card.CreatedAt.IsZero() {
		card.CreatedAt = now
	}
	card.UpdatedAt = now
	card.Version = 1

	row := normalizeCard(*card)
	query := `
		INSERT INTO cards (` + cardColumns + `)
		VALUES (:id, :deck_id, :term, :definition, :context, :source_title,
			:ease_factor, :interval_days, :repetitions, :lapses, :due_at, :last_reviewed_at,
			:review_count, :last_grade, :version, :created_at, :updated_at)
	`
	if _, err := r.db.NamedExecContext(ctx, query, row); err != nil {
		return fmt.Errorf("failed to create card: %w", err)
	}
	return nil
}

// GetCard returns a single card
func (r *CardRepository) GetCard(ctx context.Context, deckID, id string) (*models.Card, error) {
	var card models.Card
	query := r.db.Rebind("SELECT " + cardColumns + " FROM cards WHERE deck_id = ? AND id = ?")
	err := r.db.GetContext(ctx, &card, query, deckID, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("card %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get card: %w", err)
	}
	return &card, nil
}

// LoadCardsForDeck returns every card of a deck ordered by ID
func (r *CardRepository) LoadCardsForDeck(ctx context.Context, deckID string) ([]models.Card, error) {
	cards := []models.Card{}
	query := r.db.Rebind("SELECT " + cardColumns + " FROM cards WHERE deck_id = ? ORDER BY id")
	if err := r.db.SelectContext(ctx, &cards, query, deckID); err != nil {
		return nil, fmt.Errorf("failed to load cards: %w", err)
	}
	return cards, nil
}

// SaveCard writes the scheduling state of a graded card. The write only
// succeeds if the stored version still matches card.Version; otherwise
// ErrVersionConflict is returned and the caller should reload.
func (r *CardRepository) SaveCard(ctx context.Context, card *models.Card) error {
	return saveCard(ctx, r.db.DB, card)
}

// SaveReview saves the card and appends its review log in one transaction.
func (r *CardRepository) SaveReview(ctx context.Context, card *models.Card, log *models.ReviewLog) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := saveCard(ctx, tx, card); err != nil {
		return err
	}
	if err := insertReviewLog(ctx, tx, r.db.Dialect, log); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit review: %w", err)
	}
	return nil
}

// UpdateContent edits the learning content without touching the schedule
func (r *CardRepository) UpdateContent(ctx context.Context, deckID, id, definition, cardContext string) error {
	query := r.db.Rebind(`
		UPDATE cards SET definition = ?, context = ?, updated_at = ?
		WHERE deck_id = ? AND id = ?
	`)
	result, err := r.db.ExecContext(ctx, query, definition, cardContext, timestamp(time.Now()), deckID, id)
	if err != nil {
		return fmt.Errorf("failed to update card: %w", err)
	}
	return expectOneRow(result, "card "+id)
}

// Delete removes a card and its review history
func (r *CardRepository) Delete(ctx context.Context, deckID, id string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, tx.Rebind("DELETE FROM review_logs WHERE deck_id = ? AND card_id = ?"), deckID, id); err != nil {
		return fmt.Errorf("failed to delete review logs: %w", err)
	}
	result, err := tx.ExecContext(ctx, tx.Rebind("DELETE FROM cards WHERE deck_id = ? AND id = ?"), deckID, id)
	if err != nil {
		return fmt.Errorf("failed to delete card: %w", err)
	}
	if err := expectOneRow(result, "card "+id); err != nil {
		return err
	}
	return tx.Commit()
}

func saveCard(ctx context.Context, e sqlx.ExtContext, card *models.Card) error {
	updatedAt := time.Now()
	query := e.Rebind(`
		UPDATE cards SET
			ease_factor = ?,
			interval_days = ?,
			repetitions = ?,
			lapses = ?,
			due_at = ?,
			last_reviewed_at = ?,
			review_count = ?,
			last_grade = ?,
			version = version + 1,
			updated_at = ?
		WHERE deck_id = ? AND id = ? AND version = ?
	`)
	result, err := e.ExecContext(ctx, query,
		card.EaseFactor,
		card.IntervalDays,
		card.Repetitions,
		card.Lapses,
		timestamp(card.DueAt),
		nullableTimestamp(card.LastReviewedAt),
		card.ReviewCount,
		card.LastGrade,
		timestamp(updatedAt),
		card.DeckID,
		card.ID,
		card.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to save card: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		var count int
		err := sqlx.GetContext(ctx, e, &count,
			e.Rebind("SELECT COUNT(*) FROM cards WHERE deck_id = ? AND id = ?"), card.DeckID, card.ID)
		if err != nil {
			return fmt.Errorf("failed to check card: %w", err)
		}
		if count == 0 {
			return fmt.Errorf("card %s: %w", card.ID, ErrNotFound)
		}
		return fmt.Errorf("card %s at version %d: %w", card.ID, card.Version, ErrVersionConflict)
	}

	card.Version++
	card.UpdatedAt = updatedAt
	return nil
}

func normalizeCard(c models.Card) models.Card {
	c.DueAt = timestamp(c.DueAt)
	c.LastReviewedAt = nullableTimestamp(c.LastReviewedAt)
	c.CreatedAt = timestamp(c.CreatedAt)
	c.UpdatedAt = timestamp(c.UpdatedAt)
	return c
}

func expectOneRow(result sql.Result, what string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return nil
}
