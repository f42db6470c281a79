package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/example/vocabsrs/pkg/models"
)

const deckColumns = "id, owner_id, name, description, source_type, created_at, last_studied_at"

// DeckRepository handles database operations for decks
type DeckRepository struct {
	db *DB
}

// NewDeckRepository creates a new repository instance
func NewDeckRepository(db *DB) *DeckRepository {
	return &DeckRepository{db: db}
}

// Create inserts a new deck, generating its ID when empty
func (r *DeckRepository) Create(ctx context.Context, deck *models.Deck) error {
	if _, err := r.GetByName(ctx, deck.OwnerID, deck.Name); err == nil {
		return fmt.Errorf("%w: %s", ErrDuplicateDeck, deck.Name)
	} else if !errors.Is(err, ErrNotFound) {
		return err
	}

	if deck.ID == "" {
		deck.ID = uuid.NewString()
	}
	if deck.SourceType == "" {
		deck.SourceType = models.SourceManual
	}
	if deck.CreatedAt.IsZero() {
		deck.CreatedAt = time.Now()
	}

	query := r.db.Rebind(`
		INSERT INTO decks (id, owner_id, name, description, source_type, created_at, last_studied_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	_, err := r.db.ExecContext(ctx, query,
		deck.ID,
		deck.OwnerID,
		deck.Name,
		deck.Description,
		deck.SourceType,
		timestamp(deck.CreatedAt),
		nullableTimestamp(deck.LastStudiedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to create deck: %w", err)
	}
	return nil
}

// GetByID returns a deck by ID
func (r *DeckRepository) GetByID(ctx context.Context, id string) (*models.Deck, error) {
	return r.getOne(ctx, "SELECT "+deckColumns+" FROM decks WHERE id = ?", id)
}

// GetByName returns an owner's deck by name
func (r *DeckRepository) GetByName(ctx context.Context, ownerID int64, name string) (*models.Deck, error) {
	return r.getOne(ctx, "SELECT "+deckColumns+" FROM decks WHERE owner_id = ? AND name = ?", ownerID, name)
}

// List returns all decks of an owner, most recently studied first
func (r *DeckRepository) List(ctx context.Context, ownerID int64) ([]models.Deck, error) {
	decks := []models.Deck{}
	query := r.db.Rebind(`
		SELECT ` + deckColumns + ` FROM decks
		WHERE owner_id = ?
		ORDER BY CASE WHEN last_studied_at IS NULL THEN 1 ELSE 0 END, last_studied_at DESC, name
	`)
	if err := r.db.SelectContext(ctx, &decks, query, ownerID); err != nil {
		return nil, fmt.Errorf("failed to list decks: %w", err)
	}
	return decks, nil
}

// ListOwners returns every owner that has at least one deck
func (r *DeckRepository) ListOwners(ctx context.Context) ([]int64, error) {
	owners := []int64{}
	if err := r.db.SelectContext(ctx, &owners, "SELECT DISTINCT owner_id FROM decks ORDER BY owner_id"); err != nil {
		return nil, fmt.Errorf("failed to list deck owners: %w", err)
	}
	return owners, nil
}

// TouchStudied records that the deck was studied at the given time
func (r *DeckRepository) TouchStudied(ctx context.Context, id string, at time.Time) error {
	result, err := r.db.ExecContext(ctx, r.db.Rebind("UPDATE decks SET last_studied_at = ? WHERE id = ?"), timestamp(at), id)
	if err != nil {
		return fmt.Errorf("failed to update deck: %w", err)
	}
	return expectOneRow(result, "deck "+id)
}

// Delete removes a deck. Unless deleteCards is set, a deck that still has
// cards is rejected with ErrDeckNotEmpty.
func (r *DeckRepository) Delete(ctx context.Context, id string, deleteCards bool) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if !deleteCards {
		var count int
		if err := tx.GetContext(ctx, &count, tx.Rebind("SELECT COUNT(*) FROM cards WHERE deck_id = ?"), id); err != nil {
			return fmt.Errorf("failed to count cards: %w", err)
		}
		if count > 0 {
			return fmt.Errorf("deck %s has %d cards: %w", id, count, ErrDeckNotEmpty)
		}
	}

	for _, stmt := range []string{
		"DELETE FROM review_logs WHERE deck_id = ?",
		"DELETE FROM cards WHERE deck_id = ?",
	} {
		if _, err := tx.ExecContext(ctx, tx.Rebind(stmt), id); err != nil {
			return fmt.Errorf("failed to delete deck contents: %w", err)
		}
	}

	result, err := tx.ExecContext(ctx, tx.Rebind("DELETE FROM decks WHERE id = ?"), id)
	if err != nil {
		return fmt.Errorf("failed to delete deck: %w", err)
	}
	if err := expectOneRow(result, "deck "+id); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *DeckRepository) getOne(ctx context.Context, query string, args ...interface{}) (*models.Deck, error) {
	var deck models.Deck
	err := r.db.GetContext(ctx, &deck, r.db.Rebind(query), args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("deck: %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get deck: %w", err)
	}
	return &deck, nil
}
