package review

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/example/vocabsrs/internal/database"
	"github.com/example/vocabsrs/internal/queue"
	"github.com/example/vocabsrs/internal/spaced_repetition"
	"github.com/example/vocabsrs/pkg/models"
)

// DefaultMaxSaveAttempts bounds the reload-and-regrade loop on version conflicts
const DefaultMaxSaveAttempts = 3

// DefaultDuplicateWindow is how close a conflicting review with the same
// grade must be to count as a repeat submission
const DefaultDuplicateWindow = 5 * time.Second

// ErrEmptyTerm is returned when a card is added without a term
var ErrEmptyTerm = errors.New("term must not be empty")

// CardStore is the persistence the service needs for cards
type CardStore interface {
	GetCard(ctx context.Context, deckID, id string) (*models.Card, error)
	LoadCardsForDeck(ctx context.Context, deckID string) ([]models.Card, error)
	Create(ctx context.Context, card *models.Card) error
	SaveReview(ctx context.Context, card *models.Card, log *models.ReviewLog) error
}

// DeckStore is the persistence the service needs for decks
type DeckStore interface {
	Create(ctx context.Context, deck *models.Deck) error
	GetByID(ctx context.Context, id string) (*models.Deck, error)
	GetByName(ctx context.Context, ownerID int64, name string) (*models.Deck, error)
	List(ctx context.Context, ownerID int64) ([]models.Deck, error)
	ListOwners(ctx context.Context) ([]int64, error)
	TouchStudied(ctx context.Context, id string, at time.Time) error
	Delete(ctx context.Context, id string, deleteCards bool) error
}

// Result is the outcome of grading one card
type Result struct {
	Before models.Card
	After  models.Card
	Grade  spaced_repetition.Grade
	// Duplicate is set when the grade repeated a review that was just saved
	// by another request, and nothing new was stored
	Duplicate bool
}

// DeckSummary pairs a deck with its computed statistics
type DeckSummary struct {
	Deck  models.Deck
	Stats queue.Stats
}

// Service connects the scheduler and the queue selector to storage. It is
// the only place that reads the wall clock.
type Service struct {
	cards CardStore
	decks DeckStore
	sm    *spaced_repetition.SM2

	// Clock returns the current time; defaults to time.Now
	Clock func() time.Time
	// MaxSaveAttempts is the number of grade attempts on version conflicts
	MaxSaveAttempts int
	// DuplicateWindow spots double submits after a version conflict
	DuplicateWindow time.Duration
}

// NewService creates a review service
func NewService(cards CardStore, decks DeckStore, sm *spaced_repetition.SM2) *Service {
	return &Service{
		cards:           cards,
		decks:           decks,
		sm:              sm,
		Clock:           time.Now,
		MaxSaveAttempts: DefaultMaxSaveAttempts,
		DuplicateWindow: DefaultDuplicateWindow,
	}
}

// Scheduler returns the grader used by the service
func (s *Service) Scheduler() *spaced_repetition.SM2 {
	return s.sm
}

// Now returns the service clock's current time
func (s *Service) Now() time.Time {
	if s.Clock == nil {
		return time.Now()
	}
	return s.Clock()
}

// CreateDeck creates a deck for an owner
func (s *Service) CreateDeck(ctx context.Context, ownerID int64, name, description, sourceType string) (*models.Deck, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("deck name must not be empty")
	}
	deck := &models.Deck{
		OwnerID:     ownerID,
		Name:        name,
		Description: description,
		SourceType:  sourceType,
		CreatedAt:   s.Now(),
	}
	if err := s.decks.Create(ctx, deck); err != nil {
		return nil, err
	}
	return deck, nil
}

// DeleteDeck removes a deck; a deck with cards needs deleteCards
func (s *Service) DeleteDeck(ctx context.Context, deckID string, deleteCards bool) error {
	return s.decks.Delete(ctx, deckID, deleteCards)
}

// FindDeck resolves a deck by name, falling back to its ID. Decks of other
// owners are reported as not found.
func (s *Service) FindDeck(ctx context.Context, ownerID int64, nameOrID string) (*models.Deck, error) {
	nameOrID = strings.TrimSpace(nameOrID)
	deck, err := s.decks.GetByName(ctx, ownerID, nameOrID)
	if err == nil {
		return deck, nil
	}
	if !errors.Is(err, database.ErrNotFound) {
		return nil, err
	}

	deck, err = s.decks.GetByID(ctx, nameOrID)
	if err != nil {
		return nil, err
	}
	if deck.OwnerID != ownerID {
		return nil, fmt.Errorf("deck %s: %w", nameOrID, database.ErrNotFound)
	}
	return deck, nil
}

// OwnedCard returns a card after checking that its deck belongs to ownerID.
// Cards in other owners' decks are reported as not found.
func (s *Service) OwnedCard(ctx context.Context, ownerID int64, deckID, cardID string) (*models.Card, error) {
	deck, err := s.decks.GetByID(ctx, deckID)
	if err != nil {
		return nil, err
	}
	if deck.OwnerID != ownerID {
		return nil, fmt.Errorf("deck %s: %w", deckID, database.ErrNotFound)
	}
	return s.cards.GetCard(ctx, deckID, cardID)
}

// AddCard creates a fresh card in a deck, due immediately
func (s *Service) AddCard(ctx context.Context, deckID, term, definition, example string) (*models.Card, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, ErrEmptyTerm
	}

	card := s.sm.NewCard(deckID, models.CardKey(term), term, s.Now())
	card.Definition = strings.TrimSpace(definition)
	card.Context = strings.TrimSpace(example)
	if err := s.cards.Create(ctx, &card); err != nil {
		return nil, err
	}
	return &card, nil
}

// DueQueue returns the cards of a deck due now, most overdue first
func (s *Service) DueQueue(ctx context.Context, deckID string, limit int) ([]models.Card, error) {
	cards, err := s.cards.LoadCardsForDeck(ctx, deckID)
	if err != nil {
		return nil, err
	}
	return queue.Due(cards, s.Now(), limit), nil
}

// NextCard returns the most overdue card of a deck, or false when nothing is due
func (s *Service) NextCard(ctx context.Context, deckID string) (models.Card, bool, error) {
	cards, err := s.cards.LoadCardsForDeck(ctx, deckID)
	if err != nil {
		return models.Card{}, false, err
	}
	for c := range queue.SelectDue(cards, s.Now(), 1) {
		return c, true, nil
	}
	return models.Card{}, false, nil
}

// NextDue returns when the next card of a deck becomes due
func (s *Service) NextDue(ctx context.Context, deckID string) (time.Time, bool, error) {
	cards, err := s.cards.LoadCardsForDeck(ctx, deckID)
	if err != nil {
		return time.Time{}, false, err
	}
	next, ok := queue.NextDue(cards, s.Now())
	return next, ok, nil
}

// Grade applies a grade to a stored card and persists the result with a
// review log. On a version conflict the card is reloaded and regraded, up to
// MaxSaveAttempts times. If the reloaded card already carries the same grade
// from within DuplicateWindow, the request is treated as a double submit and
// nothing is saved.
func (s *Service) Grade(ctx context.Context, deckID, cardID string, grade spaced_repetition.Grade) (*Result, error) {
	if !grade.IsValid() {
		return nil, fmt.Errorf("%w: %d", spaced_repetition.ErrInvalidGrade, int(grade))
	}

	attempts := s.MaxSaveAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	var first *models.Card
	for attempt := 1; attempt <= attempts; attempt++ {
		card, err := s.cards.GetCard(ctx, deckID, cardID)
		if err != nil {
			return nil, err
		}
		if first == nil {
			first = card
		} else if s.isDuplicate(*card, grade) {
			log.Printf("Card %s already graded %s at %s, ignoring repeat", cardID, grade, card.LastReviewedAt.Format(time.RFC3339))
			return &Result{Before: *first, After: *card, Grade: grade, Duplicate: true}, nil
		}

		if err := s.sm.CheckCard(*card); err != nil {
			log.Printf("Repairing card %s in deck %s: %v", cardID, deckID, err)
		}

		now := s.Now()
		graded, err := s.sm.Grade(*card, grade, now)
		if err != nil {
			return nil, err
		}

		entry := &models.ReviewLog{
			CardID:         card.ID,
			DeckID:         card.DeckID,
			Grade:          grade.String(),
			ReviewedAt:     now,
			IntervalBefore: card.IntervalDays,
			IntervalAfter:  graded.IntervalDays,
			EaseBefore:     card.EaseFactor,
			EaseAfter:      graded.EaseFactor,
		}

		err = s.cards.SaveReview(ctx, &graded, entry)
		if errors.Is(err, database.ErrVersionConflict) {
			log.Printf("Card %s changed while grading (attempt %d/%d), retrying", cardID, attempt, attempts)
			lastErr = err
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to save review: %w", err)
		}

		if err := s.decks.TouchStudied(ctx, deckID, now); err != nil {
			log.Printf("Error updating last studied time for deck %s: %v", deckID, err)
		}
		return &Result{Before: *card, After: graded, Grade: grade}, nil
	}
	return nil, fmt.Errorf("failed to save review after %d attempts: %w", attempts, lastErr)
}

func (s *Service) isDuplicate(card models.Card, grade spaced_repetition.Grade) bool {
	if card.LastReviewedAt == nil || card.LastGrade != grade.String() {
		return false
	}
	age := s.Now().Sub(*card.LastReviewedAt)
	if age < 0 {
		age = -age
	}
	return age <= s.DuplicateWindow
}

// Card returns a stored card
func (s *Service) Card(ctx context.Context, deckID, cardID string) (*models.Card, error) {
	return s.cards.GetCard(ctx, deckID, cardID)
}

// Preview returns the outcome of each grade for a stored card
func (s *Service) Preview(ctx context.Context, deckID, cardID string) (map[spaced_repetition.Grade]models.Card, error) {
	card, err := s.cards.GetCard(ctx, deckID, cardID)
	if err != nil {
		return nil, err
	}
	return s.sm.Preview(*card, s.Now()), nil
}

// Hints formats the time until the next review for each grade of card
func (s *Service) Hints(card models.Card) map[spaced_repetition.Grade]string {
	now := s.Now()
	hints := make(map[spaced_repetition.Grade]string, len(spaced_repetition.Grades))
	for g, c := range s.sm.Preview(card, now) {
		hints[g] = spaced_repetition.FormatInterval(c.DueAt.Sub(now))
	}
	return hints
}

// DeckStats computes the statistics of a deck at the current time
func (s *Service) DeckStats(ctx context.Context, deckID string) (queue.Stats, error) {
	cards, err := s.cards.LoadCardsForDeck(ctx, deckID)
	if err != nil {
		return queue.Stats{}, err
	}
	return queue.Summarize(cards, s.Now(), s.sm.Policy().MasteredInterval), nil
}

// ListDecks returns the decks of an owner with their statistics
func (s *Service) ListDecks(ctx context.Context, ownerID int64) ([]DeckSummary, error) {
	decks, err := s.decks.List(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	summaries := make([]DeckSummary, 0, len(decks))
	for _, d := range decks {
		stats, err := s.DeckStats(ctx, d.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to summarize deck %s: %w", d.Name, err)
		}
		summaries = append(summaries, DeckSummary{Deck: d, Stats: stats})
	}
	return summaries, nil
}

// ListOwners returns every owner with at least one deck
func (s *Service) ListOwners(ctx context.Context) ([]int64, error) {
	return s.decks.ListOwners(ctx)
}

// DueCount returns the number of due cards across all decks of an owner
func (s *Service) DueCount(ctx context.Context, ownerID int64) (int, error) {
	summaries, err := s.ListDecks(ctx, ownerID)
	if err != nil {
		return 0, err
	}
	total := 0
	for _, d := range summaries {
		total += d.Stats.Due
	}
	return total, nil
}
