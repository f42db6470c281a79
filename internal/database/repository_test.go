package database

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/vocabsrs/pkg/models"
)

var testNow = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping database test in short mode")
	}

	db, err := Open(Config{Type: "sqlite", Path: filepath.Join(t.TempDir(), "test.db")})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func createDeck(t *testing.T, db *DB, owner int64, name string) *models.Deck {
	t.Helper()
	deck := &models.Deck{OwnerID: owner, Name: name, CreatedAt: testNow}
	require.NoError(t, NewDeckRepository(db).Create(context.Background(), deck))
	return deck
}

func newCard(deckID, term string) *models.Card {
	return &models.Card{
		DeckID:     deckID,
		Term:       term,
		Definition: "definition of " + term,
		EaseFactor: 2.5,
		DueAt:      testNow,
		CreatedAt:  testNow,
	}
}

func TestDialectFor(t *testing.T) {
	tests := []struct {
		dbType string
		driver string
	}{
		{"", "sqlite3"},
		{"sqlite", "sqlite3"},
		{"Postgres", "postgres"},
		{"postgresql", "postgres"},
		{"mysql", "mysql"},
	}
	for _, tt := range tests {
		t.Run(tt.dbType, func(t *testing.T) {
			d, err := DialectFor(tt.dbType)
			require.NoError(t, err)
			assert.Equal(t, tt.driver, d.DriverName())
			assert.NotEmpty(t, d.Schema())
		})
	}

	_, err := DialectFor("oracle")
	assert.Error(t, err)
}

func TestDialectDSN(t *testing.T) {
	_, err := NewPostgresDialect().DSN(Config{})
	assert.Error(t, err)

	dsn, err := NewMySQLDialect().DSN(Config{URL: "user:pass@tcp(localhost:3306)/vocab"})
	require.NoError(t, err)
	assert.Contains(t, dsn, "parseTime=true")

	path := filepath.Join(t.TempDir(), "nested", "srs.db")
	dsn, err = NewSQLiteDialect().DSN(Config{Path: path})
	require.NoError(t, err)
	assert.Equal(t, path, dsn)
	assert.DirExists(t, filepath.Dir(path))
}

func TestDeckRepository(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	repo := NewDeckRepository(db)

	deck := createDeck(t, db, 42, "Dune")
	assert.NotEmpty(t, deck.ID)
	assert.Equal(t, models.SourceManual, deck.SourceType)

	err := repo.Create(ctx, &models.Deck{OwnerID: 42, Name: "Dune"})
	assert.ErrorIs(t, err, ErrDuplicateDeck)

	// Same name for another owner is fine.
	createDeck(t, db, 7, "Dune")
	createDeck(t, db, 42, "Emma")

	got, err := repo.GetByName(ctx, 42, "Dune")
	require.NoError(t, err)
	assert.Equal(t, deck.ID, got.ID)
	assert.Nil(t, got.LastStudiedAt)

	require.NoError(t, repo.TouchStudied(ctx, deck.ID, testNow))
	decks, err := repo.List(ctx, 42)
	require.NoError(t, err)
	require.Len(t, decks, 2)
	assert.Equal(t, "Dune", decks[0].Name)
	require.NotNil(t, decks[0].LastStudiedAt)
	assert.True(t, testNow.Equal(*decks[0].LastStudiedAt))

	owners, err := repo.ListOwners(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{7, 42}, owners)

	_, err = repo.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, repo.TouchStudied(ctx, "missing", testNow), ErrNotFound)
}

func TestDeckDelete(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	decks := NewDeckRepository(db)
	cards := NewCardRepository(db)

	deck := createDeck(t, db, 1, "Words")
	require.NoError(t, cards.Create(ctx, newCard(deck.ID, "ephemeral")))

	err := decks.Delete(ctx, deck.ID, false)
	assert.ErrorIs(t, err, ErrDeckNotEmpty)

	require.NoError(t, decks.Delete(ctx, deck.ID, true))
	_, err = decks.GetByID(ctx, deck.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	left, err := cards.LoadCardsForDeck(ctx, deck.ID)
	require.NoError(t, err)
	assert.Empty(t, left)

	assert.ErrorIs(t, decks.Delete(ctx, deck.ID, true), ErrNotFound)
}

func TestCardCreateAndLoad(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	repo := NewCardRepository(db)
	deck := createDeck(t, db, 1, "Words")

	card := newCard(deck.ID, "Ice Cream")
	require.NoError(t, repo.Create(ctx, card))
	assert.Equal(t, "ice-cream", card.ID)
	assert.Equal(t, int64(1), card.Version)

	err := repo.Create(ctx, newCard(deck.ID, "ice  cream"))
	assert.ErrorIs(t, err, ErrDuplicateCard)

	require.NoError(t, repo.Create(ctx, newCard(deck.ID, "apple")))

	cards, err := repo.LoadCardsForDeck(ctx, deck.ID)
	require.NoError(t, err)
	require.Len(t, cards, 2)
	assert.Equal(t, "apple", cards[0].ID)
	assert.Equal(t, "ice-cream", cards[1].ID)
	assert.True(t, testNow.Equal(cards[1].DueAt))
	assert.Nil(t, cards[1].LastReviewedAt)
	assert.Equal(t, "definition of Ice Cream", cards[1].Definition)

	_, err = repo.GetCard(ctx, deck.ID, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSaveCardVersioning(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	repo := NewCardRepository(db)
	deck := createDeck(t, db, 1, "Words")
	require.NoError(t, repo.Create(ctx, newCard(deck.ID, "lucid")))

	first, err := repo.GetCard(ctx, deck.ID, "lucid")
	require.NoError(t, err)
	second, err := repo.GetCard(ctx, deck.ID, "lucid")
	require.NoError(t, err)

	reviewed := testNow
	first.IntervalDays = 1
	first.Repetitions = 1
	first.DueAt = testNow.Add(24 * time.Hour)
	first.LastReviewedAt = &reviewed
	first.LastGrade = "good"
	require.NoError(t, repo.SaveCard(ctx, first))
	assert.Equal(t, int64(2), first.Version)

	// The second copy was read before the first save.
	second.IntervalDays = 4
	err = repo.SaveCard(ctx, second)
	assert.True(t, errors.Is(err, ErrVersionConflict))

	stored, err := repo.GetCard(ctx, deck.ID, "lucid")
	require.NoError(t, err)
	assert.InDelta(t, 1.0, stored.IntervalDays, 1e-9)
	assert.Equal(t, "good", stored.LastGrade)
	require.NotNil(t, stored.LastReviewedAt)
	assert.True(t, testNow.Equal(*stored.LastReviewedAt))

	missing := newCard(deck.ID, "nothing")
	missing.ID = "nothing"
	assert.ErrorIs(t, repo.SaveCard(ctx, missing), ErrNotFound)
}

func TestSaveReviewAndLogs(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	cards := NewCardRepository(db)
	logs := NewReviewLogRepository(db)
	deck := createDeck(t, db, 1, "Words")
	require.NoError(t, cards.Create(ctx, newCard(deck.ID, "quell")))

	grades := []string{"good", "again", "good"}
	for i, grade := range grades {
		card, err := cards.GetCard(ctx, deck.ID, "quell")
		require.NoError(t, err)
		at := testNow.Add(time.Duration(i) * 24 * time.Hour)
		card.ReviewCount++
		card.LastGrade = grade
		log := &models.ReviewLog{
			CardID:     card.ID,
			DeckID:     deck.ID,
			Grade:      grade,
			ReviewedAt: at,
			EaseBefore: 2.5,
			EaseAfter:  2.5,
		}
		require.NoError(t, cards.SaveReview(ctx, card, log))
		assert.NotZero(t, log.ID)
	}

	history, err := logs.ListByCard(ctx, deck.ID, "quell")
	require.NoError(t, err)
	require.Len(t, history, 3)
	for i, l := range history {
		assert.Equal(t, grades[i], l.Grade)
	}

	counts, err := logs.CountByGradeSince(ctx, deck.ID, testNow)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"good": 2, "again": 1}, counts)

	daily, err := logs.DailyCounts(ctx, deck.ID, 7, testNow.Add(2*24*time.Hour+time.Hour))
	require.NoError(t, err)
	assert.Len(t, daily, 7)
	assert.Equal(t, 1, daily["2025-03-10"])
	assert.Equal(t, 1, daily["2025-03-11"])
	assert.Equal(t, 1, daily["2025-03-12"])
	assert.Equal(t, 0, daily["2025-03-09"])

	require.NoError(t, cards.Delete(ctx, deck.ID, "quell"))
	history, err = logs.ListByCard(ctx, deck.ID, "quell")
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestSaveReviewRollsBackOnConflict(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	cards := NewCardRepository(db)
	logs := NewReviewLogRepository(db)
	deck := createDeck(t, db, 1, "Words")
	require.NoError(t, cards.Create(ctx, newCard(deck.ID, "tenacious")))

	card, err := cards.GetCard(ctx, deck.ID, "tenacious")
	require.NoError(t, err)
	card.Version = 99

	err = cards.SaveReview(ctx, card, &models.ReviewLog{CardID: card.ID, DeckID: deck.ID, Grade: "good", ReviewedAt: testNow})
	assert.ErrorIs(t, err, ErrVersionConflict)

	history, err := logs.ListByCard(ctx, deck.ID, "tenacious")
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestUpdateContent(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	repo := NewCardRepository(db)
	deck := createDeck(t, db, 1, "Words")
	require.NoError(t, repo.Create(ctx, newCard(deck.ID, "verdant")))

	require.NoError(t, repo.UpdateContent(ctx, deck.ID, "verdant", "green with vegetation", "verdant hills"))
	card, err := repo.GetCard(ctx, deck.ID, "verdant")
	require.NoError(t, err)
	assert.Equal(t, "green with vegetation", card.Definition)
	assert.Equal(t, "verdant hills", card.Context)
	assert.Equal(t, int64(1), card.Version)

	assert.ErrorIs(t, repo.UpdateContent(ctx, deck.ID, "missing", "", ""), ErrNotFound)
}

func TestReviewLogInsertOrdersByTime(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	logs := NewReviewLogRepository(db)
	deck := createDeck(t, db, 1, "Words")

	later := &models.ReviewLog{CardID: "ardent", DeckID: deck.ID, Grade: "easy", ReviewedAt: testNow.Add(time.Hour)}
	earlier := &models.ReviewLog{CardID: "ardent", DeckID: deck.ID, Grade: "hard", ReviewedAt: testNow}
	require.NoError(t, logs.Insert(ctx, later))
	require.NoError(t, logs.Insert(ctx, earlier))
	assert.Greater(t, earlier.ID, later.ID)

	history, err := logs.ListByCard(ctx, deck.ID, "ardent")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "hard", history[0].Grade)
	assert.Equal(t, "easy", history[1].Grade)
	assert.True(t, history[0].ReviewedAt.Equal(testNow))
}
