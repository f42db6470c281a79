package bot

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/vocabsrs/internal/queue"
	"github.com/example/vocabsrs/internal/review"
	"github.com/example/vocabsrs/internal/spaced_repetition"
	"github.com/example/vocabsrs/pkg/models"
)

func TestParseAddArgs(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		want    addArgs
		wantErr bool
	}{
		{
			name: "all fields",
			text: "Dune | melange | the spice | The spice must flow.",
			want: addArgs{Deck: "Dune", Term: "melange", Definition: "the spice", Example: "The spice must flow."},
		},
		{
			name: "term only",
			text: "Dune|sietch",
			want: addArgs{Deck: "Dune", Term: "sietch"},
		},
		{
			name: "pipes in example",
			text: "Dune | a | b | c | d",
			want: addArgs{Deck: "Dune", Term: "a", Definition: "b", Example: "c | d"},
		},
		{name: "missing term", text: "Dune | ", wantErr: true},
		{name: "empty", text: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseAddArgs(tt.text)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatCard(t *testing.T) {
	card := models.Card{Term: "melange", Definition: "the spice", Context: "The spice must flow.", Lapses: 2}

	assert.Equal(t, "📖 3/10\n\nmelange\n\n(forgotten 2 times)", formatQuestion(card, 3, 10))
	assert.Equal(t, "melange\n\nthe spice\n\n💬 The spice must flow.", formatAnswer(card))
	assert.Equal(t, "sietch", formatAnswer(models.Card{Term: "sietch"}))
}

func TestFormatGraded(t *testing.T) {
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	res := &review.Result{
		After: models.Card{Term: "melange", DueAt: now.Add(4 * 24 * time.Hour)},
		Grade: spaced_repetition.Easy,
	}
	assert.Equal(t, "melange: easy, next review in 4d", formatGraded(res, now))
}

func TestFormatDeckListAndButtons(t *testing.T) {
	assert.Contains(t, formatDeckList(nil), "/newdeck")

	decks := []review.DeckSummary{
		{Deck: models.Deck{ID: "d1", Name: "Dune"}, Stats: queue.Stats{Total: 10, Due: 3}},
		{Deck: models.Deck{ID: "d2", Name: "Emma"}, Stats: queue.Stats{Total: 4}},
	}
	assert.Equal(t, "Your decks:\n\n• Dune: 10 cards, 3 due\n• Emma: 4 cards, 0 due", formatDeckList(decks))

	rows := reviewButtons(decks)
	require.Len(t, rows, 1)
	assert.Equal(t, "Review Dune (3)", rows[0][0].Text)
	assert.Equal(t, "r:d1", rows[0][0].CallbackData)
}

func TestFormatStats(t *testing.T) {
	text := formatStats("Dune", queue.Stats{Total: 5, Due: 2, Learning: 1, Mastered: 1, Lapses: 3, Reviews: 20})
	assert.Contains(t, text, "📊 Dune")
	assert.Contains(t, text, "Due now: 2")
	assert.Contains(t, text, "Reviews: 20")
}

func TestSessionStore(t *testing.T) {
	store := newSessionStore()
	_, ok := store.get(1)
	assert.False(t, ok)

	store.put(1, reviewSession{DeckID: "d1", Limit: 2})
	s, ok := store.update(1, func(s *reviewSession) { s.Reviewed++ })
	require.True(t, ok)
	assert.False(t, s.done())

	s, _ = store.update(1, func(s *reviewSession) { s.Reviewed++ })
	assert.True(t, s.done())

	_, ok = store.update(2, func(s *reviewSession) { s.Reviewed++ })
	assert.False(t, ok)

	ended, ok := store.end(1)
	require.True(t, ok)
	assert.Equal(t, 2, ended.Reviewed)
	_, ok = store.get(1)
	assert.False(t, ok)

	assert.False(t, (&reviewSession{Reviewed: 100}).done())
}
