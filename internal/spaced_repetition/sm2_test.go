package spaced_repetition

import (
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/vocabsrs/pkg/models"
)

const epsilon = 1e-9

var testNow = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

func newTestSM2(t *testing.T) *SM2 {
	t.Helper()
	sm, err := NewSM2(DefaultPolicy())
	require.NoError(t, err)
	return sm
}

func reviewedCard(interval, ease float64, reps int) models.Card {
	last := testNow.Add(-days(interval))
	return models.Card{
		ID:             "serendipity",
		DeckID:         "deck-1",
		Term:           "serendipity",
		EaseFactor:     ease,
		IntervalDays:   interval,
		Repetitions:    reps,
		DueAt:          testNow,
		LastReviewedAt: &last,
	}
}

func TestGradeFreshCard(t *testing.T) {
	sm := newTestSM2(t)
	fresh := sm.NewCard("deck-1", "serendipity", "serendipity", testNow)

	tests := []struct {
		name         string
		grade        Grade
		wantInterval float64
		wantEase     float64
		wantReps     int
		wantDue      time.Time
	}{
		{"again", Again, 0, 2.3, 0, testNow.Add(time.Minute)},
		{"hard", Hard, 1, 2.35, 1, testNow.Add(24 * time.Hour)},
		{"good", Good, 1, 2.5, 1, testNow.Add(24 * time.Hour)},
		{"easy", Easy, 4, 2.65, 1, testNow.Add(4 * 24 * time.Hour)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := sm.Grade(fresh, tt.grade, testNow)
			require.NoError(t, err)
			assert.InDelta(t, tt.wantInterval, got.IntervalDays, epsilon)
			assert.InDelta(t, tt.wantEase, got.EaseFactor, epsilon)
			assert.Equal(t, tt.wantReps, got.Repetitions)
			assert.True(t, tt.wantDue.Equal(got.DueAt), "due %s, want %s", got.DueAt, tt.wantDue)
			require.NotNil(t, got.LastReviewedAt)
			assert.True(t, testNow.Equal(*got.LastReviewedAt))
			assert.Equal(t, 1, got.ReviewCount)
			assert.Equal(t, tt.grade.String(), got.LastGrade)
		})
	}
}

func TestGradeAgainResetsReviewCard(t *testing.T) {
	sm := newTestSM2(t)
	card := reviewedCard(4, 2.5, 3)
	card.Lapses = 2

	got, err := sm.Grade(card, Again, testNow)
	require.NoError(t, err)

	assert.Zero(t, got.IntervalDays)
	assert.Zero(t, got.Repetitions)
	assert.InDelta(t, 2.3, got.EaseFactor, epsilon)
	assert.Equal(t, 3, got.Lapses)
	assert.True(t, testNow.Add(time.Minute).Equal(got.DueAt))
	assert.Equal(t, Learning, sm.State(got))
}

func TestGradeAgainClampsEaseAtFloor(t *testing.T) {
	sm := newTestSM2(t)
	got, err := sm.Grade(reviewedCard(4, 1.35, 3), Again, testNow)
	require.NoError(t, err)
	assert.InDelta(t, 1.3, got.EaseFactor, epsilon)
}

func TestGradeHardShrinksRelativeToGood(t *testing.T) {
	sm := newTestSM2(t)
	card := reviewedCard(4, 2.5, 3)

	hard, err := sm.Grade(card, Hard, testNow)
	require.NoError(t, err)
	good, err := sm.Grade(card, Good, testNow)
	require.NoError(t, err)

	assert.GreaterOrEqual(t, hard.IntervalDays, sm.Policy().MinInterval)
	assert.LessOrEqual(t, hard.IntervalDays, 4.0)
	assert.InDelta(t, 10.0, good.IntervalDays, epsilon)
	assert.Less(t, hard.IntervalDays, good.IntervalDays)
	assert.InDelta(t, 2.35, hard.EaseFactor, epsilon)
	assert.Equal(t, 4, hard.Repetitions)
}

func TestGradeHardNeverBelowMinInterval(t *testing.T) {
	sm := newTestSM2(t)
	got, err := sm.Grade(reviewedCard(1, 2.5, 1), Hard, testNow)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, got.IntervalDays, epsilon)
}

// A card stored under a policy with a smaller min interval.
func TestGradeSuccessNeverBelowMinInterval(t *testing.T) {
	sm := newTestSM2(t)
	card := reviewedCard(0.2, 1.3, 2)

	for _, g := range []Grade{Hard, Good, Easy} {
		t.Run(g.String(), func(t *testing.T) {
			got, err := sm.Grade(card, g, testNow)
			require.NoError(t, err)
			assert.InDelta(t, 1.0, got.IntervalDays, epsilon)
			assert.Equal(t, testNow.Add(day), got.DueAt)
		})
	}
}

func TestGradeEasyGrowsFasterThanGood(t *testing.T) {
	sm := newTestSM2(t)
	card := reviewedCard(4, 2.5, 3)

	good, err := sm.Grade(card, Good, testNow)
	require.NoError(t, err)
	easy, err := sm.Grade(card, Easy, testNow)
	require.NoError(t, err)

	// 4 * 2.65 * 1.3
	assert.InDelta(t, 13.78, easy.IntervalDays, 1e-9)
	assert.Greater(t, easy.IntervalDays, good.IntervalDays)
}

func TestGradeEaseCeiling(t *testing.T) {
	sm := newTestSM2(t)
	got, err := sm.Grade(reviewedCard(10, 2.95, 5), Easy, testNow)
	require.NoError(t, err)
	assert.InDelta(t, 3.0, got.EaseFactor, epsilon)
}

func TestGradeCapsAtMaxInterval(t *testing.T) {
	p := DefaultPolicy()
	p.MaxInterval = 30
	sm, err := NewSM2(p)
	require.NoError(t, err)

	got, err := sm.Grade(reviewedCard(20, 2.5, 4), Good, testNow)
	require.NoError(t, err)
	assert.InDelta(t, 30.0, got.IntervalDays, epsilon)
}

func TestGradeInvalid(t *testing.T) {
	sm := newTestSM2(t)
	card := reviewedCard(4, 2.5, 3)

	for _, g := range []Grade{0, 5, -1} {
		got, err := sm.Grade(card, g, testNow)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInvalidGrade))
		assert.Equal(t, card, got)
	}

	_, err := ParseGrade("maybe")
	assert.ErrorIs(t, err, ErrInvalidGrade)
}

func TestGradeDoesNotMutateInput(t *testing.T) {
	sm := newTestSM2(t)
	card := reviewedCard(4, 2.5, 3)
	lastBefore := *card.LastReviewedAt
	snapshot := card.Clone()

	_, err := sm.Grade(card, Easy, testNow)
	require.NoError(t, err)

	assert.Equal(t, snapshot, card)
	assert.True(t, lastBefore.Equal(*card.LastReviewedAt))
}

func TestGradeIsDeterministic(t *testing.T) {
	sm := newTestSM2(t)
	for _, g := range Grades {
		card := reviewedCard(7.5, 2.1, 2)
		a, err := sm.Grade(card, g, testNow)
		require.NoError(t, err)
		b, err := sm.Grade(card, g, testNow)
		require.NoError(t, err)
		assert.Equal(t, a, b, g.String())
	}
}

func TestGradeRepairsCorruptedCard(t *testing.T) {
	sm := newTestSM2(t)
	card := reviewedCard(-3, 0.9, -2)

	assert.ErrorIs(t, sm.CheckCard(card), ErrInvalidCardState)

	got, err := sm.Grade(card, Good, testNow)
	require.NoError(t, err)
	assert.InDelta(t, 1.3, got.EaseFactor, epsilon)
	assert.InDelta(t, 1.0, got.IntervalDays, epsilon)
	assert.Equal(t, 1, got.Repetitions)
	assert.NoError(t, sm.CheckCard(got))
}

// Property checks over random grade sequences.
func TestGradeSequenceInvariants(t *testing.T) {
	sm := newTestSM2(t)
	rnd := rand.New(rand.NewSource(42))
	p := sm.Policy()

	for run := 0; run < 200; run++ {
		card := sm.NewCard("deck-1", "word", "word", testNow)
		now := testNow
		lapses := 0

		for step := 0; step < 50; step++ {
			g := Grades[rnd.Intn(len(Grades))]
			before := card
			var err error
			card, err = sm.Grade(card, g, now)
			require.NoError(t, err)

			require.GreaterOrEqual(t, card.EaseFactor, p.EaseFloor)
			require.GreaterOrEqual(t, card.IntervalDays, 0.0)
			require.True(t, card.DueAt.After(now) || card.DueAt.Equal(now))

			if g == Again {
				lapses++
				require.Zero(t, card.Repetitions)
				require.Zero(t, card.IntervalDays)
			} else {
				require.Equal(t, before.Repetitions+1, card.Repetitions)
				require.GreaterOrEqual(t, card.IntervalDays, p.MinInterval)
			}
			if g == Good && before.IntervalDays > 0 && before.EaseFactor > 1 && before.IntervalDays < p.MaxInterval {
				require.Greater(t, card.IntervalDays, before.IntervalDays)
			}
			require.Equal(t, lapses, card.Lapses)

			now = card.DueAt
		}
	}
}

func TestPreview(t *testing.T) {
	sm := newTestSM2(t)
	card := sm.NewCard("deck-1", "word", "word", testNow)

	preview := sm.Preview(card, testNow)
	require.Len(t, preview, 4)

	hints := map[Grade]string{}
	for g, c := range preview {
		hints[g] = FormatInterval(c.DueAt.Sub(testNow))
	}
	assert.Equal(t, map[Grade]string{Again: "<1m", Hard: "1d", Good: "1d", Easy: "4d"}, hints)
	assert.Zero(t, card.ReviewCount)
}

func TestReplay(t *testing.T) {
	sm := newTestSM2(t)
	card := sm.NewCard("deck-1", "word", "word", testNow)

	logs := []models.ReviewLog{
		{CardID: "word", Grade: "good", ReviewedAt: testNow},
		{CardID: "word", Grade: "good", ReviewedAt: testNow.Add(24 * time.Hour)},
		{CardID: "word", Grade: "again", ReviewedAt: testNow.Add(4 * 24 * time.Hour)},
	}

	got, err := sm.Replay(card, logs)
	require.NoError(t, err)

	want := card
	for _, l := range logs {
		g, err := ParseGrade(l.Grade)
		require.NoError(t, err)
		want, err = sm.Grade(want, g, l.ReviewedAt)
		require.NoError(t, err)
	}
	assert.Equal(t, want, got)
	assert.Equal(t, 1, got.Lapses)

	_, err = sm.Replay(card, []models.ReviewLog{{CardID: "other", Grade: "good"}})
	assert.ErrorIs(t, err, ErrCardMismatch)
}

func TestIsMasteredAndState(t *testing.T) {
	sm := newTestSM2(t)
	assert.False(t, sm.IsMastered(reviewedCard(21, 2.5, 4)))
	assert.True(t, sm.IsMastered(reviewedCard(22, 2.5, 5)))
	assert.Equal(t, Review, sm.State(reviewedCard(1, 2.5, 1)))
	assert.Equal(t, Learning, sm.State(sm.NewCard("d", "w", "w", testNow)))
}
