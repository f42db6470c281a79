package spaced_repetition

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/example/vocabsrs/pkg/models"
)

const day = 24 * time.Hour

// State is the implicit scheduling phase of a card.
type State int

const (
	// Learning cards have no interval yet: new cards and lapsed cards.
	Learning State = iota
	// Review cards have passed at least one successful interval.
	Review
)

func (s State) String() string {
	if s == Review {
		return "review"
	}
	return "learning"
}

// SM2 implements an SM-2 derived scheduler with four grades.
// It performs no I/O and never reads the clock, so it is safe for concurrent use.
type SM2 struct {
	policy Policy
}

// NewSM2 creates a scheduler for the given policy
func NewSM2(policy Policy) (*SM2, error) {
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	return &SM2{policy: policy}, nil
}

// Policy returns the policy the scheduler was built with
func (sm *SM2) Policy() Policy {
	return sm.policy
}

// NewCard returns a fresh card that is due immediately.
func (sm *SM2) NewCard(deckID, id, term string, now time.Time) models.Card {
	return models.Card{
		ID:           id,
		DeckID:       deckID,
		Term:         term,
		EaseFactor:   sm.policy.DefaultEase,
		IntervalDays: 0,
		Repetitions:  0,
		DueAt:        now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// Grade applies one review to card and returns the new state. The input is
// never modified. An invalid grade returns the card unchanged together with
// ErrInvalidGrade. Corrupted scheduling fields are repaired before grading;
// use CheckCard to detect them.
func (sm *SM2) Grade(card models.Card, grade Grade, now time.Time) (models.Card, error) {
	c := card.Clone()
	if !grade.IsValid() {
		return c, fmt.Errorf("%w: %d", ErrInvalidGrade, int(grade))
	}
	c = sm.Repair(c)

	p := sm.policy
	prev := c.IntervalDays

	switch grade {
	case Again:
		c.Repetitions = 0
		c.EaseFactor = sm.lowerEase(c.EaseFactor, p.AgainPenalty)
		c.IntervalDays = 0
		c.Lapses++
		c.DueAt = now.Add(p.LapseDelay)

	case Hard:
		c.Repetitions++
		c.EaseFactor = sm.lowerEase(c.EaseFactor, p.HardPenalty)
		c.IntervalDays = sm.clampInterval(prev * p.HardMultiplier)
		c.DueAt = now.Add(days(c.IntervalDays))

	case Good:
		c.Repetitions++
		if prev <= 0 {
			c.IntervalDays = p.InitialGoodInterval
		} else {
			c.IntervalDays = sm.clampInterval(prev * c.EaseFactor)
		}
		c.DueAt = now.Add(days(c.IntervalDays))

	case Easy:
		c.Repetitions++
		c.EaseFactor = sm.raiseEase(c.EaseFactor, p.EasyBonus)
		if prev <= 0 {
			c.IntervalDays = p.InitialEasyInterval
		} else {
			c.IntervalDays = sm.clampInterval(prev * c.EaseFactor * p.EasyMultiplier)
		}
		c.DueAt = now.Add(days(c.IntervalDays))
	}

	reviewed := now
	c.LastReviewedAt = &reviewed
	c.ReviewCount++
	c.LastGrade = grade.String()
	return c, nil
}

// Preview returns the outcome of every grade for card at now.
func (sm *SM2) Preview(card models.Card, now time.Time) map[Grade]models.Card {
	out := make(map[Grade]models.Card, len(Grades))
	for _, g := range Grades {
		c, _ := sm.Grade(card, g, now)
		out[g] = c
	}
	return out
}

// Replay regrades card through logs in order, rebuilding its schedule.
func (sm *SM2) Replay(card models.Card, logs []models.ReviewLog) (models.Card, error) {
	c := card.Clone()
	for _, l := range logs {
		if l.CardID != c.ID {
			return models.Card{}, fmt.Errorf("%w: card %q, log %q", ErrCardMismatch, c.ID, l.CardID)
		}
		g, err := ParseGrade(l.Grade)
		if err != nil {
			return models.Card{}, err
		}
		if c, err = sm.Grade(c, g, l.ReviewedAt); err != nil {
			return models.Card{}, err
		}
	}
	return c, nil
}

// CheckCard reports every invariant the card violates, wrapped in ErrInvalidCardState.
func (sm *SM2) CheckCard(card models.Card) error {
	var errs []error
	if math.IsNaN(card.EaseFactor) || card.EaseFactor < sm.policy.EaseFloor {
		errs = append(errs, fmt.Errorf("%w: ease factor %.2f below floor %.2f",
			ErrInvalidCardState, card.EaseFactor, sm.policy.EaseFloor))
	}
	if math.IsNaN(card.IntervalDays) || math.IsInf(card.IntervalDays, 0) || card.IntervalDays < 0 {
		errs = append(errs, fmt.Errorf("%w: interval %.2f days", ErrInvalidCardState, card.IntervalDays))
	}
	if card.Repetitions < 0 {
		errs = append(errs, fmt.Errorf("%w: repetitions %d", ErrInvalidCardState, card.Repetitions))
	}
	if card.Lapses < 0 {
		errs = append(errs, fmt.Errorf("%w: lapses %d", ErrInvalidCardState, card.Lapses))
	}
	return errors.Join(errs...)
}

// Repair clamps the scheduling fields of card back into their valid ranges.
func (sm *SM2) Repair(card models.Card) models.Card {
	p := sm.policy
	switch {
	case math.IsNaN(card.EaseFactor) || math.IsInf(card.EaseFactor, 0):
		card.EaseFactor = p.DefaultEase
	case card.EaseFactor < p.EaseFloor:
		card.EaseFactor = p.EaseFloor
	}
	if math.IsNaN(card.IntervalDays) || card.IntervalDays < 0 {
		card.IntervalDays = 0
	}
	if math.IsInf(card.IntervalDays, 1) {
		card.IntervalDays = p.MaxInterval
	}
	if card.Repetitions < 0 {
		card.Repetitions = 0
	}
	if card.Lapses < 0 {
		card.Lapses = 0
	}
	return card
}

// State derives the scheduling phase from the interval
func (sm *SM2) State(card models.Card) State {
	if card.IntervalDays > 0 {
		return Review
	}
	return Learning
}

// IsMastered determines if a card is considered "mastered"
func (sm *SM2) IsMastered(card models.Card) bool {
	return card.IntervalDays > sm.policy.MasteredInterval
}

func (sm *SM2) lowerEase(ease, penalty float64) float64 {
	return math.Max(sm.policy.EaseFloor, ease-penalty)
}

func (sm *SM2) raiseEase(ease, bonus float64) float64 {
	ease += bonus
	if sm.policy.EaseCeiling > 0 && ease > sm.policy.EaseCeiling {
		ease = sm.policy.EaseCeiling
	}
	return ease
}

// clampInterval keeps a successful review's interval within
// [MinInterval, MaxInterval], also for cards stored under an older policy.
func (sm *SM2) clampInterval(interval float64) float64 {
	return math.Min(sm.policy.MaxInterval, math.Max(sm.policy.MinInterval, interval))
}

// days converts a fractional day count to a duration.
func days(n float64) time.Duration {
	return time.Duration(math.Round(n * float64(day)))
}
