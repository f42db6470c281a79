// Package queue selects and orders the cards of a deck for review.
package queue

import (
	"iter"
	"slices"
	"strings"
	"time"

	"github.com/example/vocabsrs/pkg/models"
)

// SelectDue returns the cards due at now, oldest due first with ties broken
// by card ID. A positive limit truncates the result. Each iteration works on
// a fresh copy of cards, so the sequence can be ranged over repeatedly.
func SelectDue(cards []models.Card, now time.Time, limit int) iter.Seq[models.Card] {
	return func(yield func(models.Card) bool) {
		due := make([]models.Card, 0, len(cards))
		for _, c := range cards {
			if !c.DueAt.After(now) {
				due = append(due, c.Clone())
			}
		}

		slices.SortFunc(due, compareDue)

		if limit > 0 && len(due) > limit {
			due = due[:limit]
		}
		for _, c := range due {
			if !yield(c) {
				return
			}
		}
	}
}

// Due collects SelectDue into a slice
func Due(cards []models.Card, now time.Time, limit int) []models.Card {
	return slices.Collect(SelectDue(cards, now, limit))
}

// NextDue returns the earliest due time among cards that are not yet due.
func NextDue(cards []models.Card, now time.Time) (time.Time, bool) {
	var next time.Time
	found := false
	for _, c := range cards {
		if !c.DueAt.After(now) {
			continue
		}
		if !found || c.DueAt.Before(next) {
			next = c.DueAt
			found = true
		}
	}
	return next, found
}

func compareDue(a, b models.Card) int {
	if c := a.DueAt.Compare(b.DueAt); c != 0 {
		return c
	}
	return strings.Compare(a.ID, b.ID)
}
