package queue

import (
	"time"

	"github.com/example/vocabsrs/pkg/models"
)

// Stats are the deck aggregates shown on the deck list. They are never stored.
type Stats struct {
	Total    int
	Due      int
	Learning int
	Mastered int
	Lapses   int
	Reviews  int
}

// Summarize computes Stats for cards at now. Cards with an interval longer
// than masteredInterval days count as mastered.
func Summarize(cards []models.Card, now time.Time, masteredInterval float64) Stats {
	var s Stats
	for _, c := range cards {
		s.Total++
		if !c.DueAt.After(now) {
			s.Due++
		}
		if c.IntervalDays <= 0 {
			s.Learning++
		}
		if c.IntervalDays > masteredInterval {
			s.Mastered++
		}
		s.Lapses += c.Lapses
		s.Reviews += c.ReviewCount
	}
	return s
}
