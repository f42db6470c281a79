package models

import "time"

// Card is one vocabulary item in a deck together with its review schedule.
type Card struct {
	ID          string `json:"id" db:"id"`
	DeckID      string `json:"deck_id" db:"deck_id"`
	Term        string `json:"term" db:"term"`
	Definition  string `json:"definition" db:"definition"`
	Context     string `json:"context" db:"context"` // Example sentence
	SourceTitle string `json:"source_title" db:"source_title"`

	EaseFactor     float64    `json:"ease_factor" db:"ease_factor"`
	IntervalDays   float64    `json:"interval_days" db:"interval_days"`
	Repetitions    int        `json:"repetitions" db:"repetitions"` // Successful reviews since the last lapse
	Lapses         int        `json:"lapses" db:"lapses"`
	DueAt          time.Time  `json:"due_at" db:"due_at"`
	LastReviewedAt *time.Time `json:"last_reviewed_at" db:"last_reviewed_at"`
	ReviewCount    int        `json:"review_count" db:"review_count"`
	LastGrade      string     `json:"last_grade" db:"last_grade"`

	// Version is bumped by the store on every save.
	Version   int64     `json:"version" db:"version"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Clone returns a copy that shares no pointers with c.
func (c Card) Clone() Card {
	out := c
	if c.LastReviewedAt != nil {
		t := *c.LastReviewedAt
		out.LastReviewedAt = &t
	}
	return out
}
