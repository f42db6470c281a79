package models

import "time"

// ReviewLog records a single grading event for reporting
type ReviewLog struct {
	ID             int64     `json:"id" db:"id"`
	CardID         string    `json:"card_id" db:"card_id"`
	DeckID         string    `json:"deck_id" db:"deck_id"`
	Grade          string    `json:"grade" db:"grade"`
	ReviewedAt     time.Time `json:"reviewed_at" db:"reviewed_at"`
	IntervalBefore float64   `json:"interval_before" db:"interval_before"`
	IntervalAfter  float64   `json:"interval_after" db:"interval_after"`
	EaseBefore     float64   `json:"ease_before" db:"ease_before"`
	EaseAfter      float64   `json:"ease_after" db:"ease_after"`
}
