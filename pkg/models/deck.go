package models

import "time"

// Deck sources
const (
	SourceManual = "manual"
	SourceImport = "import"
	SourceStory  = "story"
	SourceBook   = "book"
)

// Deck is a named collection of cards owned by one learner
type Deck struct {
	ID            string     `json:"id" db:"id"`
	OwnerID       int64      `json:"owner_id" db:"owner_id"` // Telegram user ID
	Name          string     `json:"name" db:"name"`
	Description   string     `json:"description" db:"description"`
	SourceType    string     `json:"source_type" db:"source_type"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
	LastStudiedAt *time.Time `json:"last_studied_at" db:"last_studied_at"`
}
