package models

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestCardKey(t *testing.T) {
	tests := []struct {
		term string
		want string
	}{
		{"Serendipity", "serendipity"},
		{"  serendipity. ", "serendipity"},
		{"give up", "give-up"},
		{"Give  Up!", "give-up"},
		{"well-known", "well-known"},
		{"don't", "don't"},
		{"Straße", "straße"},
	}

	for _, tt := range tests {
		t.Run(tt.term, func(t *testing.T) {
			assert.Equal(t, tt.want, CardKey(tt.term))
		})
	}
}

func TestCardKeyFallsBackToUUID(t *testing.T) {
	key := CardKey("?!")
	_, err := uuid.Parse(key)
	assert.NoError(t, err)
	assert.NotEqual(t, key, CardKey("?!"))
}

func TestCardClone(t *testing.T) {
	var c Card
	assert.Nil(t, c.Clone().LastReviewedAt)

	at := c.DueAt
	c.LastReviewedAt = &at
	clone := c.Clone()
	assert.NotSame(t, c.LastReviewedAt, clone.LastReviewedAt)
	assert.Equal(t, c, clone)
}
