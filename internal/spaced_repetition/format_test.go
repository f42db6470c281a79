package spaced_repetition

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatInterval(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, "<1m"},
		{time.Minute, "<1m"},
		{10 * time.Minute, "10m"},
		{5 * time.Hour, "5h"},
		{24 * time.Hour, "1d"},
		{24*time.Hour - time.Millisecond, "1d"},
		{59*time.Minute + 50*time.Second, "1h"},
		{29*24*time.Hour + 20*time.Hour, "1mo"},
		{4 * 24 * time.Hour, "4d"},
		{90 * 24 * time.Hour, "3mo"},
		{547 * 24 * time.Hour, "1.5y"},
	}

	for _, tt := range tests {
		t.Run(tt.in.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, FormatInterval(tt.in))
		})
	}
}
