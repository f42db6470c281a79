package spaced_repetition

import (
	"fmt"
	"math"
	"time"
)

// FormatInterval renders a delay the way the grade buttons show it:
// "<1m", "10m", "5h", "4d", "3mo", "1.5y".
func FormatInterval(d time.Duration) string {
	if d <= time.Minute {
		return "<1m"
	}
	// Round before picking the unit so 59.9m shows as "1h", not "60m".
	if m := math.Round(d.Minutes()); m < 60 {
		return fmt.Sprintf("%dm", int(m))
	}
	if h := math.Round(d.Hours()); h < 24 {
		return fmt.Sprintf("%dh", int(h))
	}

	n := d.Hours() / 24
	switch {
	case math.Round(n) < 30:
		return fmt.Sprintf("%dd", int(math.Round(n)))
	case math.Round(n/30) < 12:
		return fmt.Sprintf("%dmo", int(math.Round(n/30)))
	default:
		return fmt.Sprintf("%.1fy", n/365)
	}
}
