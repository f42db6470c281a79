package spaced_repetition

import (
	"encoding"
	"fmt"
	"strings"
)

// Grade is the learner's assessment of how well a card was recalled.
type Grade int

const (
	Again Grade = iota + 1 // Failed to recall; the card lapses.
	Hard                   // Recalled with significant effort.
	Good                   // Recalled normally.
	Easy                   // Recalled without effort.
)

// Grades lists every valid grade from worst to best.
var Grades = []Grade{Again, Hard, Good, Easy}

var (
	gradeNames   = [...]string{Again: "again", Hard: "hard", Good: "good", Easy: "easy"}
	gradeByLabel = map[string]Grade{
		"again": Again,
		"hard":  Hard,
		"good":  Good,
		"easy":  Easy,
	}
)

var (
	_ fmt.Stringer             = Grade(0)
	_ encoding.TextMarshaler   = Grade(0)
	_ encoding.TextUnmarshaler = (*Grade)(nil)
)

// ParseGrade maps a label such as "good" or "Easy" to a Grade.
func ParseGrade(label string) (Grade, error) {
	g, ok := gradeByLabel[strings.ToLower(strings.TrimSpace(label))]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrInvalidGrade, label)
	}
	return g, nil
}

// IsValid reports whether g is one of Again, Hard, Good or Easy.
func (g Grade) IsValid() bool {
	return g >= Again && g <= Easy
}

// String returns the lowercase label, or "Grade(n)" for invalid values.
func (g Grade) String() string {
	if g.IsValid() {
		return gradeNames[g]
	}
	return fmt.Sprintf("Grade(%d)", int(g))
}

// MarshalText implements encoding.TextMarshaler.
func (g Grade) MarshalText() ([]byte, error) {
	if !g.IsValid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidGrade, int(g))
	}
	return []byte(gradeNames[g]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (g *Grade) UnmarshalText(text []byte) error {
	v, err := ParseGrade(string(text))
	if err != nil {
		return err
	}
	*g = v
	return nil
}
