package models

import (
	"strings"
	"unicode"

	"github.com/google/uuid"
)

// CardKey derives the stable card ID from a term: lowercased, punctuation
// stripped, inner whitespace collapsed to single dashes. Terms that reduce
// to nothing get a random UUID.
func CardKey(term string) string {
	var b strings.Builder
	pendingDash := false
	for _, r := range strings.ToLower(strings.TrimSpace(term)) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '\'':
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
		case unicode.IsSpace(r) || r == '-' || r == '_':
			pendingDash = true
		}
	}
	if b.Len() == 0 {
		return uuid.NewString()
	}
	return b.String()
}
