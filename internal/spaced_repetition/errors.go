package spaced_repetition

import "errors"

// Sentinel errors returned by the scheduler. Check them with errors.Is.
var (
	ErrInvalidGrade     = errors.New("spaced_repetition: invalid grade")
	ErrInvalidCardState = errors.New("spaced_repetition: invalid card state")
	ErrInvalidPolicy    = errors.New("spaced_repetition: invalid policy")
	ErrCardMismatch     = errors.New("spaced_repetition: review log belongs to another card")
)
