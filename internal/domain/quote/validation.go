package quote

import "strings"

var transitions = map[Status][]Status{
	StatusDraft: {StatusSent, StatusCancelled},
	StatusSent:  {StatusSigned, StatusExpired, StatusCancelled},
}

// CanTransition reports whether the state table allows from -> to.
func CanTransition(from, to Status) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// ValidateTransition validates a requested status transition.
func ValidateTransition(from, to Status, reason *string) error {
	if !CanTransition(from, to) {
		return ErrInvalidTransition
	}
	if to == StatusCancelled && (reason == nil || strings.TrimSpace(*reason) == "") {
		return ErrMissingReason
	}
	return nil
}

// Editable reports whether dates and note may change in status s.
func Editable(s Status) bool {
	return s == StatusDraft || s == StatusSent
}
