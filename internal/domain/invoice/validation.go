package invoice

var transitions = map[Status][]Status{
	StatusDraft: {StatusSent, StatusCancelled},
	StatusSent:  {StatusPaid, StatusCancelled},
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

// ValidateTransition validates a requested status transition. A cancel
// reason is optional for invoices.
func ValidateTransition(from, to Status) error {
	if !CanTransition(from, to) {
		return ErrInvalidTransition
	}
	return nil
}

// Editable reports whether dates and note may change in status s.
func Editable(s Status) bool {
	return s == StatusDraft || s == StatusSent
}
