package document

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/rpggio/probill/internal/domain/errkind"
)

// MaxLabelLength is the default label length cap, in runes.
const MaxLabelLength = 255

// ErrNoLines indicates a document would end up without any line.
var ErrNoLines = errkind.New(errkind.ErrPreconditionFailed, "document needs at least one line")

// FieldError describes one invalid field of one line.
type FieldError struct {
	Line    int    `json:"line"`
	Field   string `json:"field"`
	Message string `json:"message"`
	kind    error
}

func (e FieldError) Error() string {
	return fmt.Sprintf("line %d %s: %s", e.Line+1, e.Field, e.Message)
}

// Unwrap returns the error kind of the field error.
func (e FieldError) Unwrap() error {
	return e.kind
}

// ValidationErrors lists every invalid field found in a line set.
type ValidationErrors []FieldError

func (v ValidationErrors) Error() string {
	msgs := make([]string, len(v))
	for i, e := range v {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "; ")
}

// Unwrap exposes every field error so errors.Is matches their kinds.
func (v ValidationErrors) Unwrap() []error {
	errs := make([]error, len(v))
	for i, e := range v {
		errs[i] = e
	}
	return errs
}

// Rules configures line validation.
type Rules struct {
	MaxLabelLength int
}

// DefaultRules are the rules used when none are configured.
var DefaultRules = Rules{MaxLabelLength: MaxLabelLength}

// Validate checks every line and returns all failures at once as
// ValidationErrors, or nil.
func (r Rules) Validate(kind Kind, lines []Line) error {
	maxLabel := r.MaxLabelLength
	if maxLabel <= 0 {
		maxLabel = MaxLabelLength
	}

	var errs ValidationErrors
	add := func(i int, field string, kind error, msg string) {
		errs = append(errs, FieldError{Line: i, Field: field, Message: msg, kind: kind})
	}

	seen := make(map[string]int, len(lines))
	var total int64
	for i, l := range lines {
		if id := strings.TrimSpace(l.ID); id != "" {
			if first, dup := seen[id]; dup {
				add(i, "id", errkind.ErrInvalidInput, fmt.Sprintf("duplicates the ID of line %d", first+1))
			} else {
				seen[id] = i
			}
		}
		label := strings.TrimSpace(l.Label)
		switch {
		case label == "":
			add(i, "label", errkind.ErrInvalidInput, "must not be empty")
		case utf8.RuneCountInString(label) > maxLabel:
			add(i, "label", errkind.ErrInvalidInput, fmt.Sprintf("must be at most %d characters", maxLabel))
		}
		if l.Quantity < 1 {
			add(i, "quantity", errkind.ErrInvalidAmount, "must be at least 1")
		}
		if l.UnitPriceCents < 0 {
			add(i, "unit_price_cents", errkind.ErrInvalidAmount, "must not be negative")
		}
		if l.Quantity > 0 && l.UnitPriceCents > 0 {
			if l.Quantity > math.MaxInt64/l.UnitPriceCents {
				add(i, "quantity", errkind.ErrInvalidAmount, "line total overflows")
			} else if line := l.Quantity * l.UnitPriceCents; total > math.MaxInt64-line {
				add(i, "unit_price_cents", errkind.ErrInvalidAmount, "document total overflows")
			} else {
				total += line
			}
		}
		if l.ServiceRef != nil && strings.TrimSpace(*l.ServiceRef) == "" {
			add(i, "service_ref", errkind.ErrInvalidInput, "must not be blank when set")
		}
		if l.ProductRef != nil {
			if kind != KindInvoice {
				add(i, "product_ref", errkind.ErrInvalidInput, "only allowed on invoice lines")
			} else if strings.TrimSpace(*l.ProductRef) == "" {
				add(i, "product_ref", errkind.ErrInvalidInput, "must not be blank when set")
			}
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

// AsValidationErrors extracts the field errors from err, if any.
func AsValidationErrors(err error) (ValidationErrors, bool) {
	var v ValidationErrors
	if errors.As(err, &v) {
		return v, true
	}
	return nil, false
}
