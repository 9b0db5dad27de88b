// Package errkind defines the error kinds shared by the billing domain.
//
// Domain packages declare their own sentinels wrapping one of these kinds, so
// callers can branch on the kind with errors.Is without knowing which package
// produced the error.
package errkind

import "errors"

var (
	// ErrForbidden indicates the actor lacks the admin/owner capability.
	ErrForbidden = errors.New("forbidden")
	// ErrNotFound indicates a document, project or service is missing from the business.
	ErrNotFound = errors.New("not found")
	// ErrConflict indicates the operation is illegal for the current document status.
	ErrConflict = errors.New("conflict")
	// ErrPreconditionFailed indicates an unmet domain precondition.
	ErrPreconditionFailed = errors.New("precondition failed")
	// ErrInvalidAmount indicates a malformed or out-of-range amount or quantity.
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrInvalidPercent indicates a percentage outside (0,100].
	ErrInvalidPercent = errors.New("invalid percent")
	// ErrExceedsRemaining indicates a staged amount above what is left to invoice.
	ErrExceedsRemaining = errors.New("amount exceeds remaining to invoice")
	// ErrNothingToInvoice indicates the project has nothing left to invoice.
	ErrNothingToInvoice = errors.New("nothing left to invoice")
	// ErrInvalidInput indicates a malformed identifier, enum or text field.
	ErrInvalidInput = errors.New("invalid input")
)

// New returns a sentinel that matches kind with errors.Is. Its message is
// msg alone; the kind shows only through errors.Is and Of.
func New(kind error, msg string) error {
	return &kindError{kind: kind, msg: msg}
}

type kindError struct {
	kind error
	msg  string
}

func (e *kindError) Error() string { return e.msg }

func (e *kindError) Unwrap() error { return e.kind }

// Kinds lists every kind in matching priority order.
var Kinds = []error{
	ErrForbidden,
	ErrNotFound,
	ErrConflict,
	ErrPreconditionFailed,
	ErrInvalidAmount,
	ErrInvalidPercent,
	ErrExceedsRemaining,
	ErrNothingToInvoice,
	ErrInvalidInput,
}

// Of returns the kind err belongs to, or nil for infrastructure errors.
func Of(err error) error {
	if err == nil {
		return nil
	}
	for _, kind := range Kinds {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}
