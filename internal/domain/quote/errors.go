package quote

import "github.com/rpggio/probill/internal/domain/errkind"

var (
	// ErrQuoteNotFound indicates the quote doesn't exist in the business.
	ErrQuoteNotFound = errkind.New(errkind.ErrNotFound, "quote not found")
	// ErrProjectNotFound indicates the project doesn't exist in the business.
	ErrProjectNotFound = errkind.New(errkind.ErrNotFound, "project not found")
	// ErrInvalidTransition indicates a transition the state table forbids.
	ErrInvalidTransition = errkind.New(errkind.ErrConflict, "invalid quote status transition")
	// ErrMissingReason indicates a cancellation without a reason.
	ErrMissingReason = errkind.New(errkind.ErrInvalidInput, "reason required to cancel a quote")
	// ErrNotEditable indicates the quote is in a status that forbids edits.
	ErrNotEditable = errkind.New(errkind.ErrConflict, "quote can only be edited while DRAFT or SENT")
	// ErrLinesLocked indicates a line replacement outside DRAFT.
	ErrLinesLocked = errkind.New(errkind.ErrConflict, "quote lines can only be replaced while DRAFT")
	// ErrHasInvoices indicates a signed quote that invoices still reference.
	ErrHasInvoices = errkind.New(errkind.ErrConflict, "signed quote has invoices")
	// ErrNoPricedServices indicates a project without any service to quote.
	ErrNoPricedServices = errkind.New(errkind.ErrPreconditionFailed, "project has no priced services")
	// ErrMissingPrice indicates a project service without a price.
	ErrMissingPrice = errkind.New(errkind.ErrPreconditionFailed, "project service has no price")
	// ErrConcurrentUpdate indicates the quote changed between read and write.
	ErrConcurrentUpdate = errkind.New(errkind.ErrConflict, "quote was modified concurrently")
	// ErrInvalidInput indicates invalid input for quote operations.
	ErrInvalidInput = errkind.New(errkind.ErrInvalidInput, "invalid quote input")
	// ErrDuplicate indicates the write collided with a unique key, such as a
	// line ID already used on the same quote.
	ErrDuplicate = errkind.New(errkind.ErrConflict, "quote collides with an existing entry")
)
