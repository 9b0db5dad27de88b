package invoice

import "github.com/rpggio/probill/internal/domain/errkind"

var (
	// ErrInvoiceNotFound indicates the invoice doesn't exist in the business.
	ErrInvoiceNotFound = errkind.New(errkind.ErrNotFound, "invoice not found")
	// ErrQuoteNotFound indicates the source quote doesn't exist in the business.
	ErrQuoteNotFound = errkind.New(errkind.ErrNotFound, "quote not found")
	// ErrProjectNotFound indicates the project doesn't exist in the business.
	ErrProjectNotFound = errkind.New(errkind.ErrNotFound, "project not found")
	// ErrQuoteNotSigned indicates an attempt to invoice a quote that isn't SIGNED.
	ErrQuoteNotSigned = errkind.New(errkind.ErrConflict, "quote must be SIGNED to be invoiced")
	// ErrInvalidTransition indicates a transition the state table forbids.
	ErrInvalidTransition = errkind.New(errkind.ErrConflict, "invalid invoice status transition")
	// ErrNotEditable indicates the invoice is in a status that forbids edits.
	ErrNotEditable = errkind.New(errkind.ErrConflict, "invoice can only be edited while DRAFT or SENT")
	// ErrLinesLocked indicates a line replacement outside DRAFT.
	ErrLinesLocked = errkind.New(errkind.ErrConflict, "invoice lines can only be replaced while DRAFT")
	// ErrNotDeletable indicates a delete outside DRAFT.
	ErrNotDeletable = errkind.New(errkind.ErrConflict, "only DRAFT invoices can be deleted")
	// ErrConcurrentUpdate indicates the invoice changed between read and write.
	ErrConcurrentUpdate = errkind.New(errkind.ErrConflict, "invoice was modified concurrently")
	// ErrInvalidInput indicates invalid input for invoice operations.
	ErrInvalidInput = errkind.New(errkind.ErrInvalidInput, "invalid invoice input")
	// ErrDuplicate indicates the write collided with a unique key, such as a
	// line ID already used on the same invoice.
	ErrDuplicate = errkind.New(errkind.ErrConflict, "invoice collides with an existing entry")
)
