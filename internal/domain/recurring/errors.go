package recurring

import "github.com/rpggio/probill/internal/domain/errkind"

var (
	// ErrServiceNotFound indicates the project service doesn't exist in the business.
	ErrServiceNotFound = errkind.New(errkind.ErrNotFound, "project service not found")
	// ErrNotRecurring indicates the service is not billed periodically.
	ErrNotRecurring = errkind.New(errkind.ErrPreconditionFailed, "project service is not recurring")
	// ErrMissingPrice indicates the service has no price.
	ErrMissingPrice = errkind.New(errkind.ErrPreconditionFailed, "project service has no price")
	// ErrAlreadyGenerated indicates the period was already billed.
	ErrAlreadyGenerated = errkind.New(errkind.ErrConflict, "invoice already generated for period")
	// ErrPeriodBeforeCursor indicates a period older than the last billed one.
	ErrPeriodBeforeCursor = errkind.New(errkind.ErrConflict, "period precedes last generated period")
)
