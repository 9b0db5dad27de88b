package project

import "github.com/rpggio/probill/internal/domain/errkind"

var (
	// ErrProjectNotFound indicates the project doesn't exist in the business.
	ErrProjectNotFound = errkind.New(errkind.ErrNotFound, "project not found")
	// ErrServiceNotFound indicates the project service doesn't exist in the business.
	ErrServiceNotFound = errkind.New(errkind.ErrNotFound, "project service not found")
	// ErrInvalidInput indicates invalid project input.
	ErrInvalidInput = errkind.New(errkind.ErrInvalidInput, "invalid project input")
	// ErrInvalidPrice indicates a negative price or a quantity below one.
	ErrInvalidPrice = errkind.New(errkind.ErrInvalidAmount, "invalid service price or quantity")
)
