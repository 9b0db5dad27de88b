package mcp

import (
	"errors"
	"fmt"

	"github.com/rpggio/probill/internal/domain/document"
	"github.com/rpggio/probill/internal/domain/errkind"
)

// Stable error codes returned by tools.
const (
	CodeForbidden          = "FORBIDDEN"
	CodeNotFound           = "NOT_FOUND"
	CodeConflict           = "CONFLICT"
	CodePreconditionFailed = "PRECONDITION_FAILED"
	CodeInvalidAmount      = "INVALID_AMOUNT"
	CodeInvalidPercent     = "INVALID_PERCENT"
	CodeExceedsRemaining   = "EXCEEDS_REMAINING"
	CodeNothingToInvoice   = "NOTHING_TO_INVOICE"
	CodeInvalidInput       = "INVALID_INPUT"
	CodeInternal           = "INTERNAL"
)

// APIError represents an MCP error response.
type APIError struct {
	Code         string `json:"code"`
	Message      string `json:"message"`
	Details      any    `json:"details,omitempty"`
	RecoveryHint string `json:"recovery_hint,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

var kindCodes = []struct {
	kind error
	code string
	hint string
}{
	{errkind.ErrForbidden, CodeForbidden, "Ask a business owner or admin to perform this action"},
	{errkind.ErrNotFound, CodeNotFound, "Check the ID and that it belongs to your business"},
	{errkind.ErrConflict, CodeConflict, "Reload the document and check its status"},
	{errkind.ErrPreconditionFailed, CodePreconditionFailed, ""},
	{errkind.ErrInvalidAmount, CodeInvalidAmount, "Amounts are decimals like 1250.00; quantities are whole numbers of at least 1"},
	{errkind.ErrInvalidPercent, CodeInvalidPercent, "Percentages must be greater than 0 and at most 100"},
	{errkind.ErrExceedsRemaining, CodeExceedsRemaining, "Call billing_summary to see what is left to invoice"},
	{errkind.ErrNothingToInvoice, CodeNothingToInvoice, ""},
	{errkind.ErrInvalidInput, CodeInvalidInput, ""},
}

// MapError maps domain errors to MCP error codes. Errors of no known kind
// are reported as INTERNAL without their message.
func MapError(err error) *APIError {
	if err == nil {
		return nil
	}

	kind := errkind.Of(err)
	for _, kc := range kindCodes {
		if kc.kind != kind {
			continue
		}
		apiErr := &APIError{Code: kc.code, Message: err.Error(), RecoveryHint: kc.hint}
		var verrs document.ValidationErrors
		if errors.As(err, &verrs) {
			apiErr.Message = "invalid document lines"
			apiErr.Details = verrs
		}
		return apiErr
	}

	return &APIError{Code: CodeInternal, Message: "internal error"}
}
