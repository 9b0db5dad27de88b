package invoice

import (
	"time"

	"github.com/rpggio/probill/internal/domain/document"
)

// Status represents the lifecycle state of an invoice
type Status string

const (
	StatusDraft     Status = "DRAFT"
	StatusSent      Status = "SENT"
	StatusPaid      Status = "PAID"
	StatusCancelled Status = "CANCELLED"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusSent, StatusPaid, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no transition leaves s.
func (s Status) Terminal() bool {
	return len(transitions[s]) == 0
}

// Origin records which path created an invoice
type Origin string

const (
	OriginManual    Origin = "manual"
	OriginQuote     Origin = "quote"
	OriginStaged    Origin = "staged"
	OriginRecurring Origin = "recurring"
)

// Valid reports whether o is a known origin.
func (o Origin) Valid() bool {
	switch o {
	case OriginManual, OriginQuote, OriginStaged, OriginRecurring:
		return true
	}
	return false
}

// Invoice is a bill issued to a client for a project.
type Invoice struct {
	ID            string          `json:"id"`
	ProjectID     string          `json:"project_id"`
	BusinessID    string          `json:"business_id"`
	SourceQuoteID *string         `json:"source_quote_id,omitempty"`
	Status        Status          `json:"status"`
	Number        *string         `json:"number,omitempty"`
	IssuedAt      *time.Time      `json:"issued_at,omitempty"`
	DueAt         *time.Time      `json:"due_at,omitempty"`
	PaidAt        *time.Time      `json:"paid_at,omitempty"`
	CancelReason  *string         `json:"cancel_reason,omitempty"`
	Note          string          `json:"note,omitempty"`
	Origin        Origin          `json:"origin"`
	Lines         []document.Line `json:"lines"`
	Version       int64           `json:"version"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// TotalCents sums the invoice's lines.
func (i *Invoice) TotalCents() int64 {
	return document.Total(i.Lines)
}
