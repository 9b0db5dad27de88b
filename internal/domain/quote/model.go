package quote

import (
	"time"

	"github.com/rpggio/probill/internal/domain/document"
)

// Status represents the lifecycle state of a quote
type Status string

const (
	StatusDraft     Status = "DRAFT"
	StatusSent      Status = "SENT"
	StatusSigned    Status = "SIGNED"
	StatusExpired   Status = "EXPIRED"
	StatusCancelled Status = "CANCELLED"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusSent, StatusSigned, StatusExpired, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no transition leaves s.
func (s Status) Terminal() bool {
	return len(transitions[s]) == 0
}

// Quote is a priced offer made to a client for a project.
type Quote struct {
	ID           string          `json:"id"`
	ProjectID    string          `json:"project_id"`
	BusinessID   string          `json:"business_id"`
	Status       Status          `json:"status"`
	Number       *string         `json:"number,omitempty"`
	IssuedAt     *time.Time      `json:"issued_at,omitempty"`
	ExpiresAt    *time.Time      `json:"expires_at,omitempty"`
	SignedAt     *time.Time      `json:"signed_at,omitempty"`
	CancelReason *string         `json:"cancel_reason,omitempty"`
	Note         string          `json:"note,omitempty"`
	Lines        []document.Line `json:"lines"`
	Version      int64           `json:"version"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// TotalCents sums the quote's lines.
func (q *Quote) TotalCents() int64 {
	return document.Total(q.Lines)
}
