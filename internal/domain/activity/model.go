package activity

import "time"

// Type represents the kind of billing event
type Type string

const (
	TypeQuoteCreated        Type = "quote_created"
	TypeQuoteTransitioned   Type = "quote_transitioned"
	TypeQuoteEdited         Type = "quote_edited"
	TypeQuoteDeleted        Type = "quote_deleted"
	TypeInvoiceCreated      Type = "invoice_created"
	TypeInvoiceTransitioned Type = "invoice_transitioned"
	TypeInvoiceEdited       Type = "invoice_edited"
	TypeInvoiceDeleted      Type = "invoice_deleted"
	TypeReferenceSet        Type = "reference_set"
	TypeRecurringGenerated  Type = "recurring_generated"
)

// Entry represents an event in the billing activity log
type Entry struct {
	ID         int64     `json:"id"`
	BusinessID string    `json:"business_id"`
	ProjectID  string    `json:"project_id"`
	DocumentID *string   `json:"document_id,omitempty"`
	ActorID    string    `json:"actor_id"`
	Type       Type      `json:"type"`
	Summary    string    `json:"summary"`
	Details    string    `json:"details,omitempty"` // JSON string
	CreatedAt  time.Time `json:"created_at"`
}
