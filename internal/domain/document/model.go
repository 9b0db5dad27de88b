// Package document holds the priced line model shared by quotes and invoices.
package document

import (
	"context"
	"strings"

	"github.com/google/uuid"
)

// Kind identifies the document family a line or number belongs to.
type Kind string

const (
	KindQuote   Kind = "QUOTE"
	KindInvoice Kind = "INVOICE"
)

// Line is a priced line owned by exactly one quote or invoice.
type Line struct {
	ID             string  `json:"id"`
	Label          string  `json:"label"`
	Description    string  `json:"description,omitempty"`
	Quantity       int64   `json:"quantity"`
	UnitPriceCents int64   `json:"unit_price_cents"`
	ServiceRef     *string `json:"service_ref,omitempty"`
	ProductRef     *string `json:"product_ref,omitempty"`
}

// TotalCents returns Quantity * UnitPriceCents.
func (l Line) TotalCents() int64 {
	return l.Quantity * l.UnitPriceCents
}

// Total sums the totals of lines.
func Total(lines []Line) int64 {
	var total int64
	for _, l := range lines {
		total += l.TotalCents()
	}
	return total
}

// Prepare returns a copy of lines with trimmed labels and a fresh ID on every
// line that has none.
func Prepare(lines []Line) []Line {
	out := make([]Line, len(lines))
	for i, l := range lines {
		l.Label = strings.TrimSpace(l.Label)
		l.Description = strings.TrimSpace(l.Description)
		if l.ID == "" {
			l.ID = uuid.NewString()
		}
		out[i] = l
	}
	return out
}

// Copy returns an independent copy of lines with new IDs, used when one
// document's lines seed another.
func Copy(lines []Line) []Line {
	out := make([]Line, len(lines))
	for i, l := range lines {
		l.ID = uuid.NewString()
		l.ServiceRef = cloneString(l.ServiceRef)
		l.ProductRef = cloneString(l.ProductRef)
		out[i] = l
	}
	return out
}

// Numberer hands out document numbers. It is called once per document, the
// first time the document leaves DRAFT.
type Numberer interface {
	NextNumber(ctx context.Context, businessID string, kind Kind) (string, error)
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
