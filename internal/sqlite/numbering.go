package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/rpggio/probill/internal/domain/document"
)

const (
	DefaultQuotePrefix   = "DEV"
	DefaultInvoicePrefix = "FAC"
)

// Numberer implements document.Numberer with a per business, kind and year
// sequence table. Numbers are drawn inside the caller's transaction, so a
// rolled back transition does not consume one.
type Numberer struct {
	db       *DB
	prefixes map[document.Kind]string
	now      func() time.Time
}

// NewNumberer creates a Numberer. Empty prefixes fall back to the defaults.
func NewNumberer(db *DB, quotePrefix, invoicePrefix string) *Numberer {
	if quotePrefix == "" {
		quotePrefix = DefaultQuotePrefix
	}
	if invoicePrefix == "" {
		invoicePrefix = DefaultInvoicePrefix
	}
	return &Numberer{
		db: db,
		prefixes: map[document.Kind]string{
			document.KindQuote:   quotePrefix,
			document.KindInvoice: invoicePrefix,
		},
		now: time.Now,
	}
}

// NextNumber returns the next number for kind, e.g. FAC-2025-0007.
func (n *Numberer) NextNumber(ctx context.Context, businessID string, kind document.Kind) (string, error) {
	prefix, ok := n.prefixes[kind]
	if !ok {
		return "", fmt.Errorf("unknown document kind %q", kind)
	}
	year := n.now().UTC().Year()

	var seq int64
	err := n.db.conn(ctx).QueryRowContext(ctx, `
		INSERT INTO document_sequences (business_id, kind, year, last_value)
		VALUES (?, ?, ?, 1)
		ON CONFLICT(business_id, kind, year) DO UPDATE SET last_value = last_value + 1
		RETURNING last_value
	`, businessID, kind, year).Scan(&seq)
	if err != nil {
		return "", fmt.Errorf("failed to allocate %s number: %w", kind, err)
	}

	return fmt.Sprintf("%s-%d-%04d", prefix, year, seq), nil
}
