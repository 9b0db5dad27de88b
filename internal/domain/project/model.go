package project

import (
	"time"

	"github.com/shopspring/decimal"
)

// Project is a billable piece of work owned by a business
type Project struct {
	ID               string           `json:"id"`
	BusinessID       string           `json:"business_id"`
	Name             string           `json:"name"`
	Description      string           `json:"description,omitempty"`
	DepositPercent   *decimal.Decimal `json:"deposit_percent,omitempty"`
	ReferenceQuoteID *string          `json:"reference_quote_id,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
}

// ProjectService is a catalog service attached to a project. A nil
// UnitPriceCents means the service has not been priced yet.
type ProjectService struct {
	ID             string    `json:"id"`
	ProjectID      string    `json:"project_id"`
	BusinessID     string    `json:"business_id"`
	Label          string    `json:"label"`
	Description    string    `json:"description,omitempty"`
	Quantity       int64     `json:"quantity"`
	UnitPriceCents *int64    `json:"unit_price_cents,omitempty"`
	Recurring      bool      `json:"recurring"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Priced reports whether the service carries a price.
func (s ProjectService) Priced() bool {
	return s.UnitPriceCents != nil
}

// TotalCents returns Quantity * UnitPriceCents, or 0 when unpriced.
func (s ProjectService) TotalCents() int64 {
	if s.UnitPriceCents == nil {
		return 0
	}
	return s.Quantity * *s.UnitPriceCents
}

// ProjectSummary is a lightweight representation for listing
type ProjectSummary struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	ServiceCount     int       `json:"service_count"`
	TotalCents       int64     `json:"total_cents"`
	ReferenceQuoteID *string   `json:"reference_quote_id,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}
