package mcp

import (
	"github.com/rpggio/probill/internal/domain/activity"
	"github.com/rpggio/probill/internal/domain/invoice"
	"github.com/rpggio/probill/internal/domain/project"
	"github.com/rpggio/probill/internal/domain/quote"
	"github.com/rpggio/probill/internal/domain/staged"
)

type IDParams struct {
	ID string `json:"id" jsonschema:"document or project ID"`
}

type ProjectIDParams struct {
	ProjectID string `json:"project_id"`
}

type CreateProjectParams struct {
	Name           string  `json:"name"`
	Description    string  `json:"description,omitempty"`
	DepositPercent *string `json:"deposit_percent,omitempty" jsonschema:"deposit percentage, e.g. 30 or 12.5"`
}

type AddServiceParams struct {
	ProjectID   string  `json:"project_id"`
	Label       string  `json:"label"`
	Description string  `json:"description,omitempty"`
	Quantity    int64   `json:"quantity,omitempty" jsonschema:"defaults to 1"`
	UnitPrice   *string `json:"unit_price,omitempty" jsonschema:"decimal unit price; omit for an unpriced service"`
	Recurring   bool    `json:"recurring,omitempty" jsonschema:"bill this service every month"`
}

type UpdateServiceParams struct {
	ServiceID   string  `json:"service_id"`
	Label       *string `json:"label,omitempty"`
	Description *string `json:"description,omitempty"`
	Quantity    *int64  `json:"quantity,omitempty"`
	UnitPrice   *string `json:"unit_price,omitempty" jsonschema:"decimal unit price"`
	ClearPrice  bool    `json:"clear_price,omitempty" jsonschema:"remove the price of the service"`
	Recurring   *bool   `json:"recurring,omitempty"`
}

// LineParams is a document line as sent by clients. Prices are decimal
// strings so clients never deal in cents.
type LineParams struct {
	ID          string  `json:"id,omitempty"`
	Label       string  `json:"label"`
	Description string  `json:"description,omitempty"`
	Quantity    int64   `json:"quantity"`
	UnitPrice   string  `json:"unit_price" jsonschema:"decimal unit price, e.g. 1250.00"`
	ServiceRef  *string `json:"service_ref,omitempty"`
	ProductRef  *string `json:"product_ref,omitempty" jsonschema:"invoices only"`
}

type CreateQuoteParams struct {
	ProjectID string  `json:"project_id"`
	ExpiresAt *string `json:"expires_at,omitempty" jsonschema:"YYYY-MM-DD or RFC 3339"`
	Note      string  `json:"note,omitempty"`
}

type QuoteTransitionParams struct {
	ID     string       `json:"id"`
	To     quote.Status `json:"to" jsonschema:"DRAFT, SENT, SIGNED, EXPIRED or CANCELLED"`
	Reason *string      `json:"reason,omitempty" jsonschema:"required when cancelling"`
}

type EditQuoteParams struct {
	ID        string       `json:"id"`
	Lines     []LineParams `json:"lines,omitempty" jsonschema:"replaces every line; DRAFT only"`
	IssuedAt  *string      `json:"issued_at,omitempty"`
	ExpiresAt *string      `json:"expires_at,omitempty"`
	Note      *string      `json:"note,omitempty"`
}

type CreateFromQuoteParams struct {
	QuoteID string `json:"quote_id" jsonschema:"a SIGNED quote"`
}

type CreateInvoiceParams struct {
	ProjectID string       `json:"project_id"`
	Lines     []LineParams `json:"lines"`
	IssuedAt  *string      `json:"issued_at,omitempty"`
	DueAt     *string      `json:"due_at,omitempty"`
	Note      string       `json:"note,omitempty"`
}

type InvoiceTransitionParams struct {
	ID     string         `json:"id"`
	To     invoice.Status `json:"to" jsonschema:"DRAFT, SENT, PAID or CANCELLED"`
	Reason *string        `json:"reason,omitempty"`
}

type EditInvoiceParams struct {
	ID       string       `json:"id"`
	Lines    []LineParams `json:"lines,omitempty" jsonschema:"replaces every line; DRAFT only"`
	IssuedAt *string      `json:"issued_at,omitempty"`
	DueAt    *string      `json:"due_at,omitempty"`
	Note     *string      `json:"note,omitempty"`
}

type StagedParams struct {
	ProjectID string      `json:"project_id"`
	Mode      staged.Mode `json:"mode" jsonschema:"PERCENT, AMOUNT or FINAL"`
	Value     string      `json:"value,omitempty" jsonschema:"percentage for PERCENT, decimal amount for AMOUNT"`
	Label     string      `json:"label,omitempty"`
}

type RecurringGenerateParams struct {
	ServiceID string `json:"service_id"`
	Period    string `json:"period" jsonschema:"billing month as YYYY-MM"`
}

type SetReferenceParams struct {
	ProjectID string `json:"project_id"`
	QuoteID   string `json:"quote_id"`
}

type GetRecentActivityParams struct {
	ProjectID  string         `json:"project_id,omitempty"`
	DocumentID *string        `json:"document_id,omitempty"`
	Type       *activity.Type `json:"type,omitempty"`
	Limit      int            `json:"limit,omitempty"`
	Offset     int            `json:"offset,omitempty"`
}

type ListProjectsResponse struct {
	Projects []ProjectSummaryResponse `json:"projects"`
}

type ProjectSummaryResponse struct {
	ID               string  `json:"id"`
	Name             string  `json:"name"`
	ServiceCount     int     `json:"service_count"`
	Total            string  `json:"total"`
	TotalCents       int64   `json:"total_cents"`
	ReferenceQuoteID *string `json:"reference_quote_id,omitempty"`
}

type ProjectResponse struct {
	Project  *project.Project        `json:"project"`
	Services []project.ProjectService `json:"services"`
}

type QuotesResponse struct {
	Quotes []quote.Quote `json:"quotes"`
}

type InvoicesResponse struct {
	Invoices []invoice.Invoice `json:"invoices"`
}

type GetRecentActivityResponse struct {
	Activity []activity.Entry `json:"activity"`
}

type DeletedResponse struct {
	ID      string `json:"id"`
	Deleted bool   `json:"deleted"`
}
