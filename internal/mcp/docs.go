package mcp

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

const serverInstructions = `probill manages the billing of client projects: Projects → Quotes → Invoices.

Core concepts:
- Project: a catalog of services. A priced service has quantity × unit price; unpriced services block quoting.
- Quote: DRAFT → SENT → SIGNED | EXPIRED | CANCELLED. Lines are editable only in DRAFT.
- Invoice: DRAFT → SENT → PAID, or CANCELLED. Lines are editable only in DRAFT.
- Numbers (DEV-2025-0001, FAC-2025-0001) are assigned once, when a document first leaves DRAFT.
- Billing summary: total of priced services, amount already invoiced (non-cancelled invoices) and what remains.

Default workflow:
1) Orient: project_list, then project_get for the catalog.
2) Quote: quote_create snapshots the priced services; quote_edit while DRAFT; quote_transition to SENT then SIGNED.
3) Invoice: invoice_create_from_quote for a signed quote, or staged_create for a deposit/progress/final invoice.
   Use staged_preview first; staged invoices never exceed what is left to invoice.
4) Recurring services: recurring_generate bills one month (YYYY-MM) once.
5) Check billing_summary and activity_recent to confirm the outcome.

Amounts are decimal strings ("1250.00", "1 250,00"); percentages are numbers in (0, 100].
Errors carry a stable code (FORBIDDEN, NOT_FOUND, CONFLICT, PRECONDITION_FAILED, INVALID_AMOUNT,
INVALID_PERCENT, EXCEEDS_REMAINING, NOTHING_TO_INVOICE, INVALID_INPUT, INTERNAL).

Docs:
- probill://docs/lifecycle (state tables and what each transition does)
- probill://docs/staged (deposit, progress and final invoices)
`

type docResource struct {
	URI         string
	Name        string
	Title       string
	Description string
	Content     string
}

var docResources = []docResource{
	{
		URI:         "probill://docs/lifecycle",
		Name:        "docs_lifecycle",
		Title:       "Quote and invoice lifecycle",
		Description: "Allowed status transitions and their side effects.",
		Content: `# Quote and invoice lifecycle

## Quotes

| From | To |
|------|----|
| DRAFT | SENT, CANCELLED |
| SENT | SIGNED, EXPIRED, CANCELLED |
| SIGNED, EXPIRED, CANCELLED | (terminal) |

- Leaving DRAFT assigns the quote number and sets issued_at.
- SIGNED sets signed_at. CANCELLED requires a reason.
- A SIGNED quote that has invoices cannot be deleted.

## Invoices

| From | To |
|------|----|
| DRAFT | SENT, CANCELLED |
| SENT | PAID, CANCELLED |
| PAID, CANCELLED | (terminal) |

- Leaving DRAFT assigns the invoice number and sets issued_at.
- SENT sets due_at from the payment terms when it is not set.
- PAID sets paid_at. Only DRAFT invoices can be deleted.

Lines can only be replaced while the document is DRAFT. Dates and notes can change until the document reaches a terminal status.
`,
	},
	{
		URI:         "probill://docs/staged",
		Name:        "docs_staged",
		Title:       "Staged invoicing",
		Description: "How deposit, progress and final invoice amounts are computed.",
		Content: `# Staged invoicing

remaining = total of priced services − sum of non-cancelled invoices

- PERCENT: value is a percentage of the project total, rounded half away from zero to the cent.
- AMOUNT: value is a decimal amount.
- FINAL: invoices the whole remaining amount.

Rejections:
- NOTHING_TO_INVOICE when remaining is zero or less.
- INVALID_AMOUNT / INVALID_PERCENT for malformed values.
- EXCEEDS_REMAINING when the amount is above remaining.

Draft invoices count as invoiced. Cancel an invoice to release its amount.
`,
	},
}

func registerDocResources(server *sdkmcp.Server) {
	for _, doc := range docResources {
		server.AddResource(&sdkmcp.Resource{
			URI:         doc.URI,
			Name:        doc.Name,
			Title:       doc.Title,
			Description: doc.Description,
			MIMEType:    "text/markdown",
			Size:        int64(len(doc.Content)),
		}, func(_ context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
			uri := doc.URI
			if req != nil && req.Params != nil && req.Params.URI != "" {
				uri = req.Params.URI
			}
			return &sdkmcp.ReadResourceResult{
				Contents: []*sdkmcp.ResourceContents{{
					URI:      uri,
					MIMEType: "text/markdown",
					Text:     doc.Content,
				}},
			}, nil
		})
	}
}
