package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/shopspring/decimal"

	"github.com/rpggio/probill/internal/domain/access"
	"github.com/rpggio/probill/internal/domain/activity"
	"github.com/rpggio/probill/internal/domain/document"
	"github.com/rpggio/probill/internal/domain/errkind"
	"github.com/rpggio/probill/internal/domain/invoice"
	"github.com/rpggio/probill/internal/domain/money"
	"github.com/rpggio/probill/internal/domain/project"
	"github.com/rpggio/probill/internal/domain/quote"
	"github.com/rpggio/probill/internal/domain/staged"
	"github.com/rpggio/probill/internal/metrics"
)

var errInvalidDate = errkind.New(errkind.ErrInvalidInput, "dates must be YYYY-MM-DD or RFC 3339")

type toolDeps struct {
	services Services
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

type toolFunc[In any] func(ctx context.Context, actor access.Actor, in In) (any, error)

// addTool registers a tool whose result is the JSON of fn's output. Domain
// errors become tool errors carrying an APIError.
func addTool[In any](server *sdkmcp.Server, deps toolDeps, name, description string, fn toolFunc[In]) {
	sdkmcp.AddTool(server, &sdkmcp.Tool{Name: name, Description: description},
		func(ctx context.Context, _ *sdkmcp.CallToolRequest, in In) (*sdkmcp.CallToolResult, any, error) {
			start := time.Now()
			out, err := fn(ctx, actorFromContext(ctx), in)
			if err != nil {
				apiErr := MapError(err)
				deps.metrics.ObserveToolCall(name, apiErr.Code, time.Since(start))
				if apiErr.Code == CodeInternal {
					deps.logger.Error("tool failed", "tool", name, "error", err)
				}
				text, err := json.Marshal(apiErr)
				if err != nil {
					return nil, nil, fmt.Errorf("encoding %s error: %w", name, err)
				}
				return &sdkmcp.CallToolResult{
					IsError: true,
					Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: string(text)}},
				}, nil, nil
			}
			deps.metrics.ObserveToolCall(name, "OK", time.Since(start))

			data, err := json.Marshal(out)
			if err != nil {
				return nil, nil, fmt.Errorf("encoding %s result: %w", name, err)
			}
			return &sdkmcp.CallToolResult{
				Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: string(data)}},
			}, nil, nil
		})
}

func registerTools(server *sdkmcp.Server, deps toolDeps) {
	registerProjectTools(server, deps)
	registerQuoteTools(server, deps)
	registerInvoiceTools(server, deps)
	registerBillingTools(server, deps)
}

func registerProjectTools(server *sdkmcp.Server, deps toolDeps) {
	projects := deps.services.Projects

	addTool(server, deps, "project_create", "Create a project in the catalog",
		func(ctx context.Context, actor access.Actor, in CreateProjectParams) (any, error) {
			req := project.CreateRequest{Name: in.Name, Description: in.Description}
			if in.DepositPercent != nil {
				pct, err := money.ParsePercent(*in.DepositPercent)
				if err != nil {
					return nil, err
				}
				req.DepositPercent = &pct
			}
			return projects.Create(ctx, actor, req)
		})

	addTool(server, deps, "project_list", "List the business's projects with their catalog totals",
		func(ctx context.Context, actor access.Actor, _ struct{}) (any, error) {
			list, err := projects.List(ctx, actor.BusinessID)
			if err != nil {
				return nil, err
			}
			resp := ListProjectsResponse{Projects: make([]ProjectSummaryResponse, 0, len(list))}
			for _, p := range list {
				resp.Projects = append(resp.Projects, ProjectSummaryResponse{
					ID:               p.ID,
					Name:             p.Name,
					ServiceCount:     p.ServiceCount,
					Total:            money.FormatCents(p.TotalCents),
					TotalCents:       p.TotalCents,
					ReferenceQuoteID: p.ReferenceQuoteID,
				})
			}
			return resp, nil
		})

	addTool(server, deps, "project_get", "Get a project and its services",
		func(ctx context.Context, actor access.Actor, in IDParams) (any, error) {
			proj, err := projects.Get(ctx, actor.BusinessID, in.ID)
			if err != nil {
				return nil, err
			}
			services, err := projects.ListServices(ctx, actor.BusinessID, in.ID)
			if err != nil {
				return nil, err
			}
			return ProjectResponse{Project: proj, Services: services}, nil
		})

	addTool(server, deps, "project_service_add", "Add a service to a project's catalog",
		func(ctx context.Context, actor access.Actor, in AddServiceParams) (any, error) {
			qty := in.Quantity
			if qty == 0 {
				qty = 1
			}
			price, err := parseOptionalPrice(in.UnitPrice)
			if err != nil {
				return nil, err
			}
			return projects.AddService(ctx, actor, project.ServiceRequest{
				ProjectID:      in.ProjectID,
				Label:          &in.Label,
				Description:    &in.Description,
				Quantity:       &qty,
				UnitPriceCents: price,
				Recurring:      &in.Recurring,
			})
		})

	addTool(server, deps, "project_service_update", "Update a project service; omitted fields are kept",
		func(ctx context.Context, actor access.Actor, in UpdateServiceParams) (any, error) {
			price, err := parseOptionalPrice(in.UnitPrice)
			if err != nil {
				return nil, err
			}
			return projects.UpdateService(ctx, actor, project.ServiceRequest{
				ServiceID:      in.ServiceID,
				Label:          in.Label,
				Description:    in.Description,
				Quantity:       in.Quantity,
				UnitPriceCents: price,
				ClearPrice:     in.ClearPrice,
				Recurring:      in.Recurring,
			})
		})
}

func registerQuoteTools(server *sdkmcp.Server, deps toolDeps) {
	quotes := deps.services.Quotes

	addTool(server, deps, "quote_create", "Create a DRAFT quote from the project's priced services",
		func(ctx context.Context, actor access.Actor, in CreateQuoteParams) (any, error) {
			expires, err := parseDate(in.ExpiresAt)
			if err != nil {
				return nil, err
			}
			return quotes.Create(ctx, actor, quote.CreateRequest{ProjectID: in.ProjectID, ExpiresAt: expires, Note: in.Note})
		})

	addTool(server, deps, "quote_get", "Get a quote with its lines",
		func(ctx context.Context, actor access.Actor, in IDParams) (any, error) {
			return quotes.Get(ctx, actor.BusinessID, in.ID)
		})

	addTool(server, deps, "quote_list", "List the quotes of a project",
		func(ctx context.Context, actor access.Actor, in ProjectIDParams) (any, error) {
			list, err := quotes.List(ctx, actor.BusinessID, in.ProjectID)
			if err != nil {
				return nil, err
			}
			return QuotesResponse{Quotes: nonNil(list)}, nil
		})

	addTool(server, deps, "quote_transition", "Move a quote to another status; a number is assigned when it first leaves DRAFT",
		func(ctx context.Context, actor access.Actor, in QuoteTransitionParams) (any, error) {
			return quotes.Transition(ctx, actor, quote.TransitionRequest{ID: in.ID, To: in.To, Reason: in.Reason})
		})

	addTool(server, deps, "quote_edit", "Edit a quote's lines (DRAFT only), dates or note",
		func(ctx context.Context, actor access.Actor, in EditQuoteParams) (any, error) {
			lines, err := parseLines(in.Lines)
			if err != nil {
				return nil, err
			}
			issued, err := parseDate(in.IssuedAt)
			if err != nil {
				return nil, err
			}
			expires, err := parseDate(in.ExpiresAt)
			if err != nil {
				return nil, err
			}
			return quotes.Edit(ctx, actor, quote.Patch{ID: in.ID, Lines: lines, IssuedAt: issued, ExpiresAt: expires, Note: in.Note})
		})

	addTool(server, deps, "quote_delete", "Delete a quote; signed quotes with invoices cannot be deleted",
		func(ctx context.Context, actor access.Actor, in IDParams) (any, error) {
			if err := quotes.Delete(ctx, actor, in.ID); err != nil {
				return nil, err
			}
			return DeletedResponse{ID: in.ID, Deleted: true}, nil
		})
}

func registerInvoiceTools(server *sdkmcp.Server, deps toolDeps) {
	invoices := deps.services.Invoices

	addTool(server, deps, "invoice_create_from_quote", "Create a DRAFT invoice copying the lines of a SIGNED quote",
		func(ctx context.Context, actor access.Actor, in CreateFromQuoteParams) (any, error) {
			return invoices.CreateFromQuote(ctx, actor, in.QuoteID)
		})

	addTool(server, deps, "invoice_create", "Create a DRAFT invoice with the given lines",
		func(ctx context.Context, actor access.Actor, in CreateInvoiceParams) (any, error) {
			lines, err := parseLines(in.Lines)
			if err != nil {
				return nil, err
			}
			issued, err := parseDate(in.IssuedAt)
			if err != nil {
				return nil, err
			}
			due, err := parseDate(in.DueAt)
			if err != nil {
				return nil, err
			}
			return invoices.CreateStandalone(ctx, actor, invoice.StandaloneRequest{
				ProjectID: in.ProjectID,
				Lines:     lines,
				IssuedAt:  issued,
				DueAt:     due,
				Note:      in.Note,
			})
		})

	addTool(server, deps, "invoice_get", "Get an invoice with its lines",
		func(ctx context.Context, actor access.Actor, in IDParams) (any, error) {
			return invoices.Get(ctx, actor.BusinessID, in.ID)
		})

	addTool(server, deps, "invoice_list", "List the invoices of a project",
		func(ctx context.Context, actor access.Actor, in ProjectIDParams) (any, error) {
			list, err := invoices.List(ctx, actor.BusinessID, in.ProjectID)
			if err != nil {
				return nil, err
			}
			return InvoicesResponse{Invoices: nonNil(list)}, nil
		})

	addTool(server, deps, "invoice_transition", "Move an invoice to another status; a number is assigned when it first leaves DRAFT",
		func(ctx context.Context, actor access.Actor, in InvoiceTransitionParams) (any, error) {
			return invoices.Transition(ctx, actor, invoice.TransitionRequest{ID: in.ID, To: in.To, Reason: in.Reason})
		})

	addTool(server, deps, "invoice_edit", "Edit an invoice's lines (DRAFT only), dates or note",
		func(ctx context.Context, actor access.Actor, in EditInvoiceParams) (any, error) {
			lines, err := parseLines(in.Lines)
			if err != nil {
				return nil, err
			}
			issued, err := parseDate(in.IssuedAt)
			if err != nil {
				return nil, err
			}
			due, err := parseDate(in.DueAt)
			if err != nil {
				return nil, err
			}
			return invoices.Edit(ctx, actor, invoice.Patch{ID: in.ID, Lines: lines, IssuedAt: issued, DueAt: due, Note: in.Note})
		})

	addTool(server, deps, "invoice_delete", "Delete a DRAFT invoice",
		func(ctx context.Context, actor access.Actor, in IDParams) (any, error) {
			if err := invoices.Delete(ctx, actor, in.ID); err != nil {
				return nil, err
			}
			return DeletedResponse{ID: in.ID, Deleted: true}, nil
		})
}

func registerBillingTools(server *sdkmcp.Server, deps toolDeps) {
	svc := deps.services

	addTool(server, deps, "staged_preview", "Compute a deposit, progress or final invoice amount without creating it",
		func(ctx context.Context, actor access.Actor, in StagedParams) (any, error) {
			req, err := stagedRequest(in)
			if err != nil {
				return nil, err
			}
			return svc.Staged.Preview(ctx, actor, req)
		})

	addTool(server, deps, "staged_create", "Create a deposit, progress or final invoice against what is left to invoice",
		func(ctx context.Context, actor access.Actor, in StagedParams) (any, error) {
			req, err := stagedRequest(in)
			if err != nil {
				return nil, err
			}
			return svc.Staged.Create(ctx, actor, req)
		})

	addTool(server, deps, "recurring_generate", "Generate the invoice of one month for a recurring service",
		func(ctx context.Context, actor access.Actor, in RecurringGenerateParams) (any, error) {
			return svc.Recurring.Generate(ctx, actor, in.ServiceID, in.Period)
		})

	addTool(server, deps, "reference_set", "Mark a quote as the project's reference quote",
		func(ctx context.Context, actor access.Actor, in SetReferenceParams) (any, error) {
			if err := svc.Reference.SetReferenceQuote(ctx, actor, in.ProjectID, in.QuoteID); err != nil {
				return nil, err
			}
			return svc.Reference.Summary(ctx, actor.BusinessID, in.ProjectID)
		})

	addTool(server, deps, "reference_clear", "Remove the project's reference quote",
		func(ctx context.Context, actor access.Actor, in ProjectIDParams) (any, error) {
			if err := svc.Reference.ClearReferenceQuote(ctx, actor, in.ProjectID); err != nil {
				return nil, err
			}
			return svc.Reference.Summary(ctx, actor.BusinessID, in.ProjectID)
		})

	addTool(server, deps, "billing_summary", "Show a project's total, amount already invoiced and amount left to invoice",
		func(ctx context.Context, actor access.Actor, in ProjectIDParams) (any, error) {
			return svc.Reference.Summary(ctx, actor.BusinessID, in.ProjectID)
		})

	addTool(server, deps, "activity_recent", "List recent billing activity, newest first",
		func(ctx context.Context, actor access.Actor, in GetRecentActivityParams) (any, error) {
			entries, err := svc.Activity.GetRecentActivity(ctx, actor.BusinessID, activity.ListOptions{
				ProjectID:  in.ProjectID,
				DocumentID: in.DocumentID,
				Type:       in.Type,
				Limit:      in.Limit,
				Offset:     in.Offset,
			})
			if err != nil {
				return nil, err
			}
			return GetRecentActivityResponse{Activity: nonNil(entries)}, nil
		})
}

func stagedRequest(in StagedParams) (staged.Request, error) {
	req := staged.Request{ProjectID: in.ProjectID, Mode: in.Mode, Label: in.Label}
	switch in.Mode {
	case staged.ModePercent:
		pct, err := money.ParsePercent(in.Value)
		if err != nil {
			return req, err
		}
		req.Value = pct
	case staged.ModeAmount:
		cents, err := money.ParseDecimalToCents(in.Value)
		if err != nil {
			return req, err
		}
		req.Value = decimal.NewFromInt(cents)
	}
	return req, nil
}

func parseLines(in []LineParams) ([]document.Line, error) {
	if in == nil {
		return nil, nil
	}
	lines := make([]document.Line, 0, len(in))
	for i, l := range in {
		cents, err := money.ParseDecimalToCents(l.UnitPrice)
		if err != nil {
			return nil, fmt.Errorf("line %d unit_price: %w", i+1, err)
		}
		lines = append(lines, document.Line{
			ID:             l.ID,
			Label:          l.Label,
			Description:    l.Description,
			Quantity:       l.Quantity,
			UnitPriceCents: cents,
			ServiceRef:     l.ServiceRef,
			ProductRef:     l.ProductRef,
		})
	}
	return lines, nil
}

func parseOptionalPrice(s *string) (*int64, error) {
	if s == nil {
		return nil, nil
	}
	cents, err := money.ParseDecimalToCents(*s)
	if err != nil {
		return nil, err
	}
	return &cents, nil
}

func parseDate(s *string) (*time.Time, error) {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil, nil
	}
	v := strings.TrimSpace(*s)
	for _, layout := range []string{time.DateOnly, time.RFC3339} {
		if t, err := time.Parse(layout, v); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", errInvalidDate, v)
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
