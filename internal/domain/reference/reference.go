// Package reference links projects to their reference quote and computes
// the project billing summary.
package reference

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/rpggio/probill/internal/domain/access"
	"github.com/rpggio/probill/internal/domain/activity"
	"github.com/rpggio/probill/internal/domain/errkind"
	"github.com/rpggio/probill/internal/domain/project"
	"github.com/rpggio/probill/internal/domain/quote"
	"github.com/rpggio/probill/internal/repository"
	"github.com/shopspring/decimal"
)

var (
	// ErrProjectNotFound indicates the project doesn't exist in the business.
	ErrProjectNotFound = errkind.New(errkind.ErrNotFound, "project not found")
	// ErrQuoteNotInProject indicates the quote is missing or belongs to another project.
	ErrQuoteNotInProject = errkind.New(errkind.ErrNotFound, "quote not found in project")
)

// Summary is the billing position of a project. It is recomputed on every
// call.
type Summary struct {
	ProjectID                  string           `json:"project_id"`
	TotalCents                 int64            `json:"total_cents"`
	DepositPercent             *decimal.Decimal `json:"deposit_percent,omitempty"`
	AmountAlreadyInvoicedCents int64            `json:"amount_already_invoiced_cents"`
	RemainingToInvoiceCents    int64            `json:"remaining_to_invoice_cents"`
	ReferenceQuoteID           *string          `json:"reference_quote_id,omitempty"`
}

// Catalog is the part of the project catalog the coordinator uses.
type Catalog interface {
	GetProject(ctx context.Context, businessID, projectID string) (*project.Project, error)
	ListServices(ctx context.Context, businessID, projectID string) ([]project.ProjectService, error)
	SetReferenceQuote(ctx context.Context, businessID, projectID string, quoteID *string) error
}

// QuoteReader loads quotes.
type QuoteReader interface {
	Get(ctx context.Context, businessID, id string) (*quote.Quote, error)
}

// InvoiceTotals sums the non-cancelled invoices of a project.
type InvoiceTotals interface {
	InvoicedTotal(ctx context.Context, businessID, projectID string) (int64, error)
}

// ActivityRepository logs reference changes.
type ActivityRepository interface {
	Log(ctx context.Context, businessID string, entry *activity.Entry) error
}

// Service coordinates reference quotes and billing summaries.
type Service struct {
	catalog    Catalog
	quotes     QuoteReader
	invoices   InvoiceTotals
	checker    access.Checker
	tx         repository.TxManager
	activities ActivityRepository
	logger     *slog.Logger
}

// NewService creates a new reference coordinator.
func NewService(
	catalog Catalog,
	quotes QuoteReader,
	invoices InvoiceTotals,
	checker access.Checker,
	tx repository.TxManager,
	activities ActivityRepository,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{
		catalog:    catalog,
		quotes:     quotes,
		invoices:   invoices,
		checker:    checker,
		tx:         tx,
		activities: activities,
		logger:     logger,
	}
}

// SetReferenceQuote designates quoteID as the project's reference quote.
func (s *Service) SetReferenceQuote(ctx context.Context, actor access.Actor, projectID, quoteID string) error {
	if err := access.Require(ctx, s.checker, actor); err != nil {
		return err
	}

	return s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if _, err := s.project(ctx, actor.BusinessID, projectID); err != nil {
			return err
		}

		q, err := s.quotes.Get(ctx, actor.BusinessID, quoteID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrQuoteNotInProject
			}
			return fmt.Errorf("loading quote: %w", err)
		}
		if q.ProjectID != projectID {
			return ErrQuoteNotInProject
		}

		if err := s.catalog.SetReferenceQuote(ctx, actor.BusinessID, projectID, &quoteID); err != nil {
			return fmt.Errorf("setting reference quote: %w", err)
		}
		s.logActivity(ctx, actor, projectID, &quoteID, "set reference quote")
		return nil
	})
}

// ClearReferenceQuote removes the project's reference quote, if any.
func (s *Service) ClearReferenceQuote(ctx context.Context, actor access.Actor, projectID string) error {
	if err := access.Require(ctx, s.checker, actor); err != nil {
		return err
	}

	return s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if _, err := s.project(ctx, actor.BusinessID, projectID); err != nil {
			return err
		}
		if err := s.catalog.SetReferenceQuote(ctx, actor.BusinessID, projectID, nil); err != nil {
			return fmt.Errorf("clearing reference quote: %w", err)
		}
		s.logActivity(ctx, actor, projectID, nil, "cleared reference quote")
		return nil
	})
}

// Summary computes the billing summary of a project. Cancelled invoices do
// not count as invoiced.
func (s *Service) Summary(ctx context.Context, businessID, projectID string) (*Summary, error) {
	proj, err := s.project(ctx, businessID, projectID)
	if err != nil {
		return nil, err
	}

	services, err := s.catalog.ListServices(ctx, businessID, projectID)
	if err != nil {
		return nil, fmt.Errorf("loading project services: %w", err)
	}
	var total int64
	for _, svc := range services {
		total += svc.TotalCents()
	}

	invoiced, err := s.invoices.InvoicedTotal(ctx, businessID, projectID)
	if err != nil {
		return nil, fmt.Errorf("summing invoices: %w", err)
	}

	return &Summary{
		ProjectID:                  projectID,
		TotalCents:                 total,
		DepositPercent:             proj.DepositPercent,
		AmountAlreadyInvoicedCents: invoiced,
		RemainingToInvoiceCents:    total - invoiced,
		ReferenceQuoteID:           proj.ReferenceQuoteID,
	}, nil
}

func (s *Service) project(ctx context.Context, businessID, projectID string) (*project.Project, error) {
	proj, err := s.catalog.GetProject(ctx, businessID, projectID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("loading project: %w", err)
	}
	return proj, nil
}

func (s *Service) logActivity(ctx context.Context, actor access.Actor, projectID string, quoteID *string, summary string) {
	s.logger.Info(summary, "business_id", actor.BusinessID, "project_id", projectID)
	if s.activities == nil {
		return
	}
	_ = s.activities.Log(ctx, actor.BusinessID, &activity.Entry{
		ProjectID:  projectID,
		DocumentID: quoteID,
		ActorID:    actor.ID,
		Type:       activity.TypeReferenceSet,
		Summary:    summary,
	})
}
