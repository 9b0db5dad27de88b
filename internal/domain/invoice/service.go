package invoice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rpggio/probill/internal/domain/access"
	"github.com/rpggio/probill/internal/domain/activity"
	"github.com/rpggio/probill/internal/domain/document"
	"github.com/rpggio/probill/internal/domain/quote"
	"github.com/rpggio/probill/internal/repository"
)

// DefaultPaymentTermsDays is used when no payment terms are configured.
const DefaultPaymentTermsDays = 30

// Deps are the collaborators of the invoice service.
type Deps struct {
	Invoices         Repository
	Quotes           QuoteReader
	Projects         ProjectReader
	Checker          access.Checker
	Numberer         document.Numberer
	Tx               repository.TxManager
	Activities       ActivityRepository
	Rules            document.Rules
	PaymentTermsDays int
	Now              func() time.Time
}

// Service handles invoice business logic.
type Service struct {
	Deps
	logger *slog.Logger
}

// NewService creates a new invoice service.
func NewService(deps Deps, logger *slog.Logger) *Service {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.PaymentTermsDays <= 0 {
		deps.PaymentTermsDays = DefaultPaymentTermsDays
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{Deps: deps, logger: logger}
}

// StandaloneRequest describes an invoice created without a source quote.
type StandaloneRequest struct {
	ProjectID string
	Lines     []document.Line
	IssuedAt  *time.Time
	DueAt     *time.Time
	Note      string
	Origin    Origin
}

// TransitionRequest describes a status transition request.
type TransitionRequest struct {
	ID     string
	To     Status
	Reason *string
}

// Patch describes an edit. Nil fields are left untouched; a non-nil Lines
// replaces the whole line set.
type Patch struct {
	ID       string
	Lines    []document.Line
	IssuedAt *time.Time
	DueAt    *time.Time
	Note     *string
}

func (p Patch) empty() bool {
	return p.Lines == nil && p.IssuedAt == nil && p.DueAt == nil && p.Note == nil
}

// CreateFromQuote creates a DRAFT invoice holding an independent copy of a
// SIGNED quote's lines. The quote itself is left unchanged, and nothing stops
// several invoices being created from the same quote.
func (s *Service) CreateFromQuote(ctx context.Context, actor access.Actor, quoteID string) (*Invoice, error) {
	if strings.TrimSpace(quoteID) == "" {
		return nil, ErrInvalidInput
	}
	if err := access.Require(ctx, s.Checker, actor); err != nil {
		return nil, err
	}

	var created *Invoice
	err := s.Tx.RunInTx(ctx, func(ctx context.Context) error {
		q, err := s.Quotes.Get(ctx, actor.BusinessID, quoteID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrQuoteNotFound
			}
			return fmt.Errorf("loading quote: %w", err)
		}
		if q.Status != quote.StatusSigned {
			s.logger.Debug("invoice rejected: quote not signed", "quote_id", q.ID, "status", q.Status)
			return ErrQuoteNotSigned
		}

		sourceID := q.ID
		inv := s.newInvoice(actor.BusinessID, q.ProjectID, OriginQuote, document.Copy(q.Lines))
		inv.SourceQuoteID = &sourceID
		inv.Note = q.Note

		if err := s.create(ctx, inv); err != nil {
			return err
		}

		s.logActivity(ctx, actor, inv, activity.TypeInvoiceCreated, fmt.Sprintf("created invoice from quote %s", q.ID))
		created = inv
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("invoice created", "invoice_id", created.ID, "source_quote_id", quoteID)
	return created, nil
}

// CreateStandalone creates a DRAFT invoice from explicit lines.
func (s *Service) CreateStandalone(ctx context.Context, actor access.Actor, req StandaloneRequest) (*Invoice, error) {
	if strings.TrimSpace(req.ProjectID) == "" {
		return nil, ErrInvalidInput
	}
	origin := req.Origin
	if origin == "" {
		origin = OriginManual
	}
	if !origin.Valid() || origin == OriginQuote {
		return nil, fmt.Errorf("%w: origin %q", ErrInvalidInput, origin)
	}
	if err := access.Require(ctx, s.Checker, actor); err != nil {
		return nil, err
	}

	var created *Invoice
	err := s.Tx.RunInTx(ctx, func(ctx context.Context) error {
		if _, err := s.Projects.GetProject(ctx, actor.BusinessID, req.ProjectID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrProjectNotFound
			}
			return fmt.Errorf("loading project: %w", err)
		}

		if len(req.Lines) == 0 {
			return document.ErrNoLines
		}
		if err := s.Rules.Validate(document.KindInvoice, req.Lines); err != nil {
			return err
		}
		if err := checkDates(req.IssuedAt, req.DueAt); err != nil {
			return err
		}

		inv := s.newInvoice(actor.BusinessID, req.ProjectID, origin, document.Prepare(req.Lines))
		inv.IssuedAt = req.IssuedAt
		inv.DueAt = req.DueAt
		inv.Note = req.Note

		if err := s.create(ctx, inv); err != nil {
			return err
		}

		s.logActivity(ctx, actor, inv, activity.TypeInvoiceCreated,
			fmt.Sprintf("created %s invoice of %d cents", origin, inv.TotalCents()))
		created = inv
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("invoice created", "invoice_id", created.ID, "origin", created.Origin, "total_cents", created.TotalCents())
	return created, nil
}

// Transition moves an invoice through its state table. The first transition
// out of DRAFT assigns the invoice number and fills in a missing issue and
// due date.
func (s *Service) Transition(ctx context.Context, actor access.Actor, req TransitionRequest) (*Invoice, error) {
	if req.ID == "" || !req.To.Valid() {
		return nil, ErrInvalidInput
	}
	if err := access.Require(ctx, s.Checker, actor); err != nil {
		return nil, err
	}

	var result *Invoice
	err := s.Tx.RunInTx(ctx, func(ctx context.Context) error {
		current, err := s.load(ctx, actor.BusinessID, req.ID)
		if err != nil {
			return err
		}
		if err := ValidateTransition(current.Status, req.To); err != nil {
			s.logger.Debug("invoice transition rejected", "invoice_id", current.ID, "from", current.Status, "to", req.To)
			return err
		}

		now := s.Now()
		updated := *current
		updated.Status = req.To
		updated.UpdatedAt = now

		if current.Status == StatusDraft && updated.Number == nil {
			number, err := s.Numberer.NextNumber(ctx, actor.BusinessID, document.KindInvoice)
			if err != nil {
				return fmt.Errorf("assigning invoice number: %w", err)
			}
			updated.Number = &number
			if updated.IssuedAt == nil {
				updated.IssuedAt = &now
			}
		}

		switch req.To {
		case StatusSent:
			if updated.DueAt == nil {
				due := updated.IssuedAt.AddDate(0, 0, s.PaymentTermsDays)
				updated.DueAt = &due
			}
		case StatusPaid:
			if updated.PaidAt == nil {
				updated.PaidAt = &now
			}
		case StatusCancelled:
			if req.Reason != nil && strings.TrimSpace(*req.Reason) != "" {
				reason := strings.TrimSpace(*req.Reason)
				updated.CancelReason = &reason
			}
		}

		if err := s.update(ctx, &updated, current.Version); err != nil {
			return err
		}

		s.logActivity(ctx, actor, &updated, activity.TypeInvoiceTransitioned,
			fmt.Sprintf("invoice %s -> %s", current.Status, updated.Status))
		result = &updated
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("invoice transitioned", "invoice_id", result.ID, "status", result.Status)
	return result, nil
}

// Edit applies a patch with the same rules as quotes: lines only while
// DRAFT, dates and note while DRAFT or SENT.
func (s *Service) Edit(ctx context.Context, actor access.Actor, patch Patch) (*Invoice, error) {
	if patch.ID == "" {
		return nil, ErrInvalidInput
	}
	if err := access.Require(ctx, s.Checker, actor); err != nil {
		return nil, err
	}

	var result *Invoice
	err := s.Tx.RunInTx(ctx, func(ctx context.Context) error {
		current, err := s.load(ctx, actor.BusinessID, patch.ID)
		if err != nil {
			return err
		}

		if !Editable(current.Status) {
			return ErrNotEditable
		}
		if patch.Lines != nil && current.Status != StatusDraft {
			return ErrLinesLocked
		}
		if patch.empty() {
			return ErrInvalidInput
		}

		updated := *current
		if patch.Lines != nil {
			if len(patch.Lines) == 0 {
				return document.ErrNoLines
			}
			if err := s.Rules.Validate(document.KindInvoice, patch.Lines); err != nil {
				return err
			}
			updated.Lines = document.Prepare(patch.Lines)
		}
		if patch.IssuedAt != nil {
			updated.IssuedAt = patch.IssuedAt
		}
		if patch.DueAt != nil {
			updated.DueAt = patch.DueAt
		}
		if patch.Note != nil {
			updated.Note = *patch.Note
		}
		if err := checkDates(updated.IssuedAt, updated.DueAt); err != nil {
			return err
		}
		updated.UpdatedAt = s.Now()

		if err := s.update(ctx, &updated, current.Version); err != nil {
			return err
		}

		s.logActivity(ctx, actor, &updated, activity.TypeInvoiceEdited, "edited invoice")
		result = &updated
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Delete removes a DRAFT invoice. Numbered invoices must be cancelled instead.
func (s *Service) Delete(ctx context.Context, actor access.Actor, id string) error {
	if id == "" {
		return ErrInvalidInput
	}
	if err := access.Require(ctx, s.Checker, actor); err != nil {
		return err
	}

	err := s.Tx.RunInTx(ctx, func(ctx context.Context) error {
		current, err := s.load(ctx, actor.BusinessID, id)
		if err != nil {
			return err
		}
		if current.Status != StatusDraft {
			return ErrNotDeletable
		}
		if err := s.Invoices.Delete(ctx, actor.BusinessID, id); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrInvoiceNotFound
			}
			return fmt.Errorf("deleting invoice: %w", err)
		}

		s.logActivity(ctx, actor, current, activity.TypeInvoiceDeleted, "deleted invoice")
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("invoice deleted", "business_id", actor.BusinessID, "invoice_id", id)
	return nil
}

// Get fetches an invoice by ID.
func (s *Service) Get(ctx context.Context, businessID, id string) (*Invoice, error) {
	return s.load(ctx, businessID, id)
}

// List returns the invoices of a project, newest first.
func (s *Service) List(ctx context.Context, businessID, projectID string) ([]Invoice, error) {
	if _, err := s.Projects.GetProject(ctx, businessID, projectID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("loading project: %w", err)
	}
	invoices, err := s.Invoices.List(ctx, businessID, projectID)
	if err != nil {
		return nil, fmt.Errorf("listing invoices: %w", err)
	}
	return invoices, nil
}

func (s *Service) newInvoice(businessID, projectID string, origin Origin, lines []document.Line) *Invoice {
	now := s.Now()
	return &Invoice{
		ID:         uuid.NewString(),
		ProjectID:  projectID,
		BusinessID: businessID,
		Status:     StatusDraft,
		Origin:     origin,
		Lines:      lines,
		Version:    1,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func (s *Service) load(ctx context.Context, businessID, id string) (*Invoice, error) {
	inv, err := s.Invoices.Get(ctx, businessID, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvoiceNotFound
		}
		return nil, fmt.Errorf("loading invoice: %w", err)
	}
	return inv, nil
}

func (s *Service) create(ctx context.Context, inv *Invoice) error {
	if err := s.Invoices.Create(ctx, inv); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return ErrDuplicate
		}
		return fmt.Errorf("creating invoice: %w", err)
	}
	return nil
}

func (s *Service) update(ctx context.Context, inv *Invoice, expectedVersion int64) error {
	inv.Version = expectedVersion + 1
	if err := s.Invoices.Update(ctx, inv, expectedVersion); err != nil {
		switch {
		case errors.Is(err, repository.ErrConflict):
			return ErrConcurrentUpdate
		case errors.Is(err, repository.ErrNotFound):
			return ErrInvoiceNotFound
		case errors.Is(err, repository.ErrDuplicate):
			return ErrDuplicate
		}
		return fmt.Errorf("updating invoice: %w", err)
	}
	return nil
}

func (s *Service) logActivity(ctx context.Context, actor access.Actor, inv *Invoice, typ activity.Type, summary string) {
	if s.Activities == nil {
		return
	}
	id := inv.ID
	_ = s.Activities.Log(ctx, actor.BusinessID, &activity.Entry{
		ProjectID:  inv.ProjectID,
		DocumentID: &id,
		ActorID:    actor.ID,
		Type:       typ,
		Summary:    summary,
	})
}

func checkDates(issuedAt, dueAt *time.Time) error {
	if issuedAt != nil && dueAt != nil && dueAt.Before(*issuedAt) {
		return fmt.Errorf("%w: due date precedes issue date", ErrInvalidInput)
	}
	return nil
}
