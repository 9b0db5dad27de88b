package quote

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
	"github.com/rpggio/probill/internal/repository"
)

// Deps are the collaborators of the quote service.
type Deps struct {
	Quotes     Repository
	Invoices   InvoiceCounter
	Catalog    Catalog
	Checker    access.Checker
	Numberer   document.Numberer
	Tx         repository.TxManager
	Activities ActivityRepository
	Rules      document.Rules
	Now        func() time.Time
}

// Service handles quote business logic.
type Service struct {
	Deps
	logger *slog.Logger
}

// NewService creates a new quote service.
func NewService(deps Deps, logger *slog.Logger) *Service {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{Deps: deps, logger: logger}
}

// CreateRequest describes a quote creation request.
type CreateRequest struct {
	ProjectID string
	ExpiresAt *time.Time
	Note      string
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
	ID        string
	Lines     []document.Line
	IssuedAt  *time.Time
	ExpiresAt *time.Time
	Note      *string
}

func (p Patch) empty() bool {
	return p.Lines == nil && p.IssuedAt == nil && p.ExpiresAt == nil && p.Note == nil
}

// Create builds a DRAFT quote whose lines snapshot the project's priced
// services at this instant.
func (s *Service) Create(ctx context.Context, actor access.Actor, req CreateRequest) (*Quote, error) {
	if strings.TrimSpace(req.ProjectID) == "" {
		return nil, ErrInvalidInput
	}
	if err := access.Require(ctx, s.Checker, actor); err != nil {
		return nil, err
	}

	var created *Quote
	err := s.Tx.RunInTx(ctx, func(ctx context.Context) error {
		if _, err := s.Catalog.GetProject(ctx, actor.BusinessID, req.ProjectID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrProjectNotFound
			}
			return fmt.Errorf("loading project: %w", err)
		}

		services, err := s.Catalog.ListServices(ctx, actor.BusinessID, req.ProjectID)
		if err != nil {
			return fmt.Errorf("loading project services: %w", err)
		}
		if len(services) == 0 {
			return ErrNoPricedServices
		}

		lines := make([]document.Line, 0, len(services))
		for _, svc := range services {
			if !svc.Priced() {
				s.logger.Debug("quote rejected: unpriced service", "project_id", req.ProjectID, "service_id", svc.ID)
				return fmt.Errorf("%w: %s", ErrMissingPrice, svc.Label)
			}
			ref := svc.ID
			lines = append(lines, document.Line{
				Label:          svc.Label,
				Description:    svc.Description,
				Quantity:       svc.Quantity,
				UnitPriceCents: *svc.UnitPriceCents,
				ServiceRef:     &ref,
			})
		}
		lines = document.Prepare(lines)
		if err := s.Rules.Validate(document.KindQuote, lines); err != nil {
			return err
		}

		now := s.Now()
		q := &Quote{
			ID:         uuid.NewString(),
			ProjectID:  req.ProjectID,
			BusinessID: actor.BusinessID,
			Status:     StatusDraft,
			ExpiresAt:  req.ExpiresAt,
			Note:       req.Note,
			Lines:      lines,
			Version:    1,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if err := s.create(ctx, q); err != nil {
			return err
		}

		s.logActivity(ctx, actor, q, activity.TypeQuoteCreated, fmt.Sprintf("created quote with %d lines", len(q.Lines)))
		created = q
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("quote created", "business_id", created.BusinessID, "quote_id", created.ID, "project_id", created.ProjectID)
	return created, nil
}

// Transition moves a quote through its state table. The first transition out
// of DRAFT assigns the quote number.
func (s *Service) Transition(ctx context.Context, actor access.Actor, req TransitionRequest) (*Quote, error) {
	if req.ID == "" || !req.To.Valid() {
		return nil, ErrInvalidInput
	}
	if err := access.Require(ctx, s.Checker, actor); err != nil {
		return nil, err
	}

	var result *Quote
	err := s.Tx.RunInTx(ctx, func(ctx context.Context) error {
		current, err := s.load(ctx, actor.BusinessID, req.ID)
		if err != nil {
			return err
		}

		if err := ValidateTransition(current.Status, req.To, req.Reason); err != nil {
			s.logger.Debug("quote transition rejected", "quote_id", current.ID, "from", current.Status, "to", req.To, "error", err)
			return err
		}

		now := s.Now()
		updated := *current
		updated.Status = req.To
		updated.UpdatedAt = now

		if current.Status == StatusDraft && updated.Number == nil {
			number, err := s.Numberer.NextNumber(ctx, actor.BusinessID, document.KindQuote)
			if err != nil {
				return fmt.Errorf("assigning quote number: %w", err)
			}
			updated.Number = &number
			if updated.IssuedAt == nil {
				updated.IssuedAt = &now
			}
		}

		switch req.To {
		case StatusSigned:
			if updated.SignedAt == nil {
				updated.SignedAt = &now
			}
		case StatusCancelled:
			reason := strings.TrimSpace(*req.Reason)
			updated.CancelReason = &reason
		}

		if err := s.update(ctx, &updated, current.Version); err != nil {
			return err
		}

		s.logActivity(ctx, actor, &updated, activity.TypeQuoteTransitioned,
			fmt.Sprintf("quote %s -> %s", current.Status, updated.Status))
		result = &updated
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("quote transitioned", "quote_id", result.ID, "status", result.Status)
	return result, nil
}

// Edit applies a patch. Lines may only change while DRAFT; dates and note
// while DRAFT or SENT. Every line is validated before anything is written.
func (s *Service) Edit(ctx context.Context, actor access.Actor, patch Patch) (*Quote, error) {
	if patch.ID == "" {
		return nil, ErrInvalidInput
	}
	if err := access.Require(ctx, s.Checker, actor); err != nil {
		return nil, err
	}

	var result *Quote
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
			if err := s.Rules.Validate(document.KindQuote, patch.Lines); err != nil {
				return err
			}
			updated.Lines = document.Prepare(patch.Lines)
		}
		if patch.IssuedAt != nil {
			updated.IssuedAt = patch.IssuedAt
		}
		if patch.ExpiresAt != nil {
			updated.ExpiresAt = patch.ExpiresAt
		}
		if patch.Note != nil {
			updated.Note = *patch.Note
		}
		if updated.IssuedAt != nil && updated.ExpiresAt != nil && updated.ExpiresAt.Before(*updated.IssuedAt) {
			return fmt.Errorf("%w: expiry precedes issue date", ErrInvalidInput)
		}
		updated.UpdatedAt = s.Now()

		if err := s.update(ctx, &updated, current.Version); err != nil {
			return err
		}

		s.logActivity(ctx, actor, &updated, activity.TypeQuoteEdited, "edited quote")
		result = &updated
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Delete removes a quote. A SIGNED quote is only removed when no invoice
// was created from it. A quote used as its project's reference is unlinked.
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

		if current.Status == StatusSigned {
			count, err := s.Invoices.CountBySourceQuote(ctx, actor.BusinessID, id)
			if err != nil {
				return fmt.Errorf("counting quote invoices: %w", err)
			}
			if count > 0 {
				return ErrHasInvoices
			}
		}

		if err := s.Catalog.UnlinkReferenceQuote(ctx, actor.BusinessID, id); err != nil {
			return fmt.Errorf("unlinking reference quote: %w", err)
		}
		if err := s.Quotes.Delete(ctx, actor.BusinessID, id); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrQuoteNotFound
			}
			return fmt.Errorf("deleting quote: %w", err)
		}

		s.logActivity(ctx, actor, current, activity.TypeQuoteDeleted, "deleted quote")
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("quote deleted", "business_id", actor.BusinessID, "quote_id", id)
	return nil
}

// Get fetches a quote by ID.
func (s *Service) Get(ctx context.Context, businessID, id string) (*Quote, error) {
	return s.load(ctx, businessID, id)
}

// List returns the quotes of a project, newest first.
func (s *Service) List(ctx context.Context, businessID, projectID string) ([]Quote, error) {
	if _, err := s.Catalog.GetProject(ctx, businessID, projectID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("loading project: %w", err)
	}
	quotes, err := s.Quotes.List(ctx, businessID, projectID)
	if err != nil {
		return nil, fmt.Errorf("listing quotes: %w", err)
	}
	return quotes, nil
}

func (s *Service) load(ctx context.Context, businessID, id string) (*Quote, error) {
	q, err := s.Quotes.Get(ctx, businessID, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrQuoteNotFound
		}
		return nil, fmt.Errorf("loading quote: %w", err)
	}
	return q, nil
}

func (s *Service) create(ctx context.Context, q *Quote) error {
	if err := s.Quotes.Create(ctx, q); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return ErrDuplicate
		}
		return fmt.Errorf("creating quote: %w", err)
	}
	return nil
}

func (s *Service) update(ctx context.Context, q *Quote, expectedVersion int64) error {
	q.Version = expectedVersion + 1
	if err := s.Quotes.Update(ctx, q, expectedVersion); err != nil {
		switch {
		case errors.Is(err, repository.ErrConflict):
			return ErrConcurrentUpdate
		case errors.Is(err, repository.ErrNotFound):
			return ErrQuoteNotFound
		case errors.Is(err, repository.ErrDuplicate):
			return ErrDuplicate
		}
		return fmt.Errorf("updating quote: %w", err)
	}
	return nil
}

func (s *Service) logActivity(ctx context.Context, actor access.Actor, q *Quote, typ activity.Type, summary string) {
	if s.Activities == nil {
		return
	}
	id := q.ID
	_ = s.Activities.Log(ctx, actor.BusinessID, &activity.Entry{
		ProjectID:  q.ProjectID,
		DocumentID: &id,
		ActorID:    actor.ID,
		Type:       typ,
		Summary:    summary,
	})
}
