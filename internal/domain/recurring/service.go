package recurring

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/rpggio/probill/internal/domain/access"
	"github.com/rpggio/probill/internal/domain/activity"
	"github.com/rpggio/probill/internal/domain/document"
	"github.com/rpggio/probill/internal/domain/errkind"
	"github.com/rpggio/probill/internal/domain/invoice"
	"github.com/rpggio/probill/internal/repository"
)

// Deps are the collaborators of the recurring generator.
type Deps struct {
	Cursors    CursorRepository
	Catalog    Catalog
	Invoices   InvoiceCreator
	Checker    access.Checker
	Owners     access.OwnerLookup
	Tx         repository.TxManager
	Activities ActivityRepository
	Now        func() time.Time
}

// Service generates one invoice per period for recurring project services.
type Service struct {
	Deps
	logger *slog.Logger
}

// NewService creates a new recurring generator.
func NewService(deps Deps, logger *slog.Logger) *Service {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{Deps: deps, logger: logger}
}

// Generate creates the invoice of periodKey for a recurring service and
// advances its cursor in the same transaction. A period is billed at most
// once: repeating a call fails with ErrAlreadyGenerated.
func (s *Service) Generate(ctx context.Context, actor access.Actor, projectServiceID, periodKey string) (*invoice.Invoice, error) {
	if _, err := ParsePeriodKey(periodKey); err != nil {
		return nil, err
	}
	if err := access.Require(ctx, s.Checker, actor); err != nil {
		return nil, err
	}

	var created *invoice.Invoice
	err := s.Tx.RunInTx(ctx, func(ctx context.Context) error {
		svc, err := s.Catalog.GetService(ctx, actor.BusinessID, projectServiceID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrServiceNotFound
			}
			return fmt.Errorf("loading project service: %w", err)
		}
		if !svc.Recurring {
			return ErrNotRecurring
		}
		if !svc.Priced() {
			return ErrMissingPrice
		}

		cursor, err := s.Cursors.Get(ctx, actor.BusinessID, projectServiceID)
		switch {
		case errors.Is(err, repository.ErrNotFound):
			cursor = &Cursor{ProjectServiceID: projectServiceID, BusinessID: actor.BusinessID}
		case err != nil:
			return fmt.Errorf("loading recurring cursor: %w", err)
		}

		switch {
		case cursor.LastGeneratedPeriodKey == periodKey:
			return ErrAlreadyGenerated
		case cursor.LastGeneratedPeriodKey != "" && periodKey < cursor.LastGeneratedPeriodKey:
			return fmt.Errorf("%w: %s < %s", ErrPeriodBeforeCursor, periodKey, cursor.LastGeneratedPeriodKey)
		}

		ref := svc.ID
		inv, err := s.Invoices.CreateStandalone(ctx, actor, invoice.StandaloneRequest{
			ProjectID: svc.ProjectID,
			Origin:    invoice.OriginRecurring,
			Note:      fmt.Sprintf("Recurring billing %s", periodKey),
			Lines: []document.Line{{
				Label:          fmt.Sprintf("%s (%s)", svc.Label, periodKey),
				Description:    svc.Description,
				Quantity:       svc.Quantity,
				UnitPriceCents: *svc.UnitPriceCents,
				ServiceRef:     &ref,
			}},
		})
		if err != nil {
			return err
		}

		cursor.LastGeneratedPeriodKey = periodKey
		cursor.UpdatedAt = s.Now()
		if err := s.Cursors.Upsert(ctx, cursor); err != nil {
			return fmt.Errorf("advancing recurring cursor: %w", err)
		}

		if s.Activities != nil {
			id := inv.ID
			_ = s.Activities.Log(ctx, actor.BusinessID, &activity.Entry{
				ProjectID:  svc.ProjectID,
				DocumentID: &id,
				ActorID:    actor.ID,
				Type:       activity.TypeRecurringGenerated,
				Summary:    fmt.Sprintf("generated %s invoice for service %s", periodKey, svc.ID),
			})
		}
		created = inv
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("recurring invoice generated", "service_id", projectServiceID, "period", periodKey, "invoice_id", created.ID)
	return created, nil
}

// Report summarises a GenerateDue run.
type Report struct {
	PeriodKey  string   `json:"period_key"`
	Generated  []string `json:"generated"`
	Skipped    int      `json:"skipped"`
	Failed     int      `json:"failed"`
	InvoiceIDs []string `json:"invoice_ids"`
}

// GenerateDue generates periodKey for every recurring service, acting as
// each business's owner. Services already billed for the period, and
// services that cannot be billed, are skipped. Other failures are collected
// and returned together after every service was attempted.
func (s *Service) GenerateDue(ctx context.Context, periodKey string) (*Report, error) {
	if _, err := ParsePeriodKey(periodKey); err != nil {
		return nil, err
	}

	services, err := s.Catalog.ListRecurringServices(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing recurring services: %w", err)
	}

	report := &Report{PeriodKey: periodKey}
	owners := map[string]string{}
	var errs []error

	for _, svc := range services {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		owner, ok := owners[svc.BusinessID]
		if !ok {
			owner, err = s.Owners.OwnerOf(ctx, svc.BusinessID)
			if err != nil {
				report.Failed++
				errs = append(errs, fmt.Errorf("resolving owner of %s: %w", svc.BusinessID, err))
				continue
			}
			owners[svc.BusinessID] = owner
		}

		inv, err := s.Generate(ctx, access.Actor{ID: owner, BusinessID: svc.BusinessID}, svc.ID, periodKey)
		switch {
		case err == nil:
			report.Generated = append(report.Generated, svc.ID)
			report.InvoiceIDs = append(report.InvoiceIDs, inv.ID)
		case errors.Is(err, errkind.ErrConflict), errors.Is(err, errkind.ErrPreconditionFailed):
			s.logger.Debug("recurring service skipped", "service_id", svc.ID, "period", periodKey, "reason", err)
			report.Skipped++
		default:
			s.logger.Warn("recurring generation failed", "service_id", svc.ID, "period", periodKey, "error", err)
			report.Failed++
			errs = append(errs, fmt.Errorf("service %s: %w", svc.ID, err))
		}
	}

	return report, errors.Join(errs...)
}
