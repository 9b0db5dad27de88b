// Package staged computes and creates partial invoices against a project's
// remaining-to-invoice amount. It is the only path that creates partial
// invoices.
package staged

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/rpggio/probill/internal/domain/access"
	"github.com/rpggio/probill/internal/domain/document"
	"github.com/rpggio/probill/internal/domain/errkind"
	"github.com/rpggio/probill/internal/domain/invoice"
	"github.com/rpggio/probill/internal/domain/money"
	"github.com/rpggio/probill/internal/domain/reference"
	"github.com/rpggio/probill/internal/repository"
	"github.com/shopspring/decimal"
)

// Mode selects how the stage amount is computed
type Mode string

const (
	ModePercent Mode = "PERCENT"
	ModeAmount  Mode = "AMOUNT"
	ModeFinal   Mode = "FINAL"
)

var (
	// ErrNothingToInvoice indicates the project is fully invoiced.
	ErrNothingToInvoice = errkind.New(errkind.ErrNothingToInvoice, "project has nothing left to invoice")
	// ErrExceedsRemaining indicates the stage amount is above the remaining amount.
	ErrExceedsRemaining = errkind.New(errkind.ErrExceedsRemaining, "stage amount exceeds remaining to invoice")
	// ErrInvalidAmount indicates a non-positive or fractional AMOUNT value.
	ErrInvalidAmount = errkind.New(errkind.ErrInvalidAmount, "stage amount must be a positive number of cents")
	// ErrZeroAmount indicates a percentage that rounds to zero cents.
	ErrZeroAmount = errkind.New(errkind.ErrInvalidAmount, "stage amount rounds to zero")
	// ErrInvalidMode indicates an unknown mode.
	ErrInvalidMode = errkind.New(errkind.ErrInvalidInput, "invalid stage mode")
)

// Request describes a staged invoice. For ModePercent Value is a percentage,
// for ModeAmount it is a number of cents; ModeFinal ignores it.
type Request struct {
	ProjectID string
	Mode      Mode
	Value     decimal.Decimal
	Label     string
}

// Plan is the outcome of a staged computation.
type Plan struct {
	Mode        Mode              `json:"mode"`
	Label       string            `json:"label"`
	AmountCents int64             `json:"amount_cents"`
	Summary     reference.Summary `json:"summary"`
}

// Compute returns the amount a stage invoices given the project summary.
// Checks run in order: nothing left, malformed value, overage.
func Compute(summary reference.Summary, mode Mode, value decimal.Decimal) (int64, error) {
	if summary.RemainingToInvoiceCents <= 0 {
		return 0, ErrNothingToInvoice
	}

	var amount int64
	switch mode {
	case ModePercent:
		a, err := money.PercentOf(summary.TotalCents, value)
		if err != nil {
			return 0, err
		}
		if a == 0 {
			return 0, ErrZeroAmount
		}
		amount = a
	case ModeAmount:
		if !value.IsPositive() || !value.Equal(value.Truncate(0)) || value.GreaterThan(decimal.NewFromInt(math.MaxInt64)) {
			return 0, ErrInvalidAmount
		}
		amount = value.IntPart()
	case ModeFinal:
		amount = summary.RemainingToInvoiceCents
	default:
		return 0, ErrInvalidMode
	}

	if amount > summary.RemainingToInvoiceCents {
		return 0, fmt.Errorf("%w: %d > %d", ErrExceedsRemaining, amount, summary.RemainingToInvoiceCents)
	}
	return amount, nil
}

// DefaultLabel names the invoice line of a stage.
func DefaultLabel(mode Mode, value decimal.Decimal) string {
	switch mode {
	case ModePercent:
		return fmt.Sprintf("Deposit (%s%%)", value.String())
	case ModeFinal:
		return "Final payment"
	}
	return "Progress payment"
}

// SummaryReader provides the project billing summary.
type SummaryReader interface {
	Summary(ctx context.Context, businessID, projectID string) (*reference.Summary, error)
}

// InvoiceCreator creates standalone invoices.
type InvoiceCreator interface {
	CreateStandalone(ctx context.Context, actor access.Actor, req invoice.StandaloneRequest) (*invoice.Invoice, error)
}

// Service creates staged invoices.
type Service struct {
	summaries SummaryReader
	invoices  InvoiceCreator
	checker   access.Checker
	tx        repository.TxManager
	logger    *slog.Logger
}

// NewService creates a new staged invoicing service.
func NewService(summaries SummaryReader, invoices InvoiceCreator, checker access.Checker, tx repository.TxManager, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{summaries: summaries, invoices: invoices, checker: checker, tx: tx, logger: logger}
}

// Preview computes the stage amount without writing anything.
func (s *Service) Preview(ctx context.Context, actor access.Actor, req Request) (*Plan, error) {
	if err := access.Require(ctx, s.checker, actor); err != nil {
		return nil, err
	}
	return s.plan(ctx, actor.BusinessID, req)
}

// Create computes the stage amount and creates a one-line DRAFT invoice for
// it. The summary read and the invoice insert share one transaction.
func (s *Service) Create(ctx context.Context, actor access.Actor, req Request) (*invoice.Invoice, error) {
	if err := access.Require(ctx, s.checker, actor); err != nil {
		return nil, err
	}

	var created *invoice.Invoice
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		p, err := s.plan(ctx, actor.BusinessID, req)
		if err != nil {
			return err
		}

		inv, err := s.invoices.CreateStandalone(ctx, actor, invoice.StandaloneRequest{
			ProjectID: req.ProjectID,
			Origin:    invoice.OriginStaged,
			Lines: []document.Line{{
				Label:          p.Label,
				Quantity:       1,
				UnitPriceCents: p.AmountCents,
			}},
		})
		if err != nil {
			return err
		}
		created = inv
		return nil
	})
	if err != nil {
		s.logger.Debug("staged invoice rejected", "project_id", req.ProjectID, "mode", req.Mode, "error", err)
		return nil, err
	}

	s.logger.Info("staged invoice created", "project_id", req.ProjectID, "mode", req.Mode, "invoice_id", created.ID, "amount_cents", created.TotalCents())
	return created, nil
}

func (s *Service) plan(ctx context.Context, businessID string, req Request) (*Plan, error) {
	switch req.Mode {
	case ModePercent, ModeAmount, ModeFinal:
	default:
		return nil, ErrInvalidMode
	}

	summary, err := s.summaries.Summary(ctx, businessID, req.ProjectID)
	if err != nil {
		return nil, err
	}

	amount, err := Compute(*summary, req.Mode, req.Value)
	if err != nil {
		return nil, err
	}

	label := req.Label
	if label == "" {
		label = DefaultLabel(req.Mode, req.Value)
	}
	return &Plan{Mode: req.Mode, Label: label, AmountCents: amount, Summary: *summary}, nil
}
