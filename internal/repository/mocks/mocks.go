package mocks

import (
	"context"
	"sync/atomic"

	"github.com/rpggio/probill/internal/domain/activity"
	"github.com/rpggio/probill/internal/domain/document"
	"github.com/rpggio/probill/internal/domain/invoice"
	"github.com/rpggio/probill/internal/domain/project"
	"github.com/rpggio/probill/internal/domain/quote"
	"github.com/rpggio/probill/internal/domain/recurring"
	"github.com/stretchr/testify/mock"
)

// TxManager runs fn directly with the caller's context.
type TxManager struct {
	calls atomic.Int64
}

func (m *TxManager) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	m.calls.Add(1)
	return fn(ctx)
}

// Calls returns how many transactions were run.
func (m *TxManager) Calls() int64 {
	return m.calls.Load()
}

// Checker is a mock for access.Checker.
type Checker struct {
	mock.Mock
}

func (m *Checker) HasAdminCapability(ctx context.Context, actorID, businessID string) (bool, error) {
	args := m.Called(ctx, actorID, businessID)
	return args.Bool(0), args.Error(1)
}

// OwnerLookup is a mock for access.OwnerLookup.
type OwnerLookup struct {
	mock.Mock
}

func (m *OwnerLookup) OwnerOf(ctx context.Context, businessID string) (string, error) {
	args := m.Called(ctx, businessID)
	return args.String(0), args.Error(1)
}

// Numberer is a mock for document.Numberer.
type Numberer struct {
	mock.Mock
}

func (m *Numberer) NextNumber(ctx context.Context, businessID string, kind document.Kind) (string, error) {
	args := m.Called(ctx, businessID, kind)
	return args.String(0), args.Error(1)
}

// ProjectRepository is a mock for project.Repository.
type ProjectRepository struct {
	mock.Mock
}

func (m *ProjectRepository) Create(ctx context.Context, proj *project.Project) error {
	args := m.Called(ctx, proj)
	return args.Error(0)
}

func (m *ProjectRepository) GetProject(ctx context.Context, businessID, projectID string) (*project.Project, error) {
	args := m.Called(ctx, businessID, projectID)
	if proj, ok := args.Get(0).(*project.Project); ok {
		return proj, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ProjectRepository) List(ctx context.Context, businessID string) ([]project.ProjectSummary, error) {
	args := m.Called(ctx, businessID)
	if list, ok := args.Get(0).([]project.ProjectSummary); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ProjectRepository) ListServices(ctx context.Context, businessID, projectID string) ([]project.ProjectService, error) {
	args := m.Called(ctx, businessID, projectID)
	if list, ok := args.Get(0).([]project.ProjectService); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ProjectRepository) GetService(ctx context.Context, businessID, serviceID string) (*project.ProjectService, error) {
	args := m.Called(ctx, businessID, serviceID)
	if svc, ok := args.Get(0).(*project.ProjectService); ok {
		return svc, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ProjectRepository) ListRecurringServices(ctx context.Context) ([]project.ProjectService, error) {
	args := m.Called(ctx)
	if list, ok := args.Get(0).([]project.ProjectService); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ProjectRepository) AddService(ctx context.Context, svc *project.ProjectService) error {
	args := m.Called(ctx, svc)
	return args.Error(0)
}

func (m *ProjectRepository) UpdateService(ctx context.Context, svc *project.ProjectService) error {
	args := m.Called(ctx, svc)
	return args.Error(0)
}

func (m *ProjectRepository) SetReferenceQuote(ctx context.Context, businessID, projectID string, quoteID *string) error {
	args := m.Called(ctx, businessID, projectID, quoteID)
	return args.Error(0)
}

func (m *ProjectRepository) UnlinkReferenceQuote(ctx context.Context, businessID, quoteID string) error {
	args := m.Called(ctx, businessID, quoteID)
	return args.Error(0)
}

// QuoteRepository is a mock for quote.Repository.
type QuoteRepository struct {
	mock.Mock
}

func (m *QuoteRepository) Create(ctx context.Context, q *quote.Quote) error {
	args := m.Called(ctx, q)
	return args.Error(0)
}

func (m *QuoteRepository) Get(ctx context.Context, businessID, id string) (*quote.Quote, error) {
	args := m.Called(ctx, businessID, id)
	if q, ok := args.Get(0).(*quote.Quote); ok {
		return q, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *QuoteRepository) List(ctx context.Context, businessID, projectID string) ([]quote.Quote, error) {
	args := m.Called(ctx, businessID, projectID)
	if list, ok := args.Get(0).([]quote.Quote); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *QuoteRepository) Update(ctx context.Context, q *quote.Quote, expectedVersion int64) error {
	args := m.Called(ctx, q, expectedVersion)
	return args.Error(0)
}

func (m *QuoteRepository) Delete(ctx context.Context, businessID, id string) error {
	args := m.Called(ctx, businessID, id)
	return args.Error(0)
}

// InvoiceRepository is a mock for invoice.Repository.
type InvoiceRepository struct {
	mock.Mock
}

func (m *InvoiceRepository) Create(ctx context.Context, inv *invoice.Invoice) error {
	args := m.Called(ctx, inv)
	return args.Error(0)
}

func (m *InvoiceRepository) Get(ctx context.Context, businessID, id string) (*invoice.Invoice, error) {
	args := m.Called(ctx, businessID, id)
	if inv, ok := args.Get(0).(*invoice.Invoice); ok {
		return inv, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *InvoiceRepository) List(ctx context.Context, businessID, projectID string) ([]invoice.Invoice, error) {
	args := m.Called(ctx, businessID, projectID)
	if list, ok := args.Get(0).([]invoice.Invoice); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *InvoiceRepository) Update(ctx context.Context, inv *invoice.Invoice, expectedVersion int64) error {
	args := m.Called(ctx, inv, expectedVersion)
	return args.Error(0)
}

func (m *InvoiceRepository) Delete(ctx context.Context, businessID, id string) error {
	args := m.Called(ctx, businessID, id)
	return args.Error(0)
}

func (m *InvoiceRepository) CountBySourceQuote(ctx context.Context, businessID, quoteID string) (int, error) {
	args := m.Called(ctx, businessID, quoteID)
	return args.Int(0), args.Error(1)
}

func (m *InvoiceRepository) InvoicedTotal(ctx context.Context, businessID, projectID string) (int64, error) {
	args := m.Called(ctx, businessID, projectID)
	return args.Get(0).(int64), args.Error(1)
}

// CursorRepository is a mock for recurring.CursorRepository.
type CursorRepository struct {
	mock.Mock
}

func (m *CursorRepository) Get(ctx context.Context, businessID, projectServiceID string) (*recurring.Cursor, error) {
	args := m.Called(ctx, businessID, projectServiceID)
	if c, ok := args.Get(0).(*recurring.Cursor); ok {
		return c, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *CursorRepository) Upsert(ctx context.Context, cursor *recurring.Cursor) error {
	args := m.Called(ctx, cursor)
	return args.Error(0)
}

// ActivityRepository is a mock for activity.Repository.
type ActivityRepository struct {
	mock.Mock
}

func (m *ActivityRepository) Log(ctx context.Context, businessID string, entry *activity.Entry) error {
	args := m.Called(ctx, businessID, entry)
	return args.Error(0)
}

func (m *ActivityRepository) List(ctx context.Context, businessID string, opts activity.ListOptions) ([]activity.Entry, error) {
	args := m.Called(ctx, businessID, opts)
	if list, ok := args.Get(0).([]activity.Entry); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}
