package reference_test

import (
	"context"
	"testing"

	"github.com/rpggio/probill/internal/domain/access"
	"github.com/rpggio/probill/internal/domain/errkind"
	"github.com/rpggio/probill/internal/domain/project"
	"github.com/rpggio/probill/internal/domain/quote"
	"github.com/rpggio/probill/internal/domain/reference"
	"github.com/rpggio/probill/internal/repository"
	"github.com/rpggio/probill/internal/repository/mocks"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var owner = access.Actor{ID: "owner", BusinessID: "biz1"}

type fixture struct {
	catalog  *mocks.ProjectRepository
	quotes   *mocks.QuoteRepository
	invoices *mocks.InvoiceRepository
	checker  *mocks.Checker
	svc      *reference.Service
}

func newFixture(ctx context.Context) *fixture {
	f := &fixture{
		catalog:  &mocks.ProjectRepository{},
		quotes:   &mocks.QuoteRepository{},
		invoices: &mocks.InvoiceRepository{},
		checker:  &mocks.Checker{},
	}
	f.checker.On("HasAdminCapability", ctx, owner.ID, owner.BusinessID).Return(true, nil)
	activities := &mocks.ActivityRepository{}
	activities.On("Log", ctx, owner.BusinessID, mock.Anything).Return(nil)
	f.svc = reference.NewService(f.catalog, f.quotes, f.invoices, f.checker, &mocks.TxManager{}, activities, nil)
	return f
}

func TestSummary(t *testing.T) {
	ctx := context.Background()
	f := newFixture(ctx)

	deposit := decimal.NewFromInt(30)
	refID := "q1"
	a, b := int64(4000), int64(3000)
	f.catalog.On("GetProject", ctx, "biz1", "p1").Return(&project.Project{ID: "p1", DepositPercent: &deposit, ReferenceQuoteID: &refID}, nil)
	f.catalog.On("ListServices", ctx, "biz1", "p1").Return([]project.ProjectService{
		{ID: "s1", Quantity: 2, UnitPriceCents: &a},
		{ID: "s2", Quantity: 1, UnitPriceCents: &b},
		{ID: "s3", Quantity: 5},
	}, nil)
	f.invoices.On("InvoicedTotal", ctx, "biz1", "p1").Return(int64(2500), nil)

	sum, err := f.svc.Summary(ctx, "biz1", "p1")
	require.NoError(t, err)
	require.Equal(t, int64(11000), sum.TotalCents)
	require.Equal(t, int64(2500), sum.AmountAlreadyInvoicedCents)
	require.Equal(t, int64(8500), sum.RemainingToInvoiceCents)
	require.True(t, deposit.Equal(*sum.DepositPercent))
	require.Equal(t, "q1", *sum.ReferenceQuoteID)
}

func TestSummary_UnknownProject(t *testing.T) {
	ctx := context.Background()
	f := newFixture(ctx)
	f.catalog.On("GetProject", ctx, "biz1", "nope").Return(nil, repository.ErrNotFound)

	_, err := f.svc.Summary(ctx, "biz1", "nope")
	require.ErrorIs(t, err, errkind.ErrNotFound)
}

func TestSetReferenceQuote(t *testing.T) {
	ctx := context.Background()
	f := newFixture(ctx)

	f.catalog.On("GetProject", ctx, "biz1", "p1").Return(&project.Project{ID: "p1"}, nil)
	f.quotes.On("Get", ctx, "biz1", "q1").Return(&quote.Quote{ID: "q1", ProjectID: "p1"}, nil)
	f.quotes.On("Get", ctx, "biz1", "q2").Return(&quote.Quote{ID: "q2", ProjectID: "p2"}, nil)
	f.quotes.On("Get", ctx, "biz1", "q3").Return(nil, repository.ErrNotFound)
	f.catalog.On("SetReferenceQuote", ctx, "biz1", "p1", mock.MatchedBy(func(id *string) bool {
		return id != nil && *id == "q1"
	})).Return(nil).Once()

	require.NoError(t, f.svc.SetReferenceQuote(ctx, owner, "p1", "q1"))

	err := f.svc.SetReferenceQuote(ctx, owner, "p1", "q2")
	require.ErrorIs(t, err, errkind.ErrNotFound)
	err = f.svc.SetReferenceQuote(ctx, owner, "p1", "q3")
	require.ErrorIs(t, err, reference.ErrQuoteNotInProject)

	f.catalog.AssertNumberOfCalls(t, "SetReferenceQuote", 1)
}

func TestSetReferenceQuote_Forbidden(t *testing.T) {
	ctx := context.Background()
	f := newFixture(ctx)
	intruder := access.Actor{ID: "intruder", BusinessID: "biz1"}
	f.checker.On("HasAdminCapability", ctx, intruder.ID, intruder.BusinessID).Return(false, nil)

	err := f.svc.SetReferenceQuote(ctx, intruder, "p1", "q1")
	require.ErrorIs(t, err, errkind.ErrForbidden)
}

func TestClearReferenceQuote(t *testing.T) {
	ctx := context.Background()
	f := newFixture(ctx)
	f.catalog.On("GetProject", ctx, "biz1", "p1").Return(&project.Project{ID: "p1"}, nil)
	f.catalog.On("SetReferenceQuote", ctx, "biz1", "p1", (*string)(nil)).Return(nil)

	require.NoError(t, f.svc.ClearReferenceQuote(ctx, owner, "p1"))
	f.catalog.AssertExpectations(t)
}
