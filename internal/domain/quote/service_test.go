package quote_test

import (
	"context"
	"testing"
	"time"

	"github.com/rpggio/probill/internal/domain/access"
	"github.com/rpggio/probill/internal/domain/document"
	"github.com/rpggio/probill/internal/domain/errkind"
	"github.com/rpggio/probill/internal/domain/project"
	"github.com/rpggio/probill/internal/domain/quote"
	"github.com/rpggio/probill/internal/repository"
	"github.com/rpggio/probill/internal/repository/mocks"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var owner = access.Actor{ID: "owner", BusinessID: "biz1"}

type fixture struct {
	quotes     *mocks.QuoteRepository
	invoices   *mocks.InvoiceRepository
	catalog    *mocks.ProjectRepository
	checker    *mocks.Checker
	numberer   *mocks.Numberer
	activities *mocks.ActivityRepository
	svc        *quote.Service
}

func newFixture(ctx context.Context) *fixture {
	f := &fixture{
		quotes:     &mocks.QuoteRepository{},
		invoices:   &mocks.InvoiceRepository{},
		catalog:    &mocks.ProjectRepository{},
		checker:    &mocks.Checker{},
		numberer:   &mocks.Numberer{},
		activities: &mocks.ActivityRepository{},
	}
	f.checker.On("HasAdminCapability", ctx, owner.ID, owner.BusinessID).Return(true, nil)
	f.activities.On("Log", ctx, owner.BusinessID, mock.Anything).Return(nil)
	f.svc = quote.NewService(quote.Deps{
		Quotes:     f.quotes,
		Invoices:   f.invoices,
		Catalog:    f.catalog,
		Checker:    f.checker,
		Numberer:   f.numberer,
		Tx:         &mocks.TxManager{},
		Activities: f.activities,
		Rules:      document.DefaultRules,
	}, nil)
	return f
}

func price(c int64) *int64 { return &c }

func strPtr(s string) *string { return &s }

func TestQuoteService_CreateSnapshotsPricedServices(t *testing.T) {
	ctx := context.Background()
	f := newFixture(ctx)

	services := []project.ProjectService{
		{ID: "s1", Label: "Design", Quantity: 2, UnitPriceCents: price(5000)},
		{ID: "s2", Label: "Build", Quantity: 1, UnitPriceCents: price(12000)},
	}
	f.catalog.On("GetProject", ctx, "biz1", "p1").Return(&project.Project{ID: "p1", BusinessID: "biz1"}, nil)
	f.catalog.On("ListServices", ctx, "biz1", "p1").Return(services, nil)
	f.quotes.On("Create", ctx, mock.AnythingOfType("*quote.Quote")).Return(nil)

	q, err := f.svc.Create(ctx, owner, quote.CreateRequest{ProjectID: "p1"})
	require.NoError(t, err)
	require.Equal(t, quote.StatusDraft, q.Status)
	require.Nil(t, q.Number)
	require.Len(t, q.Lines, 2)
	require.Equal(t, int64(22000), q.TotalCents())
	require.Equal(t, "s1", *q.Lines[0].ServiceRef)

	// later catalog changes don't reach the snapshot
	*services[0].UnitPriceCents = 1
	require.Equal(t, int64(5000), q.Lines[0].UnitPriceCents)
}

func TestQuoteService_CreatePreconditions(t *testing.T) {
	ctx := context.Background()

	t.Run("no services", func(t *testing.T) {
		f := newFixture(ctx)
		f.catalog.On("GetProject", ctx, "biz1", "p1").Return(&project.Project{ID: "p1"}, nil)
		f.catalog.On("ListServices", ctx, "biz1", "p1").Return([]project.ProjectService{}, nil)

		_, err := f.svc.Create(ctx, owner, quote.CreateRequest{ProjectID: "p1"})
		require.ErrorIs(t, err, errkind.ErrPreconditionFailed)
	})

	t.Run("missing price", func(t *testing.T) {
		f := newFixture(ctx)
		f.catalog.On("GetProject", ctx, "biz1", "p1").Return(&project.Project{ID: "p1"}, nil)
		f.catalog.On("ListServices", ctx, "biz1", "p1").Return([]project.ProjectService{
			{ID: "s1", Label: "Design", Quantity: 1, UnitPriceCents: price(100)},
			{ID: "s2", Label: "Hosting", Quantity: 1},
		}, nil)

		_, err := f.svc.Create(ctx, owner, quote.CreateRequest{ProjectID: "p1"})
		require.ErrorIs(t, err, quote.ErrMissingPrice)
		f.quotes.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("project in another business", func(t *testing.T) {
		f := newFixture(ctx)
		f.catalog.On("GetProject", ctx, "biz1", "p9").Return(nil, repository.ErrNotFound)

		_, err := f.svc.Create(ctx, owner, quote.CreateRequest{ProjectID: "p9"})
		require.ErrorIs(t, err, errkind.ErrNotFound)
	})
}

func TestQuoteService_CreateForbidden(t *testing.T) {
	ctx := context.Background()
	f := newFixture(ctx)
	viewer := access.Actor{ID: "viewer", BusinessID: "biz1"}
	f.checker.On("HasAdminCapability", ctx, viewer.ID, viewer.BusinessID).Return(false, nil)

	_, err := f.svc.Create(ctx, viewer, quote.CreateRequest{ProjectID: "p1"})
	require.ErrorIs(t, err, errkind.ErrForbidden)
	f.catalog.AssertNotCalled(t, "GetProject", mock.Anything, mock.Anything, mock.Anything)
}

func TestQuoteService_NumberAssignedOnceOnFirstExitFromDraft(t *testing.T) {
	ctx := context.Background()
	f := newFixture(ctx)

	draft := &quote.Quote{ID: "q1", ProjectID: "p1", BusinessID: "biz1", Status: quote.StatusDraft, Version: 1}
	f.quotes.On("Get", ctx, "biz1", "q1").Return(draft, nil).Once()
	f.quotes.On("Update", ctx, mock.AnythingOfType("*quote.Quote"), int64(1)).Return(nil).Once()
	f.numberer.On("NextNumber", ctx, "biz1", document.KindQuote).Return("DEV-2026-0001", nil).Once()

	sent, err := f.svc.Transition(ctx, owner, quote.TransitionRequest{ID: "q1", To: quote.StatusSent})
	require.NoError(t, err)
	require.Equal(t, quote.StatusSent, sent.Status)
	require.Equal(t, "DEV-2026-0001", *sent.Number)
	require.NotNil(t, sent.IssuedAt)
	require.Equal(t, int64(2), sent.Version)
	require.Nil(t, draft.Number)

	f.quotes.On("Get", ctx, "biz1", "q1").Return(sent, nil).Once()
	f.quotes.On("Update", ctx, mock.AnythingOfType("*quote.Quote"), int64(2)).Return(nil).Once()

	signed, err := f.svc.Transition(ctx, owner, quote.TransitionRequest{ID: "q1", To: quote.StatusSigned})
	require.NoError(t, err)
	require.Equal(t, "DEV-2026-0001", *signed.Number)
	require.NotNil(t, signed.SignedAt)

	f.numberer.AssertNumberOfCalls(t, "NextNumber", 1)
}

func TestQuoteService_CancelRequiresReason(t *testing.T) {
	ctx := context.Background()
	f := newFixture(ctx)

	number := "DEV-2026-0002"
	sent := &quote.Quote{ID: "q1", BusinessID: "biz1", Status: quote.StatusSent, Number: &number, Version: 3}
	f.quotes.On("Get", ctx, "biz1", "q1").Return(sent, nil).Twice()

	_, err := f.svc.Transition(ctx, owner, quote.TransitionRequest{ID: "q1", To: quote.StatusCancelled})
	require.ErrorIs(t, err, quote.ErrMissingReason)

	_, err = f.svc.Transition(ctx, owner, quote.TransitionRequest{ID: "q1", To: quote.StatusCancelled, Reason: strPtr("  ")})
	require.ErrorIs(t, err, quote.ErrMissingReason)
	f.quotes.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)

	f.quotes.On("Update", ctx, mock.AnythingOfType("*quote.Quote"), int64(3)).Return(nil).Once()
	f.quotes.On("Get", ctx, "biz1", "q1").Return(sent, nil).Once()
	cancelled, err := f.svc.Transition(ctx, owner, quote.TransitionRequest{ID: "q1", To: quote.StatusCancelled, Reason: strPtr("client withdrew")})
	require.NoError(t, err)
	require.Equal(t, "client withdrew", *cancelled.CancelReason)

	f.quotes.On("Get", ctx, "biz1", "q1").Return(cancelled, nil).Once()
	_, err = f.svc.Transition(ctx, owner, quote.TransitionRequest{ID: "q1", To: quote.StatusSigned})
	require.ErrorIs(t, err, errkind.ErrConflict)
	f.numberer.AssertNotCalled(t, "NextNumber", mock.Anything, mock.Anything, mock.Anything)
}

func TestQuoteService_TransitionConcurrentUpdate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(ctx)

	number := "DEV-2026-0003"
	f.quotes.On("Get", ctx, "biz1", "q1").Return(&quote.Quote{ID: "q1", BusinessID: "biz1", Status: quote.StatusSent, Number: &number, Version: 4}, nil)
	f.quotes.On("Update", ctx, mock.Anything, int64(4)).Return(repository.ErrConflict)

	_, err := f.svc.Transition(ctx, owner, quote.TransitionRequest{ID: "q1", To: quote.StatusSigned})
	require.ErrorIs(t, err, quote.ErrConcurrentUpdate)
	require.ErrorIs(t, err, errkind.ErrConflict)
}

func TestQuoteService_EditInvalidLineLeavesLinesUntouched(t *testing.T) {
	ctx := context.Background()
	f := newFixture(ctx)

	original := []document.Line{
		{ID: "l1", Label: "Design", Quantity: 1, UnitPriceCents: 1000},
		{ID: "l2", Label: "Build", Quantity: 2, UnitPriceCents: 2000},
	}
	draft := &quote.Quote{ID: "q1", BusinessID: "biz1", Status: quote.StatusDraft, Lines: original, Version: 1}
	f.quotes.On("Get", ctx, "biz1", "q1").Return(draft, nil)

	lines := append(append([]document.Line{}, original...), document.Line{Label: "Extra", Quantity: 0, UnitPriceCents: 500})
	_, err := f.svc.Edit(ctx, owner, quote.Patch{ID: "q1", Lines: lines})
	require.ErrorIs(t, err, errkind.ErrInvalidAmount)

	verrs, ok := document.AsValidationErrors(err)
	require.True(t, ok)
	require.Equal(t, 2, verrs[0].Line)

	f.quotes.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
	require.Len(t, draft.Lines, 2)
}

func TestQuoteService_EditLinesOutsideDraft(t *testing.T) {
	ctx := context.Background()

	for _, status := range []quote.Status{quote.StatusSent, quote.StatusSigned, quote.StatusExpired, quote.StatusCancelled} {
		t.Run(string(status), func(t *testing.T) {
			f := newFixture(ctx)
			f.quotes.On("Get", ctx, "biz1", "q1").Return(&quote.Quote{ID: "q1", Status: status, Version: 1}, nil)

			// invalid payload still reports the status conflict
			_, err := f.svc.Edit(ctx, owner, quote.Patch{ID: "q1", Lines: []document.Line{{Label: "", Quantity: 0}}})
			require.ErrorIs(t, err, errkind.ErrConflict)
		})
	}
}

func TestQuoteService_EditDatesWhileSent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(ctx)

	issued := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	f.quotes.On("Get", ctx, "biz1", "q1").Return(&quote.Quote{ID: "q1", Status: quote.StatusSent, IssuedAt: &issued, Version: 2}, nil)
	f.quotes.On("Update", ctx, mock.AnythingOfType("*quote.Quote"), int64(2)).Return(nil)

	expires := issued.AddDate(0, 1, 0)
	note := "valid one month"
	q, err := f.svc.Edit(ctx, owner, quote.Patch{ID: "q1", ExpiresAt: &expires, Note: &note})
	require.NoError(t, err)
	require.Equal(t, expires, *q.ExpiresAt)
	require.Equal(t, note, q.Note)

	before := issued.AddDate(0, 0, -1)
	_, err = f.svc.Edit(ctx, owner, quote.Patch{ID: "q1", ExpiresAt: &before})
	require.ErrorIs(t, err, errkind.ErrInvalidInput)
}

func TestQuoteService_DeleteSignedWithInvoices(t *testing.T) {
	ctx := context.Background()
	f := newFixture(ctx)

	f.quotes.On("Get", ctx, "biz1", "q1").Return(&quote.Quote{ID: "q1", Status: quote.StatusSigned}, nil)
	f.invoices.On("CountBySourceQuote", ctx, "biz1", "q1").Return(2, nil)

	err := f.svc.Delete(ctx, owner, "q1")
	require.ErrorIs(t, err, quote.ErrHasInvoices)
	f.quotes.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything, mock.Anything)
}

func TestQuoteService_DeleteUnlinksReference(t *testing.T) {
	ctx := context.Background()
	f := newFixture(ctx)

	f.quotes.On("Get", ctx, "biz1", "q1").Return(&quote.Quote{ID: "q1", ProjectID: "p1", Status: quote.StatusSigned}, nil)
	f.invoices.On("CountBySourceQuote", ctx, "biz1", "q1").Return(0, nil)
	f.catalog.On("UnlinkReferenceQuote", ctx, "biz1", "q1").Return(nil)
	f.quotes.On("Delete", ctx, "biz1", "q1").Return(nil)

	require.NoError(t, f.svc.Delete(ctx, owner, "q1"))
	f.catalog.AssertExpectations(t)
	f.quotes.AssertExpectations(t)
}

func TestValidateTransitionTable(t *testing.T) {
	all := []quote.Status{quote.StatusDraft, quote.StatusSent, quote.StatusSigned, quote.StatusExpired, quote.StatusCancelled}
	allowed := map[quote.Status][]quote.Status{
		quote.StatusDraft: {quote.StatusSent, quote.StatusCancelled},
		quote.StatusSent:  {quote.StatusSigned, quote.StatusExpired, quote.StatusCancelled},
	}
	reason := "r"

	for _, from := range all {
		for _, to := range all {
			want := false
			for _, s := range allowed[from] {
				if s == to {
					want = true
				}
			}
			err := quote.ValidateTransition(from, to, &reason)
			if want {
				require.NoError(t, err, "%s -> %s", from, to)
			} else {
				require.ErrorIs(t, err, quote.ErrInvalidTransition, "%s -> %s", from, to)
			}
		}
		require.Equal(t, len(allowed[from]) == 0, from.Terminal())
	}
}

func TestQuoteService_DuplicateWritesAreTyped(t *testing.T) {
	ctx := context.Background()
	f := newFixture(ctx)

	f.quotes.On("Get", ctx, "biz1", "q1").Return(&quote.Quote{ID: "q1", Status: quote.StatusDraft, Version: 1}, nil)
	f.quotes.On("Update", ctx, mock.AnythingOfType("*quote.Quote"), int64(1)).Return(repository.ErrDuplicate)

	_, err := f.svc.Edit(ctx, owner, quote.Patch{ID: "q1", Lines: []document.Line{
		{ID: "x", Label: "Design", Quantity: 1, UnitPriceCents: 100},
	}})
	require.ErrorIs(t, err, quote.ErrDuplicate)
	require.Equal(t, errkind.ErrConflict, errkind.Of(err))

	f.catalog.On("GetProject", ctx, "biz1", "p1").Return(&project.Project{ID: "p1", BusinessID: "biz1"}, nil)
	f.catalog.On("ListServices", ctx, "biz1", "p1").Return([]project.ProjectService{
		{ID: "s1", Label: "Design", Quantity: 1, UnitPriceCents: price(100)},
	}, nil)
	f.quotes.On("Create", ctx, mock.AnythingOfType("*quote.Quote")).Return(repository.ErrDuplicate)

	_, err = f.svc.Create(ctx, owner, quote.CreateRequest{ProjectID: "p1"})
	require.ErrorIs(t, err, quote.ErrDuplicate)
}
