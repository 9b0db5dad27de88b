package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rpggio/probill/internal/domain/document"
	"github.com/rpggio/probill/internal/domain/invoice"
	"github.com/rpggio/probill/internal/domain/quote"
	"github.com/rpggio/probill/internal/repository"
)

func newDraftInvoice(id, businessID, projectID string, origin invoice.Origin, lines ...document.Line) *invoice.Invoice {
	now := time.Now().UTC()
	return &invoice.Invoice{
		ID:         id,
		BusinessID: businessID,
		ProjectID:  projectID,
		Status:     invoice.StatusDraft,
		Origin:     origin,
		Lines:      document.Prepare(lines),
		Version:    1,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func TestInvoiceRepository_CreateGetProductRef(t *testing.T) {
	db := NewTestDB(t)
	seedBusiness(t, db, "b1", "owner")
	insertProject(t, db, "p1", "b1")
	repo := NewInvoiceRepository(db)
	ctx := context.Background()

	sku := "SKU-42"
	inv := newDraftInvoice("i1", "b1", "p1", invoice.OriginManual,
		document.Line{Label: "Licence", Quantity: 3, UnitPriceCents: 1500, ProductRef: &sku},
	)
	require.NoError(t, repo.Create(ctx, inv))

	got, err := repo.Get(ctx, "b1", "i1")
	require.NoError(t, err)
	require.Equal(t, invoice.OriginManual, got.Origin)
	require.Nil(t, got.SourceQuoteID)
	require.Len(t, got.Lines, 1)
	require.Equal(t, sku, *got.Lines[0].ProductRef)
	require.Equal(t, int64(4500), got.TotalCents())
}

func TestInvoiceRepository_SourceQuote(t *testing.T) {
	db := NewTestDB(t)
	seedBusiness(t, db, "b1", "owner")
	insertProject(t, db, "p1", "b1")
	quotes := NewQuoteRepository(db)
	repo := NewInvoiceRepository(db)
	ctx := context.Background()

	require.NoError(t, quotes.Create(ctx, newDraftQuote("q1", "b1", "p1")))

	for _, id := range []string{"i1", "i2"} {
		inv := newDraftInvoice(id, "b1", "p1", invoice.OriginQuote, document.Line{Label: "A", Quantity: 1, UnitPriceCents: 10})
		quoteID := "q1"
		inv.SourceQuoteID = &quoteID
		require.NoError(t, repo.Create(ctx, inv))
	}

	n, err := repo.CountBySourceQuote(ctx, "b1", "q1")
	require.NoError(t, err)
	require.Equal(t, 2, n)

	// referenced quotes cannot be removed from under their invoices
	err = quotes.Delete(ctx, "b1", "q1")
	require.ErrorIs(t, err, repository.ErrForeignKeyViolation)
	_, err = quotes.Get(ctx, "b1", "q1")
	require.NoError(t, err)

	dangling := newDraftInvoice("i3", "b1", "p1", invoice.OriginQuote)
	ghost := "ghost"
	dangling.SourceQuoteID = &ghost
	require.ErrorIs(t, repo.Create(ctx, dangling), repository.ErrForeignKeyViolation)
	_, err = repo.Get(ctx, "b1", "i3")
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestInvoiceRepository_InvoicedTotalSkipsCancelled(t *testing.T) {
	db := NewTestDB(t)
	seedBusiness(t, db, "b1", "owner")
	insertProject(t, db, "p1", "b1")
	insertProject(t, db, "p2", "b1")
	repo := NewInvoiceRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newDraftInvoice("i1", "b1", "p1", invoice.OriginStaged,
		document.Line{Label: "Deposit", Quantity: 1, UnitPriceCents: 30000})))
	require.NoError(t, repo.Create(ctx, newDraftInvoice("i2", "b1", "p1", invoice.OriginManual,
		document.Line{Label: "Extra", Quantity: 2, UnitPriceCents: 500},
		document.Line{Label: "Extra 2", Quantity: 1, UnitPriceCents: 1000})))
	require.NoError(t, repo.Create(ctx, newDraftInvoice("i3", "b1", "p2", invoice.OriginManual,
		document.Line{Label: "Other project", Quantity: 1, UnitPriceCents: 99999})))

	total, err := repo.InvoicedTotal(ctx, "b1", "p1")
	require.NoError(t, err)
	require.Equal(t, int64(32000), total)

	inv, err := repo.Get(ctx, "b1", "i2")
	require.NoError(t, err)
	number := "FAC-2025-0001"
	inv.Status, inv.Number, inv.Version = invoice.StatusCancelled, &number, 2
	require.NoError(t, repo.Update(ctx, inv, 1))

	total, err = repo.InvoicedTotal(ctx, "b1", "p1")
	require.NoError(t, err)
	require.Equal(t, int64(30000), total)

	empty, err := repo.InvoicedTotal(ctx, "b1", "none")
	require.NoError(t, err)
	require.Zero(t, empty)
}

func TestInvoiceRepository_UpdateListDelete(t *testing.T) {
	db := NewTestDB(t)
	seedBusiness(t, db, "b1", "owner")
	insertProject(t, db, "p1", "b1")
	repo := NewInvoiceRepository(db)
	ctx := context.Background()

	inv := newDraftInvoice("i1", "b1", "p1", invoice.OriginManual, document.Line{Label: "A", Quantity: 1, UnitPriceCents: 10})
	require.NoError(t, repo.Create(ctx, inv))

	number := "FAC-2025-0001"
	issued := time.Date(2025, 5, 2, 0, 0, 0, 0, time.UTC)
	due := issued.AddDate(0, 0, 30)
	inv.Status, inv.Number, inv.IssuedAt, inv.DueAt, inv.Version = invoice.StatusSent, &number, &issued, &due, 2
	require.NoError(t, repo.Update(ctx, inv, 1))
	require.ErrorIs(t, repo.Update(ctx, inv, 1), repository.ErrConflict)

	list, err := repo.List(ctx, "b1", "p1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, invoice.StatusSent, list[0].Status)
	require.True(t, due.Equal(*list[0].DueAt))
	require.Len(t, list[0].Lines, 1)

	require.NoError(t, repo.Delete(ctx, "b1", "i1"))
	require.ErrorIs(t, repo.Delete(ctx, "b1", "i1"), repository.ErrNotFound)
}

var _ quote.Repository = (*QuoteRepository)(nil)
var _ invoice.Repository = (*InvoiceRepository)(nil)
