package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rpggio/probill/internal/domain/document"
	"github.com/rpggio/probill/internal/domain/invoice"
	"github.com/rpggio/probill/internal/repository"
)

// InvoiceRepository implements invoice.Repository for SQLite
type InvoiceRepository struct {
	db *DB
}

// NewInvoiceRepository creates a new InvoiceRepository
func NewInvoiceRepository(db *DB) *InvoiceRepository {
	return &InvoiceRepository{db: db}
}

const invoiceColumns = `
	id, business_id, project_id, source_quote_id, status, number, issued_at,
	due_at, paid_at, cancel_reason, note, origin, version, created_at, updated_at`

// Create inserts an invoice and its lines
func (r *InvoiceRepository) Create(ctx context.Context, inv *invoice.Invoice) error {
	return r.db.inTx(ctx, func(ctx context.Context) error {
		ex := r.db.conn(ctx)
		_, err := ex.ExecContext(ctx, `
			INSERT INTO invoices (`+invoiceColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			inv.ID,
			inv.BusinessID,
			inv.ProjectID,
			inv.SourceQuoteID,
			inv.Status,
			inv.Number,
			inv.IssuedAt,
			inv.DueAt,
			inv.PaidAt,
			inv.CancelReason,
			inv.Note,
			inv.Origin,
			inv.Version,
			inv.CreatedAt,
			inv.UpdatedAt,
		)
		if err != nil {
			return mapWriteError(err, "create invoice")
		}
		return replaceLines(ctx, ex, document.KindInvoice, inv.ID, inv.Lines)
	})
}

// Get retrieves an invoice with its lines
func (r *InvoiceRepository) Get(ctx context.Context, businessID, id string) (*invoice.Invoice, error) {
	ex := r.db.conn(ctx)
	row := ex.QueryRowContext(ctx, `
		SELECT `+invoiceColumns+`
		FROM invoices
		WHERE id = ? AND business_id = ?
	`, id, businessID)

	inv, err := scanInvoice(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get invoice: %w", err)
	}

	lines, err := loadLines(ctx, ex, document.KindInvoice, inv.ID)
	if err != nil {
		return nil, err
	}
	inv.Lines = lines[inv.ID]
	return inv, nil
}

// List returns the invoices of a project, newest first
func (r *InvoiceRepository) List(ctx context.Context, businessID, projectID string) ([]invoice.Invoice, error) {
	ex := r.db.conn(ctx)
	rows, err := ex.QueryContext(ctx, `
		SELECT `+invoiceColumns+`
		FROM invoices
		WHERE business_id = ? AND project_id = ?
		ORDER BY created_at DESC, id
	`, businessID, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list invoices: %w", err)
	}

	var invoices []invoice.Invoice
	var ids []string
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan invoice: %w", err)
		}
		invoices = append(invoices, *inv)
		ids = append(ids, inv.ID)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("error iterating invoice rows: %w", err)
	}
	rows.Close()

	lines, err := loadLines(ctx, ex, document.KindInvoice, ids...)
	if err != nil {
		return nil, err
	}
	for i := range invoices {
		invoices[i].Lines = lines[invoices[i].ID]
	}
	return invoices, nil
}

// Update writes an invoice with optimistic concurrency control
func (r *InvoiceRepository) Update(ctx context.Context, inv *invoice.Invoice, expectedVersion int64) error {
	return r.db.inTx(ctx, func(ctx context.Context) error {
		ex := r.db.conn(ctx)
		result, err := ex.ExecContext(ctx, `
			UPDATE invoices
			SET status = ?, number = ?, issued_at = ?, due_at = ?, paid_at = ?,
			    cancel_reason = ?, note = ?, version = ?, updated_at = ?
			WHERE id = ? AND business_id = ? AND version = ?
		`,
			inv.Status,
			inv.Number,
			inv.IssuedAt,
			inv.DueAt,
			inv.PaidAt,
			inv.CancelReason,
			inv.Note,
			inv.Version,
			inv.UpdatedAt,
			inv.ID,
			inv.BusinessID,
			expectedVersion,
		)
		if err != nil {
			return mapWriteError(err, "update invoice")
		}

		if err := checkVersionedUpdate(ctx, ex, result, "invoices", inv.ID, inv.BusinessID); err != nil {
			return err
		}
		return replaceLines(ctx, ex, document.KindInvoice, inv.ID, inv.Lines)
	})
}

// Delete removes an invoice and its lines
func (r *InvoiceRepository) Delete(ctx context.Context, businessID, id string) error {
	return r.db.inTx(ctx, func(ctx context.Context) error {
		ex := r.db.conn(ctx)
		result, err := ex.ExecContext(ctx, `DELETE FROM invoices WHERE id = ? AND business_id = ?`, id, businessID)
		if err != nil {
			return mapWriteError(err, "delete invoice")
		}
		n, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if n == 0 {
			return repository.ErrNotFound
		}
		return deleteLines(ctx, ex, document.KindInvoice, id)
	})
}

// CountBySourceQuote counts the invoices created from a quote
func (r *InvoiceRepository) CountBySourceQuote(ctx context.Context, businessID, quoteID string) (int, error) {
	var n int
	err := r.db.conn(ctx).QueryRowContext(ctx, `
		SELECT COUNT(*) FROM invoices WHERE business_id = ? AND source_quote_id = ?
	`, businessID, quoteID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count invoices: %w", err)
	}
	return n, nil
}

// InvoicedTotal sums the line totals of every non-cancelled invoice of a
// project. Drafts count, so amounts being prepared are not billed twice.
func (r *InvoiceRepository) InvoicedTotal(ctx context.Context, businessID, projectID string) (int64, error) {
	var total int64
	err := r.db.conn(ctx).QueryRowContext(ctx, `
		SELECT COALESCE(SUM(l.quantity * l.unit_price_cents), 0)
		FROM invoices i
		JOIN document_lines l ON l.document_kind = 'INVOICE' AND l.document_id = i.id
		WHERE i.business_id = ? AND i.project_id = ? AND i.status != 'CANCELLED'
	`, businessID, projectID).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to sum invoiced total: %w", err)
	}
	return total, nil
}

func scanInvoice(row rowScanner) (*invoice.Invoice, error) {
	var inv invoice.Invoice
	err := row.Scan(
		&inv.ID,
		&inv.BusinessID,
		&inv.ProjectID,
		&inv.SourceQuoteID,
		&inv.Status,
		&inv.Number,
		&inv.IssuedAt,
		&inv.DueAt,
		&inv.PaidAt,
		&inv.CancelReason,
		&inv.Note,
		&inv.Origin,
		&inv.Version,
		&inv.CreatedAt,
		&inv.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &inv, nil
}
