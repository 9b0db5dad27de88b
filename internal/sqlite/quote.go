package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rpggio/probill/internal/domain/document"
	"github.com/rpggio/probill/internal/domain/quote"
	"github.com/rpggio/probill/internal/repository"
)

// QuoteRepository implements quote.Repository for SQLite
type QuoteRepository struct {
	db *DB
}

// NewQuoteRepository creates a new QuoteRepository
func NewQuoteRepository(db *DB) *QuoteRepository {
	return &QuoteRepository{db: db}
}

const quoteColumns = `
	id, business_id, project_id, status, number, issued_at, expires_at,
	signed_at, cancel_reason, note, version, created_at, updated_at`

// Create inserts a quote and its lines
func (r *QuoteRepository) Create(ctx context.Context, q *quote.Quote) error {
	return r.db.inTx(ctx, func(ctx context.Context) error {
		ex := r.db.conn(ctx)
		_, err := ex.ExecContext(ctx, `
			INSERT INTO quotes (`+quoteColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			q.ID,
			q.BusinessID,
			q.ProjectID,
			q.Status,
			q.Number,
			q.IssuedAt,
			q.ExpiresAt,
			q.SignedAt,
			q.CancelReason,
			q.Note,
			q.Version,
			q.CreatedAt,
			q.UpdatedAt,
		)
		if err != nil {
			return mapWriteError(err, "create quote")
		}
		return replaceLines(ctx, ex, document.KindQuote, q.ID, q.Lines)
	})
}

// Get retrieves a quote with its lines
func (r *QuoteRepository) Get(ctx context.Context, businessID, id string) (*quote.Quote, error) {
	ex := r.db.conn(ctx)
	row := ex.QueryRowContext(ctx, `
		SELECT `+quoteColumns+`
		FROM quotes
		WHERE id = ? AND business_id = ?
	`, id, businessID)

	q, err := scanQuote(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get quote: %w", err)
	}

	lines, err := loadLines(ctx, ex, document.KindQuote, q.ID)
	if err != nil {
		return nil, err
	}
	q.Lines = lines[q.ID]
	return q, nil
}

// List returns the quotes of a project, newest first
func (r *QuoteRepository) List(ctx context.Context, businessID, projectID string) ([]quote.Quote, error) {
	ex := r.db.conn(ctx)
	rows, err := ex.QueryContext(ctx, `
		SELECT `+quoteColumns+`
		FROM quotes
		WHERE business_id = ? AND project_id = ?
		ORDER BY created_at DESC, id
	`, businessID, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list quotes: %w", err)
	}

	var quotes []quote.Quote
	var ids []string
	for rows.Next() {
		q, err := scanQuote(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan quote: %w", err)
		}
		quotes = append(quotes, *q)
		ids = append(ids, q.ID)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("error iterating quote rows: %w", err)
	}
	rows.Close()

	lines, err := loadLines(ctx, ex, document.KindQuote, ids...)
	if err != nil {
		return nil, err
	}
	for i := range quotes {
		quotes[i].Lines = lines[quotes[i].ID]
	}
	return quotes, nil
}

// Update writes a quote with optimistic concurrency control
func (r *QuoteRepository) Update(ctx context.Context, q *quote.Quote, expectedVersion int64) error {
	return r.db.inTx(ctx, func(ctx context.Context) error {
		ex := r.db.conn(ctx)
		result, err := ex.ExecContext(ctx, `
			UPDATE quotes
			SET status = ?, number = ?, issued_at = ?, expires_at = ?, signed_at = ?,
			    cancel_reason = ?, note = ?, version = ?, updated_at = ?
			WHERE id = ? AND business_id = ? AND version = ?
		`,
			q.Status,
			q.Number,
			q.IssuedAt,
			q.ExpiresAt,
			q.SignedAt,
			q.CancelReason,
			q.Note,
			q.Version,
			q.UpdatedAt,
			q.ID,
			q.BusinessID,
			expectedVersion,
		)
		if err != nil {
			return mapWriteError(err, "update quote")
		}

		if err := checkVersionedUpdate(ctx, ex, result, "quotes", q.ID, q.BusinessID); err != nil {
			return err
		}
		return replaceLines(ctx, ex, document.KindQuote, q.ID, q.Lines)
	})
}

// Delete removes a quote and its lines
func (r *QuoteRepository) Delete(ctx context.Context, businessID, id string) error {
	return r.db.inTx(ctx, func(ctx context.Context) error {
		ex := r.db.conn(ctx)
		result, err := ex.ExecContext(ctx, `DELETE FROM quotes WHERE id = ? AND business_id = ?`, id, businessID)
		if err != nil {
			return mapWriteError(err, "delete quote")
		}
		n, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if n == 0 {
			return repository.ErrNotFound
		}
		return deleteLines(ctx, ex, document.KindQuote, id)
	})
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanQuote(row rowScanner) (*quote.Quote, error) {
	var q quote.Quote
	err := row.Scan(
		&q.ID,
		&q.BusinessID,
		&q.ProjectID,
		&q.Status,
		&q.Number,
		&q.IssuedAt,
		&q.ExpiresAt,
		&q.SignedAt,
		&q.CancelReason,
		&q.Note,
		&q.Version,
		&q.CreatedAt,
		&q.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &q, nil
}

// checkVersionedUpdate tells a missing row apart from a stale version when
// an optimistic update touched nothing.
func checkVersionedUpdate(ctx context.Context, ex executor, result sql.Result, table, id, businessID string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n > 0 {
		return nil
	}

	var exists int
	err = ex.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM `+table+` WHERE id = ? AND business_id = ?`, id, businessID,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check %s existence: %w", table, err)
	}
	if exists == 0 {
		return repository.ErrNotFound
	}
	return repository.ErrConflict
}
