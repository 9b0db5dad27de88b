package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/rpggio/probill/internal/domain/document"
)

// replaceLines swaps the full line set of a document. Callers run it inside
// the transaction that writes the document row.
func replaceLines(ctx context.Context, ex executor, kind document.Kind, documentID string, lines []document.Line) error {
	if _, err := ex.ExecContext(ctx,
		`DELETE FROM document_lines WHERE document_kind = ? AND document_id = ?`,
		kind, documentID,
	); err != nil {
		return fmt.Errorf("failed to clear document lines: %w", err)
	}

	query := `
		INSERT INTO document_lines (
			id, document_kind, document_id, position, label, description,
			quantity, unit_price_cents, service_ref, product_ref
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	for i, l := range lines {
		if _, err := ex.ExecContext(ctx, query,
			l.ID,
			kind,
			documentID,
			i,
			l.Label,
			l.Description,
			l.Quantity,
			l.UnitPriceCents,
			l.ServiceRef,
			l.ProductRef,
		); err != nil {
			return mapWriteError(err, "insert document line")
		}
	}
	return nil
}

func deleteLines(ctx context.Context, ex executor, kind document.Kind, documentID string) error {
	_, err := ex.ExecContext(ctx,
		`DELETE FROM document_lines WHERE document_kind = ? AND document_id = ?`,
		kind, documentID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete document lines: %w", err)
	}
	return nil
}

// loadLines returns the lines of the given documents keyed by document ID,
// in position order.
func loadLines(ctx context.Context, ex executor, kind document.Kind, documentIDs ...string) (map[string][]document.Line, error) {
	out := make(map[string][]document.Line, len(documentIDs))
	if len(documentIDs) == 0 {
		return out, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(documentIDs)), ",")
	query := `
		SELECT document_id, id, label, description, quantity, unit_price_cents, service_ref, product_ref
		FROM document_lines
		WHERE document_kind = ? AND document_id IN (` + placeholders + `)
		ORDER BY document_id, position
	`

	args := make([]any, 0, len(documentIDs)+1)
	args = append(args, kind)
	for _, id := range documentIDs {
		args = append(args, id)
	}

	rows, err := ex.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to load document lines: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var docID string
		var l document.Line
		if err := rows.Scan(
			&docID,
			&l.ID,
			&l.Label,
			&l.Description,
			&l.Quantity,
			&l.UnitPriceCents,
			&l.ServiceRef,
			&l.ProductRef,
		); err != nil {
			return nil, fmt.Errorf("failed to scan document line: %w", err)
		}
		out[docID] = append(out[docID], l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating document lines: %w", err)
	}
	return out, nil
}
