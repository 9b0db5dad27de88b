package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rpggio/probill/internal/domain/recurring"
	"github.com/rpggio/probill/internal/repository"
)

// CursorRepository implements recurring.CursorRepository for SQLite
type CursorRepository struct {
	db *DB
}

// NewCursorRepository creates a new CursorRepository
func NewCursorRepository(db *DB) *CursorRepository {
	return &CursorRepository{db: db}
}

// Get returns the cursor of a recurring service
func (r *CursorRepository) Get(ctx context.Context, businessID, projectServiceID string) (*recurring.Cursor, error) {
	var c recurring.Cursor
	err := r.db.conn(ctx).QueryRowContext(ctx, `
		SELECT project_service_id, business_id, last_period_key, updated_at
		FROM recurring_cursors
		WHERE project_service_id = ? AND business_id = ?
	`, projectServiceID, businessID).Scan(
		&c.ProjectServiceID,
		&c.BusinessID,
		&c.LastGeneratedPeriodKey,
		&c.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get recurring cursor: %w", err)
	}
	return &c, nil
}

// Upsert creates or advances a cursor
func (r *CursorRepository) Upsert(ctx context.Context, c *recurring.Cursor) error {
	_, err := r.db.conn(ctx).ExecContext(ctx, `
		INSERT INTO recurring_cursors (project_service_id, business_id, last_period_key, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(project_service_id) DO UPDATE SET
			last_period_key = excluded.last_period_key,
			updated_at = excluded.updated_at
	`, c.ProjectServiceID, c.BusinessID, c.LastGeneratedPeriodKey, c.UpdatedAt)
	if err != nil {
		return mapWriteError(err, "upsert recurring cursor")
	}
	return nil
}
