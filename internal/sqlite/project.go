package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/rpggio/probill/internal/domain/project"
	"github.com/rpggio/probill/internal/repository"
)

// ProjectRepository implements project.Repository for SQLite
type ProjectRepository struct {
	db *DB
}

// NewProjectRepository creates a new ProjectRepository
func NewProjectRepository(db *DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

// Create creates a new project
func (r *ProjectRepository) Create(ctx context.Context, proj *project.Project) error {
	query := `
		INSERT INTO projects (id, business_id, name, description, deposit_percent, reference_quote_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.conn(ctx).ExecContext(ctx, query,
		proj.ID,
		proj.BusinessID,
		proj.Name,
		proj.Description,
		proj.DepositPercent,
		proj.ReferenceQuoteID,
		proj.CreatedAt,
	)
	if err != nil {
		return mapWriteError(err, "create project")
	}

	return nil
}

// GetProject retrieves a project by ID
func (r *ProjectRepository) GetProject(ctx context.Context, businessID, id string) (*project.Project, error) {
	query := `
		SELECT id, business_id, name, description, deposit_percent, reference_quote_id, created_at
		FROM projects
		WHERE id = ? AND business_id = ?
	`

	var proj project.Project
	var deposit decimal.NullDecimal
	err := r.db.conn(ctx).QueryRowContext(ctx, query, id, businessID).Scan(
		&proj.ID,
		&proj.BusinessID,
		&proj.Name,
		&proj.Description,
		&deposit,
		&proj.ReferenceQuoteID,
		&proj.CreatedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	if deposit.Valid {
		proj.DepositPercent = &deposit.Decimal
	}

	return &proj, nil
}

// List returns all projects for a business with summary information
func (r *ProjectRepository) List(ctx context.Context, businessID string) ([]project.ProjectSummary, error) {
	query := `
		SELECT
			p.id,
			p.name,
			p.reference_quote_id,
			p.created_at,
			COUNT(s.id) AS service_count,
			COALESCE(SUM(s.quantity * s.unit_price_cents), 0) AS total_cents
		FROM projects p
		LEFT JOIN project_services s ON s.project_id = p.id AND s.business_id = p.business_id
		WHERE p.business_id = ?
		GROUP BY p.id, p.name, p.reference_quote_id, p.created_at
		ORDER BY p.created_at DESC
	`

	rows, err := r.db.conn(ctx).QueryContext(ctx, query, businessID)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	var summaries []project.ProjectSummary
	for rows.Next() {
		var summary project.ProjectSummary
		if err := rows.Scan(
			&summary.ID,
			&summary.Name,
			&summary.ReferenceQuoteID,
			&summary.CreatedAt,
			&summary.ServiceCount,
			&summary.TotalCents,
		); err != nil {
			return nil, fmt.Errorf("failed to scan project summary: %w", err)
		}
		summaries = append(summaries, summary)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating project rows: %w", err)
	}

	return summaries, nil
}

// SetReferenceQuote points the project at quoteID, or clears the reference
// when quoteID is nil.
func (r *ProjectRepository) SetReferenceQuote(ctx context.Context, businessID, projectID string, quoteID *string) error {
	result, err := r.db.conn(ctx).ExecContext(ctx, `
		UPDATE projects SET reference_quote_id = ? WHERE id = ? AND business_id = ?
	`, quoteID, projectID, businessID)
	if err != nil {
		return mapWriteError(err, "set reference quote")
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// UnlinkReferenceQuote clears the reference of any project pointing at quoteID.
func (r *ProjectRepository) UnlinkReferenceQuote(ctx context.Context, businessID, quoteID string) error {
	_, err := r.db.conn(ctx).ExecContext(ctx, `
		UPDATE projects SET reference_quote_id = NULL WHERE business_id = ? AND reference_quote_id = ?
	`, businessID, quoteID)
	if err != nil {
		return fmt.Errorf("failed to unlink reference quote: %w", err)
	}
	return nil
}

const serviceColumns = `
	id, project_id, business_id, label, description, quantity,
	unit_price_cents, recurring, created_at, updated_at`

// AddService attaches a service to a project
func (r *ProjectRepository) AddService(ctx context.Context, svc *project.ProjectService) error {
	_, err := r.db.conn(ctx).ExecContext(ctx, `
		INSERT INTO project_services (`+serviceColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		svc.ID,
		svc.ProjectID,
		svc.BusinessID,
		svc.Label,
		svc.Description,
		svc.Quantity,
		svc.UnitPriceCents,
		svc.Recurring,
		svc.CreatedAt,
		svc.UpdatedAt,
	)
	if err != nil {
		return mapWriteError(err, "add project service")
	}
	return nil
}

// UpdateService rewrites the mutable fields of a service
func (r *ProjectRepository) UpdateService(ctx context.Context, svc *project.ProjectService) error {
	result, err := r.db.conn(ctx).ExecContext(ctx, `
		UPDATE project_services
		SET label = ?, description = ?, quantity = ?, unit_price_cents = ?, recurring = ?, updated_at = ?
		WHERE id = ? AND business_id = ?
	`,
		svc.Label,
		svc.Description,
		svc.Quantity,
		svc.UnitPriceCents,
		svc.Recurring,
		svc.UpdatedAt,
		svc.ID,
		svc.BusinessID,
	)
	if err != nil {
		return mapWriteError(err, "update project service")
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// GetService retrieves a single service
func (r *ProjectRepository) GetService(ctx context.Context, businessID, serviceID string) (*project.ProjectService, error) {
	row := r.db.conn(ctx).QueryRowContext(ctx, `
		SELECT `+serviceColumns+`
		FROM project_services
		WHERE id = ? AND business_id = ?
	`, serviceID, businessID)

	svc, err := scanService(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get project service: %w", err)
	}
	return svc, nil
}

// ListServices returns the services of a project in creation order
func (r *ProjectRepository) ListServices(ctx context.Context, businessID, projectID string) ([]project.ProjectService, error) {
	return r.queryServices(ctx, `
		SELECT `+serviceColumns+`
		FROM project_services
		WHERE business_id = ? AND project_id = ?
		ORDER BY created_at, id
	`, businessID, projectID)
}

// ListRecurringServices returns every recurring service across businesses
func (r *ProjectRepository) ListRecurringServices(ctx context.Context) ([]project.ProjectService, error) {
	return r.queryServices(ctx, `
		SELECT `+serviceColumns+`
		FROM project_services
		WHERE recurring = 1
		ORDER BY business_id, created_at, id
	`)
}

func (r *ProjectRepository) queryServices(ctx context.Context, query string, args ...any) ([]project.ProjectService, error) {
	rows, err := r.db.conn(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list project services: %w", err)
	}
	defer rows.Close()

	var services []project.ProjectService
	for rows.Next() {
		svc, err := scanService(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan project service: %w", err)
		}
		services = append(services, *svc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating project service rows: %w", err)
	}
	return services, nil
}

func scanService(row rowScanner) (*project.ProjectService, error) {
	var svc project.ProjectService
	err := row.Scan(
		&svc.ID,
		&svc.ProjectID,
		&svc.BusinessID,
		&svc.Label,
		&svc.Description,
		&svc.Quantity,
		&svc.UnitPriceCents,
		&svc.Recurring,
		&svc.CreatedAt,
		&svc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &svc, nil
}
