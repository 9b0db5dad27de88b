package quote

import (
	"context"

	"github.com/rpggio/probill/internal/domain/activity"
	"github.com/rpggio/probill/internal/domain/project"
)

// Repository provides persistence for quotes and their lines.
type Repository interface {
	Create(ctx context.Context, q *Quote) error
	Get(ctx context.Context, businessID, id string) (*Quote, error)
	List(ctx context.Context, businessID, projectID string) ([]Quote, error)
	Update(ctx context.Context, q *Quote, expectedVersion int64) error
	Delete(ctx context.Context, businessID, id string) error
}

// InvoiceCounter reports how many invoices were created from a quote.
type InvoiceCounter interface {
	CountBySourceQuote(ctx context.Context, businessID, quoteID string) (int, error)
}

// Catalog is the part of the project catalog quotes depend on.
type Catalog interface {
	GetProject(ctx context.Context, businessID, projectID string) (*project.Project, error)
	ListServices(ctx context.Context, businessID, projectID string) ([]project.ProjectService, error)
	UnlinkReferenceQuote(ctx context.Context, businessID, quoteID string) error
}

// ActivityRepository logs quote activities.
type ActivityRepository interface {
	Log(ctx context.Context, businessID string, entry *activity.Entry) error
}
