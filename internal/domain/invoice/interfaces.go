package invoice

import (
	"context"

	"github.com/rpggio/probill/internal/domain/activity"
	"github.com/rpggio/probill/internal/domain/project"
	"github.com/rpggio/probill/internal/domain/quote"
)

// Repository provides persistence for invoices and their lines.
type Repository interface {
	Create(ctx context.Context, inv *Invoice) error
	Get(ctx context.Context, businessID, id string) (*Invoice, error)
	List(ctx context.Context, businessID, projectID string) ([]Invoice, error)
	Update(ctx context.Context, inv *Invoice, expectedVersion int64) error
	Delete(ctx context.Context, businessID, id string) error
	CountBySourceQuote(ctx context.Context, businessID, quoteID string) (int, error)
	InvoicedTotal(ctx context.Context, businessID, projectID string) (int64, error)
}

// QuoteReader loads the quote an invoice is created from.
type QuoteReader interface {
	Get(ctx context.Context, businessID, id string) (*quote.Quote, error)
}

// ProjectReader checks that a project belongs to the business.
type ProjectReader interface {
	GetProject(ctx context.Context, businessID, projectID string) (*project.Project, error)
}

// ActivityRepository logs invoice activities.
type ActivityRepository interface {
	Log(ctx context.Context, businessID string, entry *activity.Entry) error
}
