package recurring

import (
	"context"

	"github.com/rpggio/probill/internal/domain/access"
	"github.com/rpggio/probill/internal/domain/activity"
	"github.com/rpggio/probill/internal/domain/invoice"
	"github.com/rpggio/probill/internal/domain/project"
)

// CursorRepository persists recurring cursors.
type CursorRepository interface {
	Get(ctx context.Context, businessID, projectServiceID string) (*Cursor, error)
	Upsert(ctx context.Context, cursor *Cursor) error
}

// Catalog is the part of the project catalog recurring billing uses.
type Catalog interface {
	GetService(ctx context.Context, businessID, serviceID string) (*project.ProjectService, error)
	ListRecurringServices(ctx context.Context) ([]project.ProjectService, error)
}

// InvoiceCreator creates standalone invoices.
type InvoiceCreator interface {
	CreateStandalone(ctx context.Context, actor access.Actor, req invoice.StandaloneRequest) (*invoice.Invoice, error)
}

// ActivityRepository logs generation events.
type ActivityRepository interface {
	Log(ctx context.Context, businessID string, entry *activity.Entry) error
}
