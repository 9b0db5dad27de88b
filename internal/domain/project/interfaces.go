package project

import "context"

// Catalog is the read side of the project catalog used by billing.
type Catalog interface {
	GetProject(ctx context.Context, businessID, projectID string) (*Project, error)
	ListServices(ctx context.Context, businessID, projectID string) ([]ProjectService, error)
	GetService(ctx context.Context, businessID, serviceID string) (*ProjectService, error)
	ListRecurringServices(ctx context.Context) ([]ProjectService, error)
	SetReferenceQuote(ctx context.Context, businessID, projectID string, quoteID *string) error
	UnlinkReferenceQuote(ctx context.Context, businessID, quoteID string) error
}

// Repository provides persistence for projects and their services.
type Repository interface {
	Catalog
	Create(ctx context.Context, proj *Project) error
	List(ctx context.Context, businessID string) ([]ProjectSummary, error)
	AddService(ctx context.Context, svc *ProjectService) error
	UpdateService(ctx context.Context, svc *ProjectService) error
}
