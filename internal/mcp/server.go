package mcp

import (
	"context"
	"log/slog"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/rpggio/probill/internal/domain/access"
	"github.com/rpggio/probill/internal/domain/activity"
	"github.com/rpggio/probill/internal/domain/invoice"
	"github.com/rpggio/probill/internal/domain/project"
	"github.com/rpggio/probill/internal/domain/quote"
	"github.com/rpggio/probill/internal/domain/reference"
	"github.com/rpggio/probill/internal/domain/staged"
	"github.com/rpggio/probill/internal/metrics"
)

// ProjectService defines project catalog operations needed by MCP.
type ProjectService interface {
	Create(ctx context.Context, actor access.Actor, req project.CreateRequest) (*project.Project, error)
	Get(ctx context.Context, businessID, id string) (*project.Project, error)
	List(ctx context.Context, businessID string) ([]project.ProjectSummary, error)
	ListServices(ctx context.Context, businessID, projectID string) ([]project.ProjectService, error)
	AddService(ctx context.Context, actor access.Actor, req project.ServiceRequest) (*project.ProjectService, error)
	UpdateService(ctx context.Context, actor access.Actor, req project.ServiceRequest) (*project.ProjectService, error)
}

// QuoteService defines quote operations needed by MCP.
type QuoteService interface {
	Create(ctx context.Context, actor access.Actor, req quote.CreateRequest) (*quote.Quote, error)
	Transition(ctx context.Context, actor access.Actor, req quote.TransitionRequest) (*quote.Quote, error)
	Edit(ctx context.Context, actor access.Actor, patch quote.Patch) (*quote.Quote, error)
	Delete(ctx context.Context, actor access.Actor, id string) error
	Get(ctx context.Context, businessID, id string) (*quote.Quote, error)
	List(ctx context.Context, businessID, projectID string) ([]quote.Quote, error)
}

// InvoiceService defines invoice operations needed by MCP.
type InvoiceService interface {
	CreateFromQuote(ctx context.Context, actor access.Actor, quoteID string) (*invoice.Invoice, error)
	CreateStandalone(ctx context.Context, actor access.Actor, req invoice.StandaloneRequest) (*invoice.Invoice, error)
	Transition(ctx context.Context, actor access.Actor, req invoice.TransitionRequest) (*invoice.Invoice, error)
	Edit(ctx context.Context, actor access.Actor, patch invoice.Patch) (*invoice.Invoice, error)
	Delete(ctx context.Context, actor access.Actor, id string) error
	Get(ctx context.Context, businessID, id string) (*invoice.Invoice, error)
	List(ctx context.Context, businessID, projectID string) ([]invoice.Invoice, error)
}

// StagedService defines staged invoicing operations needed by MCP.
type StagedService interface {
	Preview(ctx context.Context, actor access.Actor, req staged.Request) (*staged.Plan, error)
	Create(ctx context.Context, actor access.Actor, req staged.Request) (*invoice.Invoice, error)
}

// RecurringService defines recurring billing operations needed by MCP.
type RecurringService interface {
	Generate(ctx context.Context, actor access.Actor, projectServiceID, periodKey string) (*invoice.Invoice, error)
}

// ReferenceService defines reference quote and summary operations needed by MCP.
type ReferenceService interface {
	SetReferenceQuote(ctx context.Context, actor access.Actor, projectID, quoteID string) error
	ClearReferenceQuote(ctx context.Context, actor access.Actor, projectID string) error
	Summary(ctx context.Context, businessID, projectID string) (*reference.Summary, error)
}

// ActivityService defines activity operations needed by MCP.
type ActivityService interface {
	GetRecentActivity(ctx context.Context, businessID string, opts activity.ListOptions) ([]activity.Entry, error)
}

// Services contains all domain services needed by MCP.
type Services struct {
	Projects  ProjectService
	Quotes    QuoteService
	Invoices  InvoiceService
	Staged    StagedService
	Recurring RecurringService
	Reference ReferenceService
	Activity  ActivityService
}

// Config contains server configuration.
type Config struct {
	Services      Services
	Resolver      ActorResolver
	AuthEnabled   bool
	TransportMode string // "stdio" or "http"
	// DefaultActor is used when auth is disabled.
	DefaultActor access.Actor
	Metrics      *metrics.Metrics
	Logger       *slog.Logger
	Version      string
}

// NewServer creates and configures an MCP server with all tools and middleware.
func NewServer(cfg Config) *sdkmcp.Server {
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	if cfg.Version == "" {
		cfg.Version = "0.1.0"
	}

	server := sdkmcp.NewServer(&sdkmcp.Implementation{
		Name:    "probill",
		Version: cfg.Version,
	}, &sdkmcp.ServerOptions{
		Instructions: serverInstructions,
		Logger:       cfg.Logger,
	})

	registerDocResources(server)

	// Stdio is local only, so it always runs as the default actor.
	if cfg.TransportMode != "stdio" && cfg.AuthEnabled {
		server.AddReceivingMiddleware(authMiddleware(cfg.Resolver))
	} else {
		server.AddReceivingMiddleware(noAuthMiddleware(cfg.DefaultActor))
	}
	server.AddReceivingMiddleware(trafficLoggingMiddleware(cfg.Logger, "inbound"))
	server.AddSendingMiddleware(trafficLoggingMiddleware(cfg.Logger, "outbound"))

	registerTools(server, toolDeps{
		services: cfg.Services,
		metrics:  cfg.Metrics,
		logger:   cfg.Logger,
	})

	return server
}
