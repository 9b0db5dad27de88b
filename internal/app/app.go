// Package app wires repositories, services and the MCP server together.
package app

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/rpggio/probill/internal/config"
	"github.com/rpggio/probill/internal/domain/access"
	"github.com/rpggio/probill/internal/domain/activity"
	"github.com/rpggio/probill/internal/domain/document"
	"github.com/rpggio/probill/internal/domain/invoice"
	"github.com/rpggio/probill/internal/domain/project"
	"github.com/rpggio/probill/internal/domain/quote"
	"github.com/rpggio/probill/internal/domain/recurring"
	"github.com/rpggio/probill/internal/domain/reference"
	"github.com/rpggio/probill/internal/domain/staged"
	"github.com/rpggio/probill/internal/mcp"
	"github.com/rpggio/probill/internal/metrics"
	"github.com/rpggio/probill/internal/sqlite"
	"github.com/rpggio/probill/internal/transport"
)

// App holds every wired repository and service.
type App struct {
	Config    config.Config
	DB        *sqlite.DB
	Members   *sqlite.MembershipRepository
	APIKeys   *sqlite.APIKeyRepository
	Services  mcp.Services
	Recurring *recurring.Service
	Metrics   *metrics.Metrics
}

// New opens the database, applies pending migrations and wires every
// repository and service.
func New(cfg config.Config, logger *slog.Logger) (*App, error) {
	if err := ensureDBDir(cfg.DB.Path); err != nil {
		return nil, fmt.Errorf("prepare database path: %w", err)
	}
	db, err := sqlite.New(cfg.DB.Path)
	if err != nil {
		return nil, err
	}
	if err := db.RunMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	members := sqlite.NewMembershipRepository(db)
	projectRepo := sqlite.NewProjectRepository(db)
	quoteRepo := sqlite.NewQuoteRepository(db)
	invoiceRepo := sqlite.NewInvoiceRepository(db)
	activityRepo := sqlite.NewActivityRepository(db)
	numberer := sqlite.NewNumberer(db, cfg.Billing.QuotePrefix, cfg.Billing.InvoicePrefix)
	tx := sqlite.NewTxManager(db.DB)
	rules := document.Rules{MaxLabelLength: cfg.Billing.LabelMaxLength}

	invoiceSvc := invoice.NewService(invoice.Deps{
		Invoices:         invoiceRepo,
		Quotes:           quoteRepo,
		Projects:         projectRepo,
		Checker:          members,
		Numberer:         numberer,
		Tx:               tx,
		Activities:       activityRepo,
		Rules:            rules,
		PaymentTermsDays: cfg.Billing.PaymentTermsDays,
	}, logger)
	quoteSvc := quote.NewService(quote.Deps{
		Quotes:     quoteRepo,
		Invoices:   invoiceRepo,
		Catalog:    projectRepo,
		Checker:    members,
		Numberer:   numberer,
		Tx:         tx,
		Activities: activityRepo,
		Rules:      rules,
	}, logger)
	referenceSvc := reference.NewService(projectRepo, quoteRepo, invoiceRepo, members, tx, activityRepo, logger)
	recurringSvc := recurring.NewService(recurring.Deps{
		Cursors:    sqlite.NewCursorRepository(db),
		Catalog:    projectRepo,
		Invoices:   invoiceSvc,
		Checker:    members,
		Owners:     members,
		Tx:         tx,
		Activities: activityRepo,
	}, logger)

	return &App{
		Config:  cfg,
		DB:      db,
		Members: members,
		APIKeys: sqlite.NewAPIKeyRepository(db),
		Services: mcp.Services{
			Projects:  project.NewService(projectRepo, members, logger),
			Quotes:    quoteSvc,
			Invoices:  invoiceSvc,
			Staged:    staged.NewService(referenceSvc, invoiceSvc, members, tx, logger),
			Recurring: recurringSvc,
			Reference: referenceSvc,
			Activity:  activity.NewService(activityRepo, logger),
		},
		Recurring: recurringSvc,
		Metrics:   metrics.New(registry),
	}, nil
}

// Close closes the database.
func (a *App) Close() error {
	return a.DB.Close()
}

// DefaultActor is the actor used when requests are not authenticated.
func (a *App) DefaultActor() access.Actor {
	return access.Actor{ID: a.Config.Auth.DefaultActorID, BusinessID: a.Config.Auth.DefaultBusinessID}
}

// NewMCPServer builds the MCP server over the wired services.
func (a *App) NewMCPServer(logger *slog.Logger, version string) *sdkmcp.Server {
	return mcp.NewServer(mcp.Config{
		Services:      a.Services,
		Resolver:      a.APIKeys,
		AuthEnabled:   a.Config.Auth.Enabled,
		TransportMode: a.Config.Transport.Mode,
		DefaultActor:  a.DefaultActor(),
		Metrics:       a.Metrics,
		Logger:        logger,
		Version:       version,
	})
}

// NewHTTPHandler serves the MCP server over streamable HTTP next to the
// health and metrics endpoints.
func (a *App) NewHTTPHandler(mcpServer *sdkmcp.Server, logger *slog.Logger) http.Handler {
	mcpHandler := sdkmcp.NewStreamableHTTPHandler(
		func(*http.Request) *sdkmcp.Server { return mcpServer },
		&sdkmcp.StreamableHTTPOptions{
			SessionTimeout: 30 * time.Minute,
		},
	)

	routerCfg := transport.RouterConfig{
		MCP:         mcpHandler,
		RequireAuth: a.Config.Auth.Enabled,
		Ping:        a.DB.PingContext,
		Logger:      logger,
	}
	if a.Config.Metrics.Enabled {
		routerCfg.Metrics = a.Metrics.Handler()
		routerCfg.MetricsPath = a.Config.Metrics.Path
	}
	return transport.NewRouter(routerCfg)
}

func ensureDBDir(path string) error {
	if path == ":memory:" || path == "" {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
