// Package transport serves the MCP endpoint over HTTP alongside health and
// metrics endpoints.
package transport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// RouterConfig describes the HTTP surface.
type RouterConfig struct {
	// MCP serves the streamable MCP endpoint.
	MCP http.Handler
	// Metrics is mounted at MetricsPath when non-nil.
	Metrics     http.Handler
	MetricsPath string
	// RequireAuth rejects MCP requests without a bearer token.
	RequireAuth bool
	// Ping reports whether the store is reachable.
	Ping   func(ctx context.Context) error
	Logger *slog.Logger
}

// NewRouter creates the HTTP router.
func NewRouter(cfg RouterConfig) *chi.Mux {
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(RequestLogger(cfg.Logger))

	r.Get("/health", healthHandler(cfg.Ping))
	if cfg.Metrics != nil {
		path := cfg.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		r.Method(http.MethodGet, path, cfg.Metrics)
	}

	r.Group(func(r chi.Router) {
		if cfg.RequireAuth {
			r.Use(RequireBearer)
		}
		r.Handle("/mcp", cfg.MCP)
		r.Handle("/mcp/*", cfg.MCP)
	})

	return r
}

func healthHandler(ping func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ping != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := ping(ctx); err != nil {
				http.Error(w, "database unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}
}
