package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/rpggio/probill/internal/app"
	"github.com/rpggio/probill/internal/config"
	"github.com/rpggio/probill/internal/scheduler"
)

var version = "0.1.0"

func newServeCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server over stdio or streamable HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := app.New(c.cfg, c.logger)
			if err != nil {
				return err
			}
			defer a.Close()
			return runServe(cmd.Context(), c, a)
		},
	}
	cmd.Flags().StringVar(&c.transport, "transport", "", `transport mode, "stdio" or "http" (overrides config)`)
	return cmd
}

func runServe(ctx context.Context, c *cli, a *app.App) error {
	cfg, logger := c.cfg, c.logger

	if !cfg.Auth.Enabled || cfg.Transport.Mode == "stdio" {
		actor := a.DefaultActor()
		if err := a.Members.EnsureBusiness(ctx, actor.BusinessID, actor.BusinessID, actor.ID); err != nil {
			return fmt.Errorf("prepare default business: %w", err)
		}
	}

	if cfg.Recurring.Enabled {
		sched := scheduler.New(a.Recurring, a.Metrics, logger)
		if err := sched.Schedule(cfg.Recurring.Schedule); err != nil {
			return err
		}
		sched.Start()
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := sched.Stop(stopCtx); err != nil {
				logger.Warn("recurring scheduler did not stop in time", "error", err)
			}
		}()
	}

	mcpServer := a.NewMCPServer(logger, version)
	if cfg.Transport.Mode == "stdio" {
		return runStdioMode(ctx, logger, mcpServer)
	}
	return runHTTPMode(ctx, logger, a.NewHTTPHandler(mcpServer, logger), cfg)
}

func runStdioMode(ctx context.Context, logger *slog.Logger, mcpServer *sdkmcp.Server) error {
	logger.Info("starting stdio transport", "auth", "disabled")

	// Run blocks until stdin closes or ctx is cancelled.
	if err := mcpServer.Run(ctx, &sdkmcp.StdioTransport{}); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("stdio server: %w", err)
	}
	logger.Info("shutting down")
	return nil
}

func runHTTPMode(ctx context.Context, logger *slog.Logger, handler http.Handler, cfg config.Config) error {
	addr := net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port))
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", addr, "auth", cfg.Auth.Enabled, "metrics", cfg.Metrics.Enabled)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	logger.Info("shutting down")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
