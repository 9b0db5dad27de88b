package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/rpggio/probill/internal/config"
)

// cli holds what every subcommand needs once the root command has run.
type cli struct {
	cfg     config.Config
	logger  *slog.Logger
	closers []io.Closer

	// transport overrides the configured transport mode when set.
	transport string
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	var configPath string

	root := &cobra.Command{
		Use:   "probill",
		Short: "Project billing server: quotes, invoices, staged and recurring billing",
		Long: `probill serves project billing over MCP.

Without a subcommand it runs the server, the same as "probill serve".`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if configPath != "" {
				if err := os.Setenv("PROBILL_CONFIG_PATH", configPath); err != nil {
					return err
				}
			}
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("config error: %w", err)
			}
			if c.transport != "" {
				cfg.Transport.Mode = c.transport
				if err := cfg.Validate(); err != nil {
					return fmt.Errorf("config error: %w", err)
				}
			}
			c.cfg = cfg
			return c.initLogger(cmd)
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			for _, cl := range c.closers {
				_ = cl.Close()
			}
		},
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file (overrides PROBILL_CONFIG_PATH)")

	serve := newServeCmd(c)
	root.RunE = serve.RunE
	root.Flags().AddFlagSet(serve.Flags())

	root.AddCommand(serve)
	root.AddCommand(newMigrateCmd(c))
	root.AddCommand(newRecurringCmd(c))
	root.AddCommand(newBusinessCmd(c))
	root.AddCommand(newAPIKeyCmd(c))
	return root
}

// initLogger builds the slog logger. Logs go to stderr except for the HTTP
// server, so stdout stays free for stdio JSON-RPC and command output.
func (c *cli) initLogger(cmd *cobra.Command) error {
	logWriter := cmd.ErrOrStderr()
	if isServe(cmd) && c.cfg.Transport.Mode == "http" {
		logWriter = cmd.OutOrStdout()
	}
	if logPath := os.Getenv("PROBILL_LOG_PATH"); logPath != "" {
		fileWriter, err := newLogFileWriter(logPath)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "log file error: %v\n", err)
		} else {
			c.closers = append(c.closers, fileWriter)
			logWriter = fileWriter
		}
	}
	c.logger = slog.New(slog.NewTextHandler(logWriter, &slog.HandlerOptions{
		Level: parseLogLevel(c.cfg.Log.Level),
	}))
	return nil
}

func isServe(cmd *cobra.Command) bool {
	return cmd.Name() == "serve" || !cmd.HasParent()
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
