package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		"PROBILL_CONFIG_PATH", "PROBILL_SERVER_HOST", "PROBILL_SERVER_PORT", "PROBILL_DB_PATH",
		"PROBILL_LOG_LEVEL", "PROBILL_TRANSPORT", "PROBILL_AUTH_ENABLED", "PROBILL_RECURRING_SCHEDULE",
		"PROBILL_RECURRING_ENABLED", "PROBILL_METRICS_ENABLED",
	} {
		t.Setenv(name, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
	require.Equal(t, "stdio", cfg.Transport.Mode)
	require.Equal(t, "DEV", cfg.Billing.QuotePrefix)
	require.Equal(t, "FAC", cfg.Billing.InvoicePrefix)
}

func TestLoad_FileThenEnv(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "probill.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9090
db:
  path: /var/lib/probill/billing.db
transport:
  mode: http
billing:
  quote_prefix: Q
  invoice_prefix: INV
  payment_terms_days: 45
recurring:
  schedule: "30 3 1 * *"
`), 0o644))

	t.Setenv("PROBILL_CONFIG_PATH", path)
	t.Setenv("PROBILL_SERVER_PORT", "9191")
	t.Setenv("PROBILL_METRICS_ENABLED", "false")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 9191, cfg.Server.Port)
	require.Equal(t, "/var/lib/probill/billing.db", cfg.DB.Path)
	require.Equal(t, "http", cfg.Transport.Mode)
	require.Equal(t, "Q", cfg.Billing.QuotePrefix)
	require.Equal(t, "INV", cfg.Billing.InvoicePrefix)
	require.Equal(t, 45, cfg.Billing.PaymentTermsDays)
	require.Equal(t, 255, cfg.Billing.LabelMaxLength)
	require.Equal(t, "30 3 1 * *", cfg.Recurring.Schedule)
	require.False(t, cfg.Metrics.Enabled)
}

func TestLoad_InvalidEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("PROBILL_SERVER_PORT", "eighty")
	_, err := Load()
	require.ErrorContains(t, err, "PROBILL_SERVER_PORT")

	clearEnv(t)
	t.Setenv("PROBILL_AUTH_ENABLED", "maybe")
	_, err = Load()
	require.ErrorContains(t, err, "PROBILL_AUTH_ENABLED")
}

func TestLoad_MissingFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("PROBILL_CONFIG_PATH", filepath.Join(t.TempDir(), "absent.yaml"))
	_, err := Load()
	require.ErrorContains(t, err, "read config file")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"port", func(c *Config) { c.Server.Port = 0 }, "server.port"},
		{"db path", func(c *Config) { c.DB.Path = " " }, "db.path"},
		{"log level", func(c *Config) { c.Log.Level = "verbose" }, "log.level"},
		{"transport", func(c *Config) { c.Transport.Mode = "grpc" }, "transport.mode"},
		{"default actor", func(c *Config) { c.Auth.DefaultActorID = "" }, "default_actor_id"},
		{"quote prefix", func(c *Config) { c.Billing.QuotePrefix = "DEV-" }, "billing.quote_prefix"},
		{"same prefixes", func(c *Config) { c.Billing.InvoicePrefix = "DEV" }, "must differ"},
		{"payment terms", func(c *Config) { c.Billing.PaymentTermsDays = -1 }, "payment_terms_days"},
		{"label cap", func(c *Config) { c.Billing.LabelMaxLength = 0 }, "label_max_length"},
		{"schedule", func(c *Config) { c.Recurring.Schedule = "monthly" }, "recurring.schedule"},
		{"metrics path", func(c *Config) { c.Metrics.Path = "metrics" }, "metrics.path"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			require.ErrorContains(t, cfg.Validate(), tt.errMsg)
		})
	}
}

func TestValidate_DisabledSectionsSkipped(t *testing.T) {
	cfg := Default()
	cfg.Recurring.Enabled = false
	cfg.Recurring.Schedule = ""
	cfg.Metrics.Enabled = false
	cfg.Metrics.Path = ""
	cfg.Transport.Mode = "http"
	cfg.Auth.Enabled = true
	cfg.Auth.DefaultActorID = ""
	require.NoError(t, cfg.Validate())
}
