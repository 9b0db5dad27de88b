package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

// Config defines server configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	DB        DBConfig        `yaml:"db"`
	Log       LogConfig       `yaml:"log"`
	Transport TransportConfig `yaml:"transport"`
	Auth      AuthConfig      `yaml:"auth"`
	Billing   BillingConfig   `yaml:"billing"`
	Recurring RecurringConfig `yaml:"recurring"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type DBConfig struct {
	Path string `yaml:"path"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

type TransportConfig struct {
	// Mode is "stdio" or "http".
	Mode string `yaml:"mode"`
}

type AuthConfig struct {
	Enabled bool `yaml:"enabled"`
	// Business and actor used when auth is off, and always over stdio.
	DefaultBusinessID string `yaml:"default_business_id"`
	DefaultActorID    string `yaml:"default_actor_id"`
}

type BillingConfig struct {
	QuotePrefix      string `yaml:"quote_prefix"`
	InvoicePrefix    string `yaml:"invoice_prefix"`
	PaymentTermsDays int    `yaml:"payment_terms_days"`
	LabelMaxLength   int    `yaml:"label_max_length"`
}

type RecurringConfig struct {
	Enabled bool `yaml:"enabled"`
	// Schedule is a five-field cron spec, evaluated in UTC.
	Schedule string `yaml:"schedule"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		DB: DBConfig{
			Path: "probill.db",
		},
		Log: LogConfig{
			Level: "info",
		},
		Transport: TransportConfig{
			Mode: "stdio",
		},
		Auth: AuthConfig{
			Enabled:           true,
			DefaultBusinessID: "default",
			DefaultActorID:    "owner",
		},
		Billing: BillingConfig{
			QuotePrefix:      "DEV",
			InvoicePrefix:    "FAC",
			PaymentTermsDays: 30,
			LabelMaxLength:   255,
		},
		Recurring: RecurringConfig{
			Enabled:  true,
			Schedule: "0 2 1 * *",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
	}
}

// Load reads configuration from an optional YAML file and environment variables,
// then validates it.
func Load() (Config, error) {
	cfg := Default()

	if path := os.Getenv("PROBILL_CONFIG_PATH"); path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	if host := os.Getenv("PROBILL_SERVER_HOST"); host != "" {
		cfg.Server.Host = host
	}
	if portStr := os.Getenv("PROBILL_SERVER_PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return fmt.Errorf("invalid PROBILL_SERVER_PORT: %w", err)
		}
		cfg.Server.Port = port
	}
	if dbPath := os.Getenv("PROBILL_DB_PATH"); dbPath != "" {
		cfg.DB.Path = dbPath
	}
	if level := os.Getenv("PROBILL_LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}
	if mode := os.Getenv("PROBILL_TRANSPORT"); mode != "" {
		cfg.Transport.Mode = mode
	}
	if err := envBool("PROBILL_AUTH_ENABLED", &cfg.Auth.Enabled); err != nil {
		return err
	}
	if schedule := os.Getenv("PROBILL_RECURRING_SCHEDULE"); schedule != "" {
		cfg.Recurring.Schedule = schedule
	}
	if err := envBool("PROBILL_RECURRING_ENABLED", &cfg.Recurring.Enabled); err != nil {
		return err
	}
	return envBool("PROBILL_METRICS_ENABLED", &cfg.Metrics.Enabled)
}

func envBool(name string, dst *bool) error {
	v := os.Getenv(name)
	if v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", name, err)
	}
	*dst = b
	return nil
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var errs []error

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	if strings.TrimSpace(c.DB.Path) == "" {
		errs = append(errs, errors.New("db.path is required"))
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level %q must be debug, info, warn or error", c.Log.Level))
	}
	switch c.Transport.Mode {
	case "stdio", "http":
	default:
		errs = append(errs, fmt.Errorf("transport.mode %q must be stdio or http", c.Transport.Mode))
	}
	if !c.Auth.Enabled || c.Transport.Mode == "stdio" {
		if c.Auth.DefaultBusinessID == "" || c.Auth.DefaultActorID == "" {
			errs = append(errs, errors.New("auth.default_business_id and auth.default_actor_id are required without auth"))
		}
	}
	if !validPrefix(c.Billing.QuotePrefix) {
		errs = append(errs, fmt.Errorf("billing.quote_prefix %q must be 1-10 letters or digits", c.Billing.QuotePrefix))
	}
	if !validPrefix(c.Billing.InvoicePrefix) {
		errs = append(errs, fmt.Errorf("billing.invoice_prefix %q must be 1-10 letters or digits", c.Billing.InvoicePrefix))
	}
	if c.Billing.QuotePrefix == c.Billing.InvoicePrefix {
		errs = append(errs, errors.New("billing.quote_prefix and billing.invoice_prefix must differ"))
	}
	if c.Billing.PaymentTermsDays < 0 {
		errs = append(errs, errors.New("billing.payment_terms_days must not be negative"))
	}
	if c.Billing.LabelMaxLength < 1 {
		errs = append(errs, errors.New("billing.label_max_length must be positive"))
	}
	if c.Recurring.Enabled {
		if _, err := cron.ParseStandard(c.Recurring.Schedule); err != nil {
			errs = append(errs, fmt.Errorf("recurring.schedule %q: %w", c.Recurring.Schedule, err))
		}
	}
	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		errs = append(errs, fmt.Errorf("metrics.path %q must start with /", c.Metrics.Path))
	}

	return errors.Join(errs...)
}

func validPrefix(p string) bool {
	if len(p) == 0 || len(p) > 10 {
		return false
	}
	for _, r := range p {
		if !(r >= 'A' && r <= 'Z' || r >= 'a' && r <= 'z' || r >= '0' && r <= '9') {
			return false
		}
	}
	return true
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}
