// Package config loads reconciler settings from environment variables with
// defaults, and validates them before any ledger is touched.
package config

import (
	"time"

	"ledger-reconciliation/internal/usecase"
)

// Config holds all reconciler configuration.
type Config struct {
	Reconciler ReconcilerConfig
	Database   DatabaseConfig
	Logging    LoggingConfig
}

// ReconcilerConfig holds import pipeline settings.
type ReconcilerConfig struct {
	// DryRun classifies without writing (default: true)
	DryRun bool `env:"RECONCILER_DRY_RUN" default:"true"`

	// MaxRetries is extra attempts after a transient failure (default: 3)
	MaxRetries int `env:"RECONCILER_MAX_RETRIES" default:"3"`

	// RetryDelay is the wait before each retry (default: 1s)
	RetryDelay time.Duration `env:"RECONCILER_RETRY_DELAY" default:"1s"`

	// PaceDelay is the wait between remote writes (default: 300ms)
	PaceDelay time.Duration `env:"RECONCILER_PACE_DELAY" default:"300ms"`

	StopOnDuplicate bool `env:"RECONCILER_STOP_ON_DUPLICATE" default:"false"`

	SkipDuplicateCheck bool `env:"RECONCILER_SKIP_DUPLICATE_CHECK" default:"false"`

	// DefaultCategory for REGULAR transactions; empty disables it (default: Other)
	DefaultCategory string `env:"RECONCILER_DEFAULT_CATEGORY" default:"Other"`

	// StripName drops non-alphanumerics from names before fingerprinting
	StripName bool `env:"RECONCILER_STRIP_NAME" default:"false"`

	// NamePrefix limits fingerprinted names to this many characters; 0 is no limit
	NamePrefix int `env:"RECONCILER_NAME_PREFIX" default:"0"`

	// RulesFile is an optional YAML file of categorization rules
	RulesFile string `env:"RECONCILER_RULES_FILE"`
}

// DatabaseConfig holds the PostgreSQL ledger settings. Only used when the
// ledger is backed by a database.
type DatabaseConfig struct {
	URL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	// MaxConns is the maximum number of connections in the pool (default: 4)
	MaxConns int `env:"DB_MAX_CONNS" default:"4"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: console or json (default: console)
	Format string `env:"LOG_FORMAT" default:"console"`
}

// UseCase converts the settings into a pipeline configuration.
func (c *ReconcilerConfig) UseCase() usecase.Config {
	cfg := usecase.DefaultConfig()
	cfg.DryRun = c.DryRun
	cfg.MaxRetries = c.MaxRetries
	cfg.RetryDelay = c.RetryDelay
	cfg.PaceDelay = c.PaceDelay
	cfg.StopOnDuplicate = c.StopOnDuplicate
	cfg.SkipDuplicateCheck = c.SkipDuplicateCheck
	cfg.DefaultCategory = c.DefaultCategory
	cfg.Fingerprint = usecase.FingerprintOptions{
		StripNonAlphanumeric: c.StripName,
		MaxNameLength:        c.NamePrefix,
	}
	return cfg
}
