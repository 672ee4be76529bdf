// Package config handles YAML configuration loading, environment variable
// expansion, and validation for cronsync.
package config

import (
	"time"

	"github.com/flemzord/cronsync/internal/gateway"
)

// Config is the top-level configuration structure.
type Config struct {
	// Version is the config format version. Currently only "1" is supported.
	Version string `yaml:"version"`

	Log       LogConfig       `yaml:"log"`
	Database  DatabaseConfig  `yaml:"database"`
	HTTP      HTTPConfig      `yaml:"http"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Gateway   gateway.Config  `yaml:"gateway"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Jobs      JobsConfig      `yaml:"jobs"`
}

// LogConfig selects the log level and output format.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
}

// DatabaseConfig points at the PostgreSQL database shared by all jobs.
type DatabaseConfig struct {
	URL             string        `yaml:"url"`
	MaxConns        int32         `yaml:"max_conns"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"`
}

// HTTPConfig configures the outbound HTTP client shared by all jobs.
type HTTPConfig struct {
	Timeout time.Duration `yaml:"timeout"`
}

// SchedulerConfig holds scheduler-wide settings.
type SchedulerConfig struct {
	// HardTimeout bounds every job execution. Zero keeps the built-in default.
	HardTimeout time.Duration `yaml:"hard_timeout"`
}

// TelemetryConfig configures trace export.
type TelemetryConfig struct {
	Endpoint    string  `yaml:"endpoint"`
	ServiceName string  `yaml:"service_name"`
	SampleRatio float64 `yaml:"sample_ratio"`
}

// JobsConfig holds one section per job.
type JobsConfig struct {
	Clearhaus ClearhausConfig `yaml:"clearhaus"`
	Brevo     BrevoConfig     `yaml:"brevo"`
}

// ClearhausConfig configures the settlement sync.
type ClearhausConfig struct {
	// Interval is a number of seconds, a Go duration or "@every <duration>".
	// Empty or non-positive disables the job.
	Interval       string `yaml:"interval"`
	BaseURL        string `yaml:"base_url"`
	HealthcheckURL string `yaml:"healthcheck_url"`
	ClientID       string `yaml:"client_id"`
	ClientSecret   string `yaml:"client_secret"`
}

// BrevoConfig configures the CRM contact export.
type BrevoConfig struct {
	Interval        string `yaml:"interval"`
	APIURL          string `yaml:"api_url"`
	APIKey          string `yaml:"api_key"`
	RenewPaymentURL string `yaml:"renew_payment_url"`
	ListID          string `yaml:"list_id"`
	HealthcheckURL  string `yaml:"healthcheck_url"`
}

// Secrets returns every credential in the configuration keyed by its path,
// for registration with the log redactor.
func (c *Config) Secrets() map[string]string {
	return map[string]string{
		"database.url":                 c.Database.URL,
		"jobs.clearhaus.client_secret": c.Jobs.Clearhaus.ClientSecret,
		"jobs.brevo.api_key":           c.Jobs.Brevo.APIKey,
		"gateway.auth.bearer_token":    c.Gateway.Auth.BearerToken,
		"gateway.auth.basic_pass":      c.Gateway.Auth.BasicPass,
	}
}

// applyDefaults fills zero values with defaults.
func (c *Config) applyDefaults() {
	if c.Version == "" {
		c.Version = "1"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	if c.HTTP.Timeout <= 0 {
		c.HTTP.Timeout = 60 * time.Second
	}
	if c.Telemetry.ServiceName == "" {
		c.Telemetry.ServiceName = "cronsync"
	}
}
