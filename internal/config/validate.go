package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"strconv"
	"strings"
)

// Validate checks the structural validity of a Config. Settings of a
// disabled job are not checked.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Version != "1" {
		errs = append(errs, fmt.Errorf("config: unsupported version %q (supported: \"1\")", cfg.Version))
	}

	if _, err := ParseLevel(cfg.Log.Level); err != nil {
		errs = append(errs, err)
	}
	if cfg.Log.Format != "text" && cfg.Log.Format != "json" {
		errs = append(errs, fmt.Errorf("config: log.format must be text or json, got %q", cfg.Log.Format))
	}

	if cfg.Scheduler.HardTimeout < 0 {
		errs = append(errs, fmt.Errorf("config: scheduler.hard_timeout must not be negative, got %s", cfg.Scheduler.HardTimeout))
	}

	if cfg.Gateway.Bind != "" {
		if _, _, err := net.SplitHostPort(cfg.Gateway.Bind); err != nil {
			errs = append(errs, fmt.Errorf("config: gateway.bind %q: %w", cfg.Gateway.Bind, err))
		}
	}

	if cfg.Telemetry.Endpoint != "" {
		errs = append(errs, checkURL("telemetry.endpoint", cfg.Telemetry.Endpoint)...)
	}
	if r := cfg.Telemetry.SampleRatio; r < 0 || r > 1 {
		errs = append(errs, fmt.Errorf("config: telemetry.sample_ratio must be within [0,1], got %v", r))
	}

	entries := Resolve(cfg)
	anyEnabled := false
	for _, e := range entries {
		anyEnabled = anyEnabled || e.Enabled()
	}
	if anyEnabled && cfg.Database.URL == "" {
		errs = append(errs, errors.New("config: database.url is required when a job is enabled"))
	}

	if enabled(entries, JobClearhaus) {
		errs = append(errs, validateClearhaus(cfg.Jobs.Clearhaus)...)
	}
	if enabled(entries, JobBrevo) {
		errs = append(errs, validateBrevo(cfg.Jobs.Brevo)...)
	}

	return errors.Join(errs...)
}

func validateClearhaus(c ClearhausConfig) []error {
	var errs []error
	errs = append(errs, checkURL("jobs.clearhaus.base_url", c.BaseURL)...)
	errs = append(errs, checkURL("jobs.clearhaus.healthcheck_url", c.HealthcheckURL)...)
	errs = append(errs, required("jobs.clearhaus.client_id", c.ClientID)...)
	errs = append(errs, required("jobs.clearhaus.client_secret", c.ClientSecret)...)
	return errs
}

func validateBrevo(c BrevoConfig) []error {
	var errs []error
	errs = append(errs, checkURL("jobs.brevo.api_url", c.APIURL)...)
	errs = append(errs, required("jobs.brevo.api_key", c.APIKey)...)
	errs = append(errs, checkURL("jobs.brevo.renew_payment_url", c.RenewPaymentURL)...)
	errs = append(errs, checkURL("jobs.brevo.healthcheck_url", c.HealthcheckURL)...)
	if _, err := c.ParseListID(); err != nil {
		errs = append(errs, err)
	}
	return errs
}

// ParseListID parses the Brevo list id.
func (c BrevoConfig) ParseListID() (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(c.ListID), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("config: jobs.brevo.list_id %q: must be an integer", c.ListID)
	}
	return id, nil
}

// ParseLevel maps a log.level value onto a slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("config: log.level %q: %w", s, err)
	}
	return level, nil
}

func required(field, value string) []error {
	if strings.TrimSpace(value) == "" {
		return []error{fmt.Errorf("config: %s is required", field)}
	}
	return nil
}

func checkURL(field, value string) []error {
	if strings.TrimSpace(value) == "" {
		return []error{fmt.Errorf("config: %s is required", field)}
	}
	u, err := url.Parse(value)
	if err != nil {
		return []error{fmt.Errorf("config: %s: %w", field, err)}
	}
	if u.Scheme != "http" && u.Scheme != "https" || u.Host == "" {
		return []error{fmt.Errorf("config: %s %q: must be an absolute http(s) URL", field, value)}
	}
	return nil
}
