// Package app is the process bootstrap shared by the cronsync commands.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/flemzord/cronsync/internal/config"
	"github.com/flemzord/cronsync/internal/cron"
	"github.com/flemzord/cronsync/internal/gateway"
	"github.com/flemzord/cronsync/internal/metrics"
	"github.com/flemzord/cronsync/internal/security"
	"github.com/flemzord/cronsync/internal/store"
	"github.com/flemzord/cronsync/internal/telemetry"
)

// shutdownGrace bounds the flush of the gateway, tracer and database on exit.
const shutdownGrace = 5 * time.Second

// RunParams configures the main application loop.
type RunParams struct {
	// ConfigPath is an explicit path to the YAML configuration file.
	// If empty, config.Locate picks one or falls back to the built-in config.
	ConfigPath string

	// Version, Commit, and Date are injected at build time via ldflags.
	Version string
	Commit  string
	Date    string
}

// Run loads configuration, starts every enabled job, and blocks until
// SIGINT or SIGTERM.
func Run(params RunParams) error {
	cfg, source, err := config.LoadFrom(params.ConfigPath)
	if err != nil {
		return err
	}
	if err := config.Validate(cfg); err != nil {
		return err
	}

	credStore := security.NewCredentialStore()
	for name, value := range cfg.Secrets() {
		credStore.Set(name, value)
	}
	redactor := security.NewRedactor()
	redactor.SyncCredentials(credStore)

	logger, err := NewLogger(os.Stderr, cfg.Log, redactor)
	if err != nil {
		return err
	}
	logger.Info("configuration loaded", "source", source, "version", params.Version, "commit", params.Commit)

	audit, closeAudit, err := openAudit(cfg.Gateway.AuditLog, redactor)
	if err != nil {
		return err
	}
	defer closeAudit()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return Serve(ctx, cfg, params.Version, logger, audit)
}

// openAudit opens the auth audit trail at path in append mode. An empty
// path yields a nil logger, which discards events.
func openAudit(path string, redactor *security.Redactor) (*security.AuditLogger, func(), error) {
	if path == "" {
		return nil, func() {}, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("app: audit log: %w", err)
	}
	audit := security.NewAuditLogger(security.AuditLoggerConfig{Writer: f, Redactor: redactor})
	return audit, func() { _ = f.Close() }, nil
}

// Serve wires the shared collaborators, registers every enabled job and
// serves until ctx is done. In-flight executions are not awaited on exit.
// audit may be nil.
func Serve(ctx context.Context, cfg *config.Config, version string, logger *slog.Logger, audit *security.AuditLogger) error {
	tp, err := telemetry.New(ctx, telemetry.Config{
		Endpoint:    cfg.Telemetry.Endpoint,
		ServiceName: cfg.Telemetry.ServiceName,
		Version:     version,
		SampleRatio: cfg.Telemetry.SampleRatio,
	}, logger)
	if err != nil {
		return err
	}

	registry := metrics.NewRegistry(metrics.WithLogger(logger))
	sched := cron.NewScheduler(registry,
		cron.WithLogger(logger),
		cron.WithHardTimeout(cfg.Scheduler.HardTimeout),
		cron.WithTracer(tp.Tracer()),
	)

	entries := config.Resolve(cfg)

	var db *sql.DB
	if anyEnabled(entries) {
		db, err = store.Open(ctx, cfg.Database.URL, store.PoolConfig{
			MaxConns:        cfg.Database.MaxConns,
			MaxConnLifetime: cfg.Database.MaxConnLifetime,
		})
		if err != nil {
			_ = tp.Shutdown(context.Background(), shutdownGrace)
			return err
		}
	}

	d := deps{
		client: &http.Client{Timeout: cfg.HTTP.Timeout},
		logger: logger,
	}
	gwOpts := []gateway.Option{
		gateway.WithLogger(logger.With("component", "gateway")),
		gateway.WithVersion(version),
		gateway.WithAudit(audit),
	}
	if db != nil {
		d.store = store.New(db, store.WithLogger(logger.With("component", "store")))
		gwOpts = append(gwOpts, gateway.WithCheck("database", d.store))
	}

	gw, err := gateway.New(cfg.Gateway, registry.Handler(), sched, gwOpts...)
	if err != nil {
		shutdown(nil, tp, db, logger)
		return err
	}
	if err := gw.Start(ctx); err != nil {
		shutdown(gw, tp, db, logger)
		return err
	}

	names, err := registerJobs(sched, registry, entries, cfg, d)
	if err != nil {
		shutdown(gw, tp, db, logger)
		return err
	}
	logger.Info("cronsync started", "jobs", names, "hard_timeout", sched.HardTimeout(), "tracing", tp.Enabled())

	<-ctx.Done()
	logger.Info("shutdown signal received")
	shutdown(gw, tp, db, logger)
	logger.Info("shutdown complete")
	return nil
}

// shutdown flushes the gateway, tracer and pool. gw and db may be nil.
// Job loops are left to die with the process.
func shutdown(gw *gateway.Gateway, tp *telemetry.Provider, db *sql.DB, logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()

	if gw != nil {
		if err := gw.Stop(ctx); err != nil {
			logger.Warn("gateway stop", "error", err)
		}
	}
	if err := tp.Shutdown(ctx, shutdownGrace); err != nil {
		logger.Warn("telemetry shutdown", "error", err)
	}
	if db != nil {
		if err := db.Close(); err != nil {
			logger.Warn("database close", "error", fmt.Errorf("app: %w", err))
		}
	}
}
