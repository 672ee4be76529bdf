// Package gateway serves the process's HTTP surface: the Prometheus scrape
// endpoint, a liveness probe, and an authenticated status page.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/flemzord/cronsync/internal/cron"
	"github.com/flemzord/cronsync/internal/security"
)

// JobSource lists the registered jobs. *cron.Scheduler satisfies it.
type JobSource interface {
	Jobs() []cron.JobInfo
	HardTimeout() time.Duration
}

// Checker is a dependency probed by /health. *store.Store satisfies it.
type Checker interface {
	Ping(ctx context.Context) error
}

// Gateway is the HTTP server.
type Gateway struct {
	config   Config
	logger   *slog.Logger
	metrics  http.Handler
	jobs     JobSource
	counters *Counters
	checks   map[string]Checker
	audit    *security.AuditLogger
	version  string
	now      func() time.Time

	mu        sync.Mutex
	server    *http.Server
	addr      net.Addr
	startedAt time.Time
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Gateway) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// WithCheck adds a dependency reported under name on /health.
func WithCheck(name string, c Checker) Option {
	return func(g *Gateway) {
		if c == nil {
			return
		}
		if g.checks == nil {
			g.checks = make(map[string]Checker)
		}
		g.checks[name] = c
	}
}

// WithAudit records every /status authentication decision in audit.
func WithAudit(audit *security.AuditLogger) Option {
	return func(g *Gateway) { g.audit = audit }
}

// WithVersion sets the build version reported on /status.
func WithVersion(v string) Option {
	return func(g *Gateway) { g.version = v }
}

// New validates cfg and builds a Gateway serving metrics on /metrics.
func New(cfg Config, metrics http.Handler, jobs JobSource, opts ...Option) (*Gateway, error) {
	if metrics == nil {
		return nil, errors.New("gateway: nil metrics handler")
	}
	if jobs == nil {
		return nil, errors.New("gateway: nil job source")
	}
	cfg.defaults()
	if _, _, err := net.SplitHostPort(cfg.Bind); err != nil {
		return nil, fmt.Errorf("gateway: invalid bind address %q: %w", cfg.Bind, err)
	}

	g := &Gateway{
		config:    cfg,
		logger:    slog.Default(),
		metrics:   metrics,
		jobs:      jobs,
		counters:  &Counters{},
		version:   "dev",
		now:       time.Now,
		startedAt: time.Now(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Handler returns the router, for embedding or tests.
func (g *Gateway) Handler() http.Handler { return g.buildRouter() }

// Start listens on the configured address and serves in the background.
func (g *Gateway) Start(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.server != nil {
		return errors.New("gateway: already started")
	}

	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", g.config.Bind)
	if err != nil {
		return fmt.Errorf("gateway: listen: %w", err)
	}

	g.startedAt = g.now()
	g.addr = ln.Addr()
	g.server = &http.Server{
		Handler:      g.buildRouter(),
		ReadTimeout:  g.config.ReadTimeout,
		WriteTimeout: g.config.WriteTimeout,
	}

	srv := g.server
	go func() {
		g.logger.Info("gateway: listening", "addr", ln.Addr().String())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			g.logger.Error("gateway: serve error", "error", err)
		}
	}()

	return nil
}

// Addr returns the bound address once started, nil before.
func (g *Gateway) Addr() net.Addr {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.addr
}

// Stop shuts the server down, bounded by the configured shutdown timeout.
func (g *Gateway) Stop(ctx context.Context) error {
	g.mu.Lock()
	srv := g.server
	g.mu.Unlock()

	if srv == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, g.config.ShutdownTimeout)
	defer cancel()

	g.logger.Info("gateway: shutting down")
	return srv.Shutdown(ctx)
}
