// Package metrics holds the process-wide job instruments and exposes them in
// the Prometheus text format.
package metrics

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/flemzord/cronsync/internal/cron"
)

// Series names.
const (
	RunsTotal            = "cron_job_runs_total"
	DurationSeconds      = "cron_job_duration_seconds"
	LastRunTimestamp     = "cron_job_last_run_timestamp_seconds"
	LastSuccessTimestamp = "cron_job_last_success_timestamp_seconds"
	LastFailureTimestamp = "cron_job_last_failure_timestamp_seconds"
)

// DurationBuckets spans roughly 5ms to 10s.
var DurationBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0}

// Registry owns the job instruments. It is built once at startup and shared
// by reference; instruments are never reset or removed.
type Registry struct {
	reg *prometheus.Registry

	runs        *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	lastRun     *prometheus.GaugeVec
	lastSuccess *prometheus.GaugeVec
	lastFailure *prometheus.GaugeVec

	logger *slog.Logger
}

// Compile-time interface check.
var _ cron.Recorder = (*Registry)(nil)

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger used to report dropped updates.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithoutRuntimeCollectors skips the Go runtime and process collectors.
func WithoutRuntimeCollectors() Option {
	return func(r *Registry) { r.reg = prometheus.NewRegistry() }
}

// NewRegistry creates a registry with every job instrument registered.
func NewRegistry(opts ...Option) *Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	r := &Registry{
		reg:    reg,
		logger: slog.Default(),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: RunsTotal,
			Help: "Total cron job runs by outcome",
		}, []string{"job", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    DurationSeconds,
			Help:    "Duration of cron job runs in seconds",
			Buckets: DurationBuckets,
		}, []string{"job"}),
		lastRun: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: LastRunTimestamp,
			Help: "Unix timestamp of last cron job run",
		}, []string{"job"}),
		lastSuccess: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: LastSuccessTimestamp,
			Help: "Unix timestamp of last successful run",
		}, []string{"job"}),
		lastFailure: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: LastFailureTimestamp,
			Help: "Unix timestamp of last failed run (error/panic/timeout/overrun)",
		}, []string{"job"}),
	}
	for _, opt := range opts {
		opt(r)
	}

	r.reg.MustRegister(r.runs, r.duration, r.lastRun, r.lastSuccess, r.lastFailure)
	return r
}

// Gatherer exposes the underlying registry for scraping and tests.
func (r *Registry) Gatherer() prometheus.Gatherer { return r.reg }

// Handler serves the registry in the Prometheus text exposition format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{
		ErrorLog:      slog.NewLogLogger(r.logger.Handler(), slog.LevelWarn),
		ErrorHandling: promhttp.ContinueOnError,
	})
}

// Seed creates the zero-valued series for job so dashboards see every
// outcome before it first happens.
func (r *Registry) Seed(job string) {
	for _, o := range cron.Outcomes() {
		if c, err := r.runs.GetMetricWithLabelValues(job, string(o)); err == nil {
			c.Add(0)
		}
	}
}

// RunStarted implements cron.Recorder.
func (r *Registry) RunStarted(job string, at time.Time) {
	r.setGauge(r.lastRun, LastRunTimestamp, job, at)
}

// RunFinished implements cron.Recorder.
func (r *Registry) RunFinished(job string, outcome cron.Outcome) {
	c, err := r.runs.GetMetricWithLabelValues(job, string(outcome))
	if err != nil {
		r.dropped(RunsTotal, job, err)
		return
	}
	c.Inc()
}

// ObserveDuration implements cron.Recorder.
func (r *Registry) ObserveDuration(job string, d time.Duration) {
	o, err := r.duration.GetMetricWithLabelValues(job)
	if err != nil {
		r.dropped(DurationSeconds, job, err)
		return
	}
	o.Observe(d.Seconds())
}

// MarkSuccess implements cron.Recorder.
func (r *Registry) MarkSuccess(job string, at time.Time) {
	r.setGauge(r.lastSuccess, LastSuccessTimestamp, job, at)
}

// MarkFailure implements cron.Recorder.
func (r *Registry) MarkFailure(job string, at time.Time) {
	r.setGauge(r.lastFailure, LastFailureTimestamp, job, at)
}

func (r *Registry) setGauge(vec *prometheus.GaugeVec, series, job string, at time.Time) {
	g, err := vec.GetMetricWithLabelValues(job)
	if err != nil {
		r.dropped(series, job, err)
		return
	}
	g.Set(unixSeconds(at))
}

func (r *Registry) dropped(series, job string, err error) {
	r.logger.Debug("metrics: update dropped", "series", series, "job", job, "error", err)
}

func unixSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}
