package gateway

import "sync/atomic"

// Counters tracks gateway traffic with atomic operations. It is reported
// on /status and kept apart from the job registry so that scraping never
// shows up in job series.
type Counters struct {
	scrapes      atomic.Int64
	healthChecks atomic.Int64
	authFailures atomic.Int64
	throttled    atomic.Int64
}

// RecordScrape records a /metrics request.
func (c *Counters) RecordScrape() { c.scrapes.Add(1) }

// RecordHealthCheck records a /health request.
func (c *Counters) RecordHealthCheck() { c.healthChecks.Add(1) }

// RecordAuthFailure records a rejected credential.
func (c *Counters) RecordAuthFailure() { c.authFailures.Add(1) }

// RecordThrottled records an auth attempt refused by the rate limiter.
func (c *Counters) RecordThrottled() { c.throttled.Add(1) }

// Snapshot returns a point-in-time view of the counters.
func (c *Counters) Snapshot() CountersSnapshot {
	return CountersSnapshot{
		Scrapes:      c.scrapes.Load(),
		HealthChecks: c.healthChecks.Load(),
		AuthFailures: c.authFailures.Load(),
		Throttled:    c.throttled.Load(),
	}
}

// CountersSnapshot is a serializable point-in-time counters view.
type CountersSnapshot struct {
	Scrapes      int64 `json:"scrapes"`
	HealthChecks int64 `json:"health_checks"`
	AuthFailures int64 `json:"auth_failures"`
	Throttled    int64 `json:"throttled"`
}
