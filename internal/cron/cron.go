// Package cron runs named recurring jobs on fixed intervals. Each registered
// job gets its own loop that bounds every execution with a hard timeout,
// recovers panics, abandons executions that overrun their next tick, and
// reports one Outcome per tick to a Recorder.
package cron

import (
	"context"
	"time"
)

// Job is a unit of recurring work. Run is called once per tick and never
// concurrently with itself. Implementations should check ctx.Done() at I/O
// boundaries: an execution that times out or overruns is abandoned, not
// awaited, and may keep running in the background until it notices.
type Job interface {
	Run(ctx context.Context) error
}

// JobFunc adapts an ordinary function to the Job interface.
type JobFunc func(ctx context.Context) error

// Run implements Job.
func (f JobFunc) Run(ctx context.Context) error { return f(ctx) }

// Outcome classifies the result of a single tick.
type Outcome string

// Possible tick outcomes. Exactly one is produced per tick.
const (
	OutcomeSuccess Outcome = "success"
	OutcomeError   Outcome = "error"
	OutcomePanic   Outcome = "panic"
	OutcomeTimeout Outcome = "timeout"
	OutcomeOverrun Outcome = "overrun"
)

// Outcomes lists every outcome in a stable order.
func Outcomes() []Outcome {
	return []Outcome{OutcomeSuccess, OutcomeError, OutcomePanic, OutcomeTimeout, OutcomeOverrun}
}

// Failed reports whether the outcome counts as a failure.
func (o Outcome) Failed() bool { return o != OutcomeSuccess }

// Timed reports whether the outcome carries a meaningful completion time.
// Timeouts, overruns and panics are abandoned or aborted and are not timed.
func (o Outcome) Timed() bool { return o == OutcomeSuccess || o == OutcomeError }

// Recorder receives the observability signals produced by the scheduler.
// All methods must be safe for concurrent use by every job loop, and none of
// them may block for long.
type Recorder interface {
	// RunStarted is called at the start of every tick, before execution.
	RunStarted(job string, at time.Time)
	// RunFinished is called exactly once per tick with its outcome.
	RunFinished(job string, outcome Outcome)
	// ObserveDuration is called only for success and error outcomes.
	ObserveDuration(job string, d time.Duration)
	// MarkSuccess is called only for the success outcome.
	MarkSuccess(job string, at time.Time)
	// MarkFailure is called for every outcome except success.
	MarkFailure(job string, at time.Time)
}

// NopRecorder discards every signal.
type NopRecorder struct{}

var _ Recorder = NopRecorder{}

func (NopRecorder) RunStarted(string, time.Time) {}
func (NopRecorder) RunFinished(string, Outcome) {}
func (NopRecorder) ObserveDuration(string, time.Duration) {}
func (NopRecorder) MarkSuccess(string, time.Time) {}
func (NopRecorder) MarkFailure(string, time.Time) {}

// JobInfo describes a registered job.
type JobInfo struct {
	Name     string        `json:"name"`
	Interval time.Duration `json:"interval"`
}
