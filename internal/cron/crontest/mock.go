// Package crontest provides test doubles for the cron package.
package crontest

import (
	"context"
	"sync"
	"time"

	"github.com/flemzord/cronsync/internal/cron"
)

// MockJob is a configurable test double for cron.Job.
type MockJob struct {
	RunFunc func(ctx context.Context) error

	mu     sync.Mutex
	starts []time.Time
	active int
	peak   int
}

// Compile-time interface check.
var _ cron.Job = (*MockJob)(nil)

// Run implements cron.Job. It records the start time and tracks how many
// calls overlap.
func (m *MockJob) Run(ctx context.Context) error {
	m.mu.Lock()
	m.starts = append(m.starts, time.Now())
	m.active++
	if m.active > m.peak {
		m.peak = m.active
	}
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		m.active--
		m.mu.Unlock()
	}()

	if m.RunFunc != nil {
		return m.RunFunc(ctx)
	}
	return nil
}

// CallCount returns the number of times Run was called.
func (m *MockJob) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.starts)
}

// Starts returns the start time of every call.
func (m *MockJob) Starts() []time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]time.Time, len(m.starts))
	copy(out, m.starts)
	return out
}

// MaxConcurrent returns the highest number of overlapping Run calls seen.
func (m *MockJob) MaxConcurrent() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.peak
}

// FakeRecorder is an in-memory cron.Recorder.
type FakeRecorder struct {
	mu          sync.Mutex
	outcomes    map[string][]cron.Outcome
	durations   map[string][]time.Duration
	lastRun     map[string]time.Time
	lastSuccess map[string]time.Time
	lastFailure map[string]time.Time
	started     map[string]int
}

// Compile-time interface check.
var _ cron.Recorder = (*FakeRecorder)(nil)

// NewFakeRecorder returns an empty recorder.
func NewFakeRecorder() *FakeRecorder {
	return &FakeRecorder{
		outcomes:    make(map[string][]cron.Outcome),
		durations:   make(map[string][]time.Duration),
		lastRun:     make(map[string]time.Time),
		lastSuccess: make(map[string]time.Time),
		lastFailure: make(map[string]time.Time),
		started:     make(map[string]int),
	}
}

// RunStarted implements cron.Recorder.
func (f *FakeRecorder) RunStarted(job string, at time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.started[job]++
	f.lastRun[job] = at
}

// RunFinished implements cron.Recorder.
func (f *FakeRecorder) RunFinished(job string, outcome cron.Outcome) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.outcomes[job] = append(f.outcomes[job], outcome)
}

// ObserveDuration implements cron.Recorder.
func (f *FakeRecorder) ObserveDuration(job string, d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.durations[job] = append(f.durations[job], d)
}

// MarkSuccess implements cron.Recorder.
func (f *FakeRecorder) MarkSuccess(job string, at time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastSuccess[job] = at
}

// MarkFailure implements cron.Recorder.
func (f *FakeRecorder) MarkFailure(job string, at time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastFailure[job] = at
}

// Outcomes returns the outcomes recorded for job, in order.
func (f *FakeRecorder) Outcomes(job string) []cron.Outcome {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]cron.Outcome, len(f.outcomes[job]))
	copy(out, f.outcomes[job])
	return out
}

// Count returns how many times outcome was recorded for job.
func (f *FakeRecorder) Count(job string, outcome cron.Outcome) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, o := range f.outcomes[job] {
		if o == outcome {
			n++
		}
	}
	return n
}

// Durations returns the durations observed for job.
func (f *FakeRecorder) Durations(job string) []time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]time.Duration, len(f.durations[job]))
	copy(out, f.durations[job])
	return out
}

// Started returns how many ticks started for job.
func (f *FakeRecorder) Started(job string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.started[job]
}

// Gauges returns the last-run, last-success and last-failure timestamps for
// job. Unset gauges are zero.
func (f *FakeRecorder) Gauges(job string) (lastRun, lastSuccess, lastFailure time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastRun[job], f.lastSuccess[job], f.lastFailure[job]
}
