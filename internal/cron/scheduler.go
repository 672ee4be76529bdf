package cron

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// DefaultHardTimeout bounds every execution unless overridden with
// WithHardTimeout. It applies to all jobs of a Scheduler alike.
const DefaultHardTimeout = 60 * time.Second

// Sentinel errors returned by Register.
var (
	ErrDuplicateJob = errors.New("cron: duplicate job name")
	ErrStopped      = errors.New("cron: scheduler stopped")
)

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithLogger sets the logger. A nil logger keeps slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scheduler) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithHardTimeout overrides DefaultHardTimeout. Non-positive values are ignored.
func WithHardTimeout(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.hardTimeout = d
		}
	}
}

// WithTracer makes every tick emit a "cron.run" span.
func WithTracer(tracer trace.Tracer) Option {
	return func(s *Scheduler) {
		if tracer != nil {
			s.tracer = tracer
		}
	}
}

// Scheduler owns one independent loop per registered job. Loops share
// nothing but the Recorder and run until Stop is called or the process exits.
type Scheduler struct {
	mu          sync.Mutex
	recorder    Recorder
	logger      *slog.Logger
	tracer      trace.Tracer
	hardTimeout time.Duration
	jobs        []JobInfo
	names       map[string]struct{}
	stopped     bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewScheduler creates a scheduler reporting to recorder. A nil recorder
// discards all signals.
func NewScheduler(recorder Recorder, opts ...Option) *Scheduler {
	if recorder == nil {
		recorder = NopRecorder{}
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		recorder:    recorder,
		logger:      slog.Default(),
		tracer:      noop.NewTracerProvider().Tracer(""),
		hardTimeout: DefaultHardTimeout,
		names:       make(map[string]struct{}),
		ctx:         ctx,
		cancel:      cancel,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// HardTimeout returns the execution bound applied to every job.
func (s *Scheduler) HardTimeout() time.Duration { return s.hardTimeout }

// Register starts a loop that runs job every interval and returns
// immediately. The first tick fires right away. The interval must be
// positive; callers are expected to have validated it while loading the
// job's configuration. Names must be unique: a second registration under an
// existing name fails with ErrDuplicateJob instead of running two loops that
// share one set of series.
func (s *Scheduler) Register(name string, every time.Duration, job Job) error {
	if name == "" {
		return errors.New("cron: job name must not be empty")
	}
	if job == nil {
		return fmt.Errorf("cron: nil job %q", name)
	}
	if every <= 0 {
		return fmt.Errorf("%w: %s for job %q", ErrInvalidInterval, every, name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return ErrStopped
	}
	if _, exists := s.names[name]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateJob, name)
	}
	s.names[name] = struct{}{}
	s.jobs = append(s.jobs, JobInfo{Name: name, Interval: every})

	l := &loop{
		name:        name,
		every:       every,
		job:         job,
		slot:        make(chan struct{}, 1),
		recorder:    s.recorder,
		tracer:      s.tracer,
		hardTimeout: s.hardTimeout,
		logger:      s.logger,
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		l.run(s.ctx)
	}()

	s.logger.Info("cron: job registered", "job", name, "interval", every)
	return nil
}

// Jobs returns the registered jobs in registration order.
func (s *Scheduler) Jobs() []JobInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.jobs)
}

// Stop cancels every loop and waits until all of them have returned, or
// until ctx ends. Executions still in flight are abandoned, not awaited.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	s.stopped = true
	s.cancel()
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("cron: scheduler stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("cron: stop: %w", ctx.Err())
	}
}
