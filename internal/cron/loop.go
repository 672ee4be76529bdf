package cron

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// PanicError carries a value recovered from a panicking Run.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("cron: job panicked: %v", e.Value)
}

// loop drives a single job. The ticker is shared between the idle wait and
// the overrun race so an elapsed tick is consumed exactly once.
type loop struct {
	name        string
	every       time.Duration
	job         Job
	slot        chan struct{} // held while Run executes, including abandoned runs
	recorder    Recorder
	tracer      trace.Tracer
	hardTimeout time.Duration
	logger      *slog.Logger
}

func (l *loop) run(ctx context.Context) {
	ticker := time.NewTicker(l.every)
	defer ticker.Stop()

	for {
		if ctx.Err() != nil {
			return
		}

		l.tick(ctx, ticker.C)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// tick runs one execution and races it against the hard timeout and the
// next scheduled tick.
func (l *loop) tick(ctx context.Context, next <-chan time.Time) {
	started := time.Now()
	l.safely("last_run", func() { l.recorder.RunStarted(l.name, started) })
	l.logger.Info("cron: job started", "job", l.name)

	spanCtx, span := l.tracer.Start(ctx, "cron.run",
		trace.WithAttributes(attribute.String("cron.job", l.name)),
	)
	defer span.End()

	runCtx, cancel := context.WithTimeout(spanCtx, l.hardTimeout)
	// Cancelling on return is what abandons a timed-out or overrun execution.
	defer cancel()

	done := make(chan error, 1)
	go l.execute(runCtx, done)

	var (
		outcome Outcome
		err     error
		elapsed time.Duration
	)

	select {
	case err = <-done:
		elapsed = time.Since(started)
		if ctx.Err() != nil {
			return
		}
		outcome = classify(runCtx, err)
	case <-runCtx.Done():
		if ctx.Err() != nil {
			return
		}
		outcome = OutcomeTimeout
	case <-next:
		outcome = OutcomeOverrun
	}

	l.finish(span, outcome, err, elapsed)
}

func classify(runCtx context.Context, err error) Outcome {
	var pe *PanicError
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.As(err, &pe):
		return OutcomePanic
	case errors.Is(runCtx.Err(), context.DeadlineExceeded):
		return OutcomeTimeout
	default:
		return OutcomeError
	}
}

// execute waits for the job to be free, then runs it once. A previous
// abandoned run still holding the slot blocks the new one until either the
// old run returns or the new run's context ends.
func (l *loop) execute(ctx context.Context, done chan<- error) {
	select {
	case l.slot <- struct{}{}:
	case <-ctx.Done():
		done <- ctx.Err()
		return
	}
	defer func() { <-l.slot }()

	done <- runRecovered(ctx, l.job)
}

func runRecovered(ctx context.Context, job Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r, Stack: debug.Stack()}
		}
	}()
	return job.Run(ctx)
}

func (l *loop) finish(span trace.Span, outcome Outcome, err error, elapsed time.Duration) {
	now := time.Now()

	l.safely("runs_total", func() { l.recorder.RunFinished(l.name, outcome) })
	if outcome.Timed() {
		l.safely("duration", func() { l.recorder.ObserveDuration(l.name, elapsed) })
	}
	if outcome == OutcomeSuccess {
		l.safely("last_success", func() { l.recorder.MarkSuccess(l.name, now) })
	} else {
		l.safely("last_failure", func() { l.recorder.MarkFailure(l.name, now) })
	}

	span.SetAttributes(attribute.String("cron.outcome", string(outcome)))
	if outcome.Failed() {
		desc := string(outcome)
		if err != nil {
			span.RecordError(err)
			desc = err.Error()
		}
		span.SetStatus(codes.Error, desc)
	}

	switch outcome {
	case OutcomeSuccess:
		l.logger.Info("cron: job completed", "job", l.name, "duration", elapsed)
	case OutcomeError:
		l.logger.Error("cron: job failed", "job", l.name, "duration", elapsed, "error", err)
	case OutcomePanic:
		var pe *PanicError
		errors.As(err, &pe)
		l.logger.Error("cron: job panicked",
			"job", l.name,
			"panic", fmt.Sprint(pe.Value),
			"stack", string(pe.Stack),
		)
	case OutcomeTimeout:
		l.logger.Warn("cron: job timed out, abandoned", "job", l.name, "timeout", l.hardTimeout)
	case OutcomeOverrun:
		l.logger.Warn("cron: job overran its next tick, abandoned", "job", l.name, "interval", l.every)
	}
}

// safely shields the loop from a misbehaving recorder.
func (l *loop) safely(signal string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Debug("cron: metrics update dropped",
				"job", l.name,
				"signal", signal,
				"panic", fmt.Sprint(r),
			)
		}
	}()
	fn()
}
