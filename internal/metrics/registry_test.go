package metrics

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/flemzord/cronsync/internal/cron"
)

func newTestRegistry() *Registry {
	return NewRegistry(
		WithoutRuntimeCollectors(),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
}

func TestRegistry_RunFinished_CountsByOutcome(t *testing.T) {
	t.Parallel()

	r := newTestRegistry()
	r.RunFinished("brevo", cron.OutcomeSuccess)
	r.RunFinished("brevo", cron.OutcomeSuccess)
	r.RunFinished("brevo", cron.OutcomeOverrun)
	r.RunFinished("clearhaus", cron.OutcomeError)

	tests := []struct {
		job     string
		outcome cron.Outcome
		want    float64
	}{
		{"brevo", cron.OutcomeSuccess, 2},
		{"brevo", cron.OutcomeOverrun, 1},
		{"brevo", cron.OutcomeError, 0},
		{"clearhaus", cron.OutcomeError, 1},
	}
	for _, tt := range tests {
		got := testutil.ToFloat64(r.runs.WithLabelValues(tt.job, string(tt.outcome)))
		if got != tt.want {
			t.Errorf("%s{job=%q,status=%q} = %v, want %v", RunsTotal, tt.job, tt.outcome, got, tt.want)
		}
	}
}

func TestRegistry_ObserveDuration(t *testing.T) {
	t.Parallel()

	r := newTestRegistry()
	r.ObserveDuration("brevo", 31250*time.Microsecond)
	r.ObserveDuration("brevo", 2*time.Second)

	const want = `
# HELP cron_job_duration_seconds Duration of cron job runs in seconds
# TYPE cron_job_duration_seconds histogram
cron_job_duration_seconds_bucket{job="brevo",le="0.005"} 0
cron_job_duration_seconds_bucket{job="brevo",le="0.01"} 0
cron_job_duration_seconds_bucket{job="brevo",le="0.025"} 0
cron_job_duration_seconds_bucket{job="brevo",le="0.05"} 1
cron_job_duration_seconds_bucket{job="brevo",le="0.1"} 1
cron_job_duration_seconds_bucket{job="brevo",le="0.25"} 1
cron_job_duration_seconds_bucket{job="brevo",le="0.5"} 1
cron_job_duration_seconds_bucket{job="brevo",le="1"} 1
cron_job_duration_seconds_bucket{job="brevo",le="2.5"} 2
cron_job_duration_seconds_bucket{job="brevo",le="5"} 2
cron_job_duration_seconds_bucket{job="brevo",le="10"} 2
cron_job_duration_seconds_bucket{job="brevo",le="+Inf"} 2
cron_job_duration_seconds_sum{job="brevo"} 2.03125
cron_job_duration_seconds_count{job="brevo"} 2
`
	if err := testutil.GatherAndCompare(r.Gatherer(), strings.NewReader(want), DurationSeconds); err != nil {
		t.Error(err)
	}
}

func TestRegistry_Gauges(t *testing.T) {
	t.Parallel()

	r := newTestRegistry()
	started := time.Unix(1_700_000_000, 0)
	finished := started.Add(1500 * time.Millisecond)

	r.RunStarted("clearhaus", started)
	r.MarkFailure("clearhaus", finished)

	if got := testutil.ToFloat64(r.lastRun.WithLabelValues("clearhaus")); got != 1_700_000_000 {
		t.Errorf("last run = %v", got)
	}
	if got := testutil.ToFloat64(r.lastFailure.WithLabelValues("clearhaus")); got != 1_700_000_001.5 {
		t.Errorf("last failure = %v", got)
	}
	if got := testutil.CollectAndCount(r.lastSuccess); got != 0 {
		t.Errorf("last success series = %d, want 0", got)
	}

	r.MarkSuccess("clearhaus", finished)
	if got := testutil.ToFloat64(r.lastSuccess.WithLabelValues("clearhaus")); got != 1_700_000_001.5 {
		t.Errorf("last success = %v", got)
	}
}

func TestRegistry_Seed(t *testing.T) {
	t.Parallel()

	r := newTestRegistry()
	r.Seed("brevo")

	if got := testutil.CollectAndCount(r.runs); got != len(cron.Outcomes()) {
		t.Errorf("seeded series = %d, want %d", got, len(cron.Outcomes()))
	}
	for _, o := range cron.Outcomes() {
		if got := testutil.ToFloat64(r.runs.WithLabelValues("brevo", string(o))); got != 0 {
			t.Errorf("%s = %v, want 0", o, got)
		}
	}
}

func TestRegistry_ConcurrentUpdates(t *testing.T) {
	t.Parallel()

	r := newTestRegistry()
	const loops, ticks = 8, 200

	var wg sync.WaitGroup
	for range loops {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range ticks {
				now := time.Now()
				r.RunStarted("shared", now)
				r.RunFinished("shared", cron.OutcomeSuccess)
				r.ObserveDuration("shared", time.Millisecond)
				r.MarkSuccess("shared", now)
			}
		}()
	}
	wg.Wait()

	if got := testutil.ToFloat64(r.runs.WithLabelValues("shared", "success")); got != loops*ticks {
		t.Errorf("success count = %v, want %d", got, loops*ticks)
	}
}

func TestRegistry_Handler(t *testing.T) {
	t.Parallel()

	r := newTestRegistry()
	r.RunStarted("brevo", time.Now())
	r.RunFinished("brevo", cron.OutcomeSuccess)
	r.ObserveDuration("brevo", 10*time.Millisecond)
	r.MarkSuccess("brevo", time.Now())
	r.MarkFailure("clearhaus", time.Now())

	rr := httptest.NewRecorder()
	r.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusOK)
	}
	body := rr.Body.String()
	for _, series := range []string{
		`cron_job_runs_total{job="brevo",status="success"} 1`,
		`cron_job_duration_seconds_count{job="brevo"} 1`,
		`cron_job_last_run_timestamp_seconds{job="brevo"}`,
		`cron_job_last_success_timestamp_seconds{job="brevo"}`,
		`cron_job_last_failure_timestamp_seconds{job="clearhaus"}`,
	} {
		if !strings.Contains(body, series) {
			t.Errorf("exposition missing %q", series)
		}
	}
}

func TestRegistry_WithRuntimeCollectors(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	mfs, err := r.Gatherer().Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	found := false
	for _, mf := range mfs {
		if mf.GetName() == "go_goroutines" {
			found = true
		}
	}
	if !found {
		t.Error("go runtime collector not registered")
	}
}
