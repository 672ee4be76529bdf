package gateway

import (
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/flemzord/cronsync/internal/cron"
)

type fakeJobs struct {
	jobs []cron.JobInfo
}

func (f fakeJobs) Jobs() []cron.JobInfo       { return f.jobs }
func (f fakeJobs) HardTimeout() time.Duration { return cron.DefaultHardTimeout }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func metricsStub() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "# HELP cron_job_runs_total Total cron job runs by outcome\n")
	})
}

func newTestGateway(t *testing.T, cfg Config) *Gateway {
	t.Helper()
	g, err := New(cfg, metricsStub(), fakeJobs{jobs: []cron.JobInfo{
		{Name: "brevo", Interval: 10 * time.Minute},
		{Name: "clearhaus", Interval: 5 * time.Minute},
	}}, WithLogger(discardLogger()), WithVersion("v1.2.3"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return g
}
