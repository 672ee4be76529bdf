package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/flemzord/cronsync/internal/cron"
)

// JobView is the JSON shape of a registered job.
type JobView struct {
	Name            string  `json:"name"`
	IntervalSeconds float64 `json:"interval_seconds"`
}

// Health statuses.
const (
	StatusOK       = "ok"
	StatusDegraded = "degraded"
)

// checkTimeout bounds each dependency probe.
const checkTimeout = 2 * time.Second

// HealthResponse is the JSON response for GET /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Jobs   []JobView         `json:"jobs"`
	Checks map[string]string `json:"checks,omitempty"`
}

func jobViews(infos []cron.JobInfo) []JobView {
	views := make([]JobView, 0, len(infos))
	for _, info := range infos {
		views = append(views, JobView{Name: info.Name, IntervalSeconds: info.Interval.Seconds()})
	}
	return views
}

// handleHealth answers liveness probes. It always returns 200 while the
// process serves; an unreachable dependency turns the status to degraded.
// Job failures are reported through metrics, not here.
func (g *Gateway) handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		g.counters.RecordHealthCheck()
		resp := HealthResponse{Status: StatusOK, Jobs: jobViews(g.jobs.Jobs())}
		if len(g.checks) > 0 {
			resp.Checks = make(map[string]string, len(g.checks))
			for name, c := range g.checks {
				resp.Checks[name] = StatusOK
				if err := probe(r.Context(), c); err != nil {
					g.logger.Warn("gateway: health check failed", "check", name, "error", err)
					resp.Checks[name] = err.Error()
					resp.Status = StatusDegraded
				}
			}
		}
		writeJSON(w, resp)
	}
}

func probe(ctx context.Context, c Checker) error {
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()
	return c.Ping(ctx)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
