package gateway

import (
	"net/http"
	"time"
)

// StatusResponse is the JSON response for GET /status.
type StatusResponse struct {
	Version       string           `json:"version"`
	StartedAt     time.Time        `json:"started_at"`
	UptimeSeconds int64            `json:"uptime_seconds"`
	HardTimeout   float64          `json:"hard_timeout_seconds"`
	Jobs          []JobView        `json:"jobs"`
	Gateway       CountersSnapshot `json:"gateway"`
}

// handleStatus returns an http.HandlerFunc for GET /status.
func (g *Gateway) handleStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, StatusResponse{
			Version:       g.version,
			StartedAt:     g.startedAt,
			UptimeSeconds: int64(g.now().Sub(g.startedAt).Seconds()),
			HardTimeout:   g.jobs.HardTimeout().Seconds(),
			Jobs:          jobViews(g.jobs.Jobs()),
			Gateway:       g.counters.Snapshot(),
		})
	}
}
