package app

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/flemzord/cronsync/internal/config"
	"github.com/flemzord/cronsync/internal/cron"
	"github.com/flemzord/cronsync/internal/heartbeat"
	"github.com/flemzord/cronsync/internal/jobs/brevo"
	"github.com/flemzord/cronsync/internal/jobs/clearhaus"
	"github.com/flemzord/cronsync/internal/store"
)

// registrar is the part of *cron.Scheduler the wiring needs.
type registrar interface {
	Register(name string, every time.Duration, job cron.Job) error
}

// seeder pre-creates the per-job series. *metrics.Registry satisfies it.
type seeder interface {
	Seed(job string)
}

// deps are the collaborators shared by every job.
type deps struct {
	client *http.Client
	store  *store.Store
	logger *slog.Logger
}

// buildJob constructs the job named by entry.
func buildJob(name string, cfg *config.Config, d deps) (cron.Job, error) {
	switch name {
	case config.JobClearhaus:
		c := cfg.Jobs.Clearhaus
		return clearhaus.New(clearhaus.Config{
			BaseURL:      c.BaseURL,
			ClientID:     c.ClientID,
			ClientSecret: c.ClientSecret,
		}, d.client, d.store, heartbeat.New(d.client, c.HealthcheckURL, d.logger), d.logger), nil
	case config.JobBrevo:
		c := cfg.Jobs.Brevo
		listID, err := c.ParseListID()
		if err != nil {
			return nil, err
		}
		return brevo.New(brevo.Config{
			APIURL:          c.APIURL,
			APIKey:          c.APIKey,
			RenewPaymentURL: c.RenewPaymentURL,
			ListID:          listID,
		}, d.client, d.store, heartbeat.New(d.client, c.HealthcheckURL, d.logger), d.logger), nil
	default:
		return nil, fmt.Errorf("app: unknown job %q", name)
	}
}

// registerJobs registers every enabled entry and warns about the others.
// It returns the names registered, in order.
func registerJobs(sched registrar, seed seeder, entries []config.Entry, cfg *config.Config, d deps) ([]string, error) {
	var names []string
	for _, e := range entries {
		if !e.Enabled() {
			d.logger.Warn("job disabled", "job", e.Name, "reason", e.Err)
			continue
		}

		job, err := buildJob(e.Name, cfg, d)
		if err != nil {
			return names, fmt.Errorf("app: job %s: %w", e.Name, err)
		}
		seed.Seed(e.Name)
		if err := sched.Register(e.Name, e.Interval, job); err != nil {
			return names, fmt.Errorf("app: job %s: %w", e.Name, err)
		}
		names = append(names, e.Name)
	}
	return names, nil
}

// anyEnabled reports whether at least one entry is enabled.
func anyEnabled(entries []config.Entry) bool {
	for _, e := range entries {
		if e.Enabled() {
			return true
		}
	}
	return false
}
