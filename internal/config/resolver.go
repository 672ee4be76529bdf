package config

import (
	"slices"
	"strings"
	"time"

	"github.com/flemzord/cronsync/internal/cron"
)

// Job names as they appear under jobs: in the configuration.
const (
	JobClearhaus = "clearhaus"
	JobBrevo     = "brevo"
)

// Entry is the resolved schedule of one configured job.
type Entry struct {
	Name     string
	Interval time.Duration
	// Err explains why the job is disabled; nil means enabled.
	Err error
}

// Enabled reports whether the job should be registered.
func (e Entry) Enabled() bool { return e.Err == nil }

// Resolve parses every job interval and returns one entry per job, sorted
// by name. A missing, non-positive or unparseable interval disables the job.
func Resolve(cfg *Config) []Entry {
	raw := map[string]string{
		JobClearhaus: cfg.Jobs.Clearhaus.Interval,
		JobBrevo:     cfg.Jobs.Brevo.Interval,
	}

	entries := make([]Entry, 0, len(raw))
	for name, interval := range raw {
		d, err := cron.ParseInterval(interval)
		entries = append(entries, Entry{Name: name, Interval: d, Err: err})
	}
	slices.SortFunc(entries, func(a, b Entry) int { return strings.Compare(a.Name, b.Name) })
	return entries
}

// enabled reports whether name resolves to an enabled entry.
func enabled(entries []Entry, name string) bool {
	for _, e := range entries {
		if e.Name == name {
			return e.Enabled()
		}
	}
	return false
}
