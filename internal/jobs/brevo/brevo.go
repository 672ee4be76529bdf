// Package brevo exports the crm_export view to a Brevo contact list.
package brevo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/flemzord/cronsync/internal/cron"
	"github.com/flemzord/cronsync/internal/store"
)

// Name is the job name used for registration, metrics and logs.
const Name = "brevo"

const maxErrorBody = 4 << 10

// Config holds the Brevo coordinates.
type Config struct {
	APIURL          string
	APIKey          string
	RenewPaymentURL string
	ListID          int64
}

// ContactSource reads the CRM export. *store.Store satisfies it.
type ContactSource interface {
	CRMExport(ctx context.Context) ([]store.CRMContact, error)
}

// Pinger reports a completed sync. *heartbeat.Pinger satisfies it.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Job uploads every CRM contact on each run.
type Job struct {
	cfg    Config
	client *http.Client
	source ContactSource
	health Pinger
	logger *slog.Logger
}

var _ cron.Job = (*Job)(nil)

// New builds the job.
func New(cfg Config, client *http.Client, source ContactSource, health Pinger, logger *slog.Logger) *Job {
	cfg.APIURL = strings.TrimRight(cfg.APIURL, "/")
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Job{cfg: cfg, client: client, source: source, health: health, logger: logger.With("job", Name)}
}

// importRequest is the body of POST /contacts/import.
type importRequest struct {
	DisableNotification     bool      `json:"disableNotification"`
	UpdateExistingContacts  bool      `json:"updateExistingContacts"`
	EmptyContactsAttributes bool      `json:"emptyContactsAttributes"`
	JSONBody                []Contact `json:"jsonBody"`
	ListIDs                 []int64   `json:"listIds"`
}

// Run implements cron.Job.
func (j *Job) Run(ctx context.Context) error {
	contacts, err := j.payload(ctx)
	if err != nil {
		return err
	}
	if err := j.upload(ctx, contacts); err != nil {
		return err
	}
	j.logger.Info("brevo: contacts uploaded", "contacts", len(contacts))

	if err := j.health.Ping(ctx); err != nil {
		return fmt.Errorf("brevo: report health: %w", err)
	}
	return nil
}

func (j *Job) payload(ctx context.Context) ([]Contact, error) {
	rows, err := j.source.CRMExport(ctx)
	if err != nil {
		return nil, fmt.Errorf("brevo: fetch export: %w", err)
	}
	contacts := make([]Contact, 0, len(rows))
	for _, row := range rows {
		contacts = append(contacts, contactFromRow(row, j.cfg.RenewPaymentURL))
	}
	return contacts, nil
}

func (j *Job) upload(ctx context.Context, contacts []Contact) error {
	body, err := json.Marshal(importRequest{
		DisableNotification:     true,
		UpdateExistingContacts:  true,
		EmptyContactsAttributes: true,
		JSONBody:                contacts,
		ListIDs:                 []int64{j.cfg.ListID},
	})
	if err != nil {
		return fmt.Errorf("brevo: encode import: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, j.cfg.APIURL+"/contacts/import", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("brevo: build request: %w", err)
	}
	req.Header.Set("api-key", j.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := j.client.Do(req)
	if err != nil {
		return fmt.Errorf("brevo: upload: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("brevo: upload: %d %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
