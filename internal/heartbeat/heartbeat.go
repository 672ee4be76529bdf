// Package heartbeat reports successful job runs to an external dead man's
// switch (healthchecks.io style): one POST per completed sync.
package heartbeat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
)

// Sentinel errors for heartbeat operations.
var (
	ErrNoURL      = errors.New("heartbeat: no URL configured")
	ErrNonSuccess = errors.New("heartbeat: non-success response")
)

// maxErrorBody bounds how much of a failed response is kept in the error.
const maxErrorBody = 512

// Doer sends HTTP requests. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Pinger posts an empty body to a fixed URL.
type Pinger struct {
	client Doer
	url    string
	logger *slog.Logger
}

// New creates a Pinger for url. A nil client falls back to
// http.DefaultClient and a nil logger to slog.Default.
func New(client Doer, url string, logger *slog.Logger) *Pinger {
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pinger{client: client, url: strings.TrimSpace(url), logger: logger}
}

// Ping sends one heartbeat. Any non-2xx status is an error carrying the
// status code and a truncated body.
func (p *Pinger) Ping(ctx context.Context) error {
	if p.url == "" {
		return ErrNoURL
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, http.NoBody)
	if err != nil {
		return fmt.Errorf("heartbeat: build request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("heartbeat: post: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("%w: %d %s", ErrNonSuccess, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)

	p.logger.Debug("heartbeat: sent", "status", resp.StatusCode)
	return nil
}
