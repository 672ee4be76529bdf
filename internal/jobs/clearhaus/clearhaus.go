// Package clearhaus copies unsettled Clearhaus payouts into the
// clearhaus_settlement table.
package clearhaus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/flemzord/cronsync/internal/cron"
	"github.com/flemzord/cronsync/internal/store"
)

// Name is the job name used for registration, metrics and logs.
const Name = "clearhaus"

// RefreshBefore is how long before expiry a cached token is replaced.
const RefreshBefore = 15 * time.Minute

const maxErrorBody = 4 << 10

// Sentinel errors for malformed API responses.
var (
	ErrBadResponse = errors.New("clearhaus: unexpected response")
	ErrNoExpiry    = errors.New("clearhaus: token response has no expires_in")
)

// Config holds the API coordinates and credentials.
type Config struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
}

// SettlementWriter persists settlements. *store.Store satisfies it.
type SettlementWriter interface {
	InsertSettlement(ctx context.Context, s store.Settlement) error
}

// Pinger reports a completed sync. *heartbeat.Pinger satisfies it.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Job fetches unsettled settlements on every run.
type Job struct {
	baseURL string
	client  *http.Client
	oauth   clientcredentials.Config
	store   SettlementWriter
	health  Pinger
	logger  *slog.Logger
	now     func() time.Time

	mu    sync.Mutex
	token *oauth2.Token
}

var _ cron.Job = (*Job)(nil)

// New builds the job. client is shared with the rest of the process and
// carries the request timeout.
func New(cfg Config, client *http.Client, w SettlementWriter, health Pinger, logger *slog.Logger) *Job {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Job{
		baseURL: base,
		client:  client,
		oauth: clientcredentials.Config{
			ClientID:       cfg.ClientID,
			ClientSecret:   cfg.ClientSecret,
			TokenURL:       base + "/oauth/token",
			EndpointParams: url.Values{"audience": {base}},
			AuthStyle:      oauth2.AuthStyleInHeader,
		},
		store:  w,
		health: health,
		logger: logger.With("job", Name),
		now:    time.Now,
	}
}

// Run implements cron.Job.
func (j *Job) Run(ctx context.Context) error {
	tok, err := j.currentToken(ctx)
	if err != nil {
		return err
	}

	settlements, err := j.fetch(ctx, tok)
	if err != nil {
		return err
	}

	var failed int
	for _, s := range settlements {
		if err := j.store.InsertSettlement(ctx, s); err != nil {
			failed++
			j.logger.Error("clearhaus: saving settlement failed",
				"merchant_id", s.MerchantID,
				"net", s.Net,
				"error", err,
			)
			continue
		}
		j.logger.Debug("clearhaus: settlement saved", "merchant_id", s.MerchantID, "net", s.Net)
	}
	j.logger.Info("clearhaus: settlements processed", "total", len(settlements), "failed", failed)

	if err := j.health.Ping(ctx); err != nil {
		return fmt.Errorf("clearhaus: report health: %w", err)
	}
	return nil
}

// currentToken returns the cached token, fetching a new one when none is
// cached or the cached one expires within RefreshBefore.
func (j *Job) currentToken(ctx context.Context) (*oauth2.Token, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.token != nil && j.now().Before(j.token.Expiry.Add(-RefreshBefore)) {
		return j.token, nil
	}

	j.logger.Info("clearhaus: refreshing auth token")
	tok, err := j.oauth.Token(context.WithValue(ctx, oauth2.HTTPClient, j.client))
	if err != nil {
		return nil, fmt.Errorf("clearhaus: fetch token: %w", err)
	}
	if tok.Expiry.IsZero() {
		return nil, ErrNoExpiry
	}
	j.token = tok
	return tok, nil
}

type settlementsPage struct {
	Embedded struct {
		Settlements *[]settlementEntry `json:"ch:settlements"`
	} `json:"_embedded"`
}

type settlementEntry struct {
	Summary struct {
		Net *int64 `json:"net"`
	} `json:"summary"`
	Embedded struct {
		Account struct {
			MerchantID *string `json:"merchant_id"`
		} `json:"ch:account"`
	} `json:"_embedded"`
}

func (j *Job) fetch(ctx context.Context, tok *oauth2.Token) ([]store.Settlement, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, j.baseURL+"/settlements?query=settled%3Afalse", http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("clearhaus: build request: %w", err)
	}
	tok.SetAuthHeader(req)
	req.Header.Set("Accept", "application/json")

	resp, err := j.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("clearhaus: fetch settlements: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, fmt.Errorf("clearhaus: fetch settlements: %d %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var page settlementsPage
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("%w: decode settlements: %w", ErrBadResponse, err)
	}
	return parseSettlements(page)
}

func parseSettlements(page settlementsPage) ([]store.Settlement, error) {
	if page.Embedded.Settlements == nil {
		return nil, fmt.Errorf("%w: no settlements array", ErrBadResponse)
	}

	entries := *page.Embedded.Settlements
	out := make([]store.Settlement, 0, len(entries))
	for i, e := range entries {
		if e.Embedded.Account.MerchantID == nil {
			return nil, fmt.Errorf("%w: settlement %d has no merchant id", ErrBadResponse, i)
		}
		id, err := strconv.ParseInt(*e.Embedded.Account.MerchantID, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("%w: settlement %d merchant id: %w", ErrBadResponse, i, err)
		}
		if e.Summary.Net == nil {
			return nil, fmt.Errorf("%w: settlement %d has no net amount", ErrBadResponse, i)
		}
		out = append(out, store.Settlement{MerchantID: int32(id), Net: *e.Summary.Net})
	}
	return out, nil
}
