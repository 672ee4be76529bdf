package gateway

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestStatus_NotMountedWithoutAuth(t *testing.T) {
	t.Parallel()

	g := newTestGateway(t, Config{})

	rr := httptest.NewRecorder()
	g.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/status", nil))

	if rr.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rr.Code, http.StatusNotFound)
	}
}

func TestStatus_Authenticated(t *testing.T) {
	t.Parallel()

	g := newTestGateway(t, Config{Auth: AuthConfig{BearerToken: "tok"}})
	g.startedAt = time.Unix(1_700_000_000, 0)
	g.now = func() time.Time { return g.startedAt.Add(90 * time.Second) }

	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	req.Header.Set("Authorization", "Bearer tok")
	rr := httptest.NewRecorder()
	g.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusOK)
	}

	var resp StatusResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Version != "v1.2.3" {
		t.Errorf("version = %q", resp.Version)
	}
	if resp.UptimeSeconds != 90 {
		t.Errorf("uptime = %d, want 90", resp.UptimeSeconds)
	}
	if resp.HardTimeout != 60 {
		t.Errorf("hard timeout = %v, want 60", resp.HardTimeout)
	}
	if len(resp.Jobs) != 2 {
		t.Errorf("jobs = %+v", resp.Jobs)
	}
}

func TestStatus_Unauthorized(t *testing.T) {
	t.Parallel()

	g := newTestGateway(t, Config{Auth: AuthConfig{BearerToken: "tok"}})

	rr := httptest.NewRecorder()
	g.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/status", nil))

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rr.Code, http.StatusUnauthorized)
	}
}
