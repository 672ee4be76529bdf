package gateway

import (
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"gopkg.in/yaml.v3"
)

func TestConfig_Defaults(t *testing.T) {
	t.Parallel()

	var cfg Config
	cfg.defaults()

	if cfg.Bind != DefaultBind {
		t.Errorf("Bind = %q, want %q", cfg.Bind, DefaultBind)
	}
	if cfg.ReadTimeout != 10*time.Second || cfg.WriteTimeout != 30*time.Second || cfg.ShutdownTimeout != 5*time.Second {
		t.Errorf("timeouts = %v %v %v", cfg.ReadTimeout, cfg.WriteTimeout, cfg.ShutdownTimeout)
	}
	if cfg.Auth.RatePerSecond != 1 || cfg.Auth.Burst != 5 {
		t.Errorf("auth rate = %v/%d", cfg.Auth.RatePerSecond, cfg.Auth.Burst)
	}
}

func TestConfig_YAML(t *testing.T) {
	t.Parallel()

	var cfg Config
	err := yaml.Unmarshal([]byte(`
bind: "127.0.0.1:9100"
read_timeout: 5s
auth:
  bearer_token: "my-token"
  burst: 10
`), &cfg)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	cfg.defaults()

	if cfg.Bind != "127.0.0.1:9100" || cfg.ReadTimeout != 5*time.Second {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.Auth.BearerToken != "my-token" || cfg.Auth.Burst != 10 || cfg.Auth.RatePerSecond != 1 {
		t.Errorf("auth = %+v", cfg.Auth)
	}
}

func TestNew_Validation(t *testing.T) {
	t.Parallel()

	if _, err := New(Config{Bind: "no-port"}, metricsStub(), fakeJobs{}); err == nil {
		t.Error("expected bind error")
	}
	if _, err := New(Config{}, nil, fakeJobs{}); err == nil {
		t.Error("expected nil metrics error")
	}
	if _, err := New(Config{}, metricsStub(), nil); err == nil {
		t.Error("expected nil jobs error")
	}
}

func TestGateway_StartStop(t *testing.T) {
	t.Parallel()

	g := newTestGateway(t, Config{Bind: "127.0.0.1:0"})
	if g.Addr() != nil {
		t.Error("Addr set before Start")
	}
	if err := g.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := g.Start(context.Background()); err == nil {
		t.Error("second Start succeeded")
	}

	resp, err := http.Get("http://" + g.Addr().String() + "/health")
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}

	if err := g.Stop(context.Background()); err != nil {
		t.Errorf("Stop: %v", err)
	}
}

func TestGateway_StopBeforeStart(t *testing.T) {
	t.Parallel()

	g := newTestGateway(t, Config{})
	if err := g.Stop(context.Background()); err != nil {
		t.Errorf("Stop: %v", err)
	}
}
