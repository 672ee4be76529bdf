package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/flemzord/cronsync/internal/config"
	"github.com/flemzord/cronsync/internal/cron"
)

func TestVersionCmd(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	root := rootCmd()
	root.SetOut(&out)
	root.SetArgs([]string{"version"})
	if err := root.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !strings.HasPrefix(out.String(), "cronsync dev") {
		t.Errorf("output = %q", out.String())
	}
}

func TestConfigCheck(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "cronsync.yaml")
	raw := `
database:
  url: postgres://localhost/crm
jobs:
  clearhaus:
    interval: "300"
    base_url: https://api.example.test
    healthcheck_url: https://hc.example.test/ping
    client_id: id
    client_secret: secret
`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	var out bytes.Buffer
	root := rootCmd()
	root.SetOut(&out)
	root.SetArgs([]string{"config", "check", path})
	if err := root.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	for _, want := range []string{"Configuration OK (" + path + ")", "clearhaus  every 5m0s", "brevo      disabled"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output %q missing %q", out.String(), want)
		}
	}
}

func TestConfigCheck_Invalid(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "cronsync.yaml")
	if err := os.WriteFile(path, []byte("version: \"2\"\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	root := rootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetArgs([]string{"config", "check", path})
	if err := root.Execute(); err == nil {
		t.Error("expected validation error")
	}
}

func TestPrintJobs(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	printJobs(&out, config.EmbeddedSource, []config.Entry{
		{Name: "brevo", Err: cron.ErrIntervalDisabled},
		{Name: "clearhaus", Interval: time.Minute},
	})

	want := "Configuration OK (<embedded>)\n" +
		"  brevo      disabled: " + cron.ErrIntervalDisabled.Error() + "\n" +
		"  clearhaus  every 1m0s\n"
	if out.String() != want {
		t.Errorf("output = %q, want %q", out.String(), want)
	}
}
