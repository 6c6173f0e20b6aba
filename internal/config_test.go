package internal

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	pkgconfig "github.com/starford/ansuz/pkg/config"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := NewDefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should pass: %v", err)
	}
}

func TestHTTPConfig_PortBounds(t *testing.T) {
	cfg := HTTPConfig{Port: 0}
	if err := cfg.Validate(); err == nil {
		t.Error("port 0 should fail validation")
	}
	cfg.Port = 70000
	if err := cfg.Validate(); err == nil {
		t.Error("port 70000 should fail validation")
	}
	cfg.Port = 8080
	if err := cfg.Validate(); err != nil {
		t.Errorf("port 8080 should pass: %v", err)
	}
}

func TestUpstreamConfig_RequiresBaseURL(t *testing.T) {
	cfg := UpstreamConfig{}
	if err := cfg.Validate(); err == nil {
		t.Error("empty base_url should fail validation")
	}
}

func TestRetryConfig_AttemptBounds(t *testing.T) {
	cfg := RetryConfig{MaxAttempts: 0}
	if err := cfg.Validate(); err == nil {
		t.Error("zero attempts should fail validation")
	}
	cfg.MaxAttempts = 4
	if err := cfg.Validate(); err != nil {
		t.Errorf("4 attempts should pass: %v", err)
	}
}

func TestSnapshotsConfig_EnabledRequiresPath(t *testing.T) {
	cfg := SnapshotsConfig{Enabled: true, Path: ""}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("enabled snapshots without path should fail")
	}
	if !strings.Contains(err.Error(), "path is empty") {
		t.Errorf("unexpected error: %v", err)
	}
	cfg = SnapshotsConfig{Enabled: false, Path: ""}
	if err := cfg.Validate(); err != nil {
		t.Errorf("disabled snapshots without path should pass: %v", err)
	}
}

func TestLoadConfigFromYAML(t *testing.T) {
	raw := `
app:
  log_level: DEBUG
  http:
    port: 9090
upstream:
  base_url: "https://cms.example.com"
  timeout: 10s
session:
  credential_path: /tmp/cred.json
cache:
  stale_time: 30s
  gc_window: 10m
  retry:
    max_attempts: 3
    base_delay: 500ms
    max_delay: 5s
snapshots:
  enabled: false
events:
  refresh_throttle: 1s
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := NewDefaultConfig()
	if err := pkgconfig.Load(path, cfg); err != nil {
		t.Fatal(err)
	}

	if cfg.App.HTTP.Port != 9090 {
		t.Errorf("port = %d", cfg.App.HTTP.Port)
	}
	if cfg.Upstream.BaseURL != "https://cms.example.com" {
		t.Errorf("base_url = %q", cfg.Upstream.BaseURL)
	}
	if cfg.Cache.StaleTime.Std() != 30*time.Second {
		t.Errorf("stale_time = %v", cfg.Cache.StaleTime.Std())
	}
	if cfg.Cache.Retry.BaseDelay.Std() != 500*time.Millisecond {
		t.Errorf("base_delay = %v", cfg.Cache.Retry.BaseDelay.Std())
	}
	if cfg.Snapshots.Enabled {
		t.Error("snapshots should be disabled")
	}
}

func TestLoadConfigRejectsBadDuration(t *testing.T) {
	raw := `
cache:
  stale_time: soon
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg := NewDefaultConfig()
	if err := pkgconfig.Load(path, cfg); err == nil {
		t.Error("expected error for unparseable duration")
	}
}

func TestLoadConfigExpandsEnv(t *testing.T) {
	t.Setenv("TEST_UPSTREAM_URL", "https://env.example.com")
	raw := `
upstream:
  base_url: "${TEST_UPSTREAM_URL}"
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg := NewDefaultConfig()
	if err := pkgconfig.Load(path, cfg); err != nil {
		t.Fatal(err)
	}
	if cfg.Upstream.BaseURL != "https://env.example.com" {
		t.Errorf("base_url = %q", cfg.Upstream.BaseURL)
	}
}
