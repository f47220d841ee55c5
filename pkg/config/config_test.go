package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const sampleYAML = `
storage:
  db_path: /var/lib/engagekit/votes
transport:
  kind: redis
  redis:
    addr: localhost:6379
    history_cap: 100
sync:
  tick_interval: 250ms
  cache_cap: 300
inbound:
  capacity: 2048
  max_pooled_buffer_bytes: 1MB
votes:
  expiry: 48h
  sweep_cron: "0 4 * * *"
platform:
  rps: 5
  timeout: 2s
logging:
  level: debug
metrics:
  enabled: true
  addr: 127.0.0.1:9400
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(p, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return p
}

func TestLoadParsesTypedValues(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleYAML))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Storage.DBPath != "/var/lib/engagekit/votes" {
		t.Fatalf("db path %q", cfg.Storage.DBPath)
	}
	if cfg.Transport.Kind != "redis" || cfg.Transport.Redis.Addr != "localhost:6379" {
		t.Fatalf("transport %+v", cfg.Transport)
	}
	if cfg.Sync.TickInterval.Duration() != 250*time.Millisecond {
		t.Fatalf("tick %v", cfg.Sync.TickInterval.Duration())
	}
	if cfg.Inbound.MaxPooledBufferBytes.Int64() != 1000*1000 {
		t.Fatalf("buffer bytes %d", cfg.Inbound.MaxPooledBufferBytes.Int64())
	}
	if cfg.Votes.Expiry.Duration() != 48*time.Hour {
		t.Fatalf("expiry %v", cfg.Votes.Expiry.Duration())
	}
	if !cfg.Metrics.Enabled || cfg.Metrics.Addr != "127.0.0.1:9400" {
		t.Fatalf("metrics %+v", cfg.Metrics)
	}
}

func TestDurationAcceptsNumericSeconds(t *testing.T) {
	cfg, err := Load(writeConfig(t, "sync:\n  tick_interval: 2\n"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Sync.TickInterval.Duration() != 2*time.Second {
		t.Fatalf("numeric seconds parsed as %v", cfg.Sync.TickInterval.Duration())
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatalf("missing file did not error")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("ENGAGEKIT_DB_PATH", "/tmp/override")
	t.Setenv("ENGAGEKIT_TRANSPORT", "Redis")
	t.Setenv("ENGAGEKIT_SYNC_TICK", "100ms")
	t.Setenv("ENGAGEKIT_VOTE_EXPIRY", "12h")
	t.Setenv("ENGAGEKIT_METRICS_ADDR", ":9500")

	cfg := &Config{}
	if !LoadEnvOverrides(cfg) {
		t.Fatalf("env not detected")
	}
	if cfg.Storage.DBPath != "/tmp/override" {
		t.Fatalf("db path %q", cfg.Storage.DBPath)
	}
	if cfg.Transport.Kind != "redis" {
		t.Fatalf("transport kind not normalized: %q", cfg.Transport.Kind)
	}
	if cfg.Sync.TickInterval.Duration() != 100*time.Millisecond {
		t.Fatalf("tick %v", cfg.Sync.TickInterval.Duration())
	}
	if cfg.Votes.Expiry.Duration() != 12*time.Hour {
		t.Fatalf("expiry %v", cfg.Votes.Expiry.Duration())
	}
	if !cfg.Metrics.Enabled || cfg.Metrics.Addr != ":9500" {
		t.Fatalf("metrics %+v", cfg.Metrics)
	}
}

func TestLoadEffectiveToleratesMissingFile(t *testing.T) {
	t.Setenv("ENGAGEKIT_DB_PATH", "/tmp/env-only")
	cfg, envUsed, err := LoadEffective(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("effective: %v", err)
	}
	if !envUsed || cfg.Storage.DBPath != "/tmp/env-only" {
		t.Fatalf("env-only config not honored: %+v used=%v", cfg.Storage, envUsed)
	}
}
