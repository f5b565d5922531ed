package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadYAMLWithEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yamlDoc := `
server:
  port: "9000"
services:
  url: http://bank:8081
  timeout: 5s
quiz:
  advanceDelay: 1500ms
redis:
  addr: redis:6379
api:
  corsOrigins: ["http://a.test"]
`
	if err := os.WriteFile(path, []byte(yamlDoc), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("REDIS_ADDR", "localhost:6380")
	t.Setenv("CORS_ORIGINS", "http://b.test, http://c.test")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != "9000" || cfg.Services.URL != "http://bank:8081" {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if cfg.Redis.Addr != "localhost:6380" {
		t.Fatalf("expected env override, got %q", cfg.Redis.Addr)
	}
	if len(cfg.API.CORSOrigins) != 2 || cfg.API.CORSOrigins[1] != "http://c.test" {
		t.Fatalf("unexpected origins %v", cfg.API.CORSOrigins)
	}
	if d := TTLDuration(cfg.Quiz.AdvanceDelay, 2*time.Second); d != 1500*time.Millisecond {
		t.Fatalf("unexpected advance delay %v", d)
	}
}

func TestLoadMissingFile(t *testing.T) {
	t.Setenv("SERVICES_URL", "http://localhost:8081")
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("missing file should not fail: %v", err)
	}
	if cfg.Services.URL != "http://localhost:8081" {
		t.Fatalf("expected env value, got %q", cfg.Services.URL)
	}
	if d := TTLDuration("nonsense", time.Minute); d != time.Minute {
		t.Fatalf("expected fallback, got %v", d)
	}
}
