package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadYAMLWithEnvOverrides(t *testing.T) {
	path := writeFile(t, "config.yaml", `
server:
  port: "9000"
  allowed_origins: ["http://localhost:3000"]
postgres:
  url: postgres://file
quiz:
  ttl: 5m
admission:
  max_retries: 5
log:
  format: json
`)
	t.Setenv("POSTGRES_URL", "postgres://env")
	t.Setenv("PORT", "")
	t.Setenv("ALLOWED_ORIGINS", "")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != "9000" {
		t.Fatalf("expected port from file, got %q", cfg.Server.Port)
	}
	if cfg.Postgres.URL != "postgres://env" {
		t.Fatalf("expected env override, got %q", cfg.Postgres.URL)
	}
	if cfg.Admission.MaxRetries != 5 || len(cfg.Server.AllowedOrigins) != 1 {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if got := TTLDuration(cfg.Quiz.TTL, time.Minute); got != 5*time.Minute {
		t.Fatalf("expected 5m ttl, got %v", got)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Admission.MaxRetries != 3 {
		t.Fatalf("expected default retries, got %d", cfg.Admission.MaxRetries)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	path := writeFile(t, "config.yaml", "log:\n  format: xml\n")
	if _, err := Load(path); err == nil {
		t.Fatalf("expected error for unknown log format")
	}
	path = writeFile(t, "broken.yaml", "server: [")
	if _, err := Load(path); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestLoadDotenv(t *testing.T) {
	path := writeFile(t, ".env", "JWT_SECRET=from-dotenv\n")
	t.Setenv("JWT_SECRET", "")
	os.Unsetenv("JWT_SECRET")

	if err := LoadDotenv(path); err != nil {
		t.Fatalf("load dotenv: %v", err)
	}
	if got := os.Getenv("JWT_SECRET"); got != "from-dotenv" {
		t.Fatalf("expected secret from .env, got %q", got)
	}
	if err := LoadDotenv(filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Fatalf("missing .env should be ignored: %v", err)
	}
}

func TestTTLDurationFallback(t *testing.T) {
	if got := TTLDuration("", time.Second); got != time.Second {
		t.Fatalf("expected fallback for empty, got %v", got)
	}
	if got := TTLDuration("soon", time.Second); got != time.Second {
		t.Fatalf("expected fallback for garbage, got %v", got)
	}
}
