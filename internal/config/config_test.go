package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFromPathMissingFileUsesDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "env-secret")

	cfg, err := LoadFromPath(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Fatalf("expected default port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Auth.TokenTTL != 86400 {
		t.Fatalf("expected default token ttl 86400, got %d", cfg.Auth.TokenTTL)
	}
	if cfg.Auth.JWTSecret != "env-secret" {
		t.Fatalf("expected secret from environment, got %q", cfg.Auth.JWTSecret)
	}
}

func TestLoadFromPathRequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	if _, err := LoadFromPath(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatalf("expected error without jwt secret")
	}
}

func TestLoadFromPathFileAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  port: 9090
auth:
  jwt_secret: file-secret
  sweep_cron: "@every 30m"
redis:
  addr: localhost:6379
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("SERVER_PORT", "7070")
	t.Setenv("JWT_SECRET", "")

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != 7070 {
		t.Fatalf("expected env to override file port, got %d", cfg.Server.Port)
	}
	if cfg.Auth.JWTSecret != "file-secret" {
		t.Fatalf("expected file secret, got %q", cfg.Auth.JWTSecret)
	}
	if cfg.Auth.SweepCron != "@every 30m" {
		t.Fatalf("unexpected sweep schedule %q", cfg.Auth.SweepCron)
	}
	if cfg.Redis.Addr != "localhost:6379" {
		t.Fatalf("unexpected redis addr %q", cfg.Redis.Addr)
	}
}
