package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"tasklist/internal/config"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		"TASKLIST_BACKEND_ADDR", "DATABASE_URI", "TASKLIST_FRONTEND_ADDR",
		"BACKEND_HOST", "backend_host", "TASKLIST_REQUEST_TIMEOUT_SECONDS",
		"TASKLIST_LOG_LEVEL", "TASKLIST_LOG_FORMAT",
		"TASKLIST_OTEL_ENABLED", "TASKLIST_OTEL_EXPORTER", "TASKLIST_OTEL_ENDPOINT",
	} {
		t.Setenv(name, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Backend.Addr != ":5001" {
		t.Fatalf("backend addr: got %q", cfg.Backend.Addr)
	}
	if cfg.Backend.DatabaseURI != "" {
		t.Fatalf("expected empty database uri (in-memory), got %q", cfg.Backend.DatabaseURI)
	}
	if cfg.Frontend.Addr != ":5000" {
		t.Fatalf("frontend addr: got %q", cfg.Frontend.Addr)
	}
	if cfg.Frontend.BackendHost != "127.0.0.1:5001" {
		t.Fatalf("backend host: got %q", cfg.Frontend.BackendHost)
	}
	if cfg.RequestTimeout() != 10*time.Second {
		t.Fatalf("request timeout: got %v", cfg.RequestTimeout())
	}
	if cfg.Log.Level != "info" || cfg.Log.Format != "text" {
		t.Fatalf("log defaults: got %+v", cfg.Log)
	}
	if cfg.Telemetry.Enabled {
		t.Fatal("telemetry should be disabled by default")
	}
}

func TestLoad_FromFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "tasklist.yaml")
	data := []byte(`backend:
  addr: ":9001"
  database_uri: "mysql://root:pw@tcp(db:3306)/tasks"
frontend:
  backend_host: "backend:9001"
  request_timeout_seconds: 3
log:
  level: debug
  format: json
telemetry:
  enabled: true
  exporter: stdout
`)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Backend.Addr != ":9001" {
		t.Fatalf("backend addr: got %q", cfg.Backend.Addr)
	}
	if cfg.Backend.DatabaseURI != "mysql://root:pw@tcp(db:3306)/tasks" {
		t.Fatalf("database uri: got %q", cfg.Backend.DatabaseURI)
	}
	if cfg.Frontend.BackendHost != "backend:9001" {
		t.Fatalf("backend host: got %q", cfg.Frontend.BackendHost)
	}
	if cfg.RequestTimeout() != 3*time.Second {
		t.Fatalf("timeout: got %v", cfg.RequestTimeout())
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "json" {
		t.Fatalf("log: got %+v", cfg.Log)
	}
	if !cfg.Telemetry.Enabled || cfg.Telemetry.Exporter != "stdout" {
		t.Fatalf("telemetry: got %+v", cfg.Telemetry)
	}
	// unset in the file, so the default still applies
	if cfg.Frontend.Addr != ":5000" {
		t.Fatalf("frontend addr: got %q", cfg.Frontend.Addr)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "tasklist.yaml")
	if err := os.WriteFile(path, []byte("frontend:\n  backend_host: from-file:1\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("backend_host", "from-env:2")
	t.Setenv("DATABASE_URI", "sqlite:///tmp/tasks.db")
	t.Setenv("TASKLIST_LOG_LEVEL", "warn")
	t.Setenv("TASKLIST_REQUEST_TIMEOUT_SECONDS", "not-a-number")

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Frontend.BackendHost != "from-env:2" {
		t.Fatalf("backend host: got %q", cfg.Frontend.BackendHost)
	}
	if cfg.Backend.DatabaseURI != "sqlite:///tmp/tasks.db" {
		t.Fatalf("database uri: got %q", cfg.Backend.DatabaseURI)
	}
	if cfg.Log.Level != "warn" {
		t.Fatalf("log level: got %q", cfg.Log.Level)
	}
	if cfg.RequestTimeout() != 10*time.Second {
		t.Fatalf("bad timeout env should be ignored, got %v", cfg.RequestTimeout())
	}
}

func TestLoad_UpperCaseBackendHostWins(t *testing.T) {
	clearEnv(t)
	t.Setenv("BACKEND_HOST", "upper:1")
	t.Setenv("backend_host", "lower:2")
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Frontend.BackendHost != "upper:1" {
		t.Fatalf("backend host: got %q", cfg.Frontend.BackendHost)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	clearEnv(t)
	if _, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("backend: [unclosed"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := config.Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}
