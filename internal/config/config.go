package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"tasklist/internal/otel"
)

type BackendConfig struct {
	Addr string `yaml:"addr"`
	// DatabaseURI selects the store; empty means an in-memory SQLite database.
	DatabaseURI string `yaml:"database_uri"`
}

type FrontendConfig struct {
	Addr string `yaml:"addr"`
	// BackendHost is host:port (or a full URL) of the task API.
	BackendHost           string `yaml:"backend_host"`
	RequestTimeoutSeconds int    `yaml:"request_timeout_seconds"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type Config struct {
	Backend   BackendConfig  `yaml:"backend"`
	Frontend  FrontendConfig `yaml:"frontend"`
	Log       LogConfig      `yaml:"log"`
	Telemetry otel.Config    `yaml:"telemetry"`
}

// RequestTimeout is the per-call timeout the frontend applies to backend calls.
func (c Config) RequestTimeout() time.Duration {
	return time.Duration(c.Frontend.RequestTimeoutSeconds) * time.Second
}

// Load reads the optional YAML file at path, then applies environment
// overrides and defaults. An empty path skips the file.
func Load(path string) (Config, error) {
	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		}
		if len(data) > 0 {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}
	applyEnvOverrides(&cfg)
	normalize(&cfg)
	return cfg, nil
}

func normalize(cfg *Config) {
	if cfg.Backend.Addr == "" {
		cfg.Backend.Addr = ":5001"
	}
	if cfg.Frontend.Addr == "" {
		cfg.Frontend.Addr = ":5000"
	}
	if strings.TrimSpace(cfg.Frontend.BackendHost) == "" {
		cfg.Frontend.BackendHost = "127.0.0.1:5001"
	}
	if cfg.Frontend.RequestTimeoutSeconds <= 0 {
		cfg.Frontend.RequestTimeoutSeconds = 10
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}

func applyEnvOverrides(cfg *Config) {
	if raw := os.Getenv("TASKLIST_BACKEND_ADDR"); raw != "" {
		cfg.Backend.Addr = raw
	}
	if raw := os.Getenv("DATABASE_URI"); raw != "" {
		cfg.Backend.DatabaseURI = raw
	}
	if raw := os.Getenv("TASKLIST_FRONTEND_ADDR"); raw != "" {
		cfg.Frontend.Addr = raw
	}
	// docker-compose style deployments pass the lower-case name
	for _, name := range []string{"BACKEND_HOST", "backend_host"} {
		if raw := os.Getenv(name); raw != "" {
			cfg.Frontend.BackendHost = raw
			break
		}
	}
	if raw := os.Getenv("TASKLIST_REQUEST_TIMEOUT_SECONDS"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			cfg.Frontend.RequestTimeoutSeconds = v
		}
	}
	if raw := os.Getenv("TASKLIST_LOG_LEVEL"); raw != "" {
		cfg.Log.Level = raw
	}
	if raw := os.Getenv("TASKLIST_LOG_FORMAT"); raw != "" {
		cfg.Log.Format = raw
	}
	if raw := os.Getenv("TASKLIST_OTEL_ENABLED"); raw != "" {
		if v, err := strconv.ParseBool(raw); err == nil {
			cfg.Telemetry.Enabled = v
		}
	}
	if raw := os.Getenv("TASKLIST_OTEL_EXPORTER"); raw != "" {
		cfg.Telemetry.Exporter = raw
	}
	if raw := os.Getenv("TASKLIST_OTEL_ENDPOINT"); raw != "" {
		cfg.Telemetry.Endpoint = raw
	}
}
