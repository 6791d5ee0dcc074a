package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ycho/linear-mcp-server/internal/linear"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write test config file: %v", err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv(EnvAPIKey, "test-key")
	t.Setenv(EnvLinearURL, "")
	t.Setenv(EnvPort, "")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v, want nil", err)
	}

	if cfg.Linear.URL != linear.DefaultURL {
		t.Errorf("Linear.URL = %s, want %s", cfg.Linear.URL, linear.DefaultURL)
	}
	if cfg.Linear.Timeout != linear.DefaultTimeout {
		t.Errorf("Linear.Timeout = %s, want %s", cfg.Linear.Timeout, linear.DefaultTimeout)
	}
	if cfg.Linear.APIKey != "test-key" {
		t.Errorf("Linear.APIKey = %s, want test-key", cfg.Linear.APIKey)
	}
	if cfg.Server.Port != DefaultPort {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, DefaultPort)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v, want nil", err)
	}
}

func TestLoad_FileThenEnv(t *testing.T) {
	t.Setenv(EnvAPIKey, "test-key")
	t.Setenv(EnvLinearURL, "")
	t.Setenv(EnvPort, "9090")

	path := writeConfig(t, `
linear:
  url: https://linear.example.com/graphql
  timeout: 5s
server:
  port: 7070
log:
  level: debug
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v, want nil", err)
	}

	if cfg.Linear.URL != "https://linear.example.com/graphql" {
		t.Errorf("Linear.URL = %s, want file value", cfg.Linear.URL)
	}
	if cfg.Linear.Timeout != 5*time.Second {
		t.Errorf("Linear.Timeout = %s, want 5s", cfg.Linear.Timeout)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want env value 9090", cfg.Server.Port)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %s, want debug", cfg.Log.Level)
	}
}

func TestLoad_APIKeyIgnoredInFile(t *testing.T) {
	t.Setenv(EnvAPIKey, "")

	path := writeConfig(t, `
linear:
  apikey: from-file
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v, want nil", err)
	}
	if cfg.Linear.APIKey != "" {
		t.Errorf("Linear.APIKey = %s, want empty", cfg.Linear.APIKey)
	}

	err = cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), EnvAPIKey) {
		t.Errorf("Validate() error = %v, want missing %s", err, EnvAPIKey)
	}
}

func TestLoad_Errors(t *testing.T) {
	t.Setenv(EnvPort, "")

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil || !strings.Contains(err.Error(), "not found") {
		t.Errorf("Load() error = %v, want not found", err)
	}

	if _, err := Load(writeConfig(t, "linear: [unclosed")); err == nil || !strings.Contains(err.Error(), "invalid YAML") {
		t.Errorf("Load() error = %v, want invalid YAML", err)
	}

	t.Setenv(EnvPort, "eighty")
	if _, err := Load(""); err == nil || !strings.Contains(err.Error(), EnvPort) {
		t.Errorf("Load() error = %v, want invalid %s", err, EnvPort)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"bad scheme", func(c *Config) { c.Linear.URL = "ftp://linear.app" }, "http or https"},
		{"empty url", func(c *Config) { c.Linear.URL = "" }, "linear url is required"},
		{"zero timeout", func(c *Config) { c.Linear.Timeout = 0 }, "timeout"},
		{"port too large", func(c *Config) { c.Server.Port = 70000 }, "invalid server port"},
		{"unknown level", func(c *Config) { c.Log.Level = "verbose" }, "invalid log level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Linear.APIKey = "test-key"
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}
