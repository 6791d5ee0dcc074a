package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ycho/linear-mcp-server/internal/linear"
)

// Environment variables read at startup.
const (
	EnvAPIKey    = "LINEAR_API_KEY"
	EnvLinearURL = "LINEAR_API_URL"
	EnvPort      = "PORT"
)

// DefaultPort is used by the SSE and REST servers.
const DefaultPort = 8080

// Config represents the server configuration.
type Config struct {
	Linear LinearConfig `yaml:"linear"`
	Server ServerConfig `yaml:"server"`
	Log    LogConfig    `yaml:"log"`
}

// LinearConfig holds the upstream API settings. The API key is only ever
// taken from the environment.
type LinearConfig struct {
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`
	APIKey  string        `yaml:"-"`
}

// ServerConfig holds listener settings for the SSE and REST modes.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `yaml:"level"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Linear: LinearConfig{
			URL:     linear.DefaultURL,
			Timeout: linear.DefaultTimeout,
		},
		Server: ServerConfig{Port: DefaultPort},
		Log:    LogConfig{Level: "info"},
	}
}

// Load builds the configuration from defaults, the optional YAML file at
// path, and the environment, in that order.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, fmt.Errorf("configuration file not found: %s", path)
			}
			return nil, fmt.Errorf("failed to read configuration file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("invalid YAML syntax in configuration file: %w", err)
		}
	}

	if err := cfg.applyEnv(os.Getenv); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	c.Linear.APIKey = getenv(EnvAPIKey)
	if v := getenv(EnvLinearURL); v != "" {
		c.Linear.URL = v
	}
	if v := getenv(EnvPort); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvPort, v, err)
		}
		c.Server.Port = port
	}
	return nil
}

// Validate checks the configuration and reports every problem at once.
func (c *Config) Validate() error {
	var errors []string

	if c.Linear.APIKey == "" {
		errors = append(errors, fmt.Sprintf("%s environment variable is required", EnvAPIKey))
	}

	if c.Linear.URL == "" {
		errors = append(errors, "linear url is required")
	} else if u, err := url.Parse(c.Linear.URL); err != nil {
		errors = append(errors, fmt.Sprintf("linear url is invalid: %v", err))
	} else if u.Scheme != "http" && u.Scheme != "https" {
		errors = append(errors, fmt.Sprintf("linear url must use http or https scheme, got '%s'", u.Scheme))
	}

	if c.Linear.Timeout <= 0 {
		errors = append(errors, fmt.Sprintf("invalid linear timeout %s: must be positive", c.Linear.Timeout))
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid server port %d: must be between 1 and 65535", c.Server.Port))
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be debug, info, warn or error", c.Log.Level))
	}

	if len(errors) > 0 {
		return fmt.Errorf("validation errors: %s", strings.Join(errors, "; "))
	}
	return nil
}
