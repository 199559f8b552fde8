// Package config provides configuration loading for the survaize client.
// Values come from defaults, an optional YAML file, a .env file and the
// environment, in that order.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the client and the dev backend.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Transport     TransportConfig     `yaml:"transport"`
	Retry         RetryConfig         `yaml:"retry"`
	DevServer     DevServerConfig     `yaml:"dev_server"`
	Observability ObservabilityConfig `yaml:"observability"`
	Editor        EditorConfig        `yaml:"editor"`
}

// ServerConfig locates the extraction backend.
type ServerConfig struct {
	BaseURL string `yaml:"base_url"`
}

// TransportConfig holds job tracking settings.
type TransportConfig struct {
	StreamTimeout  time.Duration `yaml:"stream_timeout"`
	StartupDelay   time.Duration `yaml:"startup_delay"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// RetryConfig holds the backoff policy of save and health requests.
type RetryConfig struct {
	MaxRetries     int           `yaml:"max_retries"`
	InitialBackoff time.Duration `yaml:"initial_backoff"`
	MaxBackoff     time.Duration `yaml:"max_backoff"`
}

// DevServerConfig holds settings of the local development backend.
type DevServerConfig struct {
	Addr             string        `yaml:"addr"`
	JobTTL           time.Duration `yaml:"job_ttl"`
	FrameInterval    time.Duration `yaml:"frame_interval"`
	GracefulShutdown time.Duration `yaml:"graceful_shutdown"`
	Store            StoreConfig   `yaml:"store"`
}

// StoreConfig selects the job store backend.
type StoreConfig struct {
	Driver string      `yaml:"driver"` // memory or redis
	Redis  RedisConfig `yaml:"redis"`
}

// RedisConfig holds Redis-specific settings.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
}

// ObservabilityConfig holds logging settings.
type ObservabilityConfig struct {
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// EditorConfig holds the external editor used by the studio.
type EditorConfig struct {
	Command string `yaml:"command"`
}

// Load reads configuration from a YAML file and applies environment overrides.
// A missing .env file is not an error.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}

		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	_ = godotenv.Load()

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// DefaultConfig returns a configuration pointing at a local backend.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			BaseURL: "http://localhost:8000",
		},
		Transport: TransportConfig{
			StreamTimeout:  30 * time.Second,
			StartupDelay:   100 * time.Millisecond,
			RequestTimeout: 5 * time.Minute,
		},
		Retry: RetryConfig{
			MaxRetries:     3,
			InitialBackoff: 1 * time.Second,
			MaxBackoff:     30 * time.Second,
		},
		DevServer: DevServerConfig{
			Addr:             "127.0.0.1:8000",
			JobTTL:           10 * time.Minute,
			FrameInterval:    200 * time.Millisecond,
			GracefulShutdown: 10 * time.Second,
			Store: StoreConfig{
				Driver: "memory",
				Redis: RedisConfig{
					Addr:   "localhost:6379",
					Prefix: "survaize:job:",
				},
			},
		},
		Observability: ObservabilityConfig{
			LogLevel:  "info",
			LogFormat: "console",
		},
		Editor: EditorConfig{
			Command: "vi",
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	u, err := url.Parse(c.Server.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid base url %q: %w", c.Server.BaseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("base url must use http or https: %q", c.Server.BaseURL)
	}
	if u.Host == "" {
		return fmt.Errorf("base url has no host: %q", c.Server.BaseURL)
	}

	if c.Transport.StreamTimeout <= 0 {
		return fmt.Errorf("stream_timeout must be positive")
	}
	if c.Transport.StartupDelay < 0 {
		return fmt.Errorf("startup_delay must not be negative")
	}

	if c.Retry.MaxRetries < 0 {
		return fmt.Errorf("max_retries must not be negative")
	}
	if c.Retry.InitialBackoff <= 0 || c.Retry.MaxBackoff < c.Retry.InitialBackoff {
		return fmt.Errorf("invalid backoff window %s..%s", c.Retry.InitialBackoff, c.Retry.MaxBackoff)
	}

	if c.DevServer.Store.Driver != "memory" && c.DevServer.Store.Driver != "redis" {
		return fmt.Errorf("invalid job store driver: %s", c.DevServer.Store.Driver)
	}
	if c.DevServer.JobTTL <= 0 {
		return fmt.Errorf("job_ttl must be positive")
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides to config.
func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("SURVAIZE_BASE_URL"); v != "" {
		cfg.Server.BaseURL = strings.TrimRight(v, "/")
	}

	if v := os.Getenv("SURVAIZE_STREAM_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse SURVAIZE_STREAM_TIMEOUT: %w", err)
		}
		cfg.Transport.StreamTimeout = d
	}

	if v := os.Getenv("SURVAIZE_STARTUP_DELAY"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse SURVAIZE_STARTUP_DELAY: %w", err)
		}
		cfg.Transport.StartupDelay = d
	}

	if v := os.Getenv("SURVAIZE_DEV_ADDR"); v != "" {
		cfg.DevServer.Addr = v
	}

	if v := os.Getenv("REDIS_URL"); v != "" {
		// a full redis:// URL, resolved by the job store
		cfg.DevServer.Store.Driver = "redis"
		cfg.DevServer.Store.Redis.Addr = v
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Observability.LogLevel = v
	}

	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Observability.LogFormat = v
	}

	if v := os.Getenv("EDITOR"); v != "" {
		cfg.Editor.Command = v
	}

	return nil
}
