package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	for _, key := range []string{
		"SURVAIZE_BASE_URL", "SURVAIZE_STREAM_TIMEOUT", "SURVAIZE_STARTUP_DELAY",
		"SURVAIZE_DEV_ADDR", "REDIS_URL", "LOG_LEVEL", "LOG_FORMAT", "EDITOR",
	} {
		t.Setenv(key, "")
	}
	// Keep godotenv away from any .env in the package directory.
	t.Chdir(t.TempDir())
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 30*time.Second, cfg.Transport.StreamTimeout)
	assert.Equal(t, 100*time.Millisecond, cfg.Transport.StartupDelay)
	assert.Equal(t, 3, cfg.Retry.MaxRetries)
	assert.Equal(t, "memory", cfg.DevServer.Store.Driver)
	assert.Equal(t, 10*time.Minute, cfg.DevServer.JobTTL)
}

func TestLoad_YAMLFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "survaize.yaml")
	content := `
server:
  base_url: https://survaize.example.org
transport:
  stream_timeout: 45s
dev_server:
  store:
    driver: redis
    redis:
      addr: cache:6379
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://survaize.example.org", cfg.Server.BaseURL)
	assert.Equal(t, 45*time.Second, cfg.Transport.StreamTimeout)
	assert.Equal(t, 100*time.Millisecond, cfg.Transport.StartupDelay, "unset values keep defaults")
	assert.Equal(t, "redis", cfg.DevServer.Store.Driver)
	assert.Equal(t, "cache:6379", cfg.DevServer.Store.Redis.Addr)
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("SURVAIZE_BASE_URL", "http://10.0.0.5:9000/")
	t.Setenv("SURVAIZE_STREAM_TIMEOUT", "5s")
	t.Setenv("SURVAIZE_STARTUP_DELAY", "0s")
	t.Setenv("REDIS_URL", "redis://redis:6379")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("EDITOR", "nano")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "http://10.0.0.5:9000", cfg.Server.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.Transport.StreamTimeout)
	assert.Equal(t, time.Duration(0), cfg.Transport.StartupDelay)
	assert.Equal(t, "redis", cfg.DevServer.Store.Driver)
	assert.Equal(t, "redis://redis:6379", cfg.DevServer.Store.Redis.Addr)
	assert.Equal(t, "debug", cfg.Observability.LogLevel)
	assert.Equal(t, "nano", cfg.Editor.Command)
}

func TestLoad_DotEnv(t *testing.T) {
	clearEnv(t)
	os.Unsetenv("SURVAIZE_BASE_URL")
	require.NoError(t, os.WriteFile(".env", []byte("SURVAIZE_BASE_URL=http://dotenv:8000\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("SURVAIZE_BASE_URL") })

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "http://dotenv:8000", cfg.Server.BaseURL)
}

func TestLoad_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		clearEnv(t)
		_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
		assert.Error(t, err)
	})

	t.Run("bad duration", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("SURVAIZE_STREAM_TIMEOUT", "soon")
		_, err := Load("")
		assert.ErrorContains(t, err, "SURVAIZE_STREAM_TIMEOUT")
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"ftp base url", func(c *Config) { c.Server.BaseURL = "ftp://host" }},
		{"base url without host", func(c *Config) { c.Server.BaseURL = "http://" }},
		{"zero stream timeout", func(c *Config) { c.Transport.StreamTimeout = 0 }},
		{"negative startup delay", func(c *Config) { c.Transport.StartupDelay = -time.Second }},
		{"negative retries", func(c *Config) { c.Retry.MaxRetries = -1 }},
		{"inverted backoff", func(c *Config) { c.Retry.MaxBackoff = time.Millisecond }},
		{"unknown store", func(c *Config) { c.DevServer.Store.Driver = "etcd" }},
		{"zero job ttl", func(c *Config) { c.DevServer.JobTTL = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
