package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "@every 5s", cfg.Scheduler.Schedule)
	assert.Equal(t, 50, cfg.Scheduler.BatchSize)
	assert.Equal(t, 3, cfg.Scheduler.MaxRetries)
	assert.Equal(t, 30*time.Second, cfg.Scheduler.BackoffBase)
	assert.Equal(t, 15*time.Minute, cfg.Scheduler.BackoffMax)
	assert.Equal(t, 10, cfg.Database.MaxOpenConns)
}

func TestLoadYAMLFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	content := `
log_level: debug
database:
  url: postgres://payments@db:5432/payments
  max_open_conns: 25
scheduler:
  schedule: "@every 30s"
  batch_size: 10
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "postgres://payments@db:5432/payments", cfg.Database.URL)
	assert.Equal(t, 25, cfg.Database.MaxOpenConns)
	assert.Equal(t, "@every 30s", cfg.Scheduler.Schedule)
	assert.Equal(t, 10, cfg.Scheduler.BatchSize)
	// untouched keys keep their defaults
	assert.Equal(t, 3, cfg.Scheduler.MaxRetries)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte("log_level: debug\n"), 0o644))

	t.Setenv("PAYMENTS_LOG_LEVEL", "warn")
	t.Setenv("PAYMENTS_SCHEDULER_BATCH_SIZE", "5")
	t.Setenv("PAYMENTS_DATABASE_PING_TIMEOUT", "7s")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.LogLevel, "env wins over the file")
	assert.Equal(t, 5, cfg.Scheduler.BatchSize)
	assert.Equal(t, 7*time.Second, cfg.Database.PingTimeout)
}

func TestLoadRejectsMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
	assert.Error(t, err)
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte("log_level: [broken\n"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	assert.NoError(t, cfg.Validate())

	broken := Default()
	broken.Database.URL = ""
	assert.Error(t, broken.Validate())

	broken = Default()
	broken.Scheduler.Schedule = ""
	assert.Error(t, broken.Validate())

	broken = Default()
	broken.Scheduler.BatchSize = 0
	assert.Error(t, broken.Validate())

	broken = Default()
	broken.Scheduler.MaxRetries = -1
	assert.Error(t, broken.Validate())
}
