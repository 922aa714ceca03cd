package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfigFromYAMLWithEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
server:
  address: ":8080"
database:
  driver: mysql
  url: "user:pass@/doula"
auth:
  jwt_secret: yaml-secret
maintenance:
  interval: 12h
  timezone: America/Chicago
jobs:
  workers: 5
`)
	t.Setenv("CONFIG_PATH", path)
	t.Setenv("PORT", "9000")
	t.Setenv("REMINDER_LEAD_DAYS", "5")
	t.Setenv("JOB_RETRY_DELAY", "30s")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Server.Address)
	assert.Equal(t, "mysql", cfg.Database.Driver)
	assert.Equal(t, "user:pass@/doula", cfg.Database.URL)
	assert.Equal(t, 12*time.Hour, cfg.Maintenance.Interval)
	assert.Equal(t, "America/Chicago", cfg.Maintenance.Timezone)
	assert.Equal(t, 5, cfg.Maintenance.ReminderLeadDays)
	assert.Equal(t, 5, cfg.Jobs.Workers)
	assert.Equal(t, 30*time.Second, cfg.Jobs.RetryDelay)
	assert.Equal(t, "usd", cfg.Stripe.Currency)
}

func TestLoadConfigWithoutFileUsesEnv(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	t.Chdir(t.TempDir())
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DATABASE_URL", "file:doula.db")
	t.Setenv("SUPABASE_JWT_SECRET", "secret")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, ":4001", cfg.Server.Address)
	assert.Equal(t, 24*time.Hour, cfg.Maintenance.Interval)
}

func TestLoadConfigRejectsBadEnv(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	t.Chdir(t.TempDir())
	t.Setenv("DATABASE_URL", "postgres://x")
	t.Setenv("SUPABASE_JWT_SECRET", "secret")
	t.Setenv("JOB_WORKERS", "many")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse JOB_WORKERS")
}

func TestLoadConfigMissingExplicitFile(t *testing.T) {
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "nope.yaml"))
	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database.url")
	assert.Contains(t, err.Error(), "auth.jwt_secret")

	cfg.Database.URL = "postgres://x"
	cfg.Auth.JWTSecret = "s"
	assert.NoError(t, cfg.Validate())

	cfg.Database.Driver = "oracle"
	assert.Error(t, cfg.Validate())
}
