package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("MARKETING_DASH_CONFIG_FILE", "")
	t.Setenv("MARKETING_DASH_DB_HOST", "warehouse.internal")
	t.Setenv("MARKETING_DASH_DB_USER", "analyst")
	t.Setenv("MARKETING_DASH_DB_NAME", "marketing")
}

func TestLoadFromEnv(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("MARKETING_DASH_DB_PORT", "6543")
	t.Setenv("MARKETING_DASH_QUERY_TIMEOUT", "5s")
	t.Setenv("MARKETING_DASH_REDIS_ENABLED", "true")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Warehouse.Driver)
	assert.Equal(t, 6543, cfg.Warehouse.Port)
	assert.Equal(t, "marketing_gold", cfg.Warehouse.Schema)
	assert.Equal(t, 5*time.Second, cfg.Warehouse.QueryTimeout)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, "postgres://analyst:@warehouse.internal:6543/marketing?sslmode=disable", cfg.Warehouse.DSN())
}

func TestLoadMissingHostIsConfigurationError(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("MARKETING_DASH_DB_HOST", "")

	_, err := Load("")
	require.Error(t, err)

	var cfgErr *ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "warehouse.host", cfgErr.Field)
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("MARKETING_DASH_DB_DRIVER", "oracle")

	_, err := Load("")
	var cfgErr *ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "warehouse.driver", cfgErr.Field)
}

func TestLoadRejectsBadPort(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("MARKETING_DASH_DB_PORT", "70000")

	_, err := Load("")
	var cfgErr *ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "warehouse.port", cfgErr.Field)
}

func TestLoadYAMLFileWithEnvOverride(t *testing.T) {
	t.Setenv("MARKETING_DASH_CONFIG_FILE", "")
	t.Setenv("WAREHOUSE_SECRET", "s3cret")
	t.Setenv("MARKETING_DASH_DB_NAME", "override_db")

	path := filepath.Join(t.TempDir(), "dashboard.yaml")
	content := `
warehouse:
  driver: clickhouse
  host: ch.internal
  port: 9000
  user: reader
  password: ${WAREHOUSE_SECRET}
  name: file_db
  query_timeout: 10s
dashboard:
  title: Waffarha Marketing Performance Dashboard
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "clickhouse", cfg.Warehouse.Driver)
	assert.Equal(t, "ch.internal:9000", cfg.Warehouse.Addr())
	assert.Equal(t, "s3cret", cfg.Warehouse.Password)
	assert.Equal(t, "override_db", cfg.Warehouse.DBName)
	assert.Equal(t, 10*time.Second, cfg.Warehouse.QueryTimeout)
	assert.Equal(t, "Waffarha Marketing Performance Dashboard", cfg.Dashboard.Title)
	// untouched sections keep their defaults
	assert.Equal(t, "/metrics", cfg.Metrics.Path)
}

func TestLoadMissingFile(t *testing.T) {
	setRequiredEnv(t)

	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	var cfgErr *ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "config_file", cfgErr.Field)
}
