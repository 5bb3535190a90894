package main

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/radiusdt/marketing-dashboard/internal/config"
	"github.com/radiusdt/marketing-dashboard/internal/warehouse"
)

func TestRootCommandRegistersSubcommands(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["serve"])
	assert.True(t, names["report"])
	assert.NotNil(t, rootCmd.PersistentFlags().Lookup("config"))
	assert.NotNil(t, reportCmd.Flags().Lookup("view"))
}

func TestSetupLogger(t *testing.T) {
	cfg := config.Defaults()
	cfg.Server.Env = "production"
	cfg.Log.Level = "warn"

	logger, err := setupLogger(cfg)
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zapcore.DebugLevel))
	assert.True(t, logger.Core().Enabled(zapcore.WarnLevel))
}

func TestBootstrapRejectsInvalidConfig(t *testing.T) {
	t.Setenv("MARKETING_DASH_CONFIG_FILE", "")
	t.Setenv("MARKETING_DASH_DB_HOST", "")
	configFile = ""

	_, err := bootstrap(context.Background(), prometheus.NewRegistry())
	var cfgErr *config.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
}

func TestBootstrapToleratesUnreachableWarehouse(t *testing.T) {
	t.Setenv("MARKETING_DASH_CONFIG_FILE", "")
	t.Setenv("MARKETING_DASH_DB_DRIVER", "postgres")
	t.Setenv("MARKETING_DASH_DB_HOST", "127.0.0.1")
	t.Setenv("MARKETING_DASH_DB_PORT", "1")
	t.Setenv("MARKETING_DASH_DB_USER", "analyst")
	t.Setenv("MARKETING_DASH_DB_NAME", "marketing")
	t.Setenv("MARKETING_DASH_REDIS_ENABLED", "false")
	t.Setenv("MARKETING_DASH_LOG_LEVEL", "error")
	configFile = ""

	a, err := bootstrap(context.Background(), prometheus.NewRegistry())
	require.NoError(t, err)
	require.NotNil(t, a)
	defer a.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var dsErr *warehouse.DataSourceError
	require.ErrorAs(t, a.source.Ping(ctx), &dsErr)
	assert.Equal(t, "connect", dsErr.Op)

	_, err = a.loader.Snapshot(ctx)
	require.ErrorAs(t, err, &dsErr)
	assert.Equal(t, "query", dsErr.Op)
}
