package main

import (
	"context"
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/radiusdt/marketing-dashboard/internal/config"
	"github.com/radiusdt/marketing-dashboard/internal/database"
	"github.com/radiusdt/marketing-dashboard/internal/metrics"
	"github.com/radiusdt/marketing-dashboard/internal/middleware"
	"github.com/radiusdt/marketing-dashboard/internal/snapshot"
	"github.com/radiusdt/marketing-dashboard/internal/warehouse"
)

var configFile string

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "marketing-dashboard",
	Short: "Read-only marketing performance dashboard",
	Long: `Serves the marketing performance dashboard over HTTP.

The dashboard reads the gold aggregate tables (campaigns, channels and
customer segments) from the analytics warehouse, computes overall metrics
and campaign alerts, and renders five views of charts and tables.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "YAML config file (or set MARKETING_DASH_CONFIG_FILE)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(reportCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setupLogger(cfg *config.Config) (*zap.Logger, error) {
	format := cfg.Log.Format
	if cfg.IsDevelopment() {
		format = "console"
	}
	return middleware.NewLogger(cfg.Log.Level, format)
}

// app is what every command needs: configuration, a logger, open
// connections and the snapshot cache in front of the warehouse.
type app struct {
	cfg     *config.Config
	logger  *zap.Logger
	conns   *database.Connections
	source  warehouse.Source
	loader  *snapshot.Loader
	metrics *metrics.Metrics
}

// bootstrap loads configuration and opens the warehouse. Collectors are
// registered on reg.
func bootstrap(ctx context.Context, reg prometheus.Registerer) (*app, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, err
	}
	m := metrics.NewMetrics(cfg.Metrics.Namespace, reg)

	logger, err := setupLogger(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	// An unreachable warehouse is not fatal: each render reports it.
	conns, err := database.Open(ctx, cfg, logger)
	if err != nil {
		logger.Error("warehouse connection setup failed", zap.Error(err))
		_ = logger.Sync()
		return nil, &warehouse.DataSourceError{Op: "connect", Err: err}
	}

	var source warehouse.Source
	if conns.ClickHouse != nil {
		source = warehouse.NewClickHouseSource(conns.ClickHouse.Conn, cfg.Warehouse.Schema, cfg.Warehouse.QueryTimeout, m, logger)
	} else {
		source = warehouse.NewPostgresSource(conns.Postgres.Pool, cfg.Warehouse.Schema, cfg.Warehouse.QueryTimeout, m, logger)
	}

	opts := []snapshot.Option{snapshot.WithMetrics(m)}
	if conns.Redis != nil {
		opts = append(opts, snapshot.WithTier(snapshot.NewRedisTier(conns.Redis.Client, cfg.Redis.KeyPrefix, cfg.Redis.TTL)))
	}

	return &app{
		cfg:     cfg,
		logger:  logger,
		conns:   conns,
		source:  source,
		loader:  snapshot.NewLoader(source, logger, opts...),
		metrics: m,
	}, nil
}

func (a *app) Close() {
	a.conns.Close()
	_ = a.logger.Sync()
}
