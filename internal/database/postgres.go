package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/radiusdt/marketing-dashboard/internal/config"
)

// PostgresDB holds the warehouse connection pool.
type PostgresDB struct {
	Pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewPostgresDB creates the warehouse pool. Connections are established on
// demand, so an unreachable server is logged here and surfaces later as a
// failed load rather than a startup error.
func NewPostgresDB(ctx context.Context, cfg config.WarehouseConfig, logger *zap.Logger) (*PostgresDB, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parse warehouse dsn: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxConns)
	poolConfig.MinConns = int32(cfg.MinConns)
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute
	// dashboard sessions never write
	poolConfig.ConnConfig.RuntimeParams["default_transaction_read_only"] = "on"

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("create warehouse pool: %w", err)
	}

	db := &PostgresDB{Pool: pool, logger: logger}
	fields := []zap.Field{
		zap.String("host", cfg.Host),
		zap.Int("port", cfg.Port),
		zap.String("database", cfg.DBName),
		zap.Int("max_conns", cfg.MaxConns),
	}
	if err := probe(ctx, db); err != nil {
		logger.Warn("PostgreSQL warehouse unreachable at startup", append(fields, zap.Error(err))...)
	} else {
		logger.Info("connected to PostgreSQL", fields...)
	}
	return db, nil
}

func (db *PostgresDB) Close() error {
	if db.Pool != nil {
		db.Pool.Close()
		db.logger.Info("PostgreSQL connection pool closed")
	}
	return nil
}

func (db *PostgresDB) Health(ctx context.Context) error {
	return db.Pool.Ping(ctx)
}
