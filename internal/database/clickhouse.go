package database

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"go.uber.org/zap"

	"github.com/radiusdt/marketing-dashboard/internal/config"
)

// ClickHouseDB holds a native ClickHouse connection.
type ClickHouseDB struct {
	Conn   driver.Conn
	logger *zap.Logger
}

// NewClickHouseDB opens a read-only ClickHouse connection. Like the Postgres
// pool it dials lazily; a failed startup probe is only logged.
func NewClickHouseDB(ctx context.Context, cfg config.WarehouseConfig, logger *zap.Logger) (*ClickHouseDB, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{cfg.Addr()},
		Auth: clickhouse.Auth{
			Database: cfg.DBName,
			Username: cfg.User,
			Password: cfg.Password,
		},
		MaxOpenConns:    cfg.MaxConns,
		MaxIdleConns:    cfg.MinConns,
		ConnMaxLifetime: time.Hour,
		DialTimeout:     10 * time.Second,
		Settings: clickhouse.Settings{
			"readonly": 1,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("open clickhouse: %w", err)
	}

	db := &ClickHouseDB{Conn: conn, logger: logger}
	fields := []zap.Field{
		zap.String("addr", cfg.Addr()),
		zap.String("database", cfg.DBName),
		zap.Int("max_conns", cfg.MaxConns),
	}
	if err := probe(ctx, db); err != nil {
		logger.Warn("ClickHouse warehouse unreachable at startup", append(fields, zap.Error(err))...)
	} else {
		logger.Info("connected to ClickHouse", fields...)
	}
	return db, nil
}

func (db *ClickHouseDB) Close() error {
	if db.Conn != nil {
		db.logger.Info("ClickHouse connection closed")
		return db.Conn.Close()
	}
	return nil
}

func (db *ClickHouseDB) Health(ctx context.Context) error {
	return db.Conn.Ping(ctx)
}
