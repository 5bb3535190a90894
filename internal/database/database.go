// Package database opens and closes the process-wide connections: the
// warehouse (PostgreSQL or ClickHouse) and the optional Redis cache.
package database

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/radiusdt/marketing-dashboard/internal/config"
)

// Conn is the lifecycle surface shared by every connection wrapper.
type Conn interface {
	Health(ctx context.Context) error
	Close() error
}

// Connections bundles what the dashboard opens at startup.
type Connections struct {
	Postgres   *PostgresDB
	ClickHouse *ClickHouseDB
	Redis      *RedisDB
}

// Open creates the configured warehouse connection and, when enabled, the
// Redis client. Only malformed settings fail here; an unreachable server is
// logged and reported later by Health and by each failed load. On failure
// every connection opened so far is closed.
func Open(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Connections, error) {
	c := &Connections{}

	switch cfg.Warehouse.Driver {
	case "clickhouse":
		ch, err := NewClickHouseDB(ctx, cfg.Warehouse, logger)
		if err != nil {
			return nil, err
		}
		c.ClickHouse = ch
	default:
		pg, err := NewPostgresDB(ctx, cfg.Warehouse, logger)
		if err != nil {
			return nil, err
		}
		c.Postgres = pg
	}

	if cfg.Redis.Enabled {
		rdb, err := NewRedisDB(ctx, cfg.Redis, logger)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("redis cache: %w", err)
		}
		c.Redis = rdb
	}

	return c, nil
}

// Close closes every open connection.
func (c *Connections) Close() {
	for _, conn := range c.all() {
		_ = conn.Close()
	}
}

func (c *Connections) all() []Conn {
	var out []Conn
	if c.Postgres != nil {
		out = append(out, c.Postgres)
	}
	if c.ClickHouse != nil {
		out = append(out, c.ClickHouse)
	}
	if c.Redis != nil {
		out = append(out, c.Redis)
	}
	return out
}

const probeTimeout = 5 * time.Second

// probe pings c once at startup.
func probe(ctx context.Context, c Conn) error {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	return c.Health(ctx)
}
