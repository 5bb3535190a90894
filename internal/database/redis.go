package database

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/radiusdt/marketing-dashboard/internal/config"
)

// RedisDB holds the client for the shared snapshot tier.
type RedisDB struct {
	Client *redis.Client
	logger *zap.Logger
}

// NewRedisDB creates the snapshot cache client. The tier is optional, so an
// unreachable server is logged and the loader falls back to the warehouse
// on every miss.
func NewRedisDB(ctx context.Context, cfg config.RedisConfig, logger *zap.Logger) (*RedisDB, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
		PoolSize:     10,
	})

	db := &RedisDB{Client: client, logger: logger}
	if err := probe(ctx, db); err != nil {
		logger.Warn("snapshot cache unreachable at startup",
			zap.String("addr", cfg.Addr),
			zap.Error(err),
		)
	} else {
		logger.Info("connected to Redis snapshot cache",
			zap.String("addr", cfg.Addr),
			zap.Int("db", cfg.DB),
			zap.Duration("ttl", cfg.TTL),
		)
	}
	return db, nil
}

func (r *RedisDB) Close() error {
	if r.Client != nil {
		r.logger.Info("Redis connection closed")
		return r.Client.Close()
	}
	return nil
}

func (r *RedisDB) Health(ctx context.Context) error {
	return r.Client.Ping(ctx).Err()
}
