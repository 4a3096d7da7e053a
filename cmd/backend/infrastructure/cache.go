package infrastructure

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"userdesk/internal/config"
	redisclient "userdesk/pkg/redis"
)

// NewRedisClient connects to Redis. It returns nil, nil when Redis is disabled.
func NewRedisClient(ctx context.Context, cfg *config.Config, l *zap.Logger) (*redisclient.Client, error) {
	if !cfg.Redis.Enabled {
		l.Info("redis disabled, cache and rate limiter are off")
		return nil, nil
	}

	rdb, err := redisclient.NewClient(ctx, RedisConfig(cfg), l)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return rdb, nil
}

// RedisConfig maps the application config onto the Redis client config.
func RedisConfig(cfg *config.Config) redisclient.Config {
	return redisclient.Config{
		Host:        cfg.Redis.Host,
		Port:        cfg.Redis.Port,
		Password:    cfg.Redis.Password,
		DB:          cfg.Redis.DB,
		MaxRetries:  cfg.Redis.MaxRetries,
		PoolSize:    cfg.Redis.PoolSize,
		MinIdleConn: cfg.Redis.MinIdleConn,
	}
}
