package di

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"userdesk/cmd/backend/infrastructure"
	"userdesk/internal/adapter/cache"
	"userdesk/internal/adapter/db/gormrepo"
	ginhandler "userdesk/internal/adapter/gin/handler"
	"userdesk/internal/adapter/gin/middleware"
	"userdesk/internal/adapter/gin/router"
	"userdesk/internal/adapter/repository/cached"
	"userdesk/internal/config"
	"userdesk/internal/usecase/user"
	redisclient "userdesk/pkg/redis"
)

// Container holds all backend dependencies
type Container struct {
	Config       *config.Config
	Logger       *zap.Logger
	DB           *gorm.DB
	RedisClient  *redisclient.Client
	UserUC       user.UserUsecase
	RateLimiter  *middleware.RateLimiter
	GinHandler   *ginhandler.UserHandler
	HealthChecks map[string]router.HealthCheck
}

// NewContainer creates and initializes all backend dependencies
func NewContainer(ctx context.Context, cfg *config.Config, l *zap.Logger) (*Container, error) {
	if err := cfg.ValidateBackend(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	db, err := infrastructure.NewDatabase(cfg, l)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	pingDB, err := infrastructure.PingDatabase(db)
	if err != nil {
		_ = infrastructure.CloseDatabase(db)
		return nil, err
	}

	rdb, err := infrastructure.NewRedisClient(ctx, cfg, l)
	if err != nil {
		_ = infrastructure.CloseDatabase(db)
		return nil, fmt.Errorf("failed to initialize Redis: %w", err)
	}

	c := &Container{
		Config:       cfg,
		Logger:       l,
		DB:           db,
		RedisClient:  rdb,
		HealthChecks: map[string]router.HealthCheck{"database": pingDB},
	}

	var repo user.Repository = gormrepo.NewUserRepo(db, l)
	if rdb != nil {
		userCache := cache.NewRedisUserCache(
			rdb.Client,
			time.Duration(cfg.Redis.CacheTTL)*time.Second,
			l,
		)
		repo = cached.NewUserRepository(repo, userCache, l)

		c.RateLimiter = middleware.NewRateLimiter(
			rdb.Client,
			middleware.RateLimiterConfig{
				Enabled:           cfg.RateLimit.Enabled,
				RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
				BurstCapacity:     cfg.RateLimit.BurstCapacity,
			},
			l,
		)
		c.HealthChecks["redis"] = rdb.Healthy
	}

	userUC := user.New(repo, l)
	c.UserUC = userUC
	c.GinHandler = ginhandler.NewUserHandler(userUC, l)

	return c, nil
}

// Close closes all resources held by the container
func (c *Container) Close() error {
	var errs []error

	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close Redis: %w", err))
		}
	}

	if c.DB != nil {
		if err := infrastructure.CloseDatabase(c.DB); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		}
	}

	return errors.Join(errs...)
}
