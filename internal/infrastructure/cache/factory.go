package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/erp/connector/internal/domain/integration"
	"github.com/erp/connector/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// IdentityRepositoryFactory puts the Redis identity cache in front of a
// repository when Redis is enabled
type IdentityRepositoryFactory struct {
	redisConfig  config.RedisConfig
	logger       *zap.Logger
	requireRedis bool
	pingTimeout  time.Duration
}

// IdentityRepositoryFactoryOption is a functional option for configuring the factory
type IdentityRepositoryFactoryOption func(*IdentityRepositoryFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) IdentityRepositoryFactoryOption {
	return func(f *IdentityRepositoryFactory) {
		f.logger = logger
	}
}

// WithRequiredRedis makes an unreachable Redis an error instead of running
// without the cache
func WithRequiredRedis(required bool) IdentityRepositoryFactoryOption {
	return func(f *IdentityRepositoryFactory) {
		f.requireRedis = required
	}
}

// NewIdentityRepositoryFactory creates a new factory
func NewIdentityRepositoryFactory(cfg config.RedisConfig, opts ...IdentityRepositoryFactoryOption) *IdentityRepositoryFactory {
	f := &IdentityRepositoryFactory{
		redisConfig: cfg,
		logger:      zap.NewNop(),
		pingTimeout: 5 * time.Second,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// Wrap returns delegate behind the Redis identity cache. The returned close
// function releases the Redis client and is never nil.
func (f *IdentityRepositoryFactory) Wrap(ctx context.Context, delegate integration.IdentityRepository) (integration.IdentityRepository, func() error, error) {
	noop := func() error { return nil }
	if !f.redisConfig.Enabled {
		return delegate, noop, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     f.redisConfig.Addr(),
		Password: f.redisConfig.Password,
		DB:       f.redisConfig.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, f.pingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		if f.requireRedis {
			return nil, noop, fmt.Errorf("failed to connect to Redis: %w", err)
		}
		f.logger.Warn("Redis unavailable, resolving identities without cache",
			zap.String("addr", f.redisConfig.Addr()),
			zap.Error(err),
		)
		return delegate, noop, nil
	}

	f.logger.Info("Using Redis identity cache",
		zap.String("addr", f.redisConfig.Addr()),
		zap.Duration("ttl", f.redisConfig.IdentityTTL),
	)
	return NewRedisIdentityCache(client, delegate, f.redisConfig.IdentityTTL, f.logger), client.Close, nil
}
