package cache

import (
	"context"
	"errors"
	"time"

	"github.com/erp/connector/internal/domain/integration"
	"github.com/erp/connector/internal/infrastructure/logger"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const defaultIdentityKeyPrefix = "connector:identity:"

// RedisIdentityCache is a read-through cache in front of an identity
// repository. Resolved mappings are cached with a TTL; absent mappings are
// never cached because a later run may create them. Redis failures are
// logged and the delegate answers instead.
type RedisIdentityCache struct {
	client    redis.UniversalClient
	delegate  integration.IdentityRepository
	ttl       time.Duration
	keyPrefix string
	logger    *zap.Logger
}

// NewRedisIdentityCache creates a cache in front of delegate
func NewRedisIdentityCache(client redis.UniversalClient, delegate integration.IdentityRepository, ttl time.Duration, zapLogger *zap.Logger) *RedisIdentityCache {
	if zapLogger == nil {
		zapLogger = zap.NewNop()
	}
	return &RedisIdentityCache{
		client:    client,
		delegate:  delegate,
		ttl:       ttl,
		keyPrefix: defaultIdentityKeyPrefix,
		logger:    zapLogger.Named("identity_cache"),
	}
}

// FindByAdapter answers from Redis and falls back to the delegate on a miss
func (c *RedisIdentityCache) FindByAdapter(ctx context.Context, criteria integration.IdentityCriteria) (*integration.Identity, error) {
	key := c.key(criteria)

	objectIdentifier, err := c.client.Get(ctx, key).Result()
	switch {
	case err == nil:
		return &integration.Identity{
			ObjectIdentifier:  objectIdentifier,
			ObjectType:        criteria.ObjectType,
			AdapterIdentifier: criteria.AdapterIdentifier,
			AdapterName:       criteria.AdapterName,
		}, nil
	case !errors.Is(err, redis.Nil):
		c.warn(ctx, "Redis identity lookup failed", key, err)
	}

	identity, err := c.delegate.FindByAdapter(ctx, criteria)
	if err != nil {
		return nil, err
	}
	c.store(ctx, identity)
	return identity, nil
}

// FindByObject is answered by the delegate
func (c *RedisIdentityCache) FindByObject(
	ctx context.Context,
	objectIdentifier string,
	adapterName string,
	objectType integration.ObjectType,
) (*integration.Identity, error) {
	return c.delegate.FindByObject(ctx, objectIdentifier, adapterName, objectType)
}

// CreateIfAbsent creates through the delegate and caches the stored identity
func (c *RedisIdentityCache) CreateIfAbsent(ctx context.Context, identity *integration.Identity) (*integration.Identity, error) {
	stored, err := c.delegate.CreateIfAbsent(ctx, identity)
	if err != nil {
		return nil, err
	}
	c.store(ctx, stored)
	return stored, nil
}

func (c *RedisIdentityCache) store(ctx context.Context, identity *integration.Identity) {
	key := c.key(identity.Key())
	if err := c.client.Set(ctx, key, identity.ObjectIdentifier, c.ttl).Err(); err != nil {
		c.warn(ctx, "Redis identity write failed", key, err)
	}
}

func (c *RedisIdentityCache) key(criteria integration.IdentityCriteria) string {
	return c.keyPrefix + criteria.String()
}

func (c *RedisIdentityCache) warn(ctx context.Context, msg, key string, err error) {
	runLogger := c.logger
	if runID := logger.GetRunID(ctx); runID != "" {
		runLogger = runLogger.With(zap.String("run_id", runID))
	}
	runLogger.Warn(msg, zap.String("key", key), zap.Error(err))
}

// Ensure RedisIdentityCache implements IdentityRepository
var _ integration.IdentityRepository = (*RedisIdentityCache)(nil)
