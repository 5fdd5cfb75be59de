package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"policyregistry/internal/registry/models"
	"policyregistry/pkg/domain"
)

const keyPrefix = "policy-registry:policy:"

// RedisCache shares cached policies between instances. Backend errors are
// logged and treated as misses; the store stays authoritative.
type RedisCache struct {
	client redis.Cmdable
	ttl    time.Duration
	logger *slog.Logger
}

func NewRedisCache(client redis.Cmdable, ttl time.Duration, logger *slog.Logger) *RedisCache {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisCache{client: client, ttl: ttl, logger: logger}
}

func policyKey(id domain.PolicyID) string {
	return keyPrefix + id.String()
}

func (c *RedisCache) Get(ctx context.Context, id domain.PolicyID) (*models.Policy, bool) {
	raw, err := c.client.Get(ctx, policyKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		cacheMissesTotal.WithLabelValues(layerRedis).Inc()
		return nil, false
	}
	if err != nil {
		c.fail(ctx, "get", id, err)
		return nil, false
	}
	var p models.Policy
	if err := json.Unmarshal(raw, &p); err != nil {
		c.fail(ctx, "decode", id, err)
		return nil, false
	}
	cacheHitsTotal.WithLabelValues(layerRedis).Inc()
	return &p, true
}

func (c *RedisCache) Add(ctx context.Context, p *models.Policy) {
	raw, err := json.Marshal(p)
	if err != nil {
		c.fail(ctx, "encode", p.ID, err)
		return
	}
	if err := c.client.SetNX(ctx, policyKey(p.ID), raw, c.ttl).Err(); err != nil {
		c.fail(ctx, "add", p.ID, err)
	}
}

// Set overwrites the cached copy after a state change. If the write fails the
// key is deleted so other instances fall back to the store instead of serving
// the previous state until the TTL runs out.
func (c *RedisCache) Set(ctx context.Context, p *models.Policy) {
	ctx = context.WithoutCancel(ctx)
	raw, err := json.Marshal(p)
	if err == nil {
		err = c.client.Set(ctx, policyKey(p.ID), raw, c.ttl).Err()
	}
	if err == nil {
		return
	}
	c.fail(ctx, "set", p.ID, err)
	if err := c.client.Del(ctx, policyKey(p.ID)).Err(); err != nil {
		c.fail(ctx, "invalidate", p.ID, err)
	}
}

func (c *RedisCache) fail(ctx context.Context, op string, id domain.PolicyID, err error) {
	cacheErrorsTotal.WithLabelValues(layerRedis, op).Inc()
	c.logger.WarnContext(ctx, "policy cache error",
		"op", op,
		"policy_id", id.String(),
		"error", err,
	)
}
