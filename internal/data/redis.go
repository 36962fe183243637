package data

import (
	"context"
	"encoding/json"
	"time"

	"appchain-calc/internal/model"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// DefaultRedisKey is where the shared snapshot lives.
const DefaultRedisKey = "dacalc:market-data"

// redisClient is the subset of redis.Cmdable the cache needs.
type redisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// RedisCache shares one snapshot across API replicas. Redis errors are
// treated as misses; the calculator keeps working without Redis.
type RedisCache struct {
	rdb redisClient
	key string
	ttl time.Duration
	log *zap.Logger
}

// NewRedisCache creates a Redis-backed SnapshotStore.
func NewRedisCache(rdb redisClient, ttl time.Duration, logger *zap.Logger) *RedisCache {
	if ttl <= 0 {
		ttl = DefaultSnapshotTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisCache{
		rdb: rdb,
		key: DefaultRedisKey,
		ttl: ttl,
		log: logger,
	}
}

// Get reads and decodes the shared snapshot.
func (c *RedisCache) Get(ctx context.Context) (model.MarketData, bool) {
	raw, err := c.rdb.Get(ctx, c.key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.log.Warn("[Cache] redis get failed", zap.Error(err))
		}
		return model.MarketData{}, false
	}
	var md model.MarketData
	if err := json.Unmarshal(raw, &md); err != nil {
		c.log.Warn("[Cache] corrupt snapshot in redis", zap.Error(err))
		return model.MarketData{}, false
	}
	return md, true
}

// Set stores the snapshot with the cache TTL.
func (c *RedisCache) Set(ctx context.Context, md model.MarketData) {
	raw, err := json.Marshal(md)
	if err != nil {
		c.log.Warn("[Cache] encode snapshot failed", zap.Error(err))
		return
	}
	if err := c.rdb.Set(ctx, c.key, raw, c.ttl).Err(); err != nil {
		c.log.Warn("[Cache] redis set failed", zap.Error(err))
	}
}
