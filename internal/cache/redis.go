package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/emberapp/discovery/internal/config"
)

type RedisCache struct {
	Client *redis.Client
}

// NewRedisCache initializes the Redis client from config.
// Only Addr is mandatory, Password/DB are optional.
func NewRedisCache(cfg *config.Config) *RedisCache {
	opts := &redis.Options{
		Addr: cfg.Redis.Addr,
	}
	if cfg.Redis.Password != "" {
		opts.Password = cfg.Redis.Password
	}
	if cfg.Redis.DB != 0 {
		opts.DB = cfg.Redis.DB
	}
	return &RedisCache{Client: redis.NewClient(opts)}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.Client.Ping(ctx).Err()
}

func (c *RedisCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return c.Client.Set(ctx, key, value, ttl).Err()
}

func (c *RedisCache) Get(ctx context.Context, key string) (string, error) {
	val, err := c.Client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil // cache miss
	}
	return val, err
}

// AdjustLikedByCount shifts the cached liked-by counter by delta,
// refreshing its TTL. A missing key is left missing: seeding it from a
// delta would start the count at zero regardless of the store, so the
// next read repopulates from the DB instead.
func (c *RedisCache) AdjustLikedByCount(ctx context.Context, userID uint64, delta int64) error {
	key := c.KeyForLikedByCount(userID)
	exists, err := c.Client.Exists(ctx, key).Result()
	if err != nil || exists == 0 {
		return err
	}
	if err := c.Client.IncrBy(ctx, key, delta).Err(); err != nil {
		return err
	}
	return c.Client.Expire(ctx, key, time.Hour).Err()
}

// KeyForLikedByCount is the counter of users who liked the given user.
func (c *RedisCache) KeyForLikedByCount(userID uint64) string {
	return fmt.Sprintf("liked_by:count:%d", userID)
}

// KeyForCandidatePage caches one rendered candidate page per viewer and
// page size. TTL is seconds-scale so block-list and quota changes surface
// quickly; see the discovery service.
func (c *RedisCache) KeyForCandidatePage(viewerID uint64, pageSize int) string {
	return fmt.Sprintf("candidates:%d:%d", viewerID, pageSize)
}

// GetLikedByCount reads the cached liked-by counter, refreshing its TTL.
// Returns (0, false, nil) on a miss.
func (c *RedisCache) GetLikedByCount(ctx context.Context, userID uint64) (int64, bool, error) {
	key := c.KeyForLikedByCount(userID)
	val, err := c.Client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	} else if err != nil {
		return 0, false, err
	}
	n, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, false, nil // treat garbage as a miss
	}
	// refresh TTL on access
	_ = c.Client.Expire(ctx, key, time.Hour).Err()
	return n, true, nil
}

// SetLikedByCount stores the liked-by counter with a 1h TTL.
func (c *RedisCache) SetLikedByCount(ctx context.Context, userID uint64, count int64) error {
	return c.Client.Set(ctx, c.KeyForLikedByCount(userID), count, time.Hour).Err()
}
