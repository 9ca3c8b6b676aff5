package repository

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-inventory-service/internal/notifier"
	"github.com/redis/go-redis/v9"
)

const listKeyPrefix = "products:list:"

// RedisListCache caches product list pages. It also subscribes to stock events so a page
// never outlives the stock figures it shows.
type RedisListCache struct {
	client redis.UniversalClient
	ttl    time.Duration
}

func NewRedisListCache(client redis.UniversalClient, ttl time.Duration) *RedisListCache {
	return &RedisListCache{client: client, ttl: ttl}
}

func (c *RedisListCache) Get(ctx context.Context, key string) ([]byte, bool) {
	val, err := c.client.Get(ctx, listKeyPrefix+key).Bytes()
	if err != nil {
		return nil, false
	}
	return val, true
}

func (c *RedisListCache) Set(ctx context.Context, key string, data []byte) {
	c.client.Set(ctx, listKeyPrefix+key, data, c.ttl)
}

// Invalidate removes every cached page.
func (c *RedisListCache) Invalidate(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, listKeyPrefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}

func (c *RedisListCache) Publish(ctx context.Context, _ notifier.StockEvent) error {
	return c.Invalidate(ctx)
}
