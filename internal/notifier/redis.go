package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fekuna/omnipos-inventory-service/internal/logger"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const subscriptionKeyPrefix = "stock_subscriptions:"

// RedisBroadcaster publishes events on a redis channel so every service instance sees them.
type RedisBroadcaster struct {
	client  redis.UniversalClient
	channel string
	ttl     time.Duration
}

func NewRedisBroadcaster(client redis.UniversalClient, channel string, ttl time.Duration) *RedisBroadcaster {
	return &RedisBroadcaster{client: client, channel: channel, ttl: ttl}
}

func (b *RedisBroadcaster) Publish(ctx context.Context, ev StockEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal stock event: %w", err)
	}
	if err := b.client.Publish(ctx, b.channel, payload).Err(); err != nil {
		return fmt.Errorf("redis publish: %w", err)
	}
	return nil
}

// Track stores the subscription in a per-subscriber set that expires with the session.
func (b *RedisBroadcaster) Track(ctx context.Context, subscriberID, productID string) error {
	key := subscriptionKeyPrefix + subscriberID
	_, err := b.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SAdd(ctx, key, productID)
		if b.ttl > 0 {
			pipe.Expire(ctx, key, b.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis track subscription: %w", err)
	}
	return nil
}

// RedisRelay feeds events from the redis channel into a local publisher, normally the Hub.
type RedisRelay struct {
	client  redis.UniversalClient
	channel string
	target  Publisher
	logger  logger.ZapLogger
}

func NewRedisRelay(client redis.UniversalClient, channel string, target Publisher, log logger.ZapLogger) *RedisRelay {
	return &RedisRelay{client: client, channel: channel, target: target, logger: log}
}

// Run blocks until ctx is cancelled.
func (r *RedisRelay) Run(ctx context.Context) error {
	pubsub := r.client.Subscribe(ctx, r.channel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("redis subscribe %s: %w", r.channel, err)
	}
	r.logger.Info("stock event relay started", zap.String("channel", r.channel))

	messages := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			r.logger.Info("stock event relay stopped")
			return nil
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			r.deliver(ctx, msg.Payload)
		}
	}
}

func (r *RedisRelay) deliver(ctx context.Context, payload string) {
	var ev StockEvent
	if err := json.Unmarshal([]byte(payload), &ev); err != nil {
		r.logger.Warn("malformed stock event on relay", zap.Error(err))
		return
	}
	if err := r.target.Publish(ctx, ev); err != nil {
		r.logger.Warn("relay delivery failed", zap.String("product_id", ev.ProductID), zap.Error(err))
	}
}
