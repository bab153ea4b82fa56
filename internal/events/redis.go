package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisBroadcaster publishes envelopes on per-participant Redis channels so
// every service instance can forward them to its local subscribers.
type RedisBroadcaster struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisBroadcaster creates a broadcaster publishing on prefix+channelID.
func NewRedisBroadcaster(client redis.UniversalClient, prefix string) *RedisBroadcaster {
	return &RedisBroadcaster{client: client, prefix: prefix}
}

// Publish implements Broadcaster.
func (b *RedisBroadcaster) Publish(ctx context.Context, channelID string, event EventName, payload any) error {
	env, err := NewEnvelope(channelID, event, payload)
	if err != nil {
		return err
	}
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("encode envelope: %w", err)
	}
	if err := b.client.Publish(ctx, b.prefix+channelID, data).Err(); err != nil {
		return fmt.Errorf("redis publish %s: %w", event, err)
	}
	return nil
}

// RedisRelay forwards envelopes from Redis into the local hub.
type RedisRelay struct {
	client redis.UniversalClient
	prefix string
	hub    *Hub
	logger *zap.Logger
}

// NewRedisRelay wires a relay for every channel under prefix.
func NewRedisRelay(client redis.UniversalClient, prefix string, hub *Hub, logger *zap.Logger) *RedisRelay {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisRelay{client: client, prefix: prefix, hub: hub, logger: logger}
}

// Run blocks until ctx is cancelled or the subscription fails.
func (r *RedisRelay) Run(ctx context.Context) error {
	pubsub := r.client.PSubscribe(ctx, r.prefix+"*")
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("redis psubscribe: %w", err)
	}
	r.logger.Info("redis relay subscribed", zap.String("pattern", r.prefix+"*"))

	messages := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			r.forward(ctx, msg)
		}
	}
}

func (r *RedisRelay) forward(ctx context.Context, msg *redis.Message) {
	var env Envelope
	if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
		r.logger.Warn("discarding malformed envelope", zap.String("channel", msg.Channel), zap.Error(err))
		return
	}
	if env.Channel == "" {
		env.Channel = strings.TrimPrefix(msg.Channel, r.prefix)
	}
	r.hub.Deliver(ctx, env)
}
