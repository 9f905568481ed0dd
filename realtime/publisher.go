package realtime

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisPublisher fans events out through Redis pub/sub so every API
// instance can push to its own websocket clients. Publishing is
// best-effort: a failed publish is logged and dropped.
type RedisPublisher struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisPublisher creates a new RedisPublisher.
func NewRedisPublisher(client *redis.Client, logger *zap.Logger) *RedisPublisher {
	return &RedisPublisher{client: client, logger: logger}
}

// Publish sends one event to the user's channel. An empty userID targets
// the broadcast channel.
func (p *RedisPublisher) Publish(ctx context.Context, userID, eventType string, payload interface{}) {
	event := Event{
		Type:      eventType,
		UserID:    userID,
		Payload:   payload,
		Timestamp: time.Now(),
	}
	data, err := event.Encode()
	if err != nil {
		p.logger.Warn("Failed to encode event", zap.String("type", eventType), zap.Error(err))
		return
	}

	channel := broadcastChannel
	if userID != "" {
		channel = channelFor(userID)
	}
	if err := p.client.Publish(ctx, channel, data).Err(); err != nil {
		p.logger.Warn("Failed to publish event",
			zap.String("channel", channel),
			zap.String("type", eventType),
			zap.Error(err))
	}
}
