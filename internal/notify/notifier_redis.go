package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const publishTimeout = 5 * time.Second

type redisNotifier struct {
	client  *redis.Client
	channel string
	logger  *zap.Logger
}

// NewRedisNotifier returns a Notifier that publishes JSON events on a
// Redis pub/sub channel for the delivery workers to pick up.
func NewRedisNotifier(client *redis.Client, channel string, logger *zap.Logger) Notifier {
	return &redisNotifier{client: client, channel: channel, logger: logger}
}

func (n *redisNotifier) Publish(ctx context.Context, event Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		n.logger.Error("marshal notification", zap.Error(err))
		return
	}

	// Detach from the request context so an abandoned caller does not
	// drop an event for a change that already committed.
	ctx = context.WithoutCancel(ctx)
	go func() {
		ctx, cancel := context.WithTimeout(ctx, publishTimeout)
		defer cancel()
		if err := n.client.Publish(ctx, n.channel, payload).Err(); err != nil {
			n.logger.Warn("publish notification",
				zap.String("kind", string(event.Kind)),
				zap.Error(err),
			)
		}
	}()
}
