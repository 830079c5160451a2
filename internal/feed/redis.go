package feed

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/fekuna/mystery-kit-service/pkg/logger"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Redis uses a pub/sub channel. Every instance subscribed at publish time sees the event.
type Redis struct {
	client  *redis.Client
	channel string
	logger  logger.ZapLogger
}

func NewRedis(client *redis.Client, channel string, log logger.ZapLogger) *Redis {
	return &Redis{client: client, channel: channel, logger: log}
}

var _ PubSub = (*Redis)(nil)

func (r *Redis) Publish(ctx context.Context, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	if err := r.client.Publish(ctx, r.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish to %s: %w", r.channel, err)
	}
	return nil
}

func (r *Redis) Subscribe(ctx context.Context) (<-chan Event, error) {
	ps := r.client.Subscribe(ctx, r.channel)
	// Wait for the subscription confirmation so early publishes are not lost.
	if _, err := ps.Receive(ctx); err != nil {
		ps.Close()
		return nil, fmt.Errorf("subscribe to %s: %w", r.channel, err)
	}

	out := make(chan Event, subscriberBuffer)
	go func() {
		defer close(out)
		defer ps.Close()
		msgs := ps.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var ev Event
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					r.logger.Error("Failed to unmarshal feed event", zap.String("channel", r.channel), zap.Error(err))
					continue
				}
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}
