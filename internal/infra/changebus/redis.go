package changebus

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"groupbuy/internal/usecase/shared"

	"github.com/redis/go-redis/v9"
)

// Redis publishes events on a pub/sub channel so every API process sees them.
type Redis struct {
	client redis.UniversalClient
	topic  string
}

func NewRedis(client redis.UniversalClient, topic string) *Redis {
	return &Redis{client: client, topic: topic}
}

func (b *Redis) Publish(ctx context.Context, events []shared.ChangeEvent) error {
	pipe := b.client.Pipeline()
	for _, ev := range events {
		payload, err := json.Marshal(ev)
		if err != nil {
			return fmt.Errorf("failed to marshal change event: %w", err)
		}
		pipe.Publish(ctx, b.topic, payload)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to publish change events to redis: %w", err)
	}
	return nil
}

func (b *Redis) Subscribe(ctx context.Context) (<-chan shared.ChangeEvent, error) {
	sub := b.client.Subscribe(ctx, b.topic)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("failed to subscribe to %s: %w", b.topic, err)
	}

	out := make(chan shared.ChangeEvent, subscriberBuffer)
	go func() {
		defer close(out)
		defer sub.Close()

		msgs := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				ev, err := decode(msg.Payload)
				if err != nil {
					slog.Warn("discarding malformed change event", "topic", b.topic, "error", err.Error())
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

func decode(payload string) (shared.ChangeEvent, error) {
	var ev shared.ChangeEvent
	if err := json.Unmarshal([]byte(payload), &ev); err != nil {
		return shared.ChangeEvent{}, err
	}
	return ev, nil
}
