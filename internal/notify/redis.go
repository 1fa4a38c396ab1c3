package notify

import (
	"context"
	"log/slog"

	"github.com/KirkDiggler/rpg-sheet/internal/errors"
	"github.com/KirkDiggler/rpg-sheet/internal/redis"
)

// DefaultChannel is the pub/sub channel used when none is configured
const DefaultChannel = "sheet:changes"

// RedisConfig configures a RedisBroadcaster
type RedisConfig struct {
	Client  redis.Client
	Channel string
}

// Validate validates the configuration
func (c *RedisConfig) Validate() error {
	vb := errors.NewValidationBuilder()
	if c.Client == nil {
		vb.RequiredField("client")
	}
	return vb.Build()
}

// RedisBroadcaster publishes messages on a Redis pub/sub channel
type RedisBroadcaster struct {
	client  redis.Client
	channel string
}

// NewRedis creates a Redis-backed broadcaster
func NewRedis(cfg *RedisConfig) (*RedisBroadcaster, error) {
	if cfg == nil {
		return nil, errors.InvalidArgument("config is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid redis broadcaster config")
	}

	channel := cfg.Channel
	if channel == "" {
		channel = DefaultChannel
	}

	return &RedisBroadcaster{client: cfg.Client, channel: channel}, nil
}

// Publish sends msg to the channel
func (b *RedisBroadcaster) Publish(ctx context.Context, msg Message) error {
	raw, err := encode(msg)
	if err != nil {
		return err
	}

	if err := b.client.Publish(ctx, b.channel, raw).Err(); err != nil {
		return errors.WrapWithCodef(err, errors.CodeUnavailable, "failed to publish to %s", b.channel)
	}
	return nil
}

// Subscribe listens on the channel until cancel is called or ctx ends.
// It returns once the subscription is confirmed by the server.
func (b *RedisBroadcaster) Subscribe(ctx context.Context, h Handler) (func(), error) {
	if h == nil {
		return nil, errors.InvalidArgument("handler is required")
	}

	sub := b.client.Subscribe(ctx, b.channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, errors.WrapWithCodef(err, errors.CodeUnavailable, "failed to subscribe to %s", b.channel)
	}

	subCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	go func() {
		defer close(done)
		defer func() { _ = sub.Close() }()

		ch := sub.Channel()
		for {
			select {
			case <-subCtx.Done():
				return
			case m, ok := <-ch:
				if !ok || m == nil {
					return
				}
				msg, err := decode([]byte(m.Payload))
				if err != nil {
					slog.WarnContext(subCtx, "dropping malformed notification",
						"channel", b.channel,
						"error", err.Error())
					continue
				}
				h(msg)
			}
		}
	}()

	return func() {
		cancel()
		<-done
	}, nil
}
