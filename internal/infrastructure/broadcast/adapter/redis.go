package adapter

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	redis "github.com/redis/go-redis/v9"

	"vibecheck/internal/infrastructure/broadcast/port"
)

// Channel is the single shared pub/sub topic every client subscribes to.
const Channel = "vibe-checker"

// RedisBroadcast satisfies both port.Publisher and port.Subscriber using a
// Redis pub/sub channel. It wraps a go-redis v9 Client.
type RedisBroadcast struct {
	client  *redis.Client
	channel string
}

// NewRedisBroadcast constructs a RedisBroadcast using the REDIS_URL
// environment variable and verifies connectivity with a ping.
func NewRedisBroadcast() (*RedisBroadcast, error) {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		return nil, errors.New("redis: REDIS_URL environment variable is not set")
	}
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redis: parse url: %w", err)
	}
	c := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := c.Ping(ctx).Err(); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("redis: ping: %w", err)
	}
	return &RedisBroadcast{client: c, channel: Channel}, nil
}

// Ensure interface compliance at compile time
var (
	_ port.Publisher  = (*RedisBroadcast)(nil)
	_ port.Subscriber = (*RedisBroadcast)(nil)
)

func (b *RedisBroadcast) Publish(ctx context.Context, payload []byte) error {
	return b.client.Publish(ctx, b.channel, payload).Err()
}

// Subscribe opens a pub/sub subscription and pumps raw payloads into the
// returned channel until ctx is canceled.
func (b *RedisBroadcast) Subscribe(ctx context.Context) (<-chan []byte, error) {
	sub := b.client.Subscribe(ctx, b.channel)
	// Receive forces the SUBSCRIBE round trip so a failure surfaces here
	// instead of as a silently dead channel.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("redis: subscribe %s: %w", b.channel, err)
	}

	out := make(chan []byte, 64)
	go func() {
		defer close(out)
		defer func() { _ = sub.Close() }()
		msgs := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				out <- []byte(msg.Payload)
			}
		}
	}()
	return out, nil
}

func (b *RedisBroadcast) Close() error {
	return b.client.Close()
}
