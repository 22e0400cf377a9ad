package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const DefaultChannelPrefix = "scr:changes"

// RedisFeed carries change notifications over Redis Pub/Sub, one channel
// per table: <prefix>:<table>.
type RedisFeed struct {
	client     *redis.Client
	ownsClient bool
	prefix     string
	logger     *slog.Logger

	mu      sync.Mutex
	pubsubs []*redis.PubSub
	fanouts []*fanout
	closed  bool
}

type RedisFeedOption func(*RedisFeed)

func WithChannelPrefix(prefix string) RedisFeedOption {
	return func(f *RedisFeed) {
		if prefix != "" {
			f.prefix = prefix
		}
	}
}

func WithRedisLogger(logger *slog.Logger) RedisFeedOption {
	return func(f *RedisFeed) { f.logger = logger }
}

// NewRedisFeed dials Redis and owns the resulting client.
func NewRedisFeed(ctx context.Context, opts *redis.Options, feedOpts ...RedisFeedOption) (*RedisFeed, error) {
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	f := NewRedisFeedWithClient(client, feedOpts...)
	f.ownsClient = true
	return f, nil
}

// NewRedisFeedWithClient wraps an existing client; the caller keeps
// ownership of it.
func NewRedisFeedWithClient(client *redis.Client, opts ...RedisFeedOption) *RedisFeed {
	f := &RedisFeed{
		client: client,
		prefix: DefaultChannelPrefix,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *RedisFeed) channel(table string) string {
	return f.prefix + ":" + table
}

// Publish announces a change. Anything writing to the backend (or a
// database-side relay) uses this to reach dashboards.
func (f *RedisFeed) Publish(ctx context.Context, c Change) error {
	if c.At.IsZero() {
		c.At = time.Now()
	}
	payload, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal change: %w", err)
	}
	if err := f.client.Publish(ctx, f.channel(c.Table), payload).Err(); err != nil {
		return fmt.Errorf("publish change: %w", err)
	}
	return nil
}

// Subscribe returns once Redis has confirmed the subscription, so changes
// published after it returns are never missed.
func (f *RedisFeed) Subscribe(ctx context.Context, tables ...string) (<-chan Change, error) {
	if len(tables) == 0 {
		return nil, fmt.Errorf("redis feed needs at least one table")
	}

	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return nil, ErrFeedClosed
	}
	f.mu.Unlock()

	channels := make([]string, len(tables))
	for i, t := range tables {
		channels[i] = f.channel(t)
	}

	pubsub := f.client.Subscribe(ctx, channels...)
	for range channels {
		if _, err := pubsub.Receive(ctx); err != nil {
			pubsub.Close()
			return nil, fmt.Errorf("subscribe to %s: %w", strings.Join(channels, ","), err)
		}
	}

	fan := newFanout()
	out, err := fan.add(ctx, nil)
	if err != nil {
		pubsub.Close()
		return nil, err
	}

	f.mu.Lock()
	f.pubsubs = append(f.pubsubs, pubsub)
	f.fanouts = append(f.fanouts, fan)
	f.mu.Unlock()

	go f.pump(ctx, pubsub, fan)

	f.logger.Info("subscribed to change channels", "channels", channels)
	return out, nil
}

func (f *RedisFeed) pump(ctx context.Context, pubsub *redis.PubSub, fan *fanout) {
	defer fan.close()
	defer pubsub.Close()

	messages := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-messages:
			if !ok {
				return
			}

			var c Change
			if err := json.Unmarshal([]byte(msg.Payload), &c); err != nil {
				f.logger.Warn("dropping malformed change message",
					"channel", msg.Channel,
					"error", err,
				)
				continue
			}
			if c.Table == "" {
				c.Table = strings.TrimPrefix(msg.Channel, f.prefix+":")
			}
			fan.publish(c)
		}
	}
}

func (f *RedisFeed) Close() error {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return nil
	}
	f.closed = true
	pubsubs, fanouts := f.pubsubs, f.fanouts
	f.pubsubs, f.fanouts = nil, nil
	f.mu.Unlock()

	for _, ps := range pubsubs {
		ps.Close()
	}
	for _, fan := range fanouts {
		fan.close()
	}
	if f.ownsClient {
		return f.client.Close()
	}
	return nil
}
