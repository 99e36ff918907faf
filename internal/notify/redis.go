package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// RedisStreamObserver appends every notification to a Redis stream so
// out-of-process consumers can follow engine activity.
type RedisStreamObserver struct {
	client *redis.Client
	stream string
	maxLen int64
}

// NewRedisStreamObserver connects to the Redis instance at url
// (redis://[:password@]host:port/db). maxLen caps the stream approximately.
func NewRedisStreamObserver(url, stream string, maxLen int64) (*RedisStreamObserver, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	return NewRedisStreamObserverWithClient(redis.NewClient(opt), stream, maxLen), nil
}

func NewRedisStreamObserverWithClient(client *redis.Client, stream string, maxLen int64) *RedisStreamObserver {
	if client == nil {
		panic("notify: redis client must not be nil")
	}
	return &RedisStreamObserver{client: client, stream: stream, maxLen: maxLen}
}

// Ping checks the connection; used at startup.
func (o *RedisStreamObserver) Ping(ctx context.Context) error {
	return o.client.Ping(ctx).Err()
}

// Notify implements Observer. Failures are logged and otherwise ignored.
func (o *RedisStreamObserver) Notify(ctx context.Context, n Notification) {
	payload, err := json.Marshal(n)
	if err != nil {
		slog.Error("[Notify] Failed to encode notification", "kind", n.Kind, "error", err)
		return
	}

	args := &redis.XAddArgs{
		Stream: o.stream,
		Values: map[string]interface{}{
			"kind":    string(n.Kind),
			"payload": string(payload),
		},
	}
	if o.maxLen > 0 {
		args.MaxLen = o.maxLen
		args.Approx = true
	}

	if err := o.client.XAdd(ctx, args).Err(); err != nil {
		slog.Warn("[Notify] Failed to append to redis stream",
			"stream", o.stream,
			"kind", n.Kind,
			"error", err)
	}
}

func (o *RedisStreamObserver) Close() error {
	return o.client.Close()
}
