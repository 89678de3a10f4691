package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisPublisher pushes messages onto a Redis list. The list is capped so a
// missing consumer cannot grow it without bound; the oldest messages are
// dropped first.
type RedisPublisher struct {
	client    *redis.Client
	keyPrefix string
	maxLen    int64
	now       func() time.Time
}

// RedisPublisherOption configures RedisPublisher.
type RedisPublisherOption func(*RedisPublisher)

// WithKeyPrefix sets custom key prefix.
func WithKeyPrefix(prefix string) RedisPublisherOption {
	return func(r *RedisPublisher) {
		if prefix != "" {
			r.keyPrefix = prefix
		}
	}
}

// WithMaxLen caps the list length. Zero disables trimming.
func WithMaxLen(n int64) RedisPublisherOption {
	return func(r *RedisPublisher) {
		r.maxLen = n
	}
}

// NewRedisPublisher creates a publisher and checks the connection.
func NewRedisPublisher(ctx context.Context, client *redis.Client, opts ...RedisPublisherOption) (*RedisPublisher, error) {
	r := &RedisPublisher{
		client:    client,
		keyPrefix: "candlescope:queue",
		maxLen:    100000,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return r, nil
}

// Key returns the list a message type is pushed to.
func (r *RedisPublisher) Key(msgType string) string {
	return r.keyPrefix + ":" + msgType
}

// Enqueue pushes payload onto the list for msgType.
func (r *RedisPublisher) Enqueue(ctx context.Context, msgType string, payload interface{}) error {
	msg, err := NewMessage(msgType, payload, r.now())
	if err != nil {
		return err
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	key := r.Key(msgType)
	pipe := r.client.TxPipeline()
	pipe.LPush(ctx, key, data)
	if r.maxLen > 0 {
		pipe.LTrim(ctx, key, 0, r.maxLen-1)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("enqueue %s: %w", msgType, err)
	}
	return nil
}

// PublishMessage implements logger.Publisher.
func (r *RedisPublisher) PublishMessage(ctx context.Context, msgType string, payload interface{}) error {
	return r.Enqueue(ctx, msgType, payload)
}

// Len reports how many messages of msgType are waiting.
func (r *RedisPublisher) Len(ctx context.Context, msgType string) (int64, error) {
	return r.client.LLen(ctx, r.Key(msgType)).Result()
}

func (r *RedisPublisher) Close() error {
	return r.client.Close()
}
