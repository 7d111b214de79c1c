// Package redisqueue provides an argseal.Transport backed by Redis lists.
//
// Producers LPUSH serialized job records and workers BRPOP them, so each queue
// is FIFO. Payloads are stored as they are handed over; sealed arguments stay
// ciphertext while they sit in Redis.
package redisqueue

import (
	"context"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/zoobzio/argseal"
)

// Defaults.
const (
	DefaultPrefix      = "argseal:queue:"
	DefaultPollTimeout = 2 * time.Second
)

// Transport implements argseal.Transport over a Redis client.
type Transport struct {
	client      redis.UniversalClient
	prefix      string
	pollTimeout time.Duration
}

// Option configures a Transport.
type Option func(*Transport)

// WithPrefix sets the key prefix queue names are stored under.
func WithPrefix(prefix string) Option {
	return func(t *Transport) {
		t.prefix = prefix
	}
}

// WithPollTimeout bounds each blocking pop, so a cancelled context is noticed
// within that interval.
func WithPollTimeout(d time.Duration) Option {
	return func(t *Transport) {
		if d > 0 {
			t.pollTimeout = d
		}
	}
}

// New creates a Transport over client.
func New(client redis.UniversalClient, opts ...Option) *Transport {
	t := &Transport{
		client:      client,
		prefix:      DefaultPrefix,
		pollTimeout: DefaultPollTimeout,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Dial connects to the Redis server at addr and checks it answers.
func Dial(ctx context.Context, addr string, opts ...Option) (*Transport, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return New(client, opts...), nil
}

func (t *Transport) key(queue string) string {
	return t.prefix + queue
}

// Push appends payload to queue.
func (t *Transport) Push(ctx context.Context, queue string, payload []byte) error {
	return mapErr(t.client.LPush(ctx, t.key(queue), payload).Err())
}

// Pop blocks until a payload is available on queue or ctx is done.
func (t *Transport) Pop(ctx context.Context, queue string) ([]byte, error) {
	for {
		res, err := t.client.BRPop(ctx, t.pollTimeout, t.key(queue)).Result()
		switch {
		case err == nil:
			// [key, value]
			return []byte(res[1]), nil
		case errors.Is(err, redis.Nil):
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			continue
		default:
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, mapErr(err)
		}
	}
}

// Len returns the number of payloads waiting on queue.
func (t *Transport) Len(ctx context.Context, queue string) (int64, error) {
	return t.client.LLen(ctx, t.key(queue)).Result()
}

// Purge deletes queue.
func (t *Transport) Purge(ctx context.Context, queue string) error {
	return mapErr(t.client.Del(ctx, t.key(queue)).Err())
}

// Close closes the underlying client.
func (t *Transport) Close() error {
	return t.client.Close()
}

func mapErr(err error) error {
	if errors.Is(err, redis.ErrClosed) {
		return argseal.ErrTransportClosed
	}
	return err
}

var _ argseal.Transport = (*Transport)(nil)
