package argseal

import (
	"context"
	"fmt"
	"time"

	argjson "github.com/zoobzio/argseal/json"
)

// Client enqueues jobs through a Transport after running them through the
// client middleware chain.
type Client struct {
	transport Transport
	codec     Codec
	chain     *Chain
}

// NewClient creates a Client. A nil codec selects JSON for job records and a
// nil chain starts empty.
func NewClient(transport Transport, codec Codec, chain *Chain) *Client {
	if codec == nil {
		codec = argjson.New()
	}
	if chain == nil {
		chain = NewChain()
	}
	return &Client{transport: transport, codec: codec, chain: chain}
}

// Chain returns the client middleware chain.
func (c *Client) Chain() *Chain {
	return c.chain
}

// Enqueue runs job through the client chain, then serializes and pushes it.
// A middleware returning an error stops the job from being pushed.
func (c *Client) Enqueue(ctx context.Context, job *Job) error {
	if job.Class == "" {
		return fmt.Errorf("job class is required")
	}
	if job.Queue == "" {
		job.Queue = DefaultQueue
	}

	push := func(ctx context.Context, job *Job) error {
		job.EnqueuedAt = time.Now().UTC()
		payload, err := c.codec.Marshal(job)
		if err != nil {
			return newCodecError(ErrMarshal, err)
		}
		return c.transport.Push(ctx, job.Queue, payload)
	}

	return c.chain.Then(push)(ctx, job)
}

// Push builds a job for class and enqueues it on the default queue.
func (c *Client) Push(ctx context.Context, class string, args ...any) (string, error) {
	job := NewJob(class, args...)
	if err := c.Enqueue(ctx, job); err != nil {
		return "", err
	}
	return job.JID, nil
}
