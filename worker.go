package argseal

import (
	"context"
	"errors"
	"fmt"
	"time"

	argjson "github.com/zoobzio/argseal/json"
)

// Retry delays used by Run after a transport failure.
const (
	DefaultRetryBackoff    = 100 * time.Millisecond
	DefaultMaxRetryBackoff = 5 * time.Second
)

// Worker pops job records from a Transport, runs them through the server
// middleware chain and performs them with the registered job body.
type Worker struct {
	transport  Transport
	codec      Codec
	registry   *Registry
	chain      *Chain
	backoff    time.Duration
	maxBackoff time.Duration
}

// NewWorker creates a Worker. The codec must match the producers'.
func NewWorker(transport Transport, codec Codec, registry *Registry, chain *Chain) *Worker {
	if codec == nil {
		codec = argjson.New()
	}
	if registry == nil {
		registry = NewRegistry()
	}
	if chain == nil {
		chain = NewChain()
	}
	return &Worker{
		transport:  transport,
		codec:      codec,
		registry:   registry,
		chain:      chain,
		backoff:    DefaultRetryBackoff,
		maxBackoff: DefaultMaxRetryBackoff,
	}
}

// Chain returns the server middleware chain.
func (w *Worker) Chain() *Chain {
	return w.chain
}

// SetRetryBackoff sets the first delay after a transport failure and the cap
// it doubles up to. Non-positive values keep the current setting.
func (w *Worker) SetRetryBackoff(initial, maxDelay time.Duration) {
	if initial > 0 {
		w.backoff = initial
	}
	if maxDelay > 0 {
		w.maxBackoff = maxDelay
	}
	if w.maxBackoff < w.backoff {
		w.maxBackoff = w.backoff
	}
}

// Process pops one job from queue and performs it.
func (w *Worker) Process(ctx context.Context, queue string) error {
	payload, err := w.transport.Pop(ctx, queue)
	if err != nil {
		return err
	}
	return w.handle(ctx, queue, payload)
}

// handle decodes a popped payload and performs it. A payload that cannot be
// decoded is gone from the queue, so it is reported through SignalJobRejected.
func (w *Worker) handle(ctx context.Context, queue string, payload []byte) error {
	var job Job
	if err := w.codec.Unmarshal(payload, &job); err != nil {
		err = newCodecError(ErrUnmarshal, err)
		emitJobRejected(ctx, queue, len(payload), err)
		return err
	}
	return w.Perform(ctx, &job)
}

// Perform runs an already decoded job through the server chain and its body.
func (w *Worker) Perform(ctx context.Context, job *Job) (err error) {
	start := time.Now()
	defer func() {
		emitJobPerformed(ctx, job, time.Since(start), err)
	}()

	jt, ok := w.registry.Lookup(job.Class)
	if !ok || jt.Perform == nil {
		return fmt.Errorf("%w: %s", ErrUnknownJob, job.Class)
	}

	perform := func(ctx context.Context, job *Job) error {
		return jt.Perform(ctx, job.Args)
	}
	return w.chain.Then(perform)(ctx, job)
}

// Run processes jobs from queue until ctx is done.
//
// Job failures are reported through SignalJobPerformed and undecodable
// payloads through SignalJobRejected; neither stops the loop. Transport
// failures are reported through SignalTransportFailed and retried after a
// delay that doubles up to the configured cap. Run returns nil once ctx is done
// and ErrTransportClosed if the transport shuts down.
func (w *Worker) Run(ctx context.Context, queue string) error {
	delay := w.backoff
	for {
		payload, err := w.transport.Pop(ctx, queue)
		if ctx.Err() != nil {
			return nil
		}
		if err != nil {
			if errors.Is(err, ErrTransportClosed) {
				return err
			}
			emitTransportFailed(ctx, queue, delay, err)

			select {
			case <-ctx.Done():
				return nil
			case <-time.After(delay):
			}
			delay = min(delay*2, w.maxBackoff)
			continue
		}

		delay = w.backoff
		_ = w.handle(ctx, queue, payload)
	}
}
