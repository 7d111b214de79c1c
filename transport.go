package argseal

import (
	"context"
	"sync"
)

// Transport moves serialized job records between producers and workers.
type Transport interface {
	// Push appends a payload to queue.
	Push(ctx context.Context, queue string, payload []byte) error

	// Pop blocks until a payload is available on queue or ctx is done.
	Pop(ctx context.Context, queue string) ([]byte, error)
}

// MemoryTransport is an in-process Transport backed by buffered channels.
type MemoryTransport struct {
	mu     sync.Mutex
	queues map[string]chan []byte
	size   int
}

// NewMemoryTransport creates a MemoryTransport holding up to size payloads per queue.
func NewMemoryTransport(size int) *MemoryTransport {
	if size <= 0 {
		size = 1024
	}
	return &MemoryTransport{queues: make(map[string]chan []byte), size: size}
}

func (m *MemoryTransport) queue(name string) chan []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.queues[name]
	if !ok {
		q = make(chan []byte, m.size)
		m.queues[name] = q
	}
	return q
}

// Push appends a copy of payload to queue, blocking while the queue is full.
func (m *MemoryTransport) Push(ctx context.Context, queue string, payload []byte) error {
	buf := make([]byte, len(payload))
	copy(buf, payload)

	select {
	case m.queue(queue) <- buf:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Pop removes the oldest payload from queue.
func (m *MemoryTransport) Pop(ctx context.Context, queue string) ([]byte, error) {
	select {
	case payload := <-m.queue(queue):
		return payload, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Len returns the number of payloads waiting on queue.
func (m *MemoryTransport) Len(queue string) int {
	return len(m.queue(queue))
}
