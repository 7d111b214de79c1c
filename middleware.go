package argseal

import (
	"context"
	"sync"
)

// Names the sealer's hooks are registered under.
const (
	SealMiddlewareName = "argseal.seal"
	OpenMiddlewareName = "argseal.open"
)

// Handler processes one job record.
type Handler func(ctx context.Context, job *Job) error

// Middleware wraps a Handler.
type Middleware func(next Handler) Handler

type chainEntry struct {
	name string
	mw   Middleware
}

// Chain is an ordered, named list of middleware. The first entry runs first.
// Chains are safe for concurrent use.
type Chain struct {
	mu      sync.RWMutex
	entries []chainEntry
}

// NewChain creates an empty Chain.
func NewChain() *Chain {
	return &Chain{}
}

// Add appends mw under name, moving it to the end if already present.
func (c *Chain) Add(name string, mw Middleware) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.remove(name)
	c.entries = append(c.entries, chainEntry{name: name, mw: mw})
}

// Prepend inserts mw under name at the front, moving it if already present.
func (c *Chain) Prepend(name string, mw Middleware) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.remove(name)
	c.entries = append([]chainEntry{{name: name, mw: mw}}, c.entries...)
}

// Remove deletes the entry registered under name.
func (c *Chain) Remove(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.remove(name)
}

func (c *Chain) remove(name string) {
	for i, e := range c.entries {
		if e.name == name {
			c.entries = append(c.entries[:i:i], c.entries[i+1:]...)
			return
		}
	}
}

// Exists reports whether an entry is registered under name.
func (c *Chain) Exists(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, e := range c.entries {
		if e.name == name {
			return true
		}
	}
	return false
}

// Names lists entries in execution order.
func (c *Chain) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, len(c.entries))
	for i, e := range c.entries {
		names[i] = e.name
	}
	return names
}

// Then wraps h with the chain's current entries.
func (c *Chain) Then(h Handler) Handler {
	c.mu.RLock()
	entries := make([]chainEntry, len(c.entries))
	copy(entries, c.entries)
	c.mu.RUnlock()

	for i := len(entries) - 1; i >= 0; i-- {
		h = entries[i].mw(h)
	}
	return h
}

// Configure registers the sealer's hooks and resolves its secrets, so a
// missing secret is reported at startup rather than on the first job.
//
// The seal hook is prepended to client so it runs before any other producer
// hook can serialize or transmit the job. The open hook is appended to server
// so consumer hooks still see the sealed payload and the job body sees
// cleartext. A process that both enqueues and performs jobs passes both chains.
// Either chain may be nil.
func Configure(s *Sealer, client, server *Chain) {
	s.values.Keyring().Load()

	if client != nil {
		client.Prepend(SealMiddlewareName, s.SealMiddleware())
	}
	if server != nil {
		server.Add(OpenMiddlewareName, s.OpenMiddleware())
	}
}
