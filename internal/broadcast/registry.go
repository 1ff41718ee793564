// Package broadcast pushes periodic system snapshots to connected
// subscribers. A Registry tracks who is connected; a Loop produces one
// snapshot per cycle and fans it out.
package broadcast

import (
	"context"
	"log/slog"
	"sync"

	"github.com/sshsshje/sshsshje/internal/logger"
)

// Message types.
const (
	TypePing         = "ping"
	TypeSystemUpdate = "system_update"
)

// Message is one frame sent to subscribers.
type Message struct {
	Type      string `json:"type"`
	Payload   any    `json:"payload,omitempty"`
	Timestamp int64  `json:"timestamp,omitempty"`
}

// Subscriber receives pushed messages. Send must be safe to call from
// several goroutines; Close is called once when the subscriber is dropped.
type Subscriber interface {
	ID() string
	Send(ctx context.Context, msg Message) error
	Close() error
}

// Registry is the set of connected subscribers.
type Registry struct {
	mu   sync.RWMutex
	subs map[string]Subscriber
	log  *slog.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(log *slog.Logger) *Registry {
	if log == nil {
		log = logger.Noop()
	}
	return &Registry{
		subs: make(map[string]Subscriber),
		log:  log.With("component", "registry"),
	}
}

// Add registers sub. Re-adding the same ID replaces the old entry.
func (r *Registry) Add(sub Subscriber) {
	r.mu.Lock()
	r.subs[sub.ID()] = sub
	n := len(r.subs)
	r.mu.Unlock()

	r.log.Info("subscriber connected", "subscriber", sub.ID(), "total", n)
}

// Remove unregisters the subscriber with id and reports whether it was
// present. It does not close it.
func (r *Registry) Remove(id string) bool {
	r.mu.Lock()
	_, ok := r.subs[id]
	delete(r.subs, id)
	n := len(r.subs)
	r.mu.Unlock()

	if ok {
		r.log.Info("subscriber disconnected", "subscriber", id, "total", n)
	}
	return ok
}

// Len returns the number of registered subscribers.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.subs)
}

func (r *Registry) snapshot() []Subscriber {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Subscriber, 0, len(r.subs))
	for _, s := range r.subs {
		out = append(out, s)
	}
	return out
}

// Broadcast sends msg to every subscriber concurrently. A subscriber whose
// Send fails is removed and closed right away; there is no retry. Returns
// the number of successful deliveries.
func (r *Registry) Broadcast(ctx context.Context, msg Message) int {
	subs := r.snapshot()

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		delivered int
	)
	for _, sub := range subs {
		wg.Add(1)
		go func(sub Subscriber) {
			defer wg.Done()
			if err := sub.Send(ctx, msg); err != nil {
				r.log.Warn("delivery failed, dropping subscriber",
					"subscriber", sub.ID(), "type", msg.Type, "error", err)
				r.Drop(sub)
				return
			}
			mu.Lock()
			delivered++
			mu.Unlock()
		}(sub)
	}
	wg.Wait()
	return delivered
}

// Drop removes and closes sub.
func (r *Registry) Drop(sub Subscriber) {
	r.Remove(sub.ID())
	_ = sub.Close()
}
