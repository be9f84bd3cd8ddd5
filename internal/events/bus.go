// Package events provides the synchronous publish/subscribe bus that decouples
// viewer internals from application reactions.
package events

import (
	"sync"

	"go.uber.org/zap"

	"github.com/Faultbox/showroom/internal/logger"
)

// Handler receives the payload passed to Publish.
type Handler func(data any)

type entry struct {
	id   uint64
	name string
	fn   Handler
}

// Bus is a name-keyed callback registry. Publish runs callbacks synchronously
// on the calling goroutine, in registration order.
type Bus struct {
	mu        sync.Mutex
	entries   []entry
	nextID    uint64
	firstOnly bool
	log       *zap.Logger
}

// Option configures a Bus.
type Option func(*Bus)

// FirstMatchOnly restores single dispatch: only the first-registered callback
// for a name runs, later registrations for the same name never fire.
func FirstMatchOnly() Option {
	return func(b *Bus) { b.firstOnly = true }
}

// NewBus creates an empty bus.
func NewBus(opts ...Option) *Bus {
	b := &Bus{log: logger.Named("events")}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Subscription identifies one registered callback.
type Subscription struct {
	bus *Bus
	id  uint64
}

// Cancel removes the callback. Cancelling twice is a no-op.
func (s Subscription) Cancel() {
	if s.bus == nil {
		return
	}
	s.bus.mu.Lock()
	defer s.bus.mu.Unlock()
	for i, e := range s.bus.entries {
		if e.id == s.id {
			s.bus.entries = append(s.bus.entries[:i:i], s.bus.entries[i+1:]...)
			return
		}
	}
}

// Subscribe appends a callback for name. Duplicate registrations are kept.
func (b *Bus) Subscribe(name string, fn Handler) Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	b.entries = append(b.entries, entry{id: b.nextID, name: name, fn: fn})
	return Subscription{bus: b, id: b.nextID}
}

// Publish dispatches data to the callbacks registered for name.
// Callbacks may subscribe or cancel while being dispatched; such changes
// take effect from the next Publish.
func (b *Bus) Publish(name string, data any) {
	b.mu.Lock()
	var matched []Handler
	for _, e := range b.entries {
		if e.name != name {
			continue
		}
		matched = append(matched, e.fn)
		if b.firstOnly {
			break
		}
	}
	b.mu.Unlock()

	if len(matched) == 0 {
		return
	}
	b.log.Debug("publish", zap.String("event", name), zap.Int("handlers", len(matched)))
	for _, fn := range matched {
		fn(data)
	}
}

// Count returns the number of callbacks registered for name.
func (b *Bus) Count(name string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, e := range b.entries {
		if e.name == name {
			n++
		}
	}
	return n
}

// On subscribes a typed callback. Payloads of any other type are ignored.
func On[T any](b *Bus, name string, fn func(T)) Subscription {
	return b.Subscribe(name, func(data any) {
		if v, ok := data.(T); ok {
			fn(v)
		}
	})
}
