// Package events carries the cross-cutting session-expired signal. Any code
// that calls the API outside the session core and receives a definitive
// auth failure publishes here; the session manager subscribes and treats it
// the same as watchdog-detected expiry.
package events

import "sync"

// Bus is a minimal publish/subscribe channel for the session-expired signal.
type Bus struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]func()
}

func NewBus() *Bus {
	return &Bus{subs: make(map[int]func())}
}

// SubscribeSessionExpired registers fn and returns an unsubscribe function.
func (b *Bus) SubscribeSessionExpired(fn func()) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	b.subs[id] = fn

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subs, id)
	}
}

// PublishSessionExpired notifies all subscribers. Subscribers are invoked
// outside the bus lock so they may re-enter the bus.
func (b *Bus) PublishSessionExpired() {
	b.mu.Lock()
	fns := make([]func(), 0, len(b.subs))
	for _, fn := range b.subs {
		fns = append(fns, fn)
	}
	b.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}
