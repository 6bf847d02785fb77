package notify

import "sync"

// Bus delivers events synchronously to at most one subscriber. Events
// published with no subscriber are dropped; there is no buffering here.
type Bus struct {
	mu  sync.RWMutex
	sub func(Event)
	gen uint64
}

// NewBus returns a Bus with no subscriber.
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe installs fn as the sole subscriber, replacing any previous
// one. The returned function removes fn if it is still the subscriber.
func (b *Bus) Subscribe(fn func(Event)) (unsubscribe func()) {
	b.mu.Lock()
	b.gen++
	gen := b.gen
	b.sub = fn
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if b.gen == gen {
			b.sub = nil
		}
	}
}

// Publish hands e to the current subscriber before returning. The
// subscriber runs outside the bus lock so it may publish again.
func (b *Bus) Publish(e Event) {
	b.mu.RLock()
	fn := b.sub
	b.mu.RUnlock()

	if fn != nil {
		fn(e)
	}
}

// HasSubscriber reports whether an active subscriber is installed.
func (b *Bus) HasSubscriber() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.sub != nil
}
