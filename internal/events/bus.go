package events

import (
	"sync"
	"time"
)

const (
	// ringCapacity bounds the recent-event ring.
	ringCapacity = 1000

	// catchUpCount is how many recent events a new subscriber receives
	// as a prelude before live delivery begins.
	catchUpCount = 50

	// subscriberBuffer is the per-subscriber channel depth. A
	// subscriber that lets its buffer fill is dropped rather than
	// allowed to block emitters.
	subscriberBuffer = 256
)

// Subscriber is one registered consumer of the bus. Events arrive on
// Events() in publication order. The channel is closed when the
// subscriber is removed, either via Unsubscribe or because it fell
// too far behind.
type Subscriber struct {
	ch chan Event
}

// Events returns the subscriber's receive channel.
func (s *Subscriber) Events() <-chan Event { return s.ch }

// Bus is an in-memory publish/subscribe fan-out with a bounded ring
// of recent events for catch-up on subscribe. Delivery is per-subscriber
// FIFO and best-effort: no retries, no persistence.
type Bus struct {
	mu     sync.Mutex
	recent []Event
	subs   map[*Subscriber]struct{}
	closed bool
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{
		subs: make(map[*Subscriber]struct{}),
	}
}

// Subscribe registers a new subscriber. Up to the last 50 events are
// queued immediately as a catch-up prelude.
func (b *Bus) Subscribe() *Subscriber {
	sub := &Subscriber{ch: make(chan Event, subscriberBuffer)}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(sub.ch)
		return sub
	}

	start := 0
	if len(b.recent) > catchUpCount {
		start = len(b.recent) - catchUpCount
	}
	for _, e := range b.recent[start:] {
		sub.ch <- e // buffer is larger than the prelude, never blocks
	}

	b.subs[sub] = struct{}{}
	return sub
}

// Unsubscribe removes a subscriber and closes its channel. Idempotent.
func (b *Bus) Unsubscribe(sub *Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subs[sub]; !ok {
		return
	}
	delete(b.subs, sub)
	close(sub.ch)
}

// Emit appends the event to the recent ring and fans it out to every
// current subscriber. Safe for concurrent use. A subscriber whose
// buffer is full is removed.
func (b *Bus) Emit(typ EventType, payload any) {
	e := Event{Type: typ, Payload: payload, Time: time.Now()}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}

	b.recent = append(b.recent, e)
	if len(b.recent) > ringCapacity {
		b.recent = b.recent[len(b.recent)-ringCapacity:]
	}

	for sub := range b.subs {
		select {
		case sub.ch <- e:
		default:
			// Subscriber stopped draining; drop it.
			delete(b.subs, sub)
			close(sub.ch)
		}
	}
}

// Recent returns a copy of the ring's newest n events (all of them if
// n <= 0 or n exceeds the ring size).
func (b *Bus) Recent(n int) []Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	start := 0
	if n > 0 && len(b.recent) > n {
		start = len(b.recent) - n
	}
	out := make([]Event, len(b.recent)-start)
	copy(out, b.recent[start:])
	return out
}

// SubscriberCount returns the number of active subscribers.
func (b *Bus) SubscriberCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// Close removes all subscribers and rejects further emissions.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for sub := range b.subs {
		delete(b.subs, sub)
		close(sub.ch)
	}
}
