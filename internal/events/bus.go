// Package events provides the in-process feed-refresh fan-out. Subscribers
// register explicitly and receive a wake-up whenever shown content changes;
// there is no module-level listener registry.
package events

import "sync"

// FeedRefreshed signals that the set of shown facts changed for a language.
type FeedRefreshed struct {
	Language string
}

// Bus is an explicit publish/subscribe object owned by the application
// composition root. Publishing never blocks: a subscriber that has not drained
// its previous wake-up simply keeps the one already buffered.
type Bus struct {
	mu   sync.Mutex
	subs map[int]chan FeedRefreshed
	next int
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[int]chan FeedRefreshed)}
}

// Subscribe registers a new subscriber and returns its channel together with
// an unsubscribe function. The unsubscribe function is idempotent.
func (b *Bus) Subscribe() (<-chan FeedRefreshed, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.next
	b.next++
	ch := make(chan FeedRefreshed, 1)
	b.subs[id] = ch

	unsubscribe := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if sub, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(sub)
		}
	}
	return ch, unsubscribe
}

// Publish delivers the event to every current subscriber without blocking.
func (b *Bus) Publish(e FeedRefreshed) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- e:
		default:
		}
	}
}
