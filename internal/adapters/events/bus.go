package events

import (
	"sync"

	"github.com/covault-org/covault-cli/internal/domain"
	"github.com/covault-org/covault-cli/internal/usecase"
)

// Bus delivers lifecycle events to subscribers in publish order. A single
// dispatch goroutine drains the queue, so two events published in sequence
// are observed in that sequence by every subscriber. A slow subscriber whose
// buffer is full drops the event rather than stalling the dispatcher.
type Bus struct {
	mu     sync.Mutex
	subs   map[int]chan domain.Event
	nextID int
	queue  chan domain.Event
	done   chan struct{}
}

// NewBus creates and starts the bus.
func NewBus() *Bus {
	b := &Bus{
		subs:  make(map[int]chan domain.Event),
		queue: make(chan domain.Event, 64),
		done:  make(chan struct{}),
	}
	go b.dispatch()
	return b
}

func (b *Bus) Publish(event domain.Event) {
	select {
	case b.queue <- event:
	case <-b.done:
	}
}

func (b *Bus) Subscribe(buffer int) (<-chan domain.Event, func()) {
	if buffer <= 0 {
		buffer = 16
	}
	ch := make(chan domain.Event, buffer)

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = ch
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		if sub, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(sub)
		}
		b.mu.Unlock()
	}
	return ch, cancel
}

// Close stops dispatch and closes all subscriber channels.
func (b *Bus) Close() {
	close(b.done)
	b.mu.Lock()
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
	b.mu.Unlock()
}

func (b *Bus) dispatch() {
	for {
		select {
		case event := <-b.queue:
			b.mu.Lock()
			for _, ch := range b.subs {
				select {
				case ch <- event:
				default:
				}
			}
			b.mu.Unlock()
		case <-b.done:
			return
		}
	}
}

var _ usecase.EventBus = (*Bus)(nil)
