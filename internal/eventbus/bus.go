// Package eventbus decouples the engine from the UI boundary.
//
// The engine publishes small signals (badge count, item transitions); a
// display layer may subscribe to refresh itself. Nothing in the scheduling
// path depends on subscribers being present or fast: delivery is
// non-blocking and slow subscribers lose events.
package eventbus

import (
	"sync"
	"time"
)

type EventType string

const (
	TypeBadge  EventType = "backlog.count" // Data: int (current backlog size)
	TypeItem   EventType = "item.changed"  // Data: queue.Item after a transition
	TypePosted EventType = "item.posted"   // Data: queue.Item
)

type Event struct {
	Type EventType
	Time time.Time
	Data any
}

type Bus interface {
	Publish(e Event)
	Subscribe(buffer int) (ch <-chan Event, unsubscribe func())
}

// New returns an in-memory fanout bus with no background goroutines.
func New() Bus {
	return &fanout{subs: map[int]chan Event{}}
}

type fanout struct {
	mu   sync.RWMutex
	subs map[int]chan Event
	next int
}

// Publish delivers e to every subscriber whose buffer has room.
//
// The read lock is held across the sends. Unsubscribe closes channels under
// the write lock, so a send can never hit a closed channel.
func (b *fanout) Publish(e Event) {
	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subs {
		select {
		case ch <- e:
		default:
		}
	}
}

func (b *fanout) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = 8
	}
	ch := make(chan Event, buffer)

	b.mu.Lock()
	id := b.next
	b.next++
	b.subs[id] = ch
	b.mu.Unlock()

	var once sync.Once
	unsub := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			close(ch)
			b.mu.Unlock()
		})
	}
	return ch, unsub
}
