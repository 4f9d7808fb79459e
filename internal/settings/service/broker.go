package service

import (
	"smartrentals/pkg/model"
	"sync"
)

// Broker fans settings changes out to the subscribers of one process.
// A slow subscriber only ever misses intermediate versions: its buffer holds
// the latest settings.
type Broker struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]chan model.Settings
}

func NewBroker() *Broker {
	return &Broker{subs: make(map[int]chan model.Settings)}
}

// Subscribe registers a subscriber. The returned channel is closed by
// Unsubscribe.
func (b *Broker) Subscribe() (int, <-chan model.Settings) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	ch := make(chan model.Settings, 1)
	b.subs[b.nextID] = ch
	return b.nextID, ch
}

func (b *Broker) Unsubscribe(id int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if ch, ok := b.subs[id]; ok {
		delete(b.subs, id)
		close(ch)
	}
}

func (b *Broker) Publish(s model.Settings) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, ch := range b.subs {
		select {
		case ch <- s:
		default:
			// replace the stale pending value
			select {
			case <-ch:
			default:
			}
			ch <- s
		}
	}
}

func (b *Broker) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
