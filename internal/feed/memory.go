package feed

import (
	"context"
	"sync"
)

// Memory fans events out to in-process subscribers. Slow subscribers drop events.
type Memory struct {
	mu   sync.Mutex
	subs map[chan Event]struct{}
}

func NewMemory() *Memory {
	return &Memory{subs: make(map[chan Event]struct{})}
}

var _ PubSub = (*Memory)(nil)

func (m *Memory) Publish(ctx context.Context, ev Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for ch := range m.subs {
		select {
		case ch <- ev:
		default:
		}
	}
	return nil
}

func (m *Memory) Subscribe(ctx context.Context) (<-chan Event, error) {
	ch := make(chan Event, subscriberBuffer)
	m.mu.Lock()
	m.subs[ch] = struct{}{}
	m.mu.Unlock()

	go func() {
		<-ctx.Done()
		m.mu.Lock()
		delete(m.subs, ch)
		close(ch)
		m.mu.Unlock()
	}()
	return ch, nil
}

func (m *Memory) Subscribers() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.subs)
}
