package hub

import (
	"context"
	"sync"
)

// Message is a single event received by a subscriber.
type Message struct {
	Group   string
	Event   string
	Payload []byte
}

// Memory is an in-process Hub with per-group subscriber channels.
//
// Delivery is non-blocking: when a subscriber's buffer is full the message is
// dropped for that subscriber rather than stalling the publisher, so one slow
// consumer never affects the rest of the group.
type Memory struct {
	mu     sync.RWMutex
	groups map[string][]chan Message
	buffer int
	closed bool
}

// compile-time interface check.
var _ Hub = (*Memory)(nil)

// NewMemory creates an in-memory hub with the given per-subscriber buffer.
func NewMemory(buffer int) *Memory {
	if buffer <= 0 {
		buffer = 64
	}
	return &Memory{
		groups: make(map[string][]chan Message),
		buffer: buffer,
	}
}

// Publish implements Hub.
func (m *Memory) Publish(_ context.Context, groupKey, eventName string, payload []byte) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil
	}

	msg := Message{Group: groupKey, Event: eventName, Payload: payload}
	for _, ch := range m.groups[groupKey] {
		select {
		case ch <- msg:
		default:
			// Buffer full: drop for this subscriber.
		}
	}
	return nil
}

// Subscribe returns a channel of messages for the given group. The
// subscription is removed and the channel closed when ctx is cancelled.
func (m *Memory) Subscribe(ctx context.Context, groupKey string) <-chan Message {
	ch := make(chan Message, m.buffer)

	m.mu.Lock()
	m.groups[groupKey] = append(m.groups[groupKey], ch)
	m.mu.Unlock()

	go func() {
		<-ctx.Done()
		m.unsubscribe(groupKey, ch)
	}()

	return ch
}

// Close drops all subscriptions and closes their channels.
func (m *Memory) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.closed = true
	for _, subs := range m.groups {
		for _, ch := range subs {
			close(ch)
		}
	}
	m.groups = make(map[string][]chan Message)
}

func (m *Memory) unsubscribe(groupKey string, ch chan Message) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}

	subs := m.groups[groupKey]
	for i, s := range subs {
		if s == ch {
			m.groups[groupKey] = append(subs[:i], subs[i+1:]...)
			close(ch)
			break
		}
	}
	if len(m.groups[groupKey]) == 0 {
		delete(m.groups, groupKey)
	}
}
