package realtime

import (
	"context"
	"fmt"
	"sync"
)

// Bus is a small in-process publish/subscribe channel feeding the SSE
// stream. Delivery is at-most-once and best-effort: nothing is persisted,
// nothing is replayed, and Publish never waits on a slow subscriber.
type Bus struct {
	mu   sync.Mutex
	subs map[*Subscriber]struct{}
}

// Subscriber owns a private FIFO queue of framed messages. Any publisher
// may append; only the owning connection drains.
type Subscriber struct {
	bus *Bus

	mu    sync.Mutex
	queue []string
	wake  chan struct{}
}

func NewBus() *Bus {
	return &Bus{subs: make(map[*Subscriber]struct{})}
}

// FormatMessage renders the wire framing for one push message.
func FormatMessage(event, data string) string {
	return fmt.Sprintf("event: %s\ndata: %s\n\n", event, data)
}

// Subscribe registers a fresh empty queue and returns its handle.
func (b *Bus) Subscribe() *Subscriber {
	s := &Subscriber{
		bus:  b,
		wake: make(chan struct{}, 1),
	}
	b.mu.Lock()
	b.subs[s] = struct{}{}
	b.mu.Unlock()
	return s
}

// Unsubscribe removes the subscriber from the active set. Idempotent.
func (b *Bus) Unsubscribe(s *Subscriber) {
	b.mu.Lock()
	delete(b.subs, s)
	b.mu.Unlock()
}

// Publish appends the framed message to every currently registered queue.
// Subscribers that joined after the call, or left before it, never see the
// message.
func (b *Bus) Publish(event, data string) {
	payload := FormatMessage(event, data)

	// Snapshot so fan-out never races with subscribe/unsubscribe.
	b.mu.Lock()
	subs := make([]*Subscriber, 0, len(b.subs))
	for s := range b.subs {
		subs = append(subs, s)
	}
	b.mu.Unlock()

	for _, s := range subs {
		s.append(payload)
	}
}

// SubscriberCount reports the number of active queues.
func (b *Bus) SubscriberCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

func (s *Subscriber) append(payload string) {
	s.mu.Lock()
	s.queue = append(s.queue, payload)
	s.mu.Unlock()

	// Non-blocking wake; a pending signal already covers this append.
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Next blocks until a message is available or the context is done, then
// pops the queue head. Returns false only on context cancellation.
func (s *Subscriber) Next(ctx context.Context) (string, bool) {
	for {
		if msg, ok := s.TryNext(); ok {
			return msg, true
		}
		select {
		case <-ctx.Done():
			return "", false
		case <-s.wake:
		}
	}
}

// TryNext pops the queue head without blocking.
func (s *Subscriber) TryNext() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.queue) == 0 {
		return "", false
	}
	msg := s.queue[0]
	s.queue = s.queue[1:]
	return msg, true
}
