// Package events fans domain events out to in-process listeners and RabbitMQ.
package events

import (
	"context"
	"log"
	"sync"

	"github.com/sangkips/mesa-api/internal/domain/event"
)

// Hub delivers events to in-process subscribers such as the SSE stream.
// A subscriber that falls behind loses events rather than blocking the publisher.
type Hub struct {
	mu     sync.RWMutex
	nextID int
	subs   map[int]chan event.Event
}

func NewHub() *Hub {
	return &Hub{subs: make(map[int]chan event.Event)}
}

// Subscribe returns a channel of events and a function that closes it.
func (h *Hub) Subscribe(buffer int) (<-chan event.Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextID++
	id := h.nextID
	ch := make(chan event.Event, buffer)
	h.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			delete(h.subs, id)
			close(ch)
		})
	}
}

func (h *Hub) Publish(_ context.Context, e event.Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for id, ch := range h.subs {
		select {
		case ch <- e:
		default:
			log.Printf("Warning: event subscriber %d is full, dropping %s", id, e.Type)
		}
	}
}

// Subscribers returns the number of live subscriptions.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Multi publishes every event to each publisher in turn.
type Multi []event.Publisher

func (m Multi) Publish(ctx context.Context, e event.Event) {
	for _, p := range m {
		p.Publish(ctx, e)
	}
}
