package control

import (
	"context"
	"sync"

	"github.com/opencode-ai/illo/internal/renderer"
)

// Hub is a renderer.EventSink that fans events out to stream subscribers.
// A subscriber that falls behind misses events rather than stalling the
// controller.
type Hub struct {
	mu     sync.Mutex
	subs   map[uint64]chan renderer.Event
	nextID uint64
	buffer int
	closed bool
}

// NewHub returns a hub whose subscribers buffer up to buffer events.
func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = 32
	}
	return &Hub{subs: make(map[uint64]chan renderer.Event), buffer: buffer}
}

// Subscribe registers a subscriber. The channel is closed by cancel or by
// Close.
func (h *Hub) Subscribe() (<-chan renderer.Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan renderer.Event, h.buffer)
	if h.closed {
		close(ch)
		return ch, func() {}
	}

	id := h.nextID
	h.nextID++
	h.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if sub, ok := h.subs[id]; ok {
				delete(h.subs, id)
				close(sub)
			}
		})
	}
}

// Subscribers returns the number of active subscribers.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Emit implements renderer.EventSink.
func (h *Hub) Emit(ctx context.Context, event renderer.Event) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.subs {
		select {
		case ch <- event:
		default:
		}
	}
	return nil
}

// Close ends every subscription.
func (h *Hub) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	h.closed = true
	for id, ch := range h.subs {
		close(ch)
		delete(h.subs, id)
	}
	return nil
}
