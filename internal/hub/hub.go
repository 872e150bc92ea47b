// Package hub fans committed threats out to live subscribers.
package hub

import (
	"sync"

	"cyberguard/internal/logger"
	"cyberguard/internal/metrics"
	"cyberguard/pkg/models"
)

// Hub delivers every published threat to every current subscriber. Delivery
// within one subscriber's stream follows publish order; a slow subscriber
// loses messages instead of blocking the publisher.
type Hub struct {
	mu     sync.Mutex
	subs   map[uint64]chan *models.Threat
	nextID uint64
	buffer int
	closed bool
}

// New creates a hub. buffer is the per-subscriber queue depth.
func New(buffer int) *Hub {
	if buffer <= 0 {
		buffer = 16
	}
	return &Hub{
		subs:   make(map[uint64]chan *models.Threat),
		buffer: buffer,
	}
}

// Subscribe registers a new subscriber and returns its id and stream. The
// stream is closed on Unsubscribe or hub Close.
func (h *Hub) Subscribe() (uint64, <-chan *models.Threat) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextID++
	id := h.nextID
	ch := make(chan *models.Threat, h.buffer)
	if h.closed {
		close(ch)
		return id, ch
	}
	h.subs[id] = ch
	return id, ch
}

// Unsubscribe removes a subscriber and closes its stream. Unknown ids are
// ignored.
func (h *Hub) Unsubscribe(id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if ch, ok := h.subs[id]; ok {
		delete(h.subs, id)
		close(ch)
	}
}

// Publish delivers t to every subscriber without blocking. A full subscriber
// queue drops the message for that subscriber only.
func (h *Hub) Publish(t *models.Threat) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, ch := range h.subs {
		select {
		case ch <- t:
		default:
			metrics.HubDrop()
			logger.Debugf("Dropped broadcast for slow subscriber %d", id)
		}
	}
}

// Subscribers returns the current subscriber count.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Close closes every subscriber stream. Publish after Close is a no-op.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true
	for id, ch := range h.subs {
		delete(h.subs, id)
		close(ch)
	}
}
