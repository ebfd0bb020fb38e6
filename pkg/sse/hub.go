// Package sse is a process-local change feed: producers publish
// notification changes, open digest sessions subscribe per user.
package sse

import (
	"sync"

	"humancanvas/internal/common"
)

const subscriberBuffer = 16

// Hub fans notification change events out to per-user subscribers. It
// is safe for concurrent use and intended for single-instance
// deployments; it holds no durable state.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan common.ChangeEvent]struct{}
}

func NewHub() *Hub {
	return &Hub{
		subscribers: make(map[string]map[chan common.ChangeEvent]struct{}),
	}
}

// Subscribe registers a listener for one user's change events. The
// returned function must be called on disconnect; it closes the
// channel.
func (h *Hub) Subscribe(userID string) (<-chan common.ChangeEvent, func()) {
	ch := make(chan common.ChangeEvent, subscriberBuffer)

	h.mu.Lock()
	set, ok := h.subscribers[userID]
	if !ok {
		set = make(map[chan common.ChangeEvent]struct{})
		h.subscribers[userID] = set
	}
	set[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(set, ch)
			if len(set) == 0 {
				delete(h.subscribers, userID)
			}
			h.mu.Unlock()
			close(ch)
		})
	}
	return ch, unsubscribe
}

// Publish delivers an event to every subscriber of the given user.
// Slow consumers are skipped rather than blocking the producer; the
// periodic store reconciliation covers anything dropped here.
func (h *Hub) Publish(userID string, ev common.ChangeEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for ch := range h.subscribers[userID] {
		select {
		case ch <- ev:
		default:
		}
	}
}
