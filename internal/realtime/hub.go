// Package realtime fans committed attendance events out to live subscribers.
// Delivery is best-effort and fully decoupled from the commit path: a slow
// or gone subscriber can never block or roll back a write that already
// happened.
package realtime

import "sync"

// Subscriber receives the raw frames published for one organization.
type Subscriber struct {
	orgID int64
	ch    chan []byte
}

// C is the receive channel for frames.
func (s *Subscriber) C() <-chan []byte {
	return s.ch
}

// Hub is the in-process subscriber registry, keyed by organization.
// Frames for one tenant are never visible to another.
type Hub struct {
	mu   sync.RWMutex
	subs map[int64]map[*Subscriber]struct{}
}

// NewHub constructs an empty Hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[int64]map[*Subscriber]struct{})}
}

// Subscribe registers a subscriber for the organization's feed.
func (h *Hub) Subscribe(orgID int64, buffer int) *Subscriber {
	if buffer <= 0 {
		buffer = 16
	}
	sub := &Subscriber{orgID: orgID, ch: make(chan []byte, buffer)}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.subs[orgID] == nil {
		h.subs[orgID] = make(map[*Subscriber]struct{})
	}
	h.subs[orgID][sub] = struct{}{}
	return sub
}

// Unsubscribe removes the subscriber and closes its channel.
func (h *Hub) Unsubscribe(sub *Subscriber) {
	if sub == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.subs[sub.orgID]
	if !ok {
		return
	}
	if _, ok := set[sub]; !ok {
		return
	}
	delete(set, sub)
	if len(set) == 0 {
		delete(h.subs, sub.orgID)
	}
	close(sub.ch)
}

// Broadcast delivers the frame to every subscriber of the organization.
// The send never blocks: a subscriber whose buffer is full misses the frame.
func (h *Hub) Broadcast(orgID int64, frame []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for sub := range h.subs[orgID] {
		select {
		case sub.ch <- frame:
		default:
		}
	}
}

// SubscriberCount reports the number of live subscribers for an organization.
func (h *Hub) SubscriberCount(orgID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[orgID])
}
