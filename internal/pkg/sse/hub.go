package sse

import (
	"sync"
	"sync/atomic"

	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/notification"
)

const defaultBuffer = 16

// Hub fans notification events out to the live streams of each recipient.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan notification.SSEEvent]struct{}
	buffer      int
	dropped     atomic.Int64
	closed      bool
}

func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	return &Hub{
		subscribers: make(map[string]map[chan notification.SSEEvent]struct{}),
		buffer:      buffer,
	}
}

// Subscribe registers a stream for userID. The returned cleanup removes it
// and closes the channel; calling it more than once is safe.
func (h *Hub) Subscribe(userID string) (<-chan notification.SSEEvent, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan notification.SSEEvent, h.buffer)
	if h.closed {
		close(ch)
		return ch, func() {}
	}
	if h.subscribers[userID] == nil {
		h.subscribers[userID] = make(map[chan notification.SSEEvent]struct{})
	}
	h.subscribers[userID][ch] = struct{}{}

	var once sync.Once
	cleanup := func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if _, ok := h.subscribers[userID][ch]; !ok {
				return
			}
			delete(h.subscribers[userID], ch)
			close(ch)
			if len(h.subscribers[userID]) == 0 {
				delete(h.subscribers, userID)
			}
		})
	}
	return ch, cleanup
}

// Publish delivers event to every stream of userID. Full streams miss the
// event instead of blocking the publisher.
func (h *Hub) Publish(userID string, event notification.SSEEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for ch := range h.subscribers[userID] {
		select {
		case ch <- event:
		default:
			h.dropped.Add(1)
		}
	}
}

func (h *Hub) SubscriberCount(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers[userID])
}

func (h *Hub) TotalSubscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	total := 0
	for _, subs := range h.subscribers {
		total += len(subs)
	}
	return total
}

// Dropped counts events lost to full streams.
func (h *Hub) Dropped() int64 {
	return h.dropped.Load()
}

// Close ends every open stream.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for userID, subs := range h.subscribers {
		for ch := range subs {
			close(ch)
		}
		delete(h.subscribers, userID)
	}
	h.closed = true
}
