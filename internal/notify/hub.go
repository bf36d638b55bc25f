// Package notify provides a small in-process fan-out hub used by the search state
// containers to tell renderers that something changed.
//
// Delivery is best effort: every listener owns a buffered channel and an event is
// dropped for a listener whose buffer is full. Listeners are expected to re-read
// the current state when woken rather than rely on every event arriving.
package notify

import "sync"

// DefaultBuffer is the per-listener channel size used when none is given.
const DefaultBuffer = 16

// Hub fans out values of type T to registered listeners.
type Hub[T any] struct {
	mu        sync.RWMutex
	listeners map[uint64]chan T
	nextID    uint64
	bufSize   int
	closed    bool
}

// NewHub constructs a hub. If bufSize <= 0, DefaultBuffer is used.
func NewHub[T any](bufSize int) *Hub[T] {
	if bufSize <= 0 {
		bufSize = DefaultBuffer
	}
	return &Hub[T]{
		listeners: make(map[uint64]chan T),
		bufSize:   bufSize,
	}
}

// Subscribe registers a listener and returns its id and receive channel.
// Callers must Unsubscribe(id) to release it. Subscribing to a closed hub
// returns an already closed channel.
func (h *Hub[T]) Subscribe() (uint64, <-chan T) {
	h.mu.Lock()
	defer h.mu.Unlock()
	ch := make(chan T, h.bufSize)
	id := h.nextID
	h.nextID++
	if h.closed {
		close(ch)
		return id, ch
	}
	h.listeners[id] = ch
	return id, ch
}

// Unsubscribe removes the listener and closes its channel. Unknown ids are ignored.
func (h *Hub[T]) Unsubscribe(id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if ch, ok := h.listeners[id]; ok {
		delete(h.listeners, id)
		close(ch)
	}
}

// Publish delivers v to every listener without blocking.
func (h *Hub[T]) Publish(v T) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, ch := range h.listeners {
		select {
		case ch <- v:
		default:
			// slow listener
		}
	}
}

// Size returns the number of registered listeners.
func (h *Hub[T]) Size() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.listeners)
}

// Close closes every listener channel. Later Publish calls are no-ops.
func (h *Hub[T]) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for id, ch := range h.listeners {
		delete(h.listeners, id)
		close(ch)
	}
}
