package transport

import (
	"context"
	"sync"
)

// InFlightRegistry tracks streams that are still being written, keyed by
// request ID. Shutdown uses it to cancel streams that outlive the grace
// period.
//
// All methods are safe for concurrent access.
type InFlightRegistry struct {
	mu      sync.Mutex
	entries map[string]context.CancelFunc
}

// NewInFlightRegistry creates a new empty registry.
func NewInFlightRegistry() *InFlightRegistry {
	return &InFlightRegistry{
		entries: make(map[string]context.CancelFunc),
	}
}

// Register adds an in-flight stream to the registry.
func (r *InFlightRegistry) Register(id string, cancel context.CancelFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[id] = cancel
}

// Cancel cancels an in-flight stream by calling its cancel function.
// Returns true if the stream was found and cancelled, false if the ID
// was not registered (either already completed or never existed).
func (r *InFlightRegistry) Cancel(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	cancel, ok := r.entries[id]
	if !ok {
		return false
	}
	cancel()
	delete(r.entries, id)
	return true
}

// CancelAll cancels every registered stream and returns how many there were.
func (r *InFlightRegistry) CancelAll() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := len(r.entries)
	for id, cancel := range r.entries {
		cancel()
		delete(r.entries, id)
	}
	return n
}

// Remove removes a stream from the registry without cancelling it.
// Called when a stream completes normally.
func (r *InFlightRegistry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, id)
}

// Len returns the number of registered streams.
func (r *InFlightRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
