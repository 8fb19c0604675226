// Package streamdata implements the side channel that carries small JSON
// values next to a streamed completion.
//
// A Data sink lives for a single request. Producers Append values; the
// response writer drains them into data parts between text chunks. Close
// signals that no further values will arrive so the response can end.
package streamdata

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
)

// ErrClosed is returned when appending to or closing an already closed sink.
var ErrClosed = errors.New("stream data has already been closed")

// Data is a write-then-close queue of JSON values. It is safe for
// concurrent use.
type Data struct {
	mu      sync.Mutex
	pending []json.RawMessage
	closed  bool
	done    chan struct{}
}

// New creates an open, empty sink.
func New() *Data {
	return &Data{done: make(chan struct{})}
}

// Append serializes v and queues it for delivery. Values are delivered in
// the order they were appended.
func (d *Data) Append(v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("stream data value is not JSON-serializable: %w", err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return ErrClosed
	}
	d.pending = append(d.pending, raw)
	return nil
}

// Close marks the sink closed and wakes anyone waiting on Done. Values
// appended before Close remain available to Drain.
func (d *Data) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return ErrClosed
	}
	d.closed = true
	close(d.done)
	return nil
}

// Done returns a channel that is closed when Close is called.
func (d *Data) Done() <-chan struct{} {
	return d.done
}

// Drain removes and returns the values queued since the last call.
// It returns nil when nothing is pending.
func (d *Data) Drain() []json.RawMessage {
	d.mu.Lock()
	defer d.mu.Unlock()

	if len(d.pending) == 0 {
		return nil
	}
	values := d.pending
	d.pending = nil
	return values
}
