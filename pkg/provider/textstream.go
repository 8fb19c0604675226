package provider

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
)

// ErrIncomplete is returned when the event channel closes before the
// backend reported completion.
var ErrIncomplete = errors.New("completion stream closed before it finished")

// streamState tracks the lifecycle of a TextStream.
type streamState int

const (
	streamActive   streamState = iota // Events are still being received
	streamFinished                    // Backend reported completion, observers ran
	streamFailed                      // Backend reported an error
)

// TextStream is the consumer-side handle of an in-progress completion.
//
// Text deltas are pulled with Recv by a single consumer. When the backend
// reports completion, every observer registered with OnFinal is invoked
// exactly once with the full completion text, before Recv returns io.EOF.
// Observers never run for a stream that ended with an error.
type TextStream struct {
	events <-chan Event

	mu           sync.Mutex
	state        streamState
	err          error
	observers    []func(completion string)
	text         strings.Builder
	finishReason string
	usage        *Usage
}

// NewTextStream wraps a provider event channel.
func NewTextStream(events <-chan Event) *TextStream {
	return &TextStream{events: events}
}

// OnFinal registers fn to be called once when the stream finishes.
// Registering on an already finished stream calls fn immediately.
func (s *TextStream) OnFinal(fn func(completion string)) {
	if fn == nil {
		return
	}

	s.mu.Lock()
	if s.state == streamFinished {
		completion := s.text.String()
		s.mu.Unlock()
		fn(completion)
		return
	}
	s.observers = append(s.observers, fn)
	s.mu.Unlock()
}

// Recv returns the next non-empty text delta. It returns io.EOF once the
// stream has finished, the stream error if the backend failed, or the
// context error if ctx is cancelled first.
func (s *TextStream) Recv(ctx context.Context) (string, error) {
	s.mu.Lock()
	switch s.state {
	case streamFinished:
		s.mu.Unlock()
		return "", io.EOF
	case streamFailed:
		err := s.err
		s.mu.Unlock()
		return "", err
	}
	s.mu.Unlock()

	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()

		case ev, ok := <-s.events:
			if !ok {
				// Only a done event completes a stream. A bare close means
				// the producer gave up, usually on cancellation.
				if err := ctx.Err(); err != nil {
					return "", s.fail(err)
				}
				return "", s.fail(ErrIncomplete)
			}

			switch ev.Type {
			case EventTextDelta:
				if ev.Delta == "" {
					continue
				}
				s.mu.Lock()
				s.text.WriteString(ev.Delta)
				s.mu.Unlock()
				return ev.Delta, nil

			case EventDone:
				return "", s.finish(ev)

			case EventError:
				return "", s.fail(ev.Err)
			}
		}
	}
}

// finish records the final event and runs the observers outside the lock.
func (s *TextStream) finish(ev Event) error {
	s.mu.Lock()
	s.state = streamFinished
	if ev.FinishReason != "" {
		s.finishReason = ev.FinishReason
	}
	if ev.Usage != nil {
		s.usage = ev.Usage
	}
	observers := s.observers
	s.observers = nil
	completion := s.text.String()
	s.mu.Unlock()

	for _, fn := range observers {
		fn(completion)
	}
	return io.EOF
}

func (s *TextStream) fail(err error) error {
	if err == nil {
		err = errors.New("stream failed without error detail")
	}

	s.mu.Lock()
	s.state = streamFailed
	s.err = err
	s.observers = nil
	s.mu.Unlock()
	return err
}

// Text returns the completion text received so far.
func (s *TextStream) Text() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.text.String()
}

// FinishReason returns the backend's finish reason, empty until finished.
func (s *TextStream) FinishReason() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.finishReason
}

// Usage returns token usage reported by the backend, or nil.
func (s *TextStream) Usage() *Usage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.usage
}
