package http

import (
	"bytes"
	"context"
	"sync"
	"testing"

	"github.com/rhuss/promptstream/pkg/api"
	"github.com/rhuss/promptstream/pkg/provider"
)

// fakeStreamer records prompts and serves either a fixed event list or a
// caller-controlled channel.
type fakeStreamer struct {
	mu      sync.Mutex
	prompts []string

	events []provider.Event
	ch     chan provider.Event
	err    error

	// streams holds every TextStream handed out, in call order.
	streams []*provider.TextStream
}

func (f *fakeStreamer) StreamText(_ context.Context, prompt string) (*provider.TextStream, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return nil, f.err
	}

	var stream *provider.TextStream
	if f.ch != nil {
		stream = provider.NewTextStream(f.ch)
	} else {
		ch := make(chan provider.Event, len(f.events))
		for _, ev := range f.events {
			ch <- ev
		}
		close(ch)
		stream = provider.NewTextStream(ch)
	}
	f.streams = append(f.streams, stream)
	return stream, nil
}

func (f *fakeStreamer) calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.prompts...)
}

func textEvents(deltas ...string) []provider.Event {
	events := make([]provider.Event, 0, len(deltas)+1)
	for _, d := range deltas {
		events = append(events, provider.Event{Type: provider.EventTextDelta, Delta: d})
	}
	return append(events, provider.Event{Type: provider.EventDone, FinishReason: "stop"})
}

// parseParts decodes a data-mode body into its stream parts.
func parseParts(t *testing.T, body []byte) []api.StreamPart {
	t.Helper()
	var parts []api.StreamPart
	for _, line := range bytes.Split(body, []byte("\n")) {
		if len(line) == 0 {
			continue
		}
		part, err := api.ParseStreamPart(line)
		if err != nil {
			t.Fatalf("parsing %q: %v", line, err)
		}
		parts = append(parts, part)
	}
	return parts
}

// dataParts returns only the data parts.
func dataParts(parts []api.StreamPart) []api.StreamPart {
	var out []api.StreamPart
	for _, p := range parts {
		if p.Type == api.StreamPartData {
			out = append(out, p)
		}
	}
	return out
}

// joinedText concatenates all text parts.
func joinedText(parts []api.StreamPart) string {
	var b bytes.Buffer
	for _, p := range parts {
		if p.Type == api.StreamPartText {
			b.WriteString(p.Text)
		}
	}
	return b.String()
}
