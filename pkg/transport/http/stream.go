package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/rhuss/promptstream/pkg/api"
	"github.com/rhuss/promptstream/pkg/debug"
	"github.com/rhuss/promptstream/pkg/observability"
	"github.com/rhuss/promptstream/pkg/provider"
	"github.com/rhuss/promptstream/pkg/streamdata"
	"github.com/rhuss/promptstream/pkg/transport"
)

// StreamDataHeader tells clients whether the body uses the stream part
// protocol ("true") or carries raw text ("false").
const StreamDataHeader = "X-Experimental-Stream-Data"

// writerState tracks the state of a streamWriter.
type writerState int

const (
	writerIdle      writerState = iota // Initial state, no writes yet
	writerStreaming                    // Headers sent, parts may follow
	writerCompleted                    // Body finished
)

// streamWriter writes a completion body either as stream parts (data mode)
// or as raw text (text mode). Every write is flushed immediately.
type streamWriter struct {
	w  http.ResponseWriter
	rc *http.ResponseController

	mu       sync.Mutex
	state    writerState
	dataMode bool
}

func newStreamWriter(w http.ResponseWriter, dataMode bool) *streamWriter {
	return &streamWriter{
		w:        w,
		rc:       http.NewResponseController(w),
		dataMode: dataMode,
	}
}

// start sends the status and headers so the client can begin reading
// before the first model token arrives.
func (s *streamWriter) start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != writerIdle {
		return errors.New("cannot start: stream already started")
	}

	h := s.w.Header()
	h.Set("Content-Type", "text/plain; charset=utf-8")
	h.Set(StreamDataHeader, fmt.Sprintf("%t", s.dataMode))
	h.Set("X-Content-Type-Options", "nosniff")
	s.w.WriteHeader(http.StatusOK)
	s.state = writerStreaming

	if err := s.rc.Flush(); err != nil {
		return fmt.Errorf("failed to flush headers: %w", err)
	}
	return nil
}

// writeText sends one text delta.
func (s *streamWriter) writeText(delta string) error {
	if s.dataMode {
		return s.write(api.FormatTextPart(delta))
	}
	return s.write([]byte(delta))
}

// writeData sends the side-channel values as a single data part.
// It is a no-op in text mode or when nothing is pending.
func (s *streamWriter) writeData(values []json.RawMessage) error {
	if !s.dataMode || len(values) == 0 {
		return nil
	}
	if err := s.write(api.FormatDataPart(values)); err != nil {
		return err
	}
	observability.StreamDataPartsTotal.Inc()
	return nil
}

// writeError reports a mid-stream failure. Text mode has no error frame, so
// the body simply ends there.
func (s *streamWriter) writeError(err error) error {
	if !s.dataMode {
		return nil
	}
	return s.write(api.FormatErrorPart(transport.ErrorMessage(err)))
}

func (s *streamWriter) write(b []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != writerStreaming {
		return errors.New("cannot write: stream is not open")
	}
	if _, err := s.w.Write(b); err != nil {
		return fmt.Errorf("failed to write part: %w", err)
	}
	if err := s.rc.Flush(); err != nil {
		return fmt.Errorf("failed to flush: %w", err)
	}
	return nil
}

func (s *streamWriter) complete() {
	s.mu.Lock()
	s.state = writerCompleted
	s.mu.Unlock()
}

// writeStreamingText copies a completion stream to the response.
//
// With a data sink, text parts are written as they arrive. Once the stream
// finishes, the sink's close (done by the stream's OnFinal observer) is
// awaited and every appended value goes out in one data part, which is
// always the last part of the body. Without a sink, raw text is written.
func writeStreamingText(ctx context.Context, w http.ResponseWriter, stream *provider.TextStream, data *streamdata.Data) error {
	sw := newStreamWriter(w, data != nil)
	defer sw.complete()

	observability.StreamingConnections.Inc()
	defer observability.StreamingConnections.Dec()

	if err := sw.start(); err != nil {
		return err
	}

	for {
		delta, err := stream.Recv(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if ctx.Err() != nil {
				return fmt.Errorf("client disconnected: %w", ctx.Err())
			}
			if werr := sw.writeError(err); werr != nil {
				debug.Log("streaming", "error part not delivered", "error", werr)
			}
			return err
		}

		if err := sw.writeText(delta); err != nil {
			return err
		}
	}

	debug.Log("streaming", "completion finished",
		"finish_reason", stream.FinishReason(),
		"chars", len(stream.Text()),
	)

	if data == nil {
		return nil
	}

	select {
	case <-data.Done():
	case <-ctx.Done():
		return fmt.Errorf("waiting for stream data: %w", ctx.Err())
	}
	return sw.writeData(data.Drain())
}
