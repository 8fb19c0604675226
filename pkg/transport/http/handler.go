package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/rhuss/promptstream/pkg/api"
	"github.com/rhuss/promptstream/pkg/debug"
	"github.com/rhuss/promptstream/pkg/provider"
	"github.com/rhuss/promptstream/pkg/streamdata"
	"github.com/rhuss/promptstream/pkg/transport"
)

// TextStreamer starts a streaming completion for a prompt.
type TextStreamer interface {
	StreamText(ctx context.Context, prompt string) (*provider.TextStream, error)
}

// DefaultStreamData is the side-channel value attached to every response
// unless configured otherwise.
var DefaultStreamData = map[string]string{"test": "value"}

// HandlerConfig holds configuration for the completion handler.
type HandlerConfig struct {
	// MaxBodySize limits the request body. Larger bodies get 413.
	MaxBodySize int64

	// StreamData is appended once to each response's side channel. A nil
	// value disables the side channel and switches the body to raw text.
	StreamData any
}

// DefaultHandlerConfig returns the default handler configuration.
func DefaultHandlerConfig() HandlerConfig {
	return HandlerConfig{
		MaxBodySize: 10 << 20, // 10 MB
		StreamData:  DefaultStreamData,
	}
}

// CompletionHandler serves POST requests carrying {"prompt": "..."} and
// streams the model's continuation back.
type CompletionHandler struct {
	streamer TextStreamer
	config   HandlerConfig
	inflight *transport.InFlightRegistry
	logger   *slog.Logger
}

// NewCompletionHandler creates a handler that starts one completion per
// request through streamer.
func NewCompletionHandler(streamer TextStreamer, cfg HandlerConfig, inflight *transport.InFlightRegistry, logger *slog.Logger) *CompletionHandler {
	if cfg.MaxBodySize <= 0 {
		cfg.MaxBodySize = DefaultHandlerConfig().MaxBodySize
	}
	if inflight == nil {
		inflight = transport.NewInFlightRegistry()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CompletionHandler{
		streamer: streamer,
		config:   cfg,
		inflight: inflight,
		logger:   logger,
	}
}

// ServeHTTP implements http.Handler.
func (h *CompletionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Limit body size.
	r.Body = http.MaxBytesReader(w, r.Body, h.config.MaxBodySize)

	// Decode request.
	var req api.CompletionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			transport.WriteError(w, api.NewTooLargeError(maxBytesErr.Limit))
			return
		}
		transport.WriteError(w, api.NewInvalidRequestError("body", "invalid JSON: "+err.Error()))
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	requestID := transport.RequestIDFromContext(ctx)
	if requestID == "" {
		requestID = uuid.NewString()
	}

	stream, err := h.streamer.StreamText(ctx, req.Prompt)
	if err != nil {
		h.logger.Warn("completion failed to start",
			"request_id", requestID,
			"error", err,
		)
		transport.WriteError(w, err)
		return
	}

	var data *streamdata.Data
	if h.config.StreamData != nil {
		data = streamdata.New()
		if err := data.Append(h.config.StreamData); err != nil {
			cancel()
			transport.WriteError(w, api.NewServerError("stream data: "+err.Error()))
			return
		}
		stream.OnFinal(func(string) {
			if err := data.Close(); err != nil {
				debug.Log("streaming", "stream data already closed", "request_id", requestID)
			}
		})
	}

	h.inflight.Register(requestID, cancel)
	defer h.inflight.Remove(requestID)

	if err := writeStreamingText(ctx, w, stream, data); err != nil {
		h.logger.Warn("completion stream ended early",
			"request_id", requestID,
			"error", err,
		)
	}
}
