package openai

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strings"

	"github.com/rhuss/promptstream/pkg/api"
	"github.com/rhuss/promptstream/pkg/debug"
	"github.com/rhuss/promptstream/pkg/provider"
)

// maxLineSize bounds a single SSE line.
const maxLineSize = 1 << 20

// parseSSEStream reads Completions SSE chunks from body, translates them to
// provider events, and sends them on ch. The channel is NOT closed by this
// function; the caller is responsible for closing it.
//
// SSE format expected:
//
//	data: {"id":"cmpl-...","choices":[{"text":"Once","finish_reason":null}]}\n
//	\n
//	data: [DONE]\n
//	\n
//
// Exactly one EventDone is sent when the stream ends cleanly, carrying the
// last finish_reason and usage seen. A body that ends with neither [DONE]
// nor a finish_reason, an in-stream error object, or a read error yields a
// single EventError instead. Malformed chunks are logged and skipped.
// Context cancellation stops reading without emitting an event.
func parseSSEStream(ctx context.Context, body io.Reader, ch chan<- provider.Event) {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	done := provider.Event{Type: provider.EventDone}

	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}

		line := scanner.Text()

		// Lines without the data prefix are ignored (blank separators,
		// ":" comments, event names).
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))

		if payload == "[DONE]" {
			send(ctx, ch, done)
			return
		}

		var chunk completionChunk
		if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
			slog.Warn("skipping malformed SSE chunk",
				"error", err.Error(),
				"data", debug.Truncate(payload, 200),
			)
			continue
		}

		// Backends report failures after the 200 as an error object.
		if chunk.Error != nil {
			send(ctx, ch, provider.Event{
				Type: provider.EventError,
				Err:  streamError(chunk.Error),
			})
			return
		}

		if chunk.Usage != nil {
			done.Usage = &provider.Usage{
				InputTokens:  chunk.Usage.PromptTokens,
				OutputTokens: chunk.Usage.CompletionTokens,
				TotalTokens:  chunk.Usage.TotalTokens,
			}
		}

		// Usage-only chunks (stream_options.include_usage) have no choices.
		if len(chunk.Choices) == 0 {
			continue
		}

		choice := chunk.Choices[0]
		if choice.Text != "" {
			debug.Trace("streaming", "completion delta", "delta", choice.Text)
			if !send(ctx, ch, provider.Event{Type: provider.EventTextDelta, Delta: choice.Text}) {
				return
			}
		}
		if choice.FinishReason != nil && *choice.FinishReason != "" {
			done.FinishReason = *choice.FinishReason
		}
	}

	if err := scanner.Err(); err != nil {
		// Context cancellation is not an error from our perspective.
		if ctx.Err() != nil {
			return
		}
		send(ctx, ch, provider.Event{
			Type: provider.EventError,
			Err:  api.NewServerError("SSE stream read error: " + err.Error()),
		})
		return
	}

	// Body ended without the [DONE] sentinel. A recorded finish_reason
	// means the backend completed and only the sentinel went missing.
	// Anything else is a truncated stream.
	if done.FinishReason == "" {
		send(ctx, ch, provider.Event{
			Type: provider.EventError,
			Err:  api.NewServerError("completion stream ended without [DONE]"),
		})
		return
	}
	debug.Log("providers", "completion stream ended without [DONE]", "finish_reason", done.FinishReason)
	send(ctx, ch, done)
}

// send delivers ev unless ctx is cancelled first.
func send(ctx context.Context, ch chan<- provider.Event, ev provider.Event) bool {
	select {
	case ch <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}
