// Command mock-backend runs a deterministic legacy Completions server for
// local runs and demos. It streams a canned continuation chosen from the
// prompt, one word per SSE chunk.
//
// Configuration:
//
//	MOCK_PORT        - Listen port (default: 9090)
//	MOCK_TOKEN_DELAY - Delay between streamed tokens (default: 0, e.g. "50ms")
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"
)

func main() {
	port := os.Getenv("MOCK_PORT")
	if port == "" {
		port = "9090"
	}

	var delay time.Duration
	if v := os.Getenv("MOCK_TOKEN_DELAY"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			slog.Error("invalid MOCK_TOKEN_DELAY", "value", v, "error", err)
			os.Exit(1)
		}
		delay = d
	}

	srv := &http.Server{Addr: ":" + port, Handler: newMux(delay)}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("mock backend starting", "port", port, "token_delay", delay)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("mock backend failed", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("mock backend shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	srv.Shutdown(shutdownCtx)
}

func newMux(delay time.Duration) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/completions", func(w http.ResponseWriter, r *http.Request) {
		handleCompletions(w, r, delay)
	})
	mux.HandleFunc("GET /v1/models", handleModels)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok\n"))
	})
	return mux
}

// --- Request types ---

type completionRequest struct {
	Model         string `json:"model"`
	Prompt        string `json:"prompt"`
	MaxTokens     *int   `json:"max_tokens"`
	Stream        bool   `json:"stream"`
	StreamOptions *struct {
		IncludeUsage bool `json:"include_usage"`
	} `json:"stream_options"`
}

// --- Response types ---

type completionResponse struct {
	ID      string             `json:"id"`
	Object  string             `json:"object"`
	Created int64              `json:"created"`
	Model   string             `json:"model"`
	Choices []completionChoice `json:"choices"`
	Usage   *completionUsage   `json:"usage,omitempty"`
}

type completionChoice struct {
	Index        int     `json:"index"`
	Text         string  `json:"text"`
	FinishReason *string `json:"finish_reason"`
}

type completionUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// --- Handler ---

func handleCompletions(w http.ResponseWriter, r *http.Request, delay time.Duration) {
	var req completionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Model == "" {
		writeError(w, http.StatusBadRequest, "you must provide a model parameter")
		return
	}

	tokens, finish := continuation(req.Prompt, req.MaxTokens)
	usage := &completionUsage{
		PromptTokens:     len(strings.Fields(req.Prompt)),
		CompletionTokens: len(tokens),
	}
	usage.TotalTokens = usage.PromptTokens + usage.CompletionTokens

	if !req.Stream {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(completionResponse{
			ID:      "cmpl-mock",
			Object:  "text_completion",
			Created: time.Now().Unix(),
			Model:   req.Model,
			Choices: []completionChoice{{Text: strings.Join(tokens, ""), FinishReason: &finish}},
			Usage:   usage,
		})
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")

	for _, tok := range tokens {
		select {
		case <-r.Context().Done():
			return
		case <-time.After(delay):
		}
		writeChunk(w, req.Model, []completionChoice{{Text: tok}}, nil)
		flusher.Flush()
	}

	writeChunk(w, req.Model, []completionChoice{{FinishReason: &finish}}, nil)
	if req.StreamOptions != nil && req.StreamOptions.IncludeUsage {
		writeChunk(w, req.Model, []completionChoice{}, usage)
	}
	fmt.Fprint(w, "data: [DONE]\n\n")
	flusher.Flush()
}

func writeChunk(w http.ResponseWriter, model string, choices []completionChoice, usage *completionUsage) {
	data, _ := json.Marshal(completionResponse{
		ID:      "cmpl-mock",
		Object:  "text_completion",
		Created: time.Now().Unix(),
		Model:   model,
		Choices: choices,
		Usage:   usage,
	})
	fmt.Fprintf(w, "data: %s\n\n", data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]string{"message": message, "type": "invalid_request_error"},
	})
}

// --- Continuations ---

const (
	storyContinuation   = ", in a quiet village at the edge of a great forest, there lived a clockmaker who could fix anything except time itself."
	defaultContinuation = " This is a deterministic completion from the mock backend."
)

// continuation picks the canned text for prompt and splits it into word
// tokens, each carrying its leading space. The result is cut to maxTokens
// with finish reason "length".
func continuation(prompt string, maxTokens *int) ([]string, string) {
	text := defaultContinuation
	if strings.Contains(strings.ToLower(prompt), "once upon a time") {
		text = storyContinuation
	}

	tokens := splitTokens(text)
	if maxTokens != nil && *maxTokens >= 0 && *maxTokens < len(tokens) {
		return tokens[:*maxTokens], "length"
	}
	return tokens, "stop"
}

func splitTokens(text string) []string {
	var tokens []string
	start := 0
	for i := 1; i < len(text); i++ {
		if text[i] == ' ' {
			tokens = append(tokens, text[start:i])
			start = i
		}
	}
	return append(tokens, text[start:])
}

func handleModels(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"object": "list",
		"data": []map[string]any{
			{"id": "gpt-3.5-turbo-instruct", "object": "model", "created": 1692901427, "owned_by": "mock"},
			{"id": "davinci-002", "object": "model", "created": 1692634301, "owned_by": "mock"},
		},
	})
}
