package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rhuss/promptstream/pkg/api"
	"github.com/rhuss/promptstream/pkg/provider"
)

func intPtr(v int) *int { return &v }

func TestNew_RequiresBaseURL(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Fatal("expected error for empty BaseURL")
	}
}

func TestNew_NormalizesBaseURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"http://localhost:9090", "http://localhost:9090"},
		{"http://localhost:9090/", "http://localhost:9090"},
		{"https://api.openai.com/v1", "https://api.openai.com"},
		{"https://api.openai.com/v1/", "https://api.openai.com"},
	}
	for _, tt := range tests {
		p, err := New(Config{BaseURL: tt.in})
		if err != nil {
			t.Fatalf("New(%q): %v", tt.in, err)
		}
		if p.cfg.BaseURL != tt.want {
			t.Errorf("New(%q) BaseURL = %q, want %q", tt.in, p.cfg.BaseURL, tt.want)
		}
		if p.cfg.Timeout == 0 {
			t.Errorf("New(%q) should apply a default timeout", tt.in)
		}
	}
}

func TestProvider_Stream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if r.URL.Path != "/v1/completions" {
			t.Errorf("expected path /v1/completions, got %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("Authorization = %q", got)
		}
		if got := r.Header.Get("OpenAI-Organization"); got != "org-1" {
			t.Errorf("OpenAI-Organization = %q", got)
		}
		if got := r.Header.Get("Accept"); got != "text/event-stream" {
			t.Errorf("Accept = %q", got)
		}

		var req completionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		if req.Model != "gpt-3.5-turbo-instruct" {
			t.Errorf("model = %q", req.Model)
		}
		if req.Prompt != "Once upon a time" {
			t.Errorf("prompt = %q", req.Prompt)
		}
		if req.MaxTokens == nil || *req.MaxTokens != 2000 {
			t.Errorf("max_tokens = %v, want 2000", req.MaxTokens)
		}
		if !req.Stream {
			t.Error("expected stream to be true")
		}
		if req.StreamOptions == nil || !req.StreamOptions.IncludeUsage {
			t.Error("expected stream_options.include_usage")
		}

		w.Header().Set("Content-Type", "text/event-stream")
		for _, tok := range []string{" there", " was"} {
			fmt.Fprintf(w, "data: {\"choices\":[{\"index\":0,\"text\":%q,\"finish_reason\":null}]}\n\n", tok)
		}
		fmt.Fprint(w, "data: {\"choices\":[{\"index\":0,\"text\":\"\",\"finish_reason\":\"stop\"}]}\n\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer srv.Close()

	p, err := New(Config{BaseURL: srv.URL, APIKey: "sk-test", Organization: "org-1"})
	if err != nil {
		t.Fatalf("failed to create provider: %v", err)
	}
	defer p.Close()

	if p.Name() != "openai" {
		t.Errorf("Name() = %q, want openai", p.Name())
	}

	ch, err := p.Stream(context.Background(), &provider.Request{
		Model:     "gpt-3.5-turbo-instruct",
		Prompt:    "Once upon a time",
		MaxTokens: intPtr(2000),
	})
	if err != nil {
		t.Fatalf("Stream failed: %v", err)
	}

	var text string
	var done *provider.Event
	for ev := range ch {
		switch ev.Type {
		case provider.EventTextDelta:
			text += ev.Delta
		case provider.EventDone:
			d := ev
			done = &d
		case provider.EventError:
			t.Fatalf("unexpected error event: %v", ev.Err)
		}
	}

	if text != " there was" {
		t.Errorf("text = %q, want %q", text, " there was")
	}
	if done == nil || done.FinishReason != "stop" {
		t.Errorf("done event = %+v, want finish_reason stop", done)
	}
}

func TestProvider_Stream_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"message":"quota exceeded","type":"insufficient_quota"}}`))
	}))
	defer srv.Close()

	p, _ := New(Config{BaseURL: srv.URL})
	defer p.Close()

	ch, err := p.Stream(context.Background(), &provider.Request{Model: "m", Prompt: "p"})
	if ch != nil {
		t.Error("expected nil channel on error")
	}

	var apiErr *api.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *api.APIError, got %T: %v", err, err)
	}
	if apiErr.Type != api.ErrorTypeTooManyRequests {
		t.Errorf("Type = %q, want %q", apiErr.Type, api.ErrorTypeTooManyRequests)
	}
	if apiErr.Message != "quota exceeded" {
		t.Errorf("Message = %q", apiErr.Message)
	}
}

func TestProvider_Stream_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	p, _ := New(Config{BaseURL: url})
	_, err := p.Stream(context.Background(), &provider.Request{Model: "m", Prompt: "p"})

	var apiErr *api.APIError
	if !errors.As(err, &apiErr) || apiErr.Type != api.ErrorTypeServerError {
		t.Fatalf("expected server_error APIError, got %v", err)
	}
}

func TestProvider_ListModels(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/v1/models" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"object":"list","data":[{"id":"gpt-3.5-turbo-instruct","object":"model","owned_by":"system"}]}`))
	}))
	defer srv.Close()

	p, _ := New(Config{BaseURL: srv.URL})
	models, err := p.ListModels(context.Background())
	if err != nil {
		t.Fatalf("ListModels: %v", err)
	}
	if len(models) != 1 || models[0].ID != "gpt-3.5-turbo-instruct" || models[0].OwnedBy != "system" {
		t.Errorf("models = %+v", models)
	}
}
