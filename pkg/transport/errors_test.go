package transport

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rhuss/promptstream/pkg/api"
)

func TestStatusCode(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"invalid_request -> 400", api.NewInvalidRequestError("body", "invalid JSON"), http.StatusBadRequest},
		{"not_found -> 404", api.NewNotFoundError("model not found"), http.StatusNotFound},
		{"too_many_requests -> 429", api.NewTooManyRequestsError("quota exceeded"), http.StatusTooManyRequests},
		{"request_too_large -> 413", api.NewTooLargeError(16), http.StatusRequestEntityTooLarge},
		{"model_error -> 502", api.NewModelError("backend aborted"), http.StatusBadGateway},
		{"server_error -> 500", api.NewServerError("boom"), http.StatusInternalServerError},
		{"wrapped keeps type", fmt.Errorf("starting completion: %w", api.NewNotFoundError("x")), http.StatusNotFound},
		{"plain error -> 500", errors.New("dial tcp: refused"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StatusCode(tt.err); got != tt.wantStatus {
				t.Errorf("StatusCode(%v) = %d, want %d", tt.err, got, tt.wantStatus)
			}
		})
	}
}

func TestErrorMessage(t *testing.T) {
	if got := ErrorMessage(fmt.Errorf("wrap: %w", api.NewTooManyRequestsError("quota exceeded"))); got != "quota exceeded" {
		t.Errorf("ErrorMessage = %q, want the APIError message", got)
	}
	if got := ErrorMessage(errors.New("connection reset")); got != "connection reset" {
		t.Errorf("ErrorMessage = %q, want the plain error text", got)
	}
}

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, fmt.Errorf("starting completion: %w", api.NewTooManyRequestsError("quota exceeded")))

	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("status code = %d, want %d", rec.Code, http.StatusTooManyRequests)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q, want nosniff", got)
	}

	var resp api.ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Error.Type != api.ErrorTypeTooManyRequests {
		t.Errorf("error type = %q, want %q", resp.Error.Type, api.ErrorTypeTooManyRequests)
	}
	if resp.Error.Message != "quota exceeded" {
		t.Errorf("error message = %q, want %q", resp.Error.Message, "quota exceeded")
	}
}

func TestWriteErrorPlainError(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, errors.New("connection reset"))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status code = %d, want 500", rec.Code)
	}
	var resp api.ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Error.Type != api.ErrorTypeServerError || resp.Error.Message != "connection reset" {
		t.Errorf("error = %+v", resp.Error)
	}
}
