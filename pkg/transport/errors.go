package transport

import (
	"encoding/json"
	"net/http"

	"github.com/rhuss/promptstream/pkg/api"
)

// StatusCode returns the HTTP status for an error that ends a request
// before any part of the completion was streamed. Errors that do not wrap
// an APIError are server errors.
func StatusCode(err error) int {
	switch api.AsAPIError(err).Type {
	case api.ErrorTypeInvalidRequest:
		return http.StatusBadRequest
	case api.ErrorTypeNotFound:
		return http.StatusNotFound
	case api.ErrorTypeTooManyRequests:
		return http.StatusTooManyRequests
	case api.ErrorTypeTooLarge:
		return http.StatusRequestEntityTooLarge
	case api.ErrorTypeModelError:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// ErrorMessage is the text a client sees for err. The JSON envelope and
// the in-stream error part both carry it, so a failure reads the same
// whether it happened before or after streaming began.
func ErrorMessage(err error) string {
	return api.AsAPIError(err).Message
}

// WriteError answers with a JSON error envelope:
//
//	{"error":{"type":"too_many_requests","message":"quota exceeded"}}
//
// It must be called before anything else was written to w.
func WriteError(w http.ResponseWriter, err error) {
	apiErr := api.AsAPIError(err)
	h := w.Header()
	h.Set("Content-Type", "application/json")
	h.Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(StatusCode(apiErr))
	json.NewEncoder(w).Encode(api.ErrorResponse{Error: apiErr})
}
