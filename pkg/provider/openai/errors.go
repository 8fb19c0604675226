package openai

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/rhuss/promptstream/pkg/api"
)

// Error codes a completions backend uses for failures that deserve a more
// specific answer than the HTTP status alone.
const (
	codeModelNotFound         = "model_not_found"
	codeContextLengthExceeded = "context_length_exceeded"
	codeInsufficientQuota     = "insufficient_quota"
	codeInvalidAPIKey         = "invalid_api_key"
)

// maxErrorBody bounds how much of a failed response is read.
const maxErrorBody = 4 << 10

// mapHTTPError converts a rejected completion or model listing call into an
// APIError. Known backend codes win over the status code.
func mapHTTPError(resp *http.Response) *api.APIError {
	detail := readErrorDetail(resp.Body)
	if apiErr := mapErrorCode(detail); apiErr != nil {
		return apiErr
	}

	switch status := resp.StatusCode; {
	case status == http.StatusBadRequest:
		return api.NewInvalidRequestError("", orDefault(detail.Message, "completion request rejected by backend"))
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return authError()
	case status == http.StatusNotFound:
		return api.NewNotFoundError(orDefault(detail.Message, "completions endpoint not found on backend"))
	case status == http.StatusTooManyRequests:
		return api.NewTooManyRequestsError(orDefault(detail.Message, "backend rate limit exceeded"))
	case status >= http.StatusInternalServerError:
		return api.NewServerError(orDefault(detail.Message, fmt.Sprintf("backend unavailable (HTTP %d)", status)))
	default:
		return api.NewServerError(orDefault(detail.Message, fmt.Sprintf("unexpected backend response (HTTP %d)", status)))
	}
}

// streamError converts an error object received inside an open stream.
// Failures without a known code are attributed to the model.
func streamError(detail *errorDetail) *api.APIError {
	if apiErr := mapErrorCode(*detail); apiErr != nil {
		return apiErr
	}
	return api.NewModelError(orDefault(detail.Message, "backend aborted the completion"))
}

// mapErrorCode handles the backend codes the gateway knows about. It
// returns nil for anything else.
func mapErrorCode(d errorDetail) *api.APIError {
	code := d.code()

	switch {
	case code == codeModelNotFound:
		apiErr := api.NewNotFoundError(orDefault(d.Message, "model not found on backend"))
		apiErr.Param = "model"
		apiErr.Code = codeModelNotFound
		return apiErr

	case code == codeContextLengthExceeded,
		strings.Contains(strings.ToLower(d.Message), "maximum context length"):
		apiErr := api.NewInvalidRequestError("prompt",
			orDefault(d.Message, "prompt and max_tokens exceed the model's context length"))
		apiErr.Code = codeContextLengthExceeded
		return apiErr

	case code == codeInsufficientQuota, d.Type == codeInsufficientQuota:
		apiErr := api.NewTooManyRequestsError(orDefault(d.Message, "backend quota exceeded"))
		apiErr.Code = codeInsufficientQuota
		return apiErr

	case code == codeInvalidAPIKey:
		return authError()
	}
	return nil
}

// authError hides the backend message, which may echo part of the key.
func authError() *api.APIError {
	return api.NewServerError("backend authentication failed")
}

// mapNetworkError converts a failure to reach the backend (connection
// refused, timeout, DNS) into an APIError.
func mapNetworkError(err error) *api.APIError {
	return api.NewServerError("backend connection error: " + err.Error())
}

// readErrorDetail decodes the error object of a failed response. Bodies
// that are not JSON error envelopes yield a zero detail.
func readErrorDetail(body io.Reader) errorDetail {
	if body == nil {
		return errorDetail{}
	}
	data, err := io.ReadAll(io.LimitReader(body, maxErrorBody))
	if err != nil || len(data) == 0 {
		return errorDetail{}
	}
	var resp errorResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return errorDetail{}
	}
	return resp.Error
}

// code returns the error code when the backend sent it as a string.
func (d errorDetail) code() string {
	if s, ok := d.Code.(string); ok {
		return s
	}
	return ""
}

func orDefault(message, fallback string) string {
	if message == "" {
		return fallback
	}
	return message
}
