package api

// CompletionRequest is the request body accepted by the completion route.
// Only the prompt is read; every other field is ignored.
type CompletionRequest struct {
	Prompt string `json:"prompt"`
}
