package openai

// Completions API request/response types. These mirror the OpenAI legacy
// text completion wire format.

// completionRequest is the request body for /v1/completions.
type completionRequest struct {
	Model         string         `json:"model"`
	Prompt        string         `json:"prompt"`
	MaxTokens     *int           `json:"max_tokens,omitempty"`
	Stream        bool           `json:"stream"`
	StreamOptions *streamOptions `json:"stream_options,omitempty"`
}

// streamOptions controls streaming behavior.
type streamOptions struct {
	IncludeUsage bool `json:"include_usage"`
}

// completionChunk is a single SSE chunk of a streaming completion.
type completionChunk struct {
	ID      string             `json:"id"`
	Object  string             `json:"object"`
	Created int64              `json:"created"`
	Model   string             `json:"model"`
	Choices []completionChoice `json:"choices"`
	Usage   *completionUsage   `json:"usage,omitempty"`
	Error   *errorDetail       `json:"error,omitempty"`
}

// completionChoice holds the generated text of one choice.
type completionChoice struct {
	Index        int     `json:"index"`
	Text         string  `json:"text"`
	FinishReason *string `json:"finish_reason"`
}

// completionUsage holds token usage statistics.
type completionUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// errorResponse is the error body returned by the API.
type errorResponse struct {
	Error errorDetail `json:"error"`
}

// errorDetail holds the fields of an API error.
type errorDetail struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Param   any    `json:"param"`
	Code    any    `json:"code"`
}

// modelsResponse is the response from /v1/models.
type modelsResponse struct {
	Object string        `json:"object"`
	Data   []modelObject `json:"data"`
}

// modelObject represents a single model entry.
type modelObject struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Created int64  `json:"created"`
	OwnedBy string `json:"owned_by"`
}
