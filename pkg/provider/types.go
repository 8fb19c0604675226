package provider

// Request is the backend-facing completion request. It carries only what
// the provider needs to start generation.
type Request struct {
	Model     string `json:"model"`
	Prompt    string `json:"prompt"`
	MaxTokens *int   `json:"max_tokens,omitempty"`
}

// Usage holds token accounting reported by the backend.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

// EventType classifies a streaming event from the backend.
type EventType int

const (
	EventTextDelta EventType = iota // Incremental text content
	EventDone                       // Stream finished
	EventError                      // Stream error
)

// String returns a readable name for logs.
func (t EventType) String() string {
	switch t {
	case EventTextDelta:
		return "text_delta"
	case EventDone:
		return "done"
	case EventError:
		return "error"
	default:
		return "unknown"
	}
}

// Event is a single streaming event from the backend.
type Event struct {
	// Type indicates what kind of event this is.
	Type EventType

	// Delta contains incremental text.
	Delta string

	// FinishReason is set on the done event ("stop", "length", ...).
	FinishReason string

	// Usage is populated on the done event when the backend reports it.
	Usage *Usage

	// Err is populated if the stream encountered an error.
	Err error
}

// ModelInfo holds information about a model served by the provider.
type ModelInfo struct {
	ID      string `json:"id"`
	Object  string `json:"object,omitempty"`
	OwnedBy string `json:"owned_by,omitempty"`
}
