package provider

import "context"

// Provider abstracts a hosted text-completion backend.
//
// Implementations must be safe for concurrent use by multiple goroutines.
type Provider interface {
	// Name returns the provider identifier (e.g., "openai").
	Name() string

	// Stream starts a streaming completion. The returned channel receives
	// Event values and is closed by the provider when the stream completes,
	// errors, or the context is cancelled. Errors that occur before the
	// stream starts are returned directly.
	Stream(ctx context.Context, req *Request) (<-chan Event, error)

	// ListModels returns available models from the backend.
	ListModels(ctx context.Context) ([]ModelInfo, error)

	// Close releases provider resources (HTTP clients, connections).
	Close() error
}
