package openai

import "time"

// DefaultBaseURL is the public OpenAI API endpoint.
const DefaultBaseURL = "https://api.openai.com"

// Config holds configuration for the OpenAI provider adapter.
type Config struct {
	// BaseURL is the API server URL without the /v1 suffix
	// (e.g., "https://api.openai.com").
	BaseURL string

	// APIKey is sent as a bearer token when set.
	APIKey string

	// Organization is sent as the OpenAI-Organization header when set.
	Organization string

	// Timeout for non-streaming HTTP requests. Defaults to 120s.
	Timeout time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig(apiKey string) Config {
	return Config{
		BaseURL: DefaultBaseURL,
		APIKey:  apiKey,
		Timeout: 120 * time.Second,
	}
}
