// Package provider defines the protocol-agnostic interface for hosted
// text-completion backends. Each adapter (e.g., openai) handles its own wire
// protocol internally and reports generated text as a channel of Event
// values.
//
// TextStream wraps that channel for consumers. It accumulates the completion
// and lets callers register observers that run once when the backend reports
// that the stream has finished.
package provider
