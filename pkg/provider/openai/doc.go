// Package openai implements the Provider interface for OpenAI and any
// backend that serves the legacy text Completions API (/v1/completions).
// It handles request serialization, SSE chunk streaming, and error mapping.
package openai
