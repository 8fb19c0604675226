// Package config provides unified configuration for the promptstream gateway.
//
// Configuration is loaded with a layered approach:
//  1. Built-in defaults
//  2. .env files (.env.local, then .env) for variables not already set
//  3. YAML config file (discovered or explicitly specified)
//  4. Environment variable overrides (PROMPTSTREAM_ prefix, plus OPENAI_API_KEY
//     and OPENAI_BASE_URL)
//  5. File reference resolution (_file suffix fields)
//  6. Validation
package config

import "time"

// Config holds all configuration for the promptstream gateway.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Completion    CompletionConfig    `yaml:"completion"`
	Provider      ProviderConfig      `yaml:"provider"`
	Observability ObservabilityConfig `yaml:"observability"`
	Logging       LoggingConfig       `yaml:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `yaml:"port"`             // default: 8080
	ReadTimeout     time.Duration `yaml:"read_timeout"`     // default: 30s
	WriteTimeout    time.Duration `yaml:"write_timeout"`    // default: 0 (streams are unbounded)
	MaxBodySize     int64         `yaml:"max_body_size"`    // default: 10 MiB
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"` // default: 30s
}

// CompletionConfig holds the completion route and model settings.
type CompletionConfig struct {
	Route     string `yaml:"route"`      // default: "POST /api/completion"
	Model     string `yaml:"model"`      // default: "gpt-3.5-turbo-instruct"
	MaxTokens int    `yaml:"max_tokens"` // default: 2000

	// StreamDataEnabled turns the side channel on. When off, responses
	// carry raw text.
	StreamDataEnabled bool `yaml:"stream_data_enabled"` // default: true

	// StreamData is the value appended to each response's side channel.
	// Left empty, it becomes DefaultStreamData after loading.
	StreamData map[string]any `yaml:"stream_data"`
}

// StreamDataValue returns the side-channel value to attach to responses,
// or nil when the side channel is disabled.
func (c CompletionConfig) StreamDataValue() any {
	if !c.StreamDataEnabled {
		return nil
	}
	if c.StreamData == nil {
		return DefaultStreamData()
	}
	return c.StreamData
}

// ProviderConfig holds the hosted completion backend settings.
type ProviderConfig struct {
	Type         string        `yaml:"type"`         // "openai", default: "openai"
	BaseURL      string        `yaml:"base_url"`     // default: "https://api.openai.com"
	APIKey       string        `yaml:"api_key"`      // required for api.openai.com
	APIKeyFile   string        `yaml:"api_key_file"` // _file variant for api_key
	Organization string        `yaml:"organization"` // optional
	Timeout      time.Duration `yaml:"timeout"`      // default: 120s, non-streaming calls only
}

// ObservabilityConfig holds monitoring and instrumentation settings.
type ObservabilityConfig struct {
	Metrics MetricsConfig `yaml:"metrics"`
}

// MetricsConfig holds Prometheus metrics endpoint settings.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"` // default: true
	Path    string `yaml:"path"`    // default: "/metrics"
}

// LoggingConfig holds log level and debug category settings. The
// PROMPTSTREAM_LOG_LEVEL and PROMPTSTREAM_DEBUG variables override them.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // TRACE, DEBUG, INFO, WARN, ERROR; default: INFO
	Format string `yaml:"format"` // "text" or "json", default: "text"
	Debug  string `yaml:"debug"`  // comma-separated categories, e.g. "providers,streaming"
}

// DefaultStreamData returns the placeholder side-channel value.
func DefaultStreamData() map[string]any {
	return map[string]any{"test": "value"}
}

// Defaults returns a Config with all default values filled in.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			MaxBodySize:     10 << 20,
			ShutdownTimeout: 30 * time.Second,
		},
		Completion: CompletionConfig{
			Route:             "POST /api/completion",
			Model:             "gpt-3.5-turbo-instruct",
			MaxTokens:         2000,
			StreamDataEnabled: true,
		},
		Provider: ProviderConfig{
			Type:    "openai",
			BaseURL: "https://api.openai.com",
			Timeout: 120 * time.Second,
		},
		Observability: ObservabilityConfig{
			Metrics: MetricsConfig{
				Enabled: true,
				Path:    "/metrics",
			},
		},
		Logging: LoggingConfig{
			Level:  "INFO",
			Format: "text",
		},
	}
}
