package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate checks the configuration for required fields and valid values.
// Returns an error with a descriptive field path on failure.
func (c *Config) Validate() error {
	var errs []error

	// server.port must be positive.
	if c.Server.Port <= 0 {
		errs = append(errs, fmt.Errorf("server.port must be > 0, got %d", c.Server.Port))
	}
	if c.Server.MaxBodySize <= 0 {
		errs = append(errs, fmt.Errorf("server.max_body_size must be > 0, got %d", c.Server.MaxBodySize))
	}
	if c.Server.ShutdownTimeout <= 0 {
		errs = append(errs, fmt.Errorf("server.shutdown_timeout must be > 0, got %v", c.Server.ShutdownTimeout))
	}

	// completion.route is a ServeMux pattern: "[METHOD ]/path".
	if !strings.Contains(c.Completion.Route, "/") {
		errs = append(errs, fmt.Errorf("completion.route must contain a path, got %q", c.Completion.Route))
	}
	if c.Completion.Model == "" {
		errs = append(errs, fmt.Errorf("completion.model is required"))
	}
	if c.Completion.MaxTokens <= 0 {
		errs = append(errs, fmt.Errorf("completion.max_tokens must be > 0, got %d", c.Completion.MaxTokens))
	}
	if c.Completion.StreamData != nil {
		if _, err := json.Marshal(c.Completion.StreamData); err != nil {
			errs = append(errs, fmt.Errorf("completion.stream_data must be JSON-serializable: %w", err))
		}
	}

	// provider.type must be a known value.
	switch c.Provider.Type {
	case "openai":
		// valid
	default:
		errs = append(errs, fmt.Errorf("provider.type must be \"openai\", got %q", c.Provider.Type))
	}

	// provider.base_url must be an absolute http(s) URL.
	u, err := url.Parse(c.Provider.BaseURL)
	switch {
	case c.Provider.BaseURL == "":
		errs = append(errs, fmt.Errorf("provider.base_url is required"))
	case err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "":
		errs = append(errs, fmt.Errorf("provider.base_url must be an http(s) URL, got %q", c.Provider.BaseURL))
	case u.Hostname() == "api.openai.com" && c.Provider.APIKey == "":
		errs = append(errs, fmt.Errorf("provider.api_key or provider.api_key_file is required for %s", u.Host))
	}

	// observability.metrics.path must be absolute when enabled.
	if c.Observability.Metrics.Enabled && !strings.HasPrefix(c.Observability.Metrics.Path, "/") {
		errs = append(errs, fmt.Errorf("observability.metrics.path must start with \"/\", got %q", c.Observability.Metrics.Path))
	}

	// logging.level must be a known level name.
	switch strings.ToUpper(c.Logging.Level) {
	case "TRACE", "DEBUG", "INFO", "WARN", "WARNING", "ERROR":
		// valid
	default:
		errs = append(errs, fmt.Errorf("logging.level must be TRACE, DEBUG, INFO, WARN, or ERROR, got %q", c.Logging.Level))
	}
	switch c.Logging.Format {
	case "text", "json":
		// valid
	default:
		errs = append(errs, fmt.Errorf("logging.format must be \"text\" or \"json\", got %q", c.Logging.Format))
	}

	return errors.Join(errs...)
}
