package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DotEnvFiles are loaded from the working directory, in order. Variables
// already present in the environment are never overwritten.
var DotEnvFiles = []string{".env.local", ".env"}

// Load loads configuration from a layered set of sources.
//
// The loading order is:
//  1. Built-in defaults
//  2. .env files (DotEnvFiles)
//  3. YAML config file (explicit path, PROMPTSTREAM_CONFIG env, ./config.yaml, /etc/promptstream/config.yaml)
//  4. Environment variable overrides
//  5. File reference resolution (_file suffix)
//  6. Validation
func Load(configPath string) (*Config, error) {
	// Start with defaults.
	cfg := Defaults()

	if err := loadDotEnv(DotEnvFiles...); err != nil {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	// Discover and load YAML config file.
	filePath := discoverConfigFile(configPath)
	if filePath != "" {
		if err := loadYAMLFile(filePath, &cfg); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", filePath, err)
		}
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, fmt.Errorf("applying environment: %w", err)
	}

	// Resolve _file references.
	if err := resolveFileReferences(&cfg); err != nil {
		return nil, fmt.Errorf("resolving file references: %w", err)
	}

	// Validate.
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return &cfg, nil
}

// loadDotEnv loads each existing file into the process environment.
// Missing files are skipped.
func loadDotEnv(paths ...string) error {
	for _, path := range paths {
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	}
	return nil
}

// discoverConfigFile finds the config file path using the discovery order:
// 1. Explicit configPath argument
// 2. PROMPTSTREAM_CONFIG environment variable
// 3. ./config.yaml in the current directory
// 4. /etc/promptstream/config.yaml
//
// Returns empty string if no config file is found.
func discoverConfigFile(configPath string) string {
	// Explicit path takes priority.
	if configPath != "" {
		return configPath
	}

	if envPath := os.Getenv("PROMPTSTREAM_CONFIG"); envPath != "" {
		return envPath
	}

	// Check common locations.
	candidates := []string{
		"config.yaml",
		"/etc/promptstream/config.yaml",
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// loadYAMLFile reads and parses a YAML file into the Config struct.
// Fields not present in the YAML retain their current (default) values.
func loadYAMLFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// applyEnvOverrides maps environment variables to config fields. The
// PROMPTSTREAM_ names win over the conventional OPENAI_ ones.
func applyEnvOverrides(cfg *Config) error {
	var errs []error

	envInt := func(name string, dst *int) {
		if v := os.Getenv(name); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", name, err))
				return
			}
			*dst = n
		}
	}
	envBool := func(name string, dst *bool) {
		if v := os.Getenv(name); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", name, err))
				return
			}
			*dst = b
		}
	}
	envDuration := func(name string, dst *time.Duration) {
		if v := os.Getenv(name); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", name, err))
				return
			}
			*dst = d
		}
	}
	envString := func(dst *string, names ...string) {
		for _, name := range names {
			if v := os.Getenv(name); v != "" {
				*dst = v
				return
			}
		}
	}

	envInt("PROMPTSTREAM_PORT", &cfg.Server.Port)
	envDuration("PROMPTSTREAM_SHUTDOWN_TIMEOUT", &cfg.Server.ShutdownTimeout)

	envString(&cfg.Completion.Route, "PROMPTSTREAM_ROUTE")
	envString(&cfg.Completion.Model, "PROMPTSTREAM_MODEL")
	envInt("PROMPTSTREAM_MAX_TOKENS", &cfg.Completion.MaxTokens)
	envBool("PROMPTSTREAM_STREAM_DATA_ENABLED", &cfg.Completion.StreamDataEnabled)

	// PROMPTSTREAM_STREAM_DATA: JSON object for the side channel.
	if v := os.Getenv("PROMPTSTREAM_STREAM_DATA"); v != "" {
		data, err := parseStreamDataJSON(v)
		if err != nil {
			errs = append(errs, err)
		} else {
			cfg.Completion.StreamData = data
		}
	}

	envString(&cfg.Provider.BaseURL, "PROMPTSTREAM_BASE_URL", "OPENAI_BASE_URL")
	envString(&cfg.Provider.APIKey, "PROMPTSTREAM_API_KEY", "OPENAI_API_KEY")
	envString(&cfg.Provider.Organization, "PROMPTSTREAM_ORGANIZATION", "OPENAI_ORGANIZATION")

	envBool("PROMPTSTREAM_METRICS_ENABLED", &cfg.Observability.Metrics.Enabled)

	envString(&cfg.Logging.Level, "PROMPTSTREAM_LOG_LEVEL")
	envString(&cfg.Logging.Format, "PROMPTSTREAM_LOG_FORMAT")
	envString(&cfg.Logging.Debug, "PROMPTSTREAM_DEBUG")

	return errors.Join(errs...)
}

// parseStreamDataJSON parses a JSON object for the side channel.
func parseStreamDataJSON(jsonStr string) (map[string]any, error) {
	var data map[string]any
	if err := json.Unmarshal([]byte(jsonStr), &data); err != nil {
		return nil, fmt.Errorf("parsing PROMPTSTREAM_STREAM_DATA: %w", err)
	}
	if data == nil {
		return nil, fmt.Errorf("parsing PROMPTSTREAM_STREAM_DATA: expected a JSON object")
	}
	return data, nil
}

// resolveFileReferences reads _file fields and populates the corresponding value fields.
// For each field ending in _file, if the value field is empty and the file field is set,
// the file is read, whitespace is trimmed, and the value field is populated.
func resolveFileReferences(cfg *Config) error {
	// provider.api_key_file -> provider.api_key
	if cfg.Provider.APIKeyFile != "" && cfg.Provider.APIKey == "" {
		val, err := readSecretFile(cfg.Provider.APIKeyFile)
		if err != nil {
			return fmt.Errorf("provider.api_key_file: %w", err)
		}
		cfg.Provider.APIKey = val
	}
	return nil
}

// readSecretFile reads a file and returns its content with surrounding whitespace trimmed.
func readSecretFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
