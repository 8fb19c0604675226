// Package debug provides category-based debug logging for promptstream.
//
// Two orthogonal controls:
//   - Categories (WHAT to debug): PROMPTSTREAM_DEBUG env or logging.debug config
//   - Levels (HOW MUCH detail): PROMPTSTREAM_LOG_LEVEL env or logging.level config
//
// Usage:
//
//	debug.Log("providers", "request", "method", "POST", "url", url)
//	if debug.Enabled("streaming") { /* expensive formatting */ }
//
// Categories: providers, transport, streaming, config, all.
// Levels: ERROR, WARN, INFO, DEBUG, TRACE.
package debug

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// LevelTrace is below slog.LevelDebug for maximum verbosity.
// At TRACE, full request bodies and every streamed delta are logged.
const LevelTrace = slog.LevelDebug - 4

// categories holds the set of enabled debug categories.
// Access is read-only after Init(), so no synchronization needed.
var categories map[string]bool

func init() {
	categories = parseCategories(os.Getenv("PROMPTSTREAM_DEBUG"))
}

// Options configures the debug system and the default slog logger.
type Options struct {
	// Categories is a comma-separated category list.
	Categories string

	// Level is the log level name (default INFO).
	Level string

	// Format selects the slog handler: "text" (default) or "json".
	Format string

	// Output defaults to stderr.
	Output io.Writer
}

// Init configures the debug categories and installs the default slog
// logger. Environment variables take precedence over opts.
func Init(opts Options) {
	cats := os.Getenv("PROMPTSTREAM_DEBUG")
	if cats == "" {
		cats = opts.Categories
	}
	categories = parseCategories(cats)

	level := os.Getenv("PROMPTSTREAM_LOG_LEVEL")
	if level == "" {
		level = opts.Level
	}

	out := opts.Output
	if out == nil {
		out = os.Stderr
	}

	slog.SetDefault(slog.New(NewHandler(out, opts.Format, ParseLevel(level))))
}

// NewHandler builds a slog handler for the given format and level.
func NewHandler(w io.Writer, format string, level slog.Level) slog.Handler {
	hopts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(format, "json") {
		return slog.NewJSONHandler(w, hopts)
	}
	return slog.NewTextHandler(w, hopts)
}

// Enabled reports whether debug output is active for the given category.
func Enabled(category string) bool {
	return categories["all"] || categories[category]
}

// Log emits a debug message for the given category.
// If the category is not enabled, this is a no-op.
func Log(category string, msg string, args ...any) {
	if !Enabled(category) {
		return
	}
	slog.Debug(msg, append([]any{"debug", category}, args...)...)
}

// Trace emits a trace-level message for the given category.
// Only visible when PROMPTSTREAM_LOG_LEVEL=TRACE.
func Trace(category string, msg string, args ...any) {
	if !Enabled(category) {
		return
	}
	slog.Log(context.Background(), LevelTrace, msg, append([]any{"debug", category}, args...)...)
}

// TraceIsEnabled reports whether TRACE level is active for the given category.
func TraceIsEnabled(category string) bool {
	if !Enabled(category) {
		return false
	}
	return slog.Default().Enabled(context.Background(), LevelTrace)
}

// Raw writes plain text to stderr without any slog formatting.
// Only emitted when category is enabled AND level is TRACE.
func Raw(category string, text string) {
	if !TraceIsEnabled(category) {
		return
	}
	fmt.Fprintln(os.Stderr, text)
}

// ParseLevel converts a level string to a slog.Level.
func ParseLevel(s string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "TRACE":
		return LevelTrace
	case "DEBUG":
		return slog.LevelDebug
	case "INFO", "":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Categories returns the list of enabled categories.
func Categories() []string {
	var result []string
	for k := range categories {
		result = append(result, k)
	}
	return result
}

// Truncate returns s truncated to maxLen bytes, with "..." appended if truncated.
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

func parseCategories(s string) map[string]bool {
	m := make(map[string]bool)
	if s == "" {
		return m
	}
	for _, cat := range strings.Split(s, ",") {
		cat = strings.TrimSpace(strings.ToLower(cat))
		if cat != "" {
			m[cat] = true
		}
	}
	return m
}
