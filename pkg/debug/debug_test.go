package debug

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestParseCategories(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  map[string]bool
	}{
		{"empty", "", map[string]bool{}},
		{"single", "providers", map[string]bool{"providers": true}},
		{"multiple", "providers,streaming", map[string]bool{"providers": true, "streaming": true}},
		{"all", "all", map[string]bool{"all": true}},
		{"with spaces", " providers , streaming ", map[string]bool{"providers": true, "streaming": true}},
		{"uppercase normalized", "PROVIDERS,Transport", map[string]bool{"providers": true, "transport": true}},
		{"empty segments", "providers,,config", map[string]bool{"providers": true, "config": true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseCategories(tt.input)
			for k, v := range tt.want {
				if got[k] != v {
					t.Errorf("got[%q] = %v, want %v", k, got[k], v)
				}
			}
			if len(got) != len(tt.want) {
				t.Errorf("len(got) = %d, want %d", len(got), len(tt.want))
			}
		})
	}
}

func TestEnabled(t *testing.T) {
	// Save and restore.
	orig := categories
	defer func() { categories = orig }()

	categories = parseCategories("providers,streaming")

	if !Enabled("providers") {
		t.Error("providers should be enabled")
	}
	if !Enabled("streaming") {
		t.Error("streaming should be enabled")
	}
	if Enabled("transport") {
		t.Error("transport should not be enabled")
	}
	if Enabled("all") {
		t.Error("all should not be enabled (not in categories)")
	}
}

func TestEnabled_All(t *testing.T) {
	orig := categories
	defer func() { categories = orig }()

	categories = parseCategories("all")

	if !Enabled("providers") {
		t.Error("providers should be enabled via 'all'")
	}
	if !Enabled("config") {
		t.Error("config should be enabled via 'all'")
	}
	if !Enabled("anything") {
		t.Error("anything should be enabled via 'all'")
	}
}

func TestEnabled_Empty(t *testing.T) {
	orig := categories
	defer func() { categories = orig }()

	categories = parseCategories("")

	if Enabled("providers") {
		t.Error("nothing should be enabled when no categories set")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"TRACE", LevelTrace},
		{"trace", LevelTrace},
		{"DEBUG", slog.LevelDebug},
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"info", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"WARN", slog.LevelWarn},
		{"WARNING", slog.LevelWarn},
		{"ERROR", slog.LevelError},
		{"unknown", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := ParseLevel(tt.input)
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("short", 10); got != "short" {
		t.Errorf("Truncate short = %q, want %q", got, "short")
	}
	if got := Truncate("this is a long string", 10); got != "this is a ..." {
		t.Errorf("Truncate long = %q, want %q", got, "this is a ...")
	}
}

func TestLog_DisabledCategory(t *testing.T) {
	orig := categories
	defer func() { categories = orig }()

	categories = parseCategories("")

	// Should not panic or produce output.
	Log("providers", "test message", "key", "value")
	Trace("providers", "trace message", "key", "value")
}

func TestNewHandler_Format(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewHandler(&buf, "json", slog.LevelInfo))
	logger.Info("stream started", "model", "gpt-3.5-turbo-instruct")

	if !strings.HasPrefix(buf.String(), "{") {
		t.Errorf("json handler output = %q, want a JSON object", buf.String())
	}

	buf.Reset()
	logger = slog.New(NewHandler(&buf, "", slog.LevelInfo))
	logger.Info("stream started")
	if !strings.Contains(buf.String(), "msg=\"stream started\"") {
		t.Errorf("text handler output = %q", buf.String())
	}

	buf.Reset()
	logger.Debug("hidden")
	if buf.Len() != 0 {
		t.Errorf("debug output should be filtered at INFO, got %q", buf.String())
	}
}

func TestInit_OptionsApplied(t *testing.T) {
	t.Setenv("PROMPTSTREAM_DEBUG", "")
	t.Setenv("PROMPTSTREAM_LOG_LEVEL", "")

	origCats := categories
	origLogger := slog.Default()
	defer func() {
		categories = origCats
		slog.SetDefault(origLogger)
	}()

	var buf bytes.Buffer
	Init(Options{Categories: "providers", Level: "DEBUG", Output: &buf})

	if !Enabled("providers") {
		t.Error("providers should be enabled from options")
	}
	Log("providers", "completion request", "model", "m")
	if !strings.Contains(buf.String(), "completion request") || !strings.Contains(buf.String(), "debug=providers") {
		t.Errorf("debug log output = %q", buf.String())
	}
}

func TestInit_EnvOverridesOptions(t *testing.T) {
	t.Setenv("PROMPTSTREAM_DEBUG", "streaming")
	t.Setenv("PROMPTSTREAM_LOG_LEVEL", "ERROR")

	origCats := categories
	origLogger := slog.Default()
	defer func() {
		categories = origCats
		slog.SetDefault(origLogger)
	}()

	var buf bytes.Buffer
	Init(Options{Categories: "providers", Level: "DEBUG", Output: &buf})

	if Enabled("providers") {
		t.Error("env categories should replace configured categories")
	}
	if !Enabled("streaming") {
		t.Error("streaming should be enabled from env")
	}
	slog.Warn("filtered")
	if buf.Len() != 0 {
		t.Errorf("WARN should be filtered at ERROR level, got %q", buf.String())
	}
}
