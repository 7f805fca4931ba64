package log

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}

	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestInitWriter_FiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	InitWriter("warn", &buf)
	defer Init("info")

	Info("hidden message")
	Warn("visible message", "key", "value")

	out := buf.String()
	if strings.Contains(out, "hidden message") {
		t.Errorf("info line should be filtered at warn level: %q", out)
	}
	if !strings.Contains(out, "visible message") || !strings.Contains(out, "key=value") {
		t.Errorf("warn line missing from output: %q", out)
	}
}

func TestComponent(t *testing.T) {
	var buf bytes.Buffer
	InitWriter("debug", &buf)
	defer Init("info")

	Component("web").Debug("hello")

	if !strings.Contains(buf.String(), "component=web") {
		t.Errorf("expected component attribute, got %q", buf.String())
	}
}
