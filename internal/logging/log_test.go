package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want log.Level
	}{
		{"debug", log.DebugLevel},
		{"DEBUG", log.DebugLevel},
		{"info", log.InfoLevel},
		{"", log.InfoLevel},
		{"warn", log.WarnLevel},
		{"warning", log.WarnLevel},
		{" error ", log.ErrorLevel},
		{"fatal", log.FatalLevel},
		{"verbose", log.InfoLevel},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNew_RespectsLevel(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := New(Options{Level: "warn", Output: &buf})
	logger.Info("hidden")
	logger.Warn("shown", "file", "a.png")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info line should be filtered at warn level: %q", out)
	}
	if !strings.Contains(out, "shown") || !strings.Contains(out, "a.png") {
		t.Errorf("warn line missing: %q", out)
	}
}

func TestNew_Prefix(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := New(Options{Output: &buf, Prefix: "evidence"})
	logger.Info("hello")
	if !strings.Contains(buf.String(), "evidence") {
		t.Errorf("expected prefix in %q", buf.String())
	}
}

func TestDefault_EnvLevel(t *testing.T) {
	t.Setenv(LevelEnv, "debug")
	if got := Default().GetLevel(); got != log.DebugLevel {
		t.Errorf("Default level = %v, want debug", got)
	}
}
