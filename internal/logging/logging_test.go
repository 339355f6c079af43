package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestLevel_String(t *testing.T) {
	tests := []struct {
		level Level
		want  string
	}{
		{LevelDebug, "DEBUG"},
		{LevelInfo, "INFO"},
		{LevelWarn, "WARN"},
		{LevelError, "ERROR"},
		{Level(99), "UNKNOWN"},
	}

	for _, tt := range tests {
		if got := tt.level.String(); got != tt.want {
			t.Errorf("Level(%d).String() = %q, want %q", tt.level, got, tt.want)
		}
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  Level
		ok    bool
	}{
		{"debug", LevelDebug, true},
		{"DEBUG", LevelDebug, true},
		{"info", LevelInfo, true},
		{"", LevelInfo, true},
		{"warning", LevelWarn, true},
		{" error ", LevelError, true},
		{"loud", LevelInfo, false},
	}

	for _, tt := range tests {
		got, ok := ParseLevel(tt.input)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseLevel(%q) = %v, %v; want %v, %v", tt.input, got, ok, tt.want, tt.ok)
		}
	}
}

func TestLogger_FiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: LevelWarn, Output: &buf})

	l.Debug("debug")
	l.Info("info")
	l.Warn("careful %d", 1)
	l.Error("broken")

	out := buf.String()
	if strings.Contains(out, "debug") || strings.Contains(out, "info") {
		t.Errorf("output contains filtered messages: %q", out)
	}
	if !strings.Contains(out, "[WARN] careful 1") {
		t.Errorf("missing warn line: %q", out)
	}
	if !strings.Contains(out, "[ERROR] broken") {
		t.Errorf("missing error line: %q", out)
	}
}

func TestLogger_FieldsAreSorted(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: LevelDebug, Output: &buf, Prefix: "test"})

	l.WithFields(map[string]any{"zeta": 1, "alpha": "x"}).WithComponent("store").Info("loaded")

	out := buf.String()
	if !strings.Contains(out, "test: loaded {alpha=x, component=store, zeta=1}") {
		t.Errorf("unexpected line: %q", out)
	}
}

func TestLogger_DerivedInheritsLevel(t *testing.T) {
	var buf bytes.Buffer
	parent := New(Config{Level: LevelInfo, Output: &buf})
	child := parent.WithComponent("watcher")

	child.Debug("hidden")
	child.Info("visible")
	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("child should inherit info level: %q", out)
	}
	if !strings.Contains(out, "visible") || !strings.Contains(out, "component=watcher") {
		t.Errorf("info line missing or unlabelled: %q", out)
	}
}

func TestNull(t *testing.T) {
	l := Null()
	l.Error("nothing")
	l.WithComponent("x").Warn("still nothing")
	if !l.disabled {
		t.Error("Null logger should be disabled")
	}
}
