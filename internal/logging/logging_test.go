package logging

import (
	"testing"
)

func TestNewLogger_Levels(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "warning", "error", "unknown", ""} {
		logger := NewLogger(level)
		if logger == nil {
			t.Errorf("NewLogger(%q) = nil", level)
		}
	}
}

func TestWithHelpers(t *testing.T) {
	base := NewLogger("info")

	if WithRequestID(base, "abc123") == nil {
		t.Error("WithRequestID returned nil")
	}
	if WithComponent(base, "backup") == nil {
		t.Error("WithComponent returned nil")
	}
	if WithProject(base, "demo") == nil {
		t.Error("WithProject returned nil")
	}
	if WithJobID(base, "job-1") == nil {
		t.Error("WithJobID returned nil")
	}
}
