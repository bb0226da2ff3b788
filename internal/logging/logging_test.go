package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	tests := []struct {
		level   string
		wantErr bool
	}{
		{"", false},
		{"debug", false},
		{" WARN ", false},
		{"error", false},
		{"loud", true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			_, err := New(&bytes.Buffer{}, tt.level)
			if (err != nil) != tt.wantErr {
				t.Errorf("New(%q) error = %v, wantErr %v", tt.level, err, tt.wantErr)
			}
		})
	}
}

func TestNewFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(&buf, "warn")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	logger.Info("hidden", "k", 1)
	logger.Warn("shown", "page", 2)

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info message logged at warn level: %q", out)
	}
	if !strings.Contains(out, "shown") || !strings.Contains(out, "page=2") {
		t.Errorf("warn message missing: %q", out)
	}
}
