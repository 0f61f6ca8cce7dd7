package shared

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

func TestParseLevel(t *testing.T) {
	tc := []struct {
		name  string
		input string
		want  log.Level
	}{
		{name: "debug", input: "debug", want: log.DebugLevel},
		{name: "mixed case", input: " WARN ", want: log.WarnLevel},
		{name: "error", input: "error", want: log.ErrorLevel},
		{name: "unknown falls back to info", input: "chatty", want: log.InfoLevel},
		{name: "empty falls back to info", input: "", want: log.InfoLevel},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseLevel(tt.input); got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestNewFileLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "edbx.log")

	logger, closer, err := NewFileLogger(path)
	if err != nil {
		t.Fatalf("failed to create file logger: %v", err)
	}
	logger.Info("library opened", "file", "m.db")
	if err := closer.Close(); err != nil {
		t.Fatalf("failed to close log file: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("log file should exist: %v", err)
	}
	if !strings.Contains(string(data), "library opened") || !strings.Contains(string(data), "file=m.db") {
		t.Errorf("unexpected log output %q", string(data))
	}
}

func TestGenerateID(t *testing.T) {
	a, b := GenerateID(), GenerateID()
	if a == b {
		t.Error("expected distinct ids")
	}
	if _, err := uuid.Parse(a); err != nil {
		t.Errorf("expected a valid uuid, got %q: %v", a, err)
	}
}

func TestFormatDuration(t *testing.T) {
	tc := map[float64]string{
		0:      "0:00",
		-3:     "0:00",
		59.6:   "1:00",
		245:    "4:05",
		3725.2: "1:02:05",
	}
	for in, want := range tc {
		if got := FormatDuration(in); got != want {
			t.Errorf("FormatDuration(%v) = %q, want %q", in, got, want)
		}
	}
}

func TestMarshalJSON(t *testing.T) {
	v := map[string]int{"a": 1}

	compact, err := MarshalJSON(v, false)
	if err != nil || string(compact) != `{"a":1}` {
		t.Errorf("unexpected compact output %s (%v)", compact, err)
	}
	pretty, err := MarshalJSON(v, true)
	if err != nil || string(pretty) != "{\n  \"a\": 1\n}" {
		t.Errorf("unexpected pretty output %s (%v)", pretty, err)
	}
}
