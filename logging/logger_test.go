package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	log "github.com/sirupsen/logrus"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want log.Level
	}{
		{"debug", log.DebugLevel},
		{"DEBUG", log.DebugLevel},
		{"warn", log.WarnLevel},
		{"warning", log.WarnLevel},
		{"error", log.ErrorLevel},
		{"", log.InfoLevel},
		{"verbose", log.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := parseLevel(tt.in); got != tt.want {
				t.Errorf("parseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestForRunJSON(t *testing.T) {
	var buf bytes.Buffer
	SetupWriter(&buf, "info", "json")
	defer SetupWriter(&bytes.Buffer{}, "info", "text")

	ForRun("run-123").WithField("dataset", "Breast Cancer").Info("created dataset")
	ForRun("run-123").Debug("hidden at info level")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected 1 log line, got %d: %q", len(lines), buf.String())
	}

	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}
	if entry["run_id"] != "run-123" || entry["dataset"] != "Breast Cancer" || entry["msg"] != "created dataset" {
		t.Errorf("unexpected entry %v", entry)
	}
}
