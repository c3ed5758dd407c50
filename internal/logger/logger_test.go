package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestNewWithWriterJSON(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("courtrules", &buf, "info", "json")

	log.Info("engine loaded", slog.String("district", "test"))

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if entry["service"] != "courtrules" {
		t.Errorf("expected service attribute, got %v", entry["service"])
	}
	if entry["district"] != "test" {
		t.Errorf("expected district attribute, got %v", entry["district"])
	}
}

func TestNewWithWriterText(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("courtrules", &buf, "info", "text")

	log.Info("engine loaded")

	out := buf.String()
	if !strings.Contains(out, "msg=") {
		t.Errorf("expected text format, got %q", out)
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("courtrules", &buf, "warn", "json")

	log.Info("should be dropped")
	if buf.Len() != 0 {
		t.Errorf("info should be filtered at warn level, got %q", buf.String())
	}

	log.Warn("should appear")
	if buf.Len() == 0 {
		t.Error("warn should pass at warn level")
	}
}

func TestParseLevelDefaults(t *testing.T) {
	if got := parseLevel("bogus"); got != slog.LevelInfo {
		t.Errorf("parseLevel(bogus) = %v, want info", got)
	}
	if got := parseLevel("DEBUG"); got != slog.LevelDebug {
		t.Errorf("parseLevel(DEBUG) = %v, want debug", got)
	}
}
