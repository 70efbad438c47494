package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"info", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"nonsense", slog.LevelInfo},
	}

	for _, tt := range tests {
		if got := parseLevel(tt.in); got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNew_JSONFormatAndLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, closer, err := New(&buf, "warn", "json", "")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer closer()

	logger.Info("dropped")
	logger.Warn("kept", "phase", "tables")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1: %q", len(lines), buf.String())
	}

	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("line is not JSON: %v", err)
	}
	if entry["msg"] != "kept" || entry["phase"] != "tables" {
		t.Errorf("unexpected entry: %v", entry)
	}
}

func TestNew_FanoutToFile(t *testing.T) {
	var console bytes.Buffer
	path := filepath.Join(t.TempDir(), "app.log")

	logger, closer, err := New(&console, "info", "text", path)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	logger.Info("upload completed", "tables", 2)
	if err := closer(); err != nil {
		t.Fatalf("close error = %v", err)
	}

	if !strings.Contains(console.String(), "upload completed") {
		t.Errorf("console output missing entry: %q", console.String())
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(data), &entry); err != nil {
		t.Fatalf("file entry is not JSON: %v (%q)", err, data)
	}
	if entry["msg"] != "upload completed" {
		t.Errorf("file entry msg = %v, want %q", entry["msg"], "upload completed")
	}
}

func TestNew_BadFileFallsBackToConsole(t *testing.T) {
	var console bytes.Buffer
	path := filepath.Join(t.TempDir(), "missing", "dir", "app.log")

	logger, closer, err := New(&console, "info", "text", path)
	if err == nil {
		t.Fatal("New() expected error for unwritable path")
	}
	if logger == nil {
		t.Fatal("New() should still return a console logger")
	}
	if err := closer(); err != nil {
		t.Errorf("closer() = %v, want nil", err)
	}

	logger.Info("still logging")
	if !strings.Contains(console.String(), "still logging") {
		t.Errorf("console output missing entry: %q", console.String())
	}
}

func TestFromContext_RequestID(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, nil)))
	defer slog.SetDefault(prev)

	ctx := context.WithValue(context.Background(), middleware.RequestIDKey, "req-42")
	WithFields(ctx, "document_id", "doc-1").Info("hello")

	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
		t.Fatalf("entry is not JSON: %v", err)
	}
	if entry["request_id"] != "req-42" {
		t.Errorf("request_id = %v, want req-42", entry["request_id"])
	}
	if entry["document_id"] != "doc-1" {
		t.Errorf("document_id = %v, want doc-1", entry["document_id"])
	}
}
