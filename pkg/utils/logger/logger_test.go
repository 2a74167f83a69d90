package logger

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"javaexec/pkg/utils/contextkey"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestContextFieldsAreAttached(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	prev := SetGlobal(NewFromZap(zap.New(core)))
	defer SetGlobal(prev)

	ctx := context.WithValue(context.Background(), contextkey.SubmissionID, "sub-1")
	ctx = context.WithValue(ctx, contextkey.Stage, "compile")
	Info(ctx, "compile finished", zap.Int("exit_code", 0))

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["submission_id"] != "sub-1" || fields["stage"] != "compile" {
		t.Fatalf("context fields missing: %v", fields)
	}
	if _, ok := fields["trace_id"]; ok {
		t.Fatalf("unexpected trace id field")
	}
}

func TestNilGlobalLoggerIsSilent(t *testing.T) {
	prev := SetGlobal(nil)
	defer SetGlobal(prev)

	Debug(context.Background(), "ignored")
	Error(context.Background(), "ignored")
	if err := Sync(); err != nil {
		t.Fatalf("sync without logger failed: %v", err)
	}
}

func TestNewLoggerRejectsUnknownLevel(t *testing.T) {
	if _, err := NewLogger(Config{Level: "loud"}); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}

func TestNewLoggerWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "executor.log")
	l, err := NewLogger(Config{Level: "info", Format: "json", OutputPath: path})
	if err != nil {
		t.Fatalf("new logger failed: %v", err)
	}
	prev := SetGlobal(l)
	defer SetGlobal(prev)

	Debug(context.Background(), "below level")
	Warn(context.Background(), "workspace removal failed")
	_ = l.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if strings.Contains(string(data), "below level") {
		t.Fatalf("debug entry should be filtered")
	}
	if !strings.Contains(string(data), `"msg":"workspace removal failed"`) {
		t.Fatalf("warn entry missing: %s", data)
	}
}

func TestNewLoggerRejectsStdout(t *testing.T) {
	if _, err := NewLogger(Config{OutputPath: "stdout"}); err == nil {
		t.Fatalf("stdout must not be accepted as a log sink")
	}
}
