package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestFromContextAttachesKeys(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(&buf, "debug", "json")

	ctx := WithContext(context.Background(), NovelIDKey, "novel-1")
	ctx = WithContext(ctx, JobIDKey, "job-9")
	Error(ctx, "save failed", errors.New("disk full"), "attempt", 2)

	var rec map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &rec); err != nil {
		t.Fatalf("decode log line: %v (%s)", err, buf.String())
	}
	if rec["novel_id"] != "novel-1" {
		t.Fatalf("novel_id = %v, want novel-1", rec["novel_id"])
	}
	if rec["job_id"] != "job-9" {
		t.Fatalf("job_id = %v, want job-9", rec["job_id"])
	}
	if rec["error"] != "disk full" {
		t.Fatalf("error = %v, want disk full", rec["error"])
	}
}

func TestAutoFormatFallsBackToJSONForBuffers(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(&buf, "info", "auto")
	Info(context.Background(), "hello")
	if !strings.HasPrefix(strings.TrimSpace(buf.String()), "{") {
		t.Fatalf("auto format on non-tty = %q, want json", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(&buf, "warn", "text")
	Info(context.Background(), "dropped")
	if buf.Len() != 0 {
		t.Fatalf("info logged at warn level: %q", buf.String())
	}
	Warn(context.Background(), "kept")
	if !strings.Contains(buf.String(), "kept") {
		t.Fatalf("warn not logged: %q", buf.String())
	}
}

func TestSlogDefaultCarriesContextKeys(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(&buf, "info", "json")

	ctx := WithContext(context.Background(), RequestIDKey, "req-7")
	slog.InfoContext(ctx, "via slog")

	var rec map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &rec); err != nil {
		t.Fatalf("decode log line: %v (%s)", err, buf.String())
	}
	if rec["request_id"] != "req-7" {
		t.Fatalf("request_id = %v, want req-7", rec["request_id"])
	}
}

func TestSourcePointsAtCaller(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(&buf, "info", "json")
	Info(context.Background(), "where")

	var rec struct {
		Source struct {
			File string `json:"file"`
		} `json:"source"`
	}
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &rec); err != nil {
		t.Fatalf("decode log line: %v", err)
	}
	if !strings.HasSuffix(rec.Source.File, "logger_test.go") {
		t.Fatalf("source file = %q, want logger_test.go", rec.Source.File)
	}
}

func TestFromContextDoesNotDuplicateKeys(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(&buf, "info", "text")

	ctx := WithContext(context.Background(), NovelIDKey, "n1")
	FromContext(ctx).Info("once")
	if got := strings.Count(buf.String(), "novel_id=n1"); got != 1 {
		t.Fatalf("novel_id written %d times, want 1: %q", got, buf.String())
	}
}
