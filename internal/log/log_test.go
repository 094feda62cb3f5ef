package log

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestLevelForStatus(t *testing.T) {
	tests := map[int]slog.Level{
		200: slog.LevelInfo,
		204: slog.LevelInfo,
		401: slog.LevelWarn,
		422: slog.LevelWarn,
		500: slog.LevelError,
	}
	for code, want := range tests {
		if got := LevelForStatus(code); got != want {
			t.Errorf("LevelForStatus(%d) = %v, want %v", code, got, want)
		}
	}
}

func TestLoggerTagsComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelDebug, Component: ComponentStorage, Output: &buf})

	logger.Info("Expense saved", "id", 1)
	logger.WithComponent(ComponentAMQP).Warn("Broker down")

	out := buf.String()
	if !strings.Contains(out, "component=storage") || !strings.Contains(out, "id=1") {
		t.Errorf("missing storage record fields: %s", out)
	}
	if !strings.Contains(out, "component=amqp") {
		t.Errorf("missing amqp component: %s", out)
	}
}

func TestStructuredLoggerHTTPEnd(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(New(Config{Level: slog.LevelDebug, Output: &buf}))
	r := httptest.NewRequest("GET", "/api/expenses?start=2024-01-01", nil)

	sl.LogHTTPEnd(context.Background(), r, "req-1", 422, 3, "10.0.0.1")

	out := buf.String()
	for _, want := range []string{"level=WARN", "status_code=422", "request_id=req-1", "component=http", "success=false"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in %s", want, out)
		}
	}
}

func TestLogError(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(New(Config{Level: slog.LevelInfo, Output: &buf}))

	sl.LogError(context.Background(), "Failed to add expense", errors.New("disk full"), ComponentExpense, OpCreate,
		NewFields().WithUserID(7).WithErrorType(ErrorTypeDatabase))

	out := buf.String()
	for _, want := range []string{"level=ERROR", `error="disk full"`, "operation=create", "component=expense", "user_id=7"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in %s", want, out)
		}
	}
}

func TestFromContextFallsBack(t *testing.T) {
	if FromContext(context.Background()) == nil {
		t.Fatal("expected default logger")
	}
	l := New(DefaultConfig())
	if FromContext(WithLogger(context.Background(), l)) != l {
		t.Error("expected stored logger")
	}
}
