package log

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			t.Fatalf("decode %q: %v", line, err)
		}
		out = append(out, m)
	}
	return out
}

func TestLogger_Component(t *testing.T) {
	var buf bytes.Buffer
	root := New(Config{Level: slog.LevelInfo, Component: ComponentApp, JSON: true, Output: &buf})

	root.Info("root")
	root.With("k", "v").WithComponent(ComponentAuth).Info("child")
	root.Debug("hidden")

	lines := decodeLines(t, &buf)
	if len(lines) != 2 {
		t.Fatalf("expected 2 records, got %d: %s", len(lines), buf.String())
	}
	if lines[0][FieldComponent] != ComponentApp {
		t.Errorf("root component = %v", lines[0][FieldComponent])
	}
	if lines[1][FieldComponent] != ComponentAuth {
		t.Errorf("child component = %v", lines[1][FieldComponent])
	}
	if _, ok := lines[1]["k"]; ok {
		t.Error("WithComponent should start from the root handler")
	}
	if strings.Count(buf.String(), `"component"`) != 2 {
		t.Errorf("component attribute repeated: %s", buf.String())
	}
}

func TestLogFields_ToSlice(t *testing.T) {
	got := NewFields().
		WithOperation(OpExport).
		WithComponent(ComponentTransactions).
		WithError(nil).
		WithRequestID("").
		ToSlice()
	want := []any{FieldComponent, ComponentTransactions, FieldOperation, OpExport}
	if len(got) != len(want) {
		t.Fatalf("ToSlice() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("ToSlice() = %v, want %v", got, want)
		}
	}
}

func TestContextLogger(t *testing.T) {
	if l := FromContext(context.Background()); l == nil || l.Component() != "unknown" {
		t.Fatalf("fallback logger = %+v", l)
	}

	var buf bytes.Buffer
	logger := New(Config{Component: ComponentHTTP, JSON: true, Output: &buf})
	h := Middleware(logger)(RequestIDMiddleware(func(*http.Request) string { return "req-1" })(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			FromContext(r.Context()).Info("inside")
		})))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	lines := decodeLines(t, &buf)
	if len(lines) != 1 || lines[0][FieldRequestID] != "req-1" {
		t.Fatalf("unexpected records %v", lines)
	}
}

func TestStructuredLogger_LogHTTPEnd_Levels(t *testing.T) {
	tests := []struct {
		status int
		level  string
	}{
		{200, "INFO"},
		{404, "WARN"},
		{500, "ERROR"},
	}
	for _, tt := range tests {
		var buf bytes.Buffer
		sl := NewStructuredLogger(New(Config{Component: ComponentHTTP, JSON: true, Output: &buf}))
		r := httptest.NewRequest(http.MethodGet, "/transactions?page=2", nil)
		sl.LogHTTPEnd(context.Background(), r, "req-2", tt.status, 12, "10.0.0.1")

		lines := decodeLines(t, &buf)
		if len(lines) != 1 {
			t.Fatalf("status %d: expected one record", tt.status)
		}
		rec := lines[0]
		if rec["level"] != tt.level || rec[FieldQuery] != "page=2" || rec[FieldSuccess] != (tt.status < 400) {
			t.Errorf("status %d: unexpected record %v", tt.status, rec)
		}
	}

	var buf bytes.Buffer
	sl := NewStructuredLogger(New(Config{JSON: true, Output: &buf}))
	sl.LogError(context.Background(), "failed", errors.New("boom"), OpSummary, nil)
	if rec := decodeLines(t, &buf)[0]; rec[FieldError] != "boom" || rec[FieldOperation] != OpSummary {
		t.Errorf("unexpected error record %v", rec)
	}
}
