package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func newJSONLogger(buf *bytes.Buffer, level string) *Logger {
	return NewWithWriter(buf, &Config{Level: level, Format: "json"}, "mediator")
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	line := strings.TrimSpace(buf.String())
	if line == "" {
		t.Fatal("expected a log line, got nothing")
	}
	var m map[string]interface{}
	if err := json.Unmarshal([]byte(line), &m); err != nil {
		t.Fatalf("invalid json log line %q: %v", line, err)
	}
	return m
}

func TestNewDefault(t *testing.T) {
	l := NewDefault("test-svc")
	if l == nil {
		t.Fatal("expected non-nil logger")
	}
	if l.service != "test-svc" {
		t.Errorf("expected service 'test-svc', got %q", l.service)
	}
}

func TestNewInvalidLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	l := newJSONLogger(&buf, "invalid-level")
	l.Debug("hidden")
	if buf.Len() != 0 {
		t.Fatalf("expected debug to be filtered at info level, got %q", buf.String())
	}
	l.Info("shown")
	if buf.Len() == 0 {
		t.Fatal("expected info line")
	}
}

func TestJSONOutputCarriesServiceAndFields(t *testing.T) {
	var buf bytes.Buffer
	l := newJSONLogger(&buf, "debug")
	l.WithComponent("registry").Info("handler registered", Fields(FieldRequestType, "Ping"))

	m := decodeLine(t, &buf)
	if m[FieldService] != "mediator" {
		t.Errorf("expected service=mediator, got %v", m[FieldService])
	}
	if m[FieldComponent] != "registry" {
		t.Errorf("expected component=registry, got %v", m[FieldComponent])
	}
	if m[FieldRequestType] != "Ping" {
		t.Errorf("expected request_type=Ping, got %v", m[FieldRequestType])
	}
	if m["message"] != "handler registered" {
		t.Errorf("unexpected message %v", m["message"])
	}
}

func TestWithContextAddsRequestAndTraceIDs(t *testing.T) {
	var buf bytes.Buffer
	l := newJSONLogger(&buf, "info")

	ctx := WithRequestID(context.Background(), "req-1")
	ctx = WithTraceID(ctx, "trace-1")
	l.WithContext(ctx).Info("dispatched")

	m := decodeLine(t, &buf)
	if m[FieldRequestID] != "req-1" {
		t.Errorf("expected request_id=req-1, got %v", m[FieldRequestID])
	}
	if m[FieldTraceID] != "trace-1" {
		t.Errorf("expected trace_id=trace-1, got %v", m[FieldTraceID])
	}
}

func TestWithContextEmpty(t *testing.T) {
	var buf bytes.Buffer
	newJSONLogger(&buf, "info").WithContext(context.Background()).Info("x")
	m := decodeLine(t, &buf)
	if _, ok := m[FieldRequestID]; ok {
		t.Error("expected no request_id without one in context")
	}
}

func TestWithError(t *testing.T) {
	var buf bytes.Buffer
	newJSONLogger(&buf, "info").WithError(os.ErrNotExist).Error("failed")
	m := decodeLine(t, &buf)
	if m["error"] != os.ErrNotExist.Error() {
		t.Errorf("expected error field, got %v", m["error"])
	}
}

func TestNopDiscards(t *testing.T) {
	l := Nop()
	l.Info("nothing", Fields("k", "v"))
	l.WithComponent("x").WithRequestType("Ping").Error("still nothing")
	if l.Level() != zerolog.Disabled {
		t.Errorf("expected disabled level, got %s", l.Level())
	}
}

func TestWithRequestType(t *testing.T) {
	var buf bytes.Buffer
	newJSONLogger(&buf, "debug").WithRequestType("orders.PlaceOrder").Debug("handled")
	m := decodeLine(t, &buf)
	if m[FieldRequestType] != "orders.PlaceOrder" {
		t.Errorf("expected request_type, got %v", m[FieldRequestType])
	}
}

func TestLevel(t *testing.T) {
	var buf bytes.Buffer
	if got := newJSONLogger(&buf, "warn").Level(); got != zerolog.WarnLevel {
		t.Errorf("expected warn, got %s", got)
	}
}

func TestConsoleFormatTagsService(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, &Config{Level: "info", Format: FormatConsole, NoColor: true}, "orders")
	l.Info("hello")
	out := buf.String()
	if !strings.Contains(out, "[ORD][INF]") {
		t.Errorf("expected service and level tags, got %q", out)
	}
	if !strings.Contains(out, "hello") {
		t.Errorf("expected message, got %q", out)
	}
}

func TestInitAndGlobalLogger(t *testing.T) {
	prev := globalLogger
	defer SetGlobalLogger(prev)

	Init(Config{Level: "debug", Format: "json", ServiceName: "svc"})
	if GetGlobalLogger().service != "svc" {
		t.Errorf("expected global service 'svc', got %q", GetGlobalLogger().service)
	}

	SetGlobalLogger(nil)
	if GetGlobalLogger() == nil {
		t.Fatal("expected a default global logger")
	}
	Info("info")
	Warn("warn")
}

func TestConfigApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()
	if cfg.Level != "info" || cfg.Format != "console" || cfg.Output != "stdout" {
		t.Errorf("unexpected defaults %+v", cfg)
	}
	if !cfg.Timestamp {
		t.Error("expected timestamp enabled")
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"valid json", Config{Level: "info", Format: "json"}, false},
		{"valid console", Config{Level: "debug", Format: "console"}, false},
		{"bad level", Config{Level: "loud", Format: "json"}, true},
		{"bad format", Config{Level: "info", Format: "xml"}, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if (err != nil) != tc.wantErr {
				t.Fatalf("expected error=%v, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestFields(t *testing.T) {
	m := Fields("a", 1, "b", "two", 3, "ignored", "dangling")
	if len(m) != 2 {
		t.Fatalf("expected 2 fields, got %v", m)
	}
	if m["a"] != 1 || m["b"] != "two" {
		t.Errorf("unexpected fields %v", m)
	}
}

func TestErrorAndDurationFields(t *testing.T) {
	ef := ErrorFields("send", os.ErrClosed)
	if ef[FieldOperation] != "send" || ef[FieldError] != os.ErrClosed.Error() {
		t.Errorf("unexpected error fields %v", ef)
	}
	df := DurationFields("send", 1500*time.Millisecond)
	if df[FieldDuration] != int64(1500) {
		t.Errorf("expected 1500ms, got %v", df[FieldDuration])
	}
}
