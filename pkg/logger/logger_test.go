package logger

import (
	"context"
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestTraceIDContext(t *testing.T) {
	ctx := ContextWithTraceID(context.Background(), "abc123")
	if got := TraceIDFromContext(ctx); got != "abc123" {
		t.Errorf("Expected trace ID 'abc123', got '%s'", got)
	}
	if got := TraceIDFromContext(context.Background()); got != "" {
		t.Errorf("Expected empty trace ID, got '%s'", got)
	}
}

func TestNilLoggerIsSafe(t *testing.T) {
	Log = nil
	FromContext(context.Background()).Info("dropped")
	WithTraceID("x").Info("dropped")
	Info("dropped")
	Sync()
}

func TestParseLevel(t *testing.T) {
	tests := map[string]zapcore.Level{
		"debug": zapcore.DebugLevel,
		"warn":  zapcore.WarnLevel,
		"error": zapcore.ErrorLevel,
		"info":  zapcore.InfoLevel,
		"bogus": zapcore.InfoLevel,
	}
	for in, want := range tests {
		if got := parseLevel(in); got != want {
			t.Errorf("parseLevel(%q): expected %v, got %v", in, want, got)
		}
	}
}
