package logging

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		raw     string
		want    Level
		wantErr bool
	}{
		{raw: "", want: LevelInfo},
		{raw: "DEBUG", want: LevelDebug},
		{raw: " warning ", want: LevelWarn},
		{raw: "error", want: LevelError},
		{raw: "verbose", wantErr: true},
	}

	for _, tc := range tests {
		got, err := ParseLevel(tc.raw)
		if tc.wantErr {
			require.Error(t, err, tc.raw)
			continue
		}
		require.NoError(t, err, tc.raw)
		require.Equal(t, tc.want, got, tc.raw)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	_, err := New(Options{Format: "xml"})
	require.Error(t, err)
}

func TestLoggerWritesStructuredFields(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Level: LevelInfo, Service: "card-draft", Environment: "test", Output: &buf})
	require.NoError(t, err)

	logger.Debug("hidden")
	logger.With("draft_id", "d1").Warn("draft mutation gave up", "attempts", 3, "error", errors.New("conflict"))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, sonic.UnmarshalString(lines[0], &entry))
	require.Equal(t, "WARN", entry["level"])
	require.Equal(t, "draft mutation gave up", entry["msg"])
	require.Equal(t, "card-draft", entry["service"])
	require.Equal(t, "test", entry["env"])
	require.Equal(t, "d1", entry["draft_id"])
	require.EqualValues(t, 3, entry["attempts"])
	require.Equal(t, "conflict", entry["error"])
}

func TestContextLoggingAddsTraceIDs(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Output: &buf})
	require.NoError(t, err)

	traceID, _ := trace.TraceIDFromHex("0102030405060708090a0b0c0d0e0f10")
	spanID, _ := trace.SpanIDFromHex("0102030405060708")
	ctx := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	}))

	logger.InfoContext(ctx, "draft updated")

	var entry map[string]any
	require.NoError(t, sonic.UnmarshalString(strings.TrimSpace(buf.String()), &entry))
	require.Equal(t, traceID.String(), entry["trace_id"])
	require.Equal(t, spanID.String(), entry["span_id"])
}

func TestZapFieldsOddArgs(t *testing.T) {
	fields := zapFields([]any{"draft_id", "d1", 42, "x", "dangling"})
	require.Len(t, fields, 3)
	require.Equal(t, "draft_id", fields[0].Key)
	require.Equal(t, "arg", fields[1].Key)
	require.Equal(t, "dangling", fields[2].Key)
}

func TestNilLoggerFallsBackToDefault(t *testing.T) {
	var l *Logger
	l.Info("no panic")
	require.NotNil(t, l.With("k", "v"))
	require.NoError(t, l.Sync())
}
