package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	return out
}

func TestNew_MasksSecrets(t *testing.T) {
	var buf bytes.Buffer
	log, err := New("viacarona", "json", "info", &buf)
	require.NoError(t, err)

	log.Info("login submitted", "email", "ana@example.com", "password", "hunter22", "token", "eyJ")

	line := decodeLine(t, &buf)
	assert.Equal(t, "ana@example.com", line["email"])
	assert.Equal(t, redacted, line["password"])
	assert.Equal(t, redacted, line["token"])
	assert.Equal(t, "viacarona", line["service"])
}

func TestNew_AddsTraceIdentifiers(t *testing.T) {
	var buf bytes.Buffer
	log, err := New("viacarona", "json", "debug", &buf)
	require.NoError(t, err)

	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	sc := trace.NewSpanContext(trace.SpanContextConfig{TraceID: traceID, SpanID: spanID})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	log.DebugContext(ctx, "resend scheduled")

	line := decodeLine(t, &buf)
	assert.Equal(t, traceID.String(), line["trace_id"])
	assert.Equal(t, spanID.String(), line["span_id"])
}

func TestNew_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	log, err := New("", "text", "warn", &buf)
	require.NoError(t, err)

	log.Info("hidden")
	assert.Zero(t, buf.Len())
	log.Warn("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestNew_RejectsUnknownSettings(t *testing.T) {
	_, err := New("", "xml", "info", nil)
	assert.Error(t, err)
	_, err = New("", "json", "loud", nil)
	assert.Error(t, err)
}

func TestParseLevel(t *testing.T) {
	lvl, err := ParseLevel("")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelInfo, lvl)

	lvl, err = ParseLevel("ERROR")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelError, lvl)
}
