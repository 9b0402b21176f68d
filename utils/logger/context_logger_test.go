package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func decode(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func requestContext() context.Context {
	ctx := context.Background()
	ctx = WithRequestID(ctx, "req-123")
	ctx = WithUserID(ctx, "user-456")
	ctx = WithRole(ctx, "tenant")
	ctx = WithFlow(ctx, "sign_in")
	return ctx
}

func TestContextLogger_WithContext(t *testing.T) {
	var buf bytes.Buffer
	cl := NewContextLogger(slog.New(slog.NewJSONHandler(&buf, nil)))

	cl.WithContext(requestContext()).Info("test message")

	entry := decode(t, &buf)
	assert.Equal(t, "req-123", entry["request_id"])
	assert.Equal(t, "user-456", entry["user_id"])
	assert.Equal(t, "tenant", entry["role"])
	assert.Equal(t, "sign_in", entry["flow"])
}

func TestContextLogger_WithContext_PartialKeys(t *testing.T) {
	var buf bytes.Buffer
	cl := NewContextLogger(slog.New(slog.NewJSONHandler(&buf, nil)))

	cl.WithContext(WithUserID(context.Background(), "user-only")).Info("test message")

	entry := decode(t, &buf)
	assert.Equal(t, "user-only", entry["user_id"])
	for _, key := range []string{"request_id", "role", "flow"} {
		assert.NotContains(t, entry, key)
	}
}

func TestContextLogger_LogDuration(t *testing.T) {
	var buf bytes.Buffer
	cl := NewContextLogger(slog.New(slog.NewJSONHandler(&buf, nil)))

	cl.LogDuration(WithUserID(context.Background(), "user-timing"), "sign_up", 25*time.Millisecond)

	entry := decode(t, &buf)
	assert.Equal(t, "sign_up", entry["operation"])
	assert.Equal(t, float64(25), entry["duration_ms"])
	assert.Equal(t, "user-timing", entry["user_id"])
}

func TestContextLogger_LogError(t *testing.T) {
	var buf bytes.Buffer
	cl := NewContextLogger(slog.New(slog.NewJSONHandler(&buf, nil)))

	cl.LogError(WithFlow(context.Background(), "reset_password"), "reset_dispatch", errors.New("smtp down"))

	entry := decode(t, &buf)
	assert.Equal(t, "ERROR", entry["level"])
	assert.Equal(t, "reset_dispatch", entry["operation"])
	assert.Equal(t, "smtp down", entry["error"])
	assert.Equal(t, "reset_password", entry["flow"])
}

func TestTraceContextHandler(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewTraceContextHandler(slog.NewJSONHandler(&buf, nil)))

	tp := sdktrace.NewTracerProvider()
	defer func() { _ = tp.Shutdown(context.Background()) }()
	ctx, span := tp.Tracer("test").Start(requestContext(), "op")
	defer span.End()

	log.InfoContext(ctx, "inside span")

	entry := decode(t, &buf)
	assert.Equal(t, span.SpanContext().TraceID().String(), entry["trace_id"])
	assert.Equal(t, span.SpanContext().SpanID().String(), entry["span_id"])
	assert.Equal(t, "req-123", entry["request_id"])
	assert.Equal(t, "sign_in", entry["flow"])
}

func TestTraceContextHandler_NoSpan(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewTraceContextHandler(slog.NewJSONHandler(&buf, nil)))

	log.InfoContext(context.Background(), "no span")

	entry := decode(t, &buf)
	assert.NotContains(t, entry, "trace_id")
	assert.NotContains(t, entry, "span_id")
}

func TestInit_SetsDefaultAndLevel(t *testing.T) {
	original := slog.Default()
	defer slog.SetDefault(original)

	var buf bytes.Buffer
	log := initWithWriter(&buf, parseLevel("warn"), false)

	log.Info("dropped")
	assert.Zero(t, buf.Len())

	slog.WarnContext(WithRequestID(context.Background(), "req-9"), "kept")
	entry := decode(t, &buf)
	assert.Equal(t, "repair-desk", entry["service"])
	assert.Equal(t, "req-9", entry["request_id"])
	assert.NotNil(t, GlobalContext)
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, parseLevel(in), in)
	}
}

func TestMultiHandler_FansOut(t *testing.T) {
	var a, b bytes.Buffer
	h := NewMultiHandler(
		slog.NewJSONHandler(&a, &slog.HandlerOptions{Level: slog.LevelInfo}),
		slog.NewJSONHandler(&b, &slog.HandlerOptions{Level: slog.LevelError}),
	)
	log := slog.New(h).With("component", "test")

	log.Info("info only")
	assert.NotZero(t, a.Len())
	assert.Zero(t, b.Len())

	log.Error("both")
	assert.Contains(t, b.String(), `"component":"test"`)
}
