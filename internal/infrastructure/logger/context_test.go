package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestFromContext(t *testing.T) {
	logger := zap.NewExample()

	assert.Same(t, logger, FromContext(WithContext(context.Background(), logger)))
	assert.NotNil(t, FromContext(context.Background()))
}

func TestWithRunID(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)

	ctx, enriched := WithRunID(context.Background(), zap.New(core), "run-1")
	enriched.Info("import started")
	FromContext(ctx).Info("from context")

	assert.Equal(t, "run-1", GetRunID(ctx))
	assert.Equal(t, "", GetRunID(context.Background()))
	for _, entry := range logs.All() {
		assert.Equal(t, "run-1", entry.ContextMap()["run_id"])
	}
	assert.Equal(t, 2, logs.Len())
}

func TestL_AddsTraceContext(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	provider := sdktrace.NewTracerProvider()
	defer func() { _ = provider.Shutdown(context.Background()) }()

	ctx := WithContext(context.Background(), zap.New(core))
	L(ctx).Info("without span")

	ctx, span := provider.Tracer("test").Start(ctx, "op")
	L(ctx).Info("with span")
	span.End()

	entries := logs.All()
	assert.Len(t, entries, 2)
	assert.NotContains(t, entries[0].ContextMap(), "trace_id")
	assert.Equal(t, span.SpanContext().TraceID().String(), entries[1].ContextMap()["trace_id"])
	assert.Equal(t, span.SpanContext().SpanID().String(), entries[1].ContextMap()["span_id"])
}
