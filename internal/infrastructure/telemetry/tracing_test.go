package telemetry_test

import (
	"context"
	"errors"
	"testing"

	"github.com/erp/connector/internal/infrastructure/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// setupTestTracer installs a tracer provider recording spans in memory
func setupTestTracer(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()

	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))

	originalProvider := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(originalProvider)
		_ = tp.Shutdown(context.Background())
	})

	return sr
}

func attributeMap(attrs []attribute.KeyValue) map[attribute.Key]attribute.Value {
	values := make(map[attribute.Key]attribute.Value, len(attrs))
	for _, attr := range attrs {
		values[attr.Key] = attr.Value
	}
	return values
}

func TestRunAndProductSpans(t *testing.T) {
	sr := setupTestTracer(t)

	ctx, run := telemetry.StartRunSpan(context.Background(), "run-1", 3)
	_, product := telemetry.StartProductSpan(ctx, 7)
	telemetry.RecordObjects(product, 4)
	product.End()
	telemetry.RecordRunCounts(run, 1, 1, 1)
	run.End()

	spans := sr.Ended()
	require.Len(t, spans, 2)
	productSpan, runSpan := spans[0], spans[1]

	assert.Equal(t, telemetry.SpanProduct, productSpan.Name())
	assert.Equal(t, runSpan.SpanContext().SpanID(), productSpan.Parent().SpanID())
	productAttrs := attributeMap(productSpan.Attributes())
	assert.Equal(t, int64(7), productAttrs[telemetry.AttrProductID].AsInt64())
	assert.Equal(t, int64(4), productAttrs[telemetry.AttrObjectCount].AsInt64())

	assert.Equal(t, telemetry.SpanRun, runSpan.Name())
	runAttrs := attributeMap(runSpan.Attributes())
	assert.Equal(t, "run-1", runAttrs[telemetry.AttrRunID].AsString())
	assert.Equal(t, int64(3), runAttrs[telemetry.AttrProductCount].AsInt64())
	assert.Equal(t, int64(1), runAttrs[telemetry.AttrFailedCount].AsInt64())
}

func TestRecordError(t *testing.T) {
	sr := setupTestTracer(t)

	_, span := telemetry.StartProductSpan(context.Background(), 2)
	telemetry.RecordError(span, errors.New("missing mapping for unit"), "UNIT_MAPPING_NOT_FOUND")
	span.End()

	ended := sr.Ended()[0]
	assert.Equal(t, codes.Error, ended.Status().Code)
	assert.Equal(t, "missing mapping for unit", ended.Status().Description)
	assert.Equal(t, "UNIT_MAPPING_NOT_FOUND", attributeMap(ended.Attributes())[telemetry.AttrFailureCode].AsString())
	require.Len(t, ended.Events(), 1)
	assert.Equal(t, "exception", ended.Events()[0].Name)
}

func TestRecordError_NilError(t *testing.T) {
	sr := setupTestTracer(t)

	_, span := telemetry.StartRunSpan(context.Background(), "run-2", 0)
	telemetry.RecordError(span, nil, "")
	span.End()

	assert.Equal(t, codes.Unset, sr.Ended()[0].Status().Code)
}

func TestMarkSkipped(t *testing.T) {
	sr := setupTestTracer(t)

	_, span := telemetry.StartProductSpan(context.Background(), 9)
	telemetry.MarkSkipped(span)
	span.End()

	events := sr.Ended()[0].Events()
	require.Len(t, events, 1)
	assert.Equal(t, telemetry.EventProductSkipped, events[0].Name)
}

func TestNilSpanHelpers(t *testing.T) {
	assert.NotPanics(t, func() {
		telemetry.RecordRunCounts(nil, 1, 2, 3)
		telemetry.RecordObjects(nil, 1)
		telemetry.MarkSkipped(nil)
		telemetry.RecordError(nil, errors.New("boom"), "")
	})
}
