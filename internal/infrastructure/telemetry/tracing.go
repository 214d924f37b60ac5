package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the tracer used for import spans
const TracerName = "erp-connector/import"

// Span names
const (
	SpanRun     = "variation_import.run"
	SpanProduct = "variation_import.product"
)

// Span attributes of import runs
var (
	AttrRunID        = attribute.Key("connector.run.id")
	AttrProductCount = attribute.Key("connector.run.products")
	AttrSuccessCount = attribute.Key("connector.run.success")
	AttrSkippedCount = attribute.Key("connector.run.skipped")
	AttrFailedCount  = attribute.Key("connector.run.failed")
	AttrProductID    = attribute.Key("connector.product.id")
	AttrObjectCount  = attribute.Key("connector.product.objects")
	AttrFailureCode  = attribute.Key("connector.product.failure_code")
)

// EventProductSkipped marks a product that produced no objects
const EventProductSkipped = "product_skipped"

func tracer() trace.Tracer {
	return otel.Tracer(TracerName)
}

// StartRunSpan opens the span of one import run. The caller ends it.
//
//	ctx, span := telemetry.StartRunSpan(ctx, runID, len(products))
//	defer span.End()
func StartRunSpan(ctx context.Context, runID string, products int) (context.Context, trace.Span) {
	return tracer().Start(ctx, SpanRun,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(AttrRunID.String(runID), AttrProductCount.Int(products)),
	)
}

// StartProductSpan opens the child span of one product of a run
func StartProductSpan(ctx context.Context, productID int) (context.Context, trace.Span) {
	return tracer().Start(ctx, SpanProduct,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(AttrProductID.Int(productID)),
	)
}

// RecordRunCounts adds the final product counts to a run span
func RecordRunCounts(span trace.Span, success, skipped, failed int) {
	if span == nil {
		return
	}
	span.SetAttributes(
		AttrSuccessCount.Int(success),
		AttrSkippedCount.Int(skipped),
		AttrFailedCount.Int(failed),
	)
}

// RecordObjects adds the number of produced transfer objects to a product span
func RecordObjects(span trace.Span, objects int) {
	if span == nil {
		return
	}
	span.SetAttributes(AttrObjectCount.Int(objects))
}

// MarkSkipped adds the skip event to a product span
func MarkSkipped(span trace.Span) {
	if span == nil {
		return
	}
	span.AddEvent(EventProductSkipped)
}

// RecordError records err on the span and marks the span failed. A non-empty
// code is attached as the failure code.
func RecordError(span trace.Span, err error, code string) {
	if span == nil || err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	if code != "" {
		span.SetAttributes(AttrFailureCode.String(code))
	}
}
