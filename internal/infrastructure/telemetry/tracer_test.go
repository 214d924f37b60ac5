package telemetry_test

import (
	"context"
	"testing"

	"github.com/erp/connector/internal/infrastructure/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap/zaptest"
)

func TestNewTracerProvider_Disabled(t *testing.T) {
	ctx := context.Background()

	tp, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		CollectorEndpoint: "localhost:4317",
		SamplingRatio:     1.0,
		ServiceName:       "erp-connector",
	}, zaptest.NewLogger(t))
	require.NoError(t, err)

	assert.False(t, tp.IsEnabled())
	assert.NoError(t, tp.Shutdown(ctx))
}

func TestNewTracerProvider_Enabled(t *testing.T) {
	// the gRPC exporter connects lazily, so no collector is needed to start
	if testing.Short() {
		t.Skip("Skipping exporter test in short mode")
	}

	original := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(original) })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	tp, err := telemetry.NewTracerProvider(context.Background(), telemetry.Config{
		Enabled:           true,
		CollectorEndpoint: "localhost:4317",
		SamplingRatio:     0.5,
		ServiceName:       "erp-connector",
		Insecure:          true,
	}, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.True(t, tp.IsEnabled())

	_, span := telemetry.StartRunSpan(context.Background(), "run-1", 0)
	span.End()

	// a cancelled context stops the final export attempt
	_ = tp.Shutdown(ctx)
}
