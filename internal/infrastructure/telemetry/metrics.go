package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/zap"
)

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	Enabled           bool
	CollectorEndpoint string
	ExportInterval    time.Duration // Default: 60s
	ServiceName       string
	Insecure          bool
}

// MeterProvider wraps the OpenTelemetry MeterProvider with lifecycle management.
type MeterProvider struct {
	provider *sdkmetric.MeterProvider
	logger   *zap.Logger
	config   MetricsConfig
}

// NewMeterProvider creates a MeterProvider exporting to an OTLP collector.
// If metrics are disabled, meters come from the no-op global provider.
func NewMeterProvider(ctx context.Context, cfg MetricsConfig, logger *zap.Logger) (*MeterProvider, error) {
	mp := &MeterProvider{
		logger: logger,
		config: cfg,
	}

	if !cfg.Enabled {
		logger.Debug("Metrics disabled, using no-op meter provider")
		return mp, nil
	}

	exportInterval := cfg.ExportInterval
	if exportInterval == 0 {
		exportInterval = 60 * time.Second
	}

	exporterOpts := []otlpmetricgrpc.Option{
		otlpmetricgrpc.WithEndpoint(cfg.CollectorEndpoint),
	}
	if cfg.Insecure {
		exporterOpts = append(exporterOpts, otlpmetricgrpc.WithInsecure())
	}
	exporter, err := otlpmetricgrpc.New(ctx, exporterOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP metrics exporter: %w", err)
	}

	res, err := newResource(cfg.ServiceName, "")
	if err != nil {
		return nil, err
	}

	mp.provider = sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(exportInterval))),
	)
	otel.SetMeterProvider(mp.provider)

	logger.Info("OpenTelemetry MeterProvider initialized",
		zap.String("collector_endpoint", cfg.CollectorEndpoint),
		zap.Duration("export_interval", exportInterval),
	)
	return mp, nil
}

// Shutdown flushes pending metrics and stops the provider
func (mp *MeterProvider) Shutdown(ctx context.Context) error {
	if mp.provider == nil {
		return nil
	}
	if err := mp.provider.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown meter provider: %w", err)
	}
	return nil
}

// Meter returns a named meter from the provider
func (mp *MeterProvider) Meter(name string, opts ...metric.MeterOption) metric.Meter {
	if mp.provider == nil {
		return otel.GetMeterProvider().Meter(name, opts...)
	}
	return mp.provider.Meter(name, opts...)
}

// IsEnabled returns whether metrics are exported
func (mp *MeterProvider) IsEnabled() bool {
	return mp.config.Enabled && mp.provider != nil
}

// ---------------------------------------------------------------------------
// Import run metrics
// ---------------------------------------------------------------------------

// Product outcomes recorded by ImportMetrics
const (
	OutcomeSuccess = "success"
	OutcomeSkipped = "skipped"
	OutcomeFailed  = "failed"
)

// AttrOutcome labels a product by its outcome
var AttrOutcome = attribute.Key("outcome")

// RunDurationBuckets are bucket boundaries for import run duration (seconds)
var RunDurationBuckets = []float64{0.1, 0.5, 1, 5, 10, 30, 60, 300, 900}

// ImportMetrics records the outcome of import runs
type ImportMetrics struct {
	products    metric.Int64Counter
	objects     metric.Int64Counter
	runDuration metric.Float64Histogram
}

// NewImportMetrics creates the import instruments on meter
func NewImportMetrics(meter metric.Meter) (*ImportMetrics, error) {
	products, err := meter.Int64Counter("connector.import.products",
		metric.WithDescription("Products processed by import runs"),
		metric.WithUnit("{product}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create products counter: %w", err)
	}

	objects, err := meter.Int64Counter("connector.import.objects",
		metric.WithDescription("Transfer objects produced by import runs"),
		metric.WithUnit("{object}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create objects counter: %w", err)
	}

	runDuration, err := meter.Float64Histogram("connector.import.run.duration",
		metric.WithDescription("Duration of import runs"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(RunDurationBuckets...),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create run duration histogram: %w", err)
	}

	return &ImportMetrics{products: products, objects: objects, runDuration: runDuration}, nil
}

// RecordProduct counts one product with its outcome and produced objects
func (m *ImportMetrics) RecordProduct(ctx context.Context, outcome string, objects int) {
	if m == nil {
		return
	}
	m.products.Add(ctx, 1, metric.WithAttributes(AttrOutcome.String(outcome)))
	if objects > 0 {
		m.objects.Add(ctx, int64(objects))
	}
}

// RecordRun records the duration of a finished run
func (m *ImportMetrics) RecordRun(ctx context.Context, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.runDuration.Record(ctx, d.Seconds(), metric.WithAttributes(attribute.String("status", status)))
}
