package telemetry

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/log"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// recordingExporter keeps exported log records in memory
type recordingExporter struct {
	mu      sync.Mutex
	records []sdklog.Record
}

func (e *recordingExporter) Export(_ context.Context, records []sdklog.Record) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, r := range records {
		e.records = append(e.records, r.Clone())
	}
	return nil
}

func (e *recordingExporter) Shutdown(context.Context) error   { return nil }
func (e *recordingExporter) ForceFlush(context.Context) error { return nil }

func (e *recordingExporter) bodies() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	bodies := make([]string, 0, len(e.records))
	for _, r := range e.records {
		bodies = append(bodies, r.Body().AsString())
	}
	return bodies
}

func TestNewLoggerProvider_Disabled(t *testing.T) {
	ctx := context.Background()

	lp, err := NewLoggerProvider(ctx, LogsConfig{
		Enabled:           false,
		CollectorEndpoint: "localhost:4317",
		ServiceName:       "connector-test",
	}, zap.NewNop())
	require.NoError(t, err)

	assert.False(t, lp.IsEnabled())
	assert.NoError(t, lp.Shutdown(ctx))
}

func TestLoggerProvider_TeeDisabledKeepsLogger(t *testing.T) {
	lp, err := NewLoggerProvider(context.Background(), LogsConfig{}, zap.NewNop())
	require.NoError(t, err)

	base := zap.NewExample()
	assert.Same(t, base, lp.Tee(base))
}

func TestLoggerProvider_TeeExportsAtLoggerLevel(t *testing.T) {
	exporter := &recordingExporter{}
	provider := sdklog.NewLoggerProvider(sdklog.WithProcessor(sdklog.NewSimpleProcessor(exporter)))
	lp := &LoggerProvider{provider: provider, name: "connector-test", logger: zap.NewNop()}
	t.Cleanup(func() { _ = lp.Shutdown(context.Background()) })

	core, logs := observer.New(zapcore.InfoLevel)
	teed := lp.Tee(zap.New(core))

	teed.Debug("Variation stock is empty, skipping")
	teed.Info("Import run finished", zap.String("status", "SUCCESS"))
	teed.With(zap.String("run_id", "run-1")).Warn("Import run cancelled")

	assert.Equal(t, 2, logs.Len())
	assert.Equal(t, []string{"Import run finished", "Import run cancelled"}, exporter.bodies())

	exporter.mu.Lock()
	defer exporter.mu.Unlock()
	assert.Equal(t, log.SeverityWarn, exporter.records[1].Severity())
}
