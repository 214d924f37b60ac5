package integration

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/erp/connector/internal/domain/integration"
	"github.com/erp/connector/internal/infrastructure/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type countingResetter struct {
	resets int
}

func (r *countingResetter) Reset() {
	r.resets++
}

func newTestImportService(f *transformerFixture, config integration.ConfigService, options ImportServiceOptions) *VariationImportService {
	service := NewVariationImportService(f.transformer, f.referenceData, config, nil, options)
	clock := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	service.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	return service
}

func TestVariationImportService_Run(t *testing.T) {
	f := newTransformerFixture()
	f.repo.seed("2", integration.ObjectTypeProduct, "0f5e4d3c-2b1a-4c9d-8e7f-6a5b4c3d2e1f")
	cache := &countingResetter{}
	service := newTestImportService(f, mapConfigService{}, ImportServiceOptions{Caches: []Resetter{cache}})

	products := []integration.RawProduct{
		{ID: 1, Variations: []integration.RawVariant{{ID: 11, Number: "A", IsMain: true, Stock: inStock(1)}}},
		{ID: 3, Variations: []integration.RawVariant{{ID: 31, Number: "C", IsMain: true, Stock: inStock(1)}}},
		{ID: 2, Variations: []integration.RawVariant{{ID: 21, Number: "B", IsMain: true, Unit: &integration.RawUnit{UnitID: 42}, Stock: inStock(1)}}},
		{ID: 0},
	}

	report, err := service.Run(context.Background(), products)
	require.NoError(t, err)

	assert.Equal(t, integration.SyncStatusPartial, report.Status)
	assert.Equal(t, 4, report.TotalCount)
	assert.Equal(t, 1, report.SuccessCount)
	assert.Equal(t, 1, report.SkippedCount)
	assert.Equal(t, 2, report.FailedCount)
	require.Len(t, report.Failures, 2)
	assert.Equal(t, 2, report.Failures[0].ProductID)
	assert.Equal(t, FailureCodeUnitMappingNotFound, report.Failures[0].ErrorCode)
	assert.Equal(t, 0, report.Failures[1].ProductID)
	assert.Equal(t, FailureCodeInvalidProduct, report.Failures[1].ErrorCode)

	assert.Equal(t, []string{"A"}, numbers(report.Results.Variations()))
	assert.Len(t, report.Results.Stocks(), 1)
	assert.True(t, report.FinishedAt.After(report.StartedAt))
	assert.Equal(t, 1, cache.resets)
}

func TestVariationImportService_RunAppliesStoredPolicy(t *testing.T) {
	f := newTransformerFixture()
	config := mapConfigService{
		ConfigKeyImportVariationsWithoutStock: "false",
	}
	service := newTestImportService(f, config, ImportServiceOptions{})

	report, err := service.Run(context.Background(), []integration.RawProduct{{
		ID: 1,
		Variations: []integration.RawVariant{
			{ID: 11, Number: "A", IsMain: true, VariationAttributeValues: colorRed, Stock: inStock(0)},
			{ID: 12, Number: "B", VariationAttributeValues: colorRed, Stock: inStock(2)},
		},
	}})

	require.NoError(t, err)
	assert.Equal(t, integration.SyncStatusSuccess, report.Status)
	variations := report.Results.Variations()
	assert.Equal(t, []string{"B"}, numbers(variations))
	assert.True(t, variations[0].IsMain)
	assert.False(t, f.transformer.Policy().ImportVariationsWithoutStock)
}

func TestVariationImportService_RunResetsReferenceData(t *testing.T) {
	f := newTransformerFixture()
	service := newTestImportService(f, mapConfigService{}, ImportServiceOptions{})
	products := []integration.RawProduct{{
		ID:         1,
		Variations: []integration.RawVariant{{ID: 11, Number: "A", IsMain: true, VariationBarcodes: []integration.RawBarcode{{BarcodeID: 1, Code: "1"}}, Stock: inStock(1)}},
	}}

	_, err := service.Run(context.Background(), products)
	require.NoError(t, err)
	_, err = service.Run(context.Background(), products)
	require.NoError(t, err)

	f.barcodes.AssertNumberOfCalls(t, "FindAll", 2)
}

func TestVariationImportService_RunWarmsReferenceData(t *testing.T) {
	f := newTransformerFixture()
	service := newTestImportService(f, mapConfigService{}, ImportServiceOptions{WarmReferenceData: true})

	report, err := service.Run(context.Background(), nil)

	require.NoError(t, err)
	assert.Equal(t, integration.SyncStatusSuccess, report.Status)
	f.barcodes.AssertNumberOfCalls(t, "FindAll", 1)
	f.availabilities.AssertNumberOfCalls(t, "FindAll", 1)
}

func TestVariationImportService_RunPolicyFailure(t *testing.T) {
	f := newTransformerFixture()
	config := new(MockConfigService)
	config.On("Get", mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("no such table: connector_config"))
	service := newTestImportService(f, config, ImportServiceOptions{})

	report, err := service.Run(context.Background(), []integration.RawProduct{{ID: 1}})

	assert.Nil(t, report)
	assert.Error(t, err)
}

func TestVariationImportService_RunCancelled(t *testing.T) {
	f := newTransformerFixture()
	service := newTestImportService(f, mapConfigService{}, ImportServiceOptions{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := service.Run(ctx, []integration.RawProduct{
		{ID: 1, Variations: []integration.RawVariant{{ID: 11, IsMain: true, Stock: inStock(1)}}},
	})

	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, report)
	assert.Equal(t, 0, report.Results.Len())
}

func TestFailureCode(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{integration.ErrUnitMappingNotFound, FailureCodeUnitMappingNotFound},
		{integration.ErrReferenceDataFailure, FailureCodeReferenceData},
		{integration.ErrInvalidRawProduct, FailureCodeInvalidProduct},
		{errors.New("boom"), FailureCodeTransformFailed},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, failureCode(tt.err))
		})
	}
}

func TestToImportReportResponse(t *testing.T) {
	unit := "unit-1"
	result := integration.NewResultSet()
	result.Add(&integration.Media{Identifier: "m-1", Link: "https://cdn.example.com/a.jpg"})
	result.Add(&integration.Variation{
		Identifier:     "v-1",
		Number:         "A",
		IsMain:         true,
		UnitIdentifier: &unit,
		Barcodes:       []integration.Barcode{{Type: integration.BarcodeTypeUPC, Code: "0123"}},
	})
	result.Add(&integration.Stock{Identifier: "s-1", VariationIdentifier: "v-1"})
	report := &integration.ImportReport{
		Status:      integration.SyncStatusPartial,
		TotalCount:  2,
		FailedCount: 1,
		Failures:    []integration.ProductFailure{{ProductID: 9, ErrorCode: FailureCodeTransformFailed, ErrorMessage: "boom"}},
		Results:     result,
	}

	response := ToImportReportResponse(report)

	assert.Equal(t, integration.SyncStatusPartial, response.Status)
	require.Len(t, response.Failures, 1)
	assert.Equal(t, 9, response.Failures[0].ProductID)
	require.Len(t, response.Objects, 3)
	assert.Equal(t, integration.ObjectTypeMedia, response.Objects[0].Type)
	require.NotNil(t, response.Objects[1].Variation)
	assert.Equal(t, "A", response.Objects[1].Variation.Number)
	assert.Equal(t, &unit, response.Objects[1].Variation.UnitIdentifier)
	assert.Equal(t, integration.BarcodeTypeUPC, response.Objects[1].Variation.Barcodes[0].Type)
	require.NotNil(t, response.Objects[2].Stock)
	assert.Equal(t, "v-1", response.Objects[2].Stock.VariationIdentifier)
}

func TestVariationImportService_RunTagsLogsWithRunID(t *testing.T) {
	f := newTransformerFixture()
	core, logs := observer.New(zapcore.InfoLevel)
	service := NewVariationImportService(f.transformer, f.referenceData, mapConfigService{}, zap.New(core), ImportServiceOptions{})
	service.newRunID = func() string { return "run-42" }

	report, err := service.Run(context.Background(), []integration.RawProduct{{ID: 0}})
	require.NoError(t, err)

	assert.Equal(t, "run-42", report.RunID)
	require.NotZero(t, logs.Len())
	for _, entry := range logs.All() {
		assert.Equal(t, "run-42", entry.ContextMap()["run_id"], entry.Message)
	}
}

// newTestMetrics returns import metrics read through a manual reader
func newTestMetrics(t *testing.T) (*telemetry.ImportMetrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })
	metrics, err := telemetry.NewImportMetrics(provider.Meter("test"))
	require.NoError(t, err)
	return metrics, reader
}

// collectImportMetrics returns the product outcome counters and the number
// of recorded run durations
func collectImportMetrics(t *testing.T, reader *sdkmetric.ManualReader) (map[string]int64, uint64) {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	outcomes := make(map[string]int64)
	var runs uint64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			switch data := m.Data.(type) {
			case metricdata.Sum[int64]:
				if m.Name != "connector.import.products" {
					continue
				}
				for _, point := range data.DataPoints {
					outcome, _ := point.Attributes.Value(telemetry.AttrOutcome)
					outcomes[outcome.AsString()] = point.Value
				}
			case metricdata.Histogram[float64]:
				for _, point := range data.DataPoints {
					runs += point.Count
				}
			}
		}
	}
	return outcomes, runs
}

func TestVariationImportService_RunRecordsMetrics(t *testing.T) {
	metrics, reader := newTestMetrics(t)
	f := newTransformerFixture()
	service := newTestImportService(f, mapConfigService{}, ImportServiceOptions{Metrics: metrics})

	_, err := service.Run(context.Background(), []integration.RawProduct{
		{ID: 1, Variations: []integration.RawVariant{{ID: 11, Number: "A", IsMain: true, Stock: inStock(1)}}},
		{ID: 3, Variations: []integration.RawVariant{{ID: 31, Number: "C", IsMain: true, Stock: inStock(1)}}},
		{ID: 0},
	})
	require.NoError(t, err)

	outcomes, runs := collectImportMetrics(t, reader)
	assert.Equal(t, map[string]int64{
		telemetry.OutcomeSuccess: 1,
		telemetry.OutcomeSkipped: 1,
		telemetry.OutcomeFailed:  1,
	}, outcomes)
	assert.Equal(t, uint64(1), runs)
}

func TestVariationImportService_RunCancelledRecordsMetrics(t *testing.T) {
	metrics, reader := newTestMetrics(t)
	f := newTransformerFixture()
	service := newTestImportService(f, mapConfigService{}, ImportServiceOptions{Metrics: metrics})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := service.Run(ctx, []integration.RawProduct{
		{ID: 1, Variations: []integration.RawVariant{{ID: 11, Number: "A", IsMain: true, Stock: inStock(1)}}},
	})
	require.ErrorIs(t, err, context.Canceled)

	outcomes, runs := collectImportMetrics(t, reader)
	assert.Empty(t, outcomes)
	assert.Equal(t, uint64(1), runs)
}

func TestVariationImportService_RunSkipsMediaOnlyProducts(t *testing.T) {
	metrics, reader := newTestMetrics(t)
	f := newTransformerFixture()
	config := mapConfigService{
		ConfigKeyImportVariationsWithoutStock: "false",
	}
	service := newTestImportService(f, config, ImportServiceOptions{Metrics: metrics})

	report, err := service.Run(context.Background(), []integration.RawProduct{{
		ID: 1,
		Variations: []integration.RawVariant{{
			ID:     11,
			Number: "A",
			IsMain: true,
			Images: []integration.RawImage{{ID: 7, URL: "https://cdn.example.com/a.jpg", Position: 1}},
			Stock:  inStock(0),
		}},
	}})

	require.NoError(t, err)
	assert.Equal(t, 1, f.images.calls)
	assert.Equal(t, 0, report.SuccessCount)
	assert.Equal(t, 1, report.SkippedCount)
	assert.Zero(t, report.Results.Len())

	outcomes, _ := collectImportMetrics(t, reader)
	assert.Equal(t, map[string]int64{telemetry.OutcomeSkipped: 1}, outcomes)
}
