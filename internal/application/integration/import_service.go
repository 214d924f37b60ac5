package integration

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/erp/connector/internal/domain/integration"
	"github.com/erp/connector/internal/infrastructure/logger"
	"github.com/erp/connector/internal/infrastructure/telemetry"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Failure codes recorded in the import report
const (
	FailureCodeInvalidProduct      = "INVALID_PRODUCT"
	FailureCodeUnitMappingNotFound = "UNIT_MAPPING_NOT_FOUND"
	FailureCodeReferenceData       = "REFERENCE_DATA_FAILURE"
	FailureCodeTransformFailed     = "TRANSFORM_FAILED"
)

// Resetter is a cache scoped to one run
type Resetter interface {
	Reset()
}

// ImportServiceOptions configures a VariationImportService
type ImportServiceOptions struct {
	// WarmReferenceData prefetches barcode and shipping data before a run
	WarmReferenceData bool
	// Caches are reset at the start of every run, next to the reference data
	Caches []Resetter
	// Metrics records product outcomes and run durations; nil records nothing
	Metrics *telemetry.ImportMetrics
}

// VariationImportService runs the transformation of a batch of products
type VariationImportService struct {
	transformer   *VariationTransformer
	referenceData *ReferenceData
	config        integration.ConfigService
	validate      *validator.Validate
	logger        *zap.Logger
	options       ImportServiceOptions
	now           func() time.Time
	newRunID      func() string
}

// NewVariationImportService creates a new VariationImportService
func NewVariationImportService(
	transformer *VariationTransformer,
	referenceData *ReferenceData,
	config integration.ConfigService,
	zapLogger *zap.Logger,
	options ImportServiceOptions,
) *VariationImportService {
	if zapLogger == nil {
		zapLogger = zap.NewNop()
	}
	return &VariationImportService{
		transformer:   transformer,
		referenceData: referenceData,
		config:        config,
		validate:      validator.New(),
		logger:        zapLogger.Named("variation_import"),
		options:       options,
		now:           time.Now,
		newRunID:      uuid.NewString,
	}
}

// Run starts a new run and transforms the products in input order.
//
// Caches are reset and the policy snapshot is resolved once before the first
// product. A product that fails contributes no objects to the report
// results; its failure is recorded and the run continues. Run returns an
// error only when the run cannot start or the context is cancelled.
func (s *VariationImportService) Run(ctx context.Context, products []integration.RawProduct) (*integration.ImportReport, error) {
	runID := s.newRunID()
	ctx, runLogger := logger.WithRunID(ctx, s.logger, runID)
	ctx, span := telemetry.StartRunSpan(ctx, runID, len(products))
	defer span.End()

	report := &integration.ImportReport{
		RunID:      runID,
		Status:     integration.SyncStatusInProgress,
		TotalCount: len(products),
		Failures:   make([]integration.ProductFailure, 0),
		Results:    integration.NewResultSet(),
		StartedAt:  s.now(),
	}

	if err := s.startRun(ctx, runLogger); err != nil {
		telemetry.RecordError(span, err, "")
		return nil, err
	}

	for i := range products {
		if err := ctx.Err(); err != nil {
			telemetry.RecordError(span, err, "")
			report.Finish(s.now())
			s.recordRun(ctx, span, report)
			runLogger.Warn("Import run cancelled",
				zap.Int("processed", report.SuccessCount+report.SkippedCount+report.FailedCount),
				zap.Int("total", report.TotalCount),
			)
			return report, err
		}
		s.importProduct(ctx, &products[i], report)
	}

	report.Finish(s.now())
	s.recordRun(ctx, span, report)

	runLogger.Info("Import run finished",
		zap.String("status", report.Status.String()),
		zap.Int("total", report.TotalCount),
		zap.Int("success", report.SuccessCount),
		zap.Int("skipped", report.SkippedCount),
		zap.Int("failed", report.FailedCount),
		zap.Int("objects", report.Results.Len()),
		zap.Duration("duration", report.FinishedAt.Sub(report.StartedAt)),
	)

	return report, nil
}

// recordRun exports the totals of a finished or cancelled run
func (s *VariationImportService) recordRun(ctx context.Context, span trace.Span, report *integration.ImportReport) {
	s.options.Metrics.RecordRun(context.WithoutCancel(ctx), report.Status.String(), report.FinishedAt.Sub(report.StartedAt))
	telemetry.RecordRunCounts(span, report.SuccessCount, report.SkippedCount, report.FailedCount)
}

// startRun resets the run scoped caches and resolves the policy snapshot
func (s *VariationImportService) startRun(ctx context.Context, runLogger *zap.Logger) error {
	s.referenceData.Reset()
	for _, cache := range s.options.Caches {
		cache.Reset()
	}

	policy, err := LoadImportPolicy(ctx, s.config)
	if err != nil {
		return fmt.Errorf("load import policy: %w", err)
	}
	s.transformer.SetPolicy(policy)

	runLogger.Debug("Import policy resolved",
		zap.Bool("import_variations_without_stock", policy.ImportVariationsWithoutStock),
		zap.Bool("check_active_main_variation", policy.CheckActiveMainVariation),
		zap.String("variation_number_field", policy.VariationNumberField),
	)

	if s.options.WarmReferenceData {
		if err := s.referenceData.Warm(ctx); err != nil {
			return fmt.Errorf("warm reference data: %w", err)
		}
	}
	return nil
}

func (s *VariationImportService) importProduct(ctx context.Context, product *integration.RawProduct, report *integration.ImportReport) {
	ctx, span := telemetry.StartProductSpan(ctx, product.ID)
	defer span.End()

	productLogger := logger.L(ctx).With(zap.Int("product_id", product.ID))

	if err := s.validate.Struct(product); err != nil {
		err = fmt.Errorf("%w: %w", integration.ErrInvalidRawProduct, err)
		telemetry.RecordError(span, err, FailureCodeInvalidProduct)
		s.fail(report, product.ID, FailureCodeInvalidProduct, err)
		s.options.Metrics.RecordProduct(ctx, telemetry.OutcomeFailed, 0)
		productLogger.Warn("Invalid raw product", zap.Error(err))
		return
	}

	result, err := s.transformer.Transform(ctx, product)
	if err != nil {
		code := failureCode(err)
		telemetry.RecordError(span, err, code)
		s.fail(report, product.ID, code, err)
		s.options.Metrics.RecordProduct(ctx, telemetry.OutcomeFailed, 0)
		productLogger.Error("Product transformation failed", zap.String("code", code), zap.Error(err))
		return
	}

	// media objects alone are not an import
	if len(result.Variations()) == 0 {
		report.SkippedCount++
		s.options.Metrics.RecordProduct(ctx, telemetry.OutcomeSkipped, 0)
		telemetry.MarkSkipped(span)
		productLogger.Debug("Product produced no variations")
		return
	}

	report.Results.Merge(result)
	report.SuccessCount++
	s.options.Metrics.RecordProduct(ctx, telemetry.OutcomeSuccess, result.Len())
	telemetry.RecordObjects(span, result.Len())
}

func (s *VariationImportService) fail(report *integration.ImportReport, productID int, code string, err error) {
	report.FailedCount++
	report.Failures = append(report.Failures, integration.ProductFailure{
		ProductID:    productID,
		ErrorCode:    code,
		ErrorMessage: err.Error(),
	})
}

// failureCode maps a transformation error to its report code
func failureCode(err error) string {
	switch {
	case errors.Is(err, integration.ErrUnitMappingNotFound):
		return FailureCodeUnitMappingNotFound
	case errors.Is(err, integration.ErrReferenceDataFailure):
		return FailureCodeReferenceData
	case errors.Is(err, integration.ErrInvalidRawProduct):
		return FailureCodeInvalidProduct
	default:
		return FailureCodeTransformFailed
	}
}
