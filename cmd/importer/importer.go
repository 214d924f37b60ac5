package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	integrationapp "github.com/erp/connector/internal/application/integration"
	"github.com/erp/connector/internal/domain/integration"
	"github.com/erp/connector/internal/infrastructure/cache"
	"github.com/erp/connector/internal/infrastructure/config"
	"github.com/erp/connector/internal/infrastructure/persistence"
	"github.com/erp/connector/internal/infrastructure/plentymarkets"
	"github.com/erp/connector/internal/infrastructure/telemetry"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// stores are the identity repository and settings used by a run
type stores struct {
	identities integration.IdentityRepository
	settings   integration.ConfigService
	close      func() error
}

// run executes one import and writes the report
func run(ctx context.Context, cfg *config.Config, opts options, log *zap.Logger, stdout io.Writer) error {
	tp, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			log.Warn("Telemetry shutdown failed", zap.Error(err))
		}
	}()

	lp, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:           cfg.Telemetry.LogsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		return fmt.Errorf("failed to initialize log export: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := lp.Shutdown(shutdownCtx); err != nil {
			log.Warn("Log export shutdown failed", zap.Error(err))
		}
	}()
	log = lp.Tee(log)

	mp, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.MetricsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.MetricsExportInterval,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		return fmt.Errorf("failed to initialize metrics: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := mp.Shutdown(shutdownCtx); err != nil {
			log.Warn("Metrics shutdown failed", zap.Error(err))
		}
	}()
	metrics, err := telemetry.NewImportMetrics(mp.Meter("connector/integration"))
	if err != nil {
		return err
	}

	client, err := plentymarkets.NewClient(plentymarkets.NewConfig(cfg.Plentymarkets), plentymarkets.WithLogger(log))
	if err != nil {
		return err
	}

	st, err := openStores(ctx, cfg, opts.dryRun, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := st.close(); err != nil {
			log.Error("Error closing stores", zap.Error(err))
		}
	}()

	if opts.seedPath != "" {
		count, err := seedIdentities(ctx, opts.seedPath, st.identities)
		if err != nil {
			return err
		}
		log.Info("Identity mappings registered", zap.Int("count", count))
	}

	products, err := loadProducts(ctx, opts, plentymarkets.NewItemAPI(client))
	if err != nil {
		return err
	}

	identities := integrationapp.NewIdentityService(st.identities)
	referenceData := integrationapp.NewReferenceData(
		plentymarkets.NewBarcodeAPI(client),
		plentymarkets.NewAttributeAPI(client),
		plentymarkets.NewAvailabilityAPI(client),
	)
	referenceAmount := integrationapp.NewReferenceAmountCalculator(plentymarkets.NewUnitAPI(client))
	transformer := integrationapp.NewVariationTransformer(integrationapp.TransformerDeps{
		Identities:      identities,
		ReferenceData:   referenceData,
		Prices:          integrationapp.NewSalesPriceParser(cfg.Import.PseudoSalesPriceID),
		Images:          integrationapp.NewMediaImageParser(identities),
		Stocks:          integrationapp.NewNetStockParser(identities),
		ReferenceAmount: referenceAmount,
		Logger:          log,
	})
	service := integrationapp.NewVariationImportService(transformer, referenceData, st.settings, log,
		integrationapp.ImportServiceOptions{
			WarmReferenceData: cfg.Import.WarmReferenceData,
			Caches:            []integrationapp.Resetter{referenceAmount},
			Metrics:           metrics,
		})

	report, err := service.Run(ctx, products)
	if err != nil {
		return err
	}

	return writeReport(opts.outputPath, stdout, integrationapp.ToImportReportResponse(report))
}

// openStores connects the identity and settings storage. A dry run keeps
// both in memory and never touches the database or Redis.
func openStores(ctx context.Context, cfg *config.Config, dryRun bool, log *zap.Logger) (*stores, error) {
	presets := config.NewStaticConfigService(cfg.Import.Settings)
	if dryRun {
		return &stores{
			identities: cache.NewInMemoryIdentityStore(),
			settings:   config.NewLayeredConfigService(presets),
			close:      func() error { return nil },
		}, nil
	}

	db, err := persistence.NewDatabase(ctx, &cfg.Database, log, cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	if err := db.CheckSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	log.Info("Database connected successfully")

	if err := telemetry.RegisterDBTracing(db.DB, telemetry.DBTracingConfig{
		Enabled: cfg.Telemetry.Enabled && cfg.Telemetry.DBTracingEnabled,
	}, log); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to register database tracing: %w", err)
	}

	factory := cache.NewIdentityRepositoryFactory(cfg.Redis, cache.WithLogger(log))
	identities, closeCache, err := factory.Wrap(ctx, persistence.NewGormIdentityRepository(db.DB))
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &stores{
		identities: identities,
		settings:   config.NewLayeredConfigService(persistence.NewGormConfigStore(db.DB), presets),
		close: func() error {
			cacheErr := closeCache()
			if err := db.Close(); err != nil {
				return err
			}
			return cacheErr
		},
	}, nil
}

// seedIdentity is one identity mapping of a seed file
type seedIdentity struct {
	ObjectIdentifier  string `json:"object_identifier"`
	ObjectType        string `json:"object_type"`
	AdapterIdentifier string `json:"adapter_identifier"`
	AdapterName       string `json:"adapter_name"`
}

// seedIdentities registers the mappings of a seed file. Mappings whose
// adapter side is already mapped keep their stored object identifier.
func seedIdentities(ctx context.Context, path string, repo integration.IdentityRepository) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to read identities: %w", err)
	}
	var seeds []seedIdentity
	if err := json.Unmarshal(data, &seeds); err != nil {
		return 0, fmt.Errorf("failed to decode identities %s: %w", path, err)
	}

	for i, seed := range seeds {
		adapterName := seed.AdapterName
		if adapterName == "" {
			adapterName = integration.PlentymarketsAdapterName
		}
		identity := &integration.Identity{
			ObjectIdentifier:  seed.ObjectIdentifier,
			ObjectType:        integration.ObjectType(seed.ObjectType),
			AdapterIdentifier: seed.AdapterIdentifier,
			AdapterName:       adapterName,
		}
		if _, err := repo.CreateIfAbsent(ctx, identity); err != nil {
			return i, fmt.Errorf("identity %d (%s %s): %w", i, seed.ObjectType, seed.AdapterIdentifier, err)
		}
	}
	return len(seeds), nil
}

// itemFinder reads items from the REST API
type itemFinder interface {
	FindMany(ctx context.Context, itemIDs []int) ([]integration.RawProduct, error)
}

// loadProducts reads the raw products from the input file or the REST API
func loadProducts(ctx context.Context, opts options, items itemFinder) ([]integration.RawProduct, error) {
	if opts.inputPath == "" {
		return items.FindMany(ctx, opts.itemIDs)
	}

	data, err := os.ReadFile(opts.inputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}
	var products []integration.RawProduct
	if err := json.Unmarshal(data, &products); err != nil {
		return nil, fmt.Errorf("failed to decode input %s: %w", opts.inputPath, err)
	}
	return products, nil
}

// writeReport writes the report as indented JSON to path, or to stdout when
// path is empty
func writeReport(path string, stdout io.Writer, report integrationapp.ImportReportResponse) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	data = append(data, '\n')

	if path == "" {
		_, err = stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}
