package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/erp/connector/internal/infrastructure/config"
	"github.com/erp/connector/internal/infrastructure/logger"
	"github.com/erp/connector/internal/infrastructure/persistence/models"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// slowQueryThreshold is the duration above which statements are logged as slow
const slowQueryThreshold = 200 * time.Millisecond

// ErrSchemaMissing means the migrations have not been applied
var ErrSchemaMissing = errors.New("persistence: schema missing, run migrate up")

// Database holds the connection used by the identity repository and the
// config store
type Database struct {
	DB *gorm.DB
}

// NewDatabase connects to PostgreSQL and configures the connection pool.
// Statements are logged through zap at the given log level.
func NewDatabase(ctx context.Context, cfg *config.DatabaseConfig, zapLogger *zap.Logger, logLevel string) (*Database, error) {
	return Open(ctx, postgres.Open(cfg.DSN()), cfg, zapLogger, logLevel)
}

// Open opens a database with any dialector
func Open(ctx context.Context, dialector gorm.Dialector, cfg *config.DatabaseConfig, zapLogger *zap.Logger, logLevel string) (*Database, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:                 logger.NewGormLogger(zapLogger, logger.MapGormLogLevel(logLevel), slowQueryThreshold),
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Minute)
	sqlDB.SetConnMaxIdleTime(time.Duration(cfg.ConnMaxIdleTime) * time.Minute)

	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Database{DB: db}, nil
}

// Close closes the database connection
func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.Close()
}

// CheckSchema reports ErrSchemaMissing when a connector table has not been
// created by the migrations yet
func (d *Database) CheckSchema(ctx context.Context) error {
	migrator := d.DB.WithContext(ctx).Migrator()
	for _, model := range []schema.Tabler{models.IdentityModel{}, models.ConnectorConfigModel{}} {
		if !migrator.HasTable(model.TableName()) {
			return fmt.Errorf("%w: table %s", ErrSchemaMissing, model.TableName())
		}
	}
	return nil
}
