package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/erp/connector/internal/domain/integration"
	"github.com/erp/connector/internal/infrastructure/persistence/models"
	jsoniter "github.com/json-iterator/go"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// GormConfigStore reads and writes connector settings in the
// connector_config table. Values are returned as the stored text.
type GormConfigStore struct {
	db  *gorm.DB
	now func() time.Time
}

// NewGormConfigStore creates a new GormConfigStore
func NewGormConfigStore(db *gorm.DB) *GormConfigStore {
	return &GormConfigStore{db: db, now: time.Now}
}

// Lookup returns the stored text of a setting
func (s *GormConfigStore) Lookup(ctx context.Context, key string) (any, error) {
	var model models.ConnectorConfigModel
	if err := s.db.WithContext(ctx).First(&model, "name = ?", key).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, integration.ErrConfigValueNotFound
		}
		return nil, fmt.Errorf("read setting %s: %w", key, err)
	}
	return model.Value, nil
}

// Get returns the stored text of a setting or the default
func (s *GormConfigStore) Get(ctx context.Context, key string, defaultValue any) (any, error) {
	value, err := s.Lookup(ctx, key)
	if errors.Is(err, integration.ErrConfigValueNotFound) {
		return defaultValue, nil
	}
	return value, err
}

// Set stores a setting. Strings are stored verbatim, any other value as its
// JSON literal, so Set(ctx, key, false) stores "false".
func (s *GormConfigStore) Set(ctx context.Context, key string, value any) error {
	text, ok := value.(string)
	if !ok {
		encoded, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("%w: %s: %w", integration.ErrConfigValueInvalid, key, err)
		}
		text = string(encoded)
	}

	model := models.ConnectorConfigModel{Name: key, Value: text, UpdatedAt: s.now()}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&model).Error
}

// Ensure GormConfigStore implements ConfigService
var _ integration.ConfigService = (*GormConfigStore)(nil)
