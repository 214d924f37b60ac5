package persistence

import (
	"context"
	"errors"

	"github.com/erp/connector/internal/domain/integration"
	"github.com/erp/connector/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormIdentityRepository implements IdentityRepository using GORM
type GormIdentityRepository struct {
	db *gorm.DB
}

// NewGormIdentityRepository creates a new GormIdentityRepository
func NewGormIdentityRepository(db *gorm.DB) *GormIdentityRepository {
	return &GormIdentityRepository{db: db}
}

// FindByAdapter finds the identity mapped to an adapter-side triple
func (r *GormIdentityRepository) FindByAdapter(ctx context.Context, criteria integration.IdentityCriteria) (*integration.Identity, error) {
	var model models.IdentityModel
	if err := r.db.WithContext(ctx).
		Where("adapter_name = ? AND adapter_identifier = ? AND object_type = ?",
			criteria.AdapterName, criteria.AdapterIdentifier, criteria.ObjectType.String()).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, integration.ErrIdentityNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByObject finds the identity of a canonical object for an adapter
func (r *GormIdentityRepository) FindByObject(
	ctx context.Context,
	objectIdentifier string,
	adapterName string,
	objectType integration.ObjectType,
) (*integration.Identity, error) {
	var model models.IdentityModel
	if err := r.db.WithContext(ctx).
		Where("object_identifier = ? AND adapter_name = ? AND object_type = ?",
			objectIdentifier, adapterName, objectType.String()).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, integration.ErrIdentityNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// CreateIfAbsent inserts the identity unless its triple is already mapped and
// returns the stored identity. A concurrent insert of the same triple loses
// to the unique index and reads the winner.
func (r *GormIdentityRepository) CreateIfAbsent(ctx context.Context, identity *integration.Identity) (*integration.Identity, error) {
	if err := identity.Validate(); err != nil {
		return nil, err
	}

	model, err := models.IdentityModelFromDomain(identity)
	if err != nil {
		return nil, err
	}

	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(model).Error; err != nil {
		return nil, err
	}

	return r.FindByAdapter(ctx, identity.Key())
}

// Ensure GormIdentityRepository implements IdentityRepository
var _ integration.IdentityRepository = (*GormIdentityRepository)(nil)
