package models

import (
	"time"

	"github.com/erp/connector/internal/domain/integration"
	"github.com/google/uuid"
)

// IdentityModel is the persistence model of an identity mapping.
// The adapter-side triple is unique.
type IdentityModel struct {
	ObjectIdentifier  uuid.UUID `gorm:"type:uuid;primaryKey"`
	ObjectType        string    `gorm:"type:varchar(32);not null;uniqueIndex:idx_identities_adapter,priority:3;index:idx_identities_object,priority:3"`
	AdapterIdentifier string    `gorm:"type:varchar(255);not null;uniqueIndex:idx_identities_adapter,priority:2"`
	AdapterName       string    `gorm:"type:varchar(100);not null;uniqueIndex:idx_identities_adapter,priority:1;index:idx_identities_object,priority:2"`
	CreatedAt         time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (IdentityModel) TableName() string {
	return "identities"
}

// ToDomain converts the model to a domain identity
func (m *IdentityModel) ToDomain() *integration.Identity {
	return &integration.Identity{
		ObjectIdentifier:  m.ObjectIdentifier.String(),
		ObjectType:        integration.ObjectType(m.ObjectType),
		AdapterIdentifier: m.AdapterIdentifier,
		AdapterName:       m.AdapterName,
	}
}

// IdentityModelFromDomain creates a model from a domain identity
func IdentityModelFromDomain(identity *integration.Identity) (*IdentityModel, error) {
	objectIdentifier, err := uuid.Parse(identity.ObjectIdentifier)
	if err != nil {
		return nil, integration.ErrIdentityInvalidObjectIdentifier
	}
	return &IdentityModel{
		ObjectIdentifier:  objectIdentifier,
		ObjectType:        identity.ObjectType.String(),
		AdapterIdentifier: identity.AdapterIdentifier,
		AdapterName:       identity.AdapterName,
	}, nil
}
