package integration

import (
	"context"
	"strings"

	"github.com/google/uuid"
)

// PlentymarketsAdapterName is the adapter name used for every identity read
// from or written for the Plentymarkets platform.
const PlentymarketsAdapterName = "PlentymarketsAdapter"

// ---------------------------------------------------------------------------
// ObjectType
// ---------------------------------------------------------------------------

// ObjectType identifies the kind of canonical object an identity belongs to
type ObjectType string

const (
	// ObjectTypeProduct is the canonical product
	ObjectTypeProduct ObjectType = "Product"
	// ObjectTypeVariation is the canonical variation of a product
	ObjectTypeVariation ObjectType = "Variation"
	// ObjectTypeStock is the stock entry of a variation
	ObjectTypeStock ObjectType = "Stock"
	// ObjectTypeUnit is a unit of measurement
	ObjectTypeUnit ObjectType = "Unit"
	// ObjectTypeLanguage is a shop language
	ObjectTypeLanguage ObjectType = "Language"
	// ObjectTypeMedia is an image or other media file
	ObjectTypeMedia ObjectType = "Media"
)

// IsValid returns true if the object type is known
func (t ObjectType) IsValid() bool {
	switch t {
	case ObjectTypeProduct, ObjectTypeVariation, ObjectTypeStock,
		ObjectTypeUnit, ObjectTypeLanguage, ObjectTypeMedia:
		return true
	default:
		return false
	}
}

// String returns the string representation of ObjectType
func (t ObjectType) String() string {
	return string(t)
}

// ---------------------------------------------------------------------------
// Identity Entity
// ---------------------------------------------------------------------------

// Identity maps an identifier of an external system (the adapter identifier)
// to the canonical object identifier. The triple (AdapterName,
// AdapterIdentifier, ObjectType) is unique.
type Identity struct {
	// ObjectIdentifier is the canonical identifier (UUID string)
	ObjectIdentifier string
	// ObjectType is the kind of object this identity maps
	ObjectType ObjectType
	// AdapterIdentifier is the identifier in the external system
	AdapterIdentifier string
	// AdapterName names the external system
	AdapterName string
}

// NewIdentity creates an identity with a freshly generated object identifier
func NewIdentity(adapterIdentifier, adapterName string, objectType ObjectType) (*Identity, error) {
	identity := &Identity{
		ObjectIdentifier:  uuid.New().String(),
		ObjectType:        objectType,
		AdapterIdentifier: adapterIdentifier,
		AdapterName:       adapterName,
	}
	if err := identity.Validate(); err != nil {
		return nil, err
	}
	return identity, nil
}

// Validate validates the identity
func (i *Identity) Validate() error {
	if _, err := uuid.Parse(i.ObjectIdentifier); err != nil {
		return ErrIdentityInvalidObjectIdentifier
	}
	if strings.TrimSpace(i.AdapterIdentifier) == "" {
		return ErrIdentityInvalidAdapterID
	}
	if strings.TrimSpace(i.AdapterName) == "" {
		return ErrIdentityInvalidAdapterName
	}
	if !i.ObjectType.IsValid() {
		return ErrIdentityInvalidObjectType
	}
	return nil
}

// Key returns the unique lookup key of the adapter side of the identity
func (i *Identity) Key() IdentityCriteria {
	return IdentityCriteria{
		AdapterIdentifier: i.AdapterIdentifier,
		AdapterName:       i.AdapterName,
		ObjectType:        i.ObjectType,
	}
}

// IdentityCriteria selects a single identity by its adapter-side triple
type IdentityCriteria struct {
	AdapterIdentifier string
	AdapterName       string
	ObjectType        ObjectType
}

// PlentymarketsCriteria builds criteria for a Plentymarkets identifier
func PlentymarketsCriteria(adapterIdentifier string, objectType ObjectType) IdentityCriteria {
	return IdentityCriteria{
		AdapterIdentifier: adapterIdentifier,
		AdapterName:       PlentymarketsAdapterName,
		ObjectType:        objectType,
	}
}

// String returns a stable textual form, used as cache key
func (c IdentityCriteria) String() string {
	return c.AdapterName + ":" + string(c.ObjectType) + ":" + c.AdapterIdentifier
}

// ---------------------------------------------------------------------------
// Ports
// ---------------------------------------------------------------------------

// IdentityRepository persists identities
type IdentityRepository interface {
	// FindByAdapter finds the identity for an adapter-side triple.
	// Returns ErrIdentityNotFound when no mapping exists.
	FindByAdapter(ctx context.Context, criteria IdentityCriteria) (*Identity, error)

	// FindByObject finds the identity of a canonical object for an adapter
	FindByObject(ctx context.Context, objectIdentifier, adapterName string, objectType ObjectType) (*Identity, error)

	// CreateIfAbsent stores the identity unless its adapter-side triple is
	// already mapped, and returns whichever identity is stored afterwards.
	CreateIfAbsent(ctx context.Context, identity *Identity) (*Identity, error)
}

// IdentityService resolves adapter identifiers to canonical identifiers
type IdentityService interface {
	// FindOneBy looks up an identity without side effects.
	// Returns ErrIdentityNotFound when absent.
	FindOneBy(ctx context.Context, criteria IdentityCriteria) (*Identity, error)

	// FindOneOrCreate returns the existing identity or creates a new one.
	// Repeated calls with the same triple return the same object identifier.
	FindOneOrCreate(ctx context.Context, adapterIdentifier, adapterName string, objectType ObjectType) (*Identity, error)
}
