package integration

import "errors"

var (
	// Identity errors
	ErrIdentityNotFound                = errors.New("integration: identity not found")
	ErrIdentityInvalidObjectIdentifier = errors.New("integration: invalid object identifier")
	ErrIdentityInvalidAdapterID        = errors.New("integration: invalid adapter identifier")
	ErrIdentityInvalidAdapterName      = errors.New("integration: invalid adapter name")
	ErrIdentityInvalidObjectType       = errors.New("integration: invalid object type")

	// Transformation errors
	ErrUnitMappingNotFound  = errors.New("integration: missing mapping for unit")
	ErrInvalidRawProduct    = errors.New("integration: invalid raw product")
	ErrReferenceDataFailure = errors.New("integration: reference data request failed")

	// Configuration errors
	ErrConfigValueNotFound = errors.New("integration: config value not found")
	ErrConfigValueInvalid  = errors.New("integration: invalid config value")
)
