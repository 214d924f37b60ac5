package integration

import (
	"context"
	"errors"

	"github.com/erp/connector/internal/domain/integration"
)

// IdentityServiceImpl implements integration.IdentityService on top of an
// identity repository
type IdentityServiceImpl struct {
	identityRepo integration.IdentityRepository
}

// NewIdentityService creates a new IdentityServiceImpl
func NewIdentityService(identityRepo integration.IdentityRepository) *IdentityServiceImpl {
	return &IdentityServiceImpl{
		identityRepo: identityRepo,
	}
}

// FindOneBy looks up an identity by its adapter-side triple
func (s *IdentityServiceImpl) FindOneBy(ctx context.Context, criteria integration.IdentityCriteria) (*integration.Identity, error) {
	return s.identityRepo.FindByAdapter(ctx, criteria)
}

// FindOneOrCreate returns the mapped identity, creating it when absent.
// The repository resolves concurrent creates of the same triple to a single
// stored identity, so every caller sees the same object identifier.
func (s *IdentityServiceImpl) FindOneOrCreate(
	ctx context.Context,
	adapterIdentifier string,
	adapterName string,
	objectType integration.ObjectType,
) (*integration.Identity, error) {
	criteria := integration.IdentityCriteria{
		AdapterIdentifier: adapterIdentifier,
		AdapterName:       adapterName,
		ObjectType:        objectType,
	}

	identity, err := s.identityRepo.FindByAdapter(ctx, criteria)
	if err == nil {
		return identity, nil
	}
	if !errors.Is(err, integration.ErrIdentityNotFound) {
		return nil, err
	}

	identity, err = integration.NewIdentity(adapterIdentifier, adapterName, objectType)
	if err != nil {
		return nil, err
	}

	return s.identityRepo.CreateIfAbsent(ctx, identity)
}

// Ensure IdentityServiceImpl implements IdentityService
var _ integration.IdentityService = (*IdentityServiceImpl)(nil)
