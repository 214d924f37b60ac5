package cache

import (
	"context"
	"sync"

	"github.com/erp/connector/internal/domain/integration"
)

// objectKey indexes identities by their canonical side
type objectKey struct {
	objectIdentifier string
	adapterName      string
	objectType       integration.ObjectType
}

// InMemoryIdentityStore implements IdentityRepository using in-memory maps.
// It backs dry runs and tests; mappings are lost when the process exits.
type InMemoryIdentityStore struct {
	mu        sync.RWMutex
	byAdapter map[integration.IdentityCriteria]integration.Identity
	byObject  map[objectKey]integration.Identity
}

// NewInMemoryIdentityStore creates an empty in-memory identity store
func NewInMemoryIdentityStore() *InMemoryIdentityStore {
	return &InMemoryIdentityStore{
		byAdapter: make(map[integration.IdentityCriteria]integration.Identity),
		byObject:  make(map[objectKey]integration.Identity),
	}
}

// FindByAdapter finds the identity mapped to an adapter-side triple
func (s *InMemoryIdentityStore) FindByAdapter(_ context.Context, criteria integration.IdentityCriteria) (*integration.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	identity, ok := s.byAdapter[criteria]
	if !ok {
		return nil, integration.ErrIdentityNotFound
	}
	return &identity, nil
}

// FindByObject finds the identity of a canonical object for an adapter
func (s *InMemoryIdentityStore) FindByObject(
	_ context.Context,
	objectIdentifier string,
	adapterName string,
	objectType integration.ObjectType,
) (*integration.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	identity, ok := s.byObject[objectKey{objectIdentifier, adapterName, objectType}]
	if !ok {
		return nil, integration.ErrIdentityNotFound
	}
	return &identity, nil
}

// CreateIfAbsent stores the identity unless its triple is mapped already
func (s *InMemoryIdentityStore) CreateIfAbsent(_ context.Context, identity *integration.Identity) (*integration.Identity, error) {
	if err := identity.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := identity.Key()
	if existing, ok := s.byAdapter[key]; ok {
		return &existing, nil
	}

	stored := *identity
	s.byAdapter[key] = stored
	s.byObject[objectKey{stored.ObjectIdentifier, stored.AdapterName, stored.ObjectType}] = stored
	return &stored, nil
}

// Len returns the number of stored identities
func (s *InMemoryIdentityStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byAdapter)
}

// Ensure InMemoryIdentityStore implements IdentityRepository
var _ integration.IdentityRepository = (*InMemoryIdentityStore)(nil)
