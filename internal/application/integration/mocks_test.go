package integration

import (
	"context"
	"sync"

	"github.com/erp/connector/internal/domain/integration"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// MockIdentityRepository is a mock implementation of IdentityRepository
type MockIdentityRepository struct {
	mock.Mock
}

func (m *MockIdentityRepository) FindByAdapter(ctx context.Context, criteria integration.IdentityCriteria) (*integration.Identity, error) {
	args := m.Called(ctx, criteria)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.Identity), args.Error(1)
}

func (m *MockIdentityRepository) FindByObject(ctx context.Context, objectIdentifier, adapterName string, objectType integration.ObjectType) (*integration.Identity, error) {
	args := m.Called(ctx, objectIdentifier, adapterName, objectType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.Identity), args.Error(1)
}

func (m *MockIdentityRepository) CreateIfAbsent(ctx context.Context, identity *integration.Identity) (*integration.Identity, error) {
	args := m.Called(ctx, identity)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.Identity), args.Error(1)
}

// MockBarcodeReader is a mock implementation of BarcodeReader
type MockBarcodeReader struct {
	mock.Mock
}

func (m *MockBarcodeReader) FindAll(ctx context.Context) ([]integration.BarcodeDefinition, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]integration.BarcodeDefinition), args.Error(1)
}

// MockAttributeReader is a mock implementation of AttributeReader
type MockAttributeReader struct {
	mock.Mock
}

func (m *MockAttributeReader) FindOne(ctx context.Context, attributeID int) (*integration.AttributeDefinition, error) {
	args := m.Called(ctx, attributeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.AttributeDefinition), args.Error(1)
}

// MockAvailabilityReader is a mock implementation of AvailabilityReader
type MockAvailabilityReader struct {
	mock.Mock
}

func (m *MockAvailabilityReader) FindAll(ctx context.Context) ([]integration.Availability, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]integration.Availability), args.Error(1)
}

// MockUnitReader is a mock implementation of UnitReader
type MockUnitReader struct {
	mock.Mock
}

func (m *MockUnitReader) FindAll(ctx context.Context) ([]integration.UnitDefinition, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]integration.UnitDefinition), args.Error(1)
}

// MockConfigService is a mock implementation of ConfigService
type MockConfigService struct {
	mock.Mock
}

func (m *MockConfigService) Get(ctx context.Context, key string, defaultValue any) (any, error) {
	args := m.Called(ctx, key, defaultValue)
	return args.Get(0), args.Error(1)
}

// ---------------------------------------------------------------------------
// Stubs
// ---------------------------------------------------------------------------

// memoryIdentityRepository stores identities in a map
type memoryIdentityRepository struct {
	mu         sync.Mutex
	identities map[integration.IdentityCriteria]*integration.Identity
}

func newMemoryIdentityRepository() *memoryIdentityRepository {
	return &memoryIdentityRepository{identities: make(map[integration.IdentityCriteria]*integration.Identity)}
}

// seed maps a platform identifier to a fixed object identifier
func (r *memoryIdentityRepository) seed(adapterIdentifier string, objectType integration.ObjectType, objectIdentifier string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	criteria := integration.PlentymarketsCriteria(adapterIdentifier, objectType)
	r.identities[criteria] = &integration.Identity{
		ObjectIdentifier:  objectIdentifier,
		ObjectType:        objectType,
		AdapterIdentifier: adapterIdentifier,
		AdapterName:       integration.PlentymarketsAdapterName,
	}
}

func (r *memoryIdentityRepository) FindByAdapter(_ context.Context, criteria integration.IdentityCriteria) (*integration.Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	identity, ok := r.identities[criteria]
	if !ok {
		return nil, integration.ErrIdentityNotFound
	}
	return identity, nil
}

func (r *memoryIdentityRepository) FindByObject(_ context.Context, objectIdentifier, adapterName string, objectType integration.ObjectType) (*integration.Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, identity := range r.identities {
		if identity.ObjectIdentifier == objectIdentifier && identity.AdapterName == adapterName && identity.ObjectType == objectType {
			return identity, nil
		}
	}
	return nil, integration.ErrIdentityNotFound
}

func (r *memoryIdentityRepository) CreateIfAbsent(_ context.Context, identity *integration.Identity) (*integration.Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.identities[identity.Key()]; ok {
		return existing, nil
	}
	r.identities[identity.Key()] = identity
	return identity, nil
}

// stubStockParser returns a stock with the sum of the net stock of a
// variant. Variants listed in missing have no stock.
type stubStockParser struct {
	identities integration.IdentityService
	missing    map[int]bool
}

func (p *stubStockParser) Parse(ctx context.Context, variant *integration.RawVariant) (*integration.Stock, error) {
	if p.missing[variant.ID] {
		return nil, nil
	}
	identity, err := p.identities.FindOneOrCreate(ctx, variant.AdapterIdentifier(), integration.PlentymarketsAdapterName, integration.ObjectTypeStock)
	if err != nil {
		return nil, err
	}
	variationIdentity, err := p.identities.FindOneOrCreate(ctx, variant.AdapterIdentifier(), integration.PlentymarketsAdapterName, integration.ObjectTypeVariation)
	if err != nil {
		return nil, err
	}
	total := decimal.Zero
	for _, stock := range variant.Stock {
		total = total.Add(decimal.NewFromFloat(stock.NetStock))
	}
	return &integration.Stock{
		Identifier:          identity.ObjectIdentifier,
		VariationIdentifier: variationIdentity.ObjectIdentifier,
		Stock:               total,
	}, nil
}

// stubPriceParser returns no prices
type stubPriceParser struct{}

func (stubPriceParser) Parse(context.Context, *integration.RawVariant) ([]integration.Price, error) {
	return []integration.Price{}, nil
}

// stubImageParser records the result sets it receives and adds one media
// object per image ID
type stubImageParser struct {
	calls int
}

func (p *stubImageParser) ParseImage(_ context.Context, image *integration.RawImage, _ []integration.RawText, result *integration.ResultSet) (*integration.Image, error) {
	p.calls++
	mediaIdentifier := "media-" + image.URL
	if !result.Has(mediaIdentifier) {
		result.Add(&integration.Media{Identifier: mediaIdentifier, Link: image.URL})
	}
	return &integration.Image{MediaIdentifier: mediaIdentifier, Position: image.Position}, nil
}

// stubReferenceAmount always returns 1
type stubReferenceAmount struct{}

func (stubReferenceAmount) Calculate(context.Context, *integration.RawVariant) (float64, error) {
	return 1, nil
}

// mapConfigService serves settings from a map
type mapConfigService map[string]any

func (c mapConfigService) Get(_ context.Context, key string, defaultValue any) (any, error) {
	if value, ok := c[key]; ok {
		return value, nil
	}
	return defaultValue, nil
}
