package integration

import (
	"context"
	"fmt"
	"sync"

	"github.com/erp/connector/internal/domain/integration"
	"golang.org/x/sync/errgroup"
)

// barcodeTypeMapping maps platform barcode types to canonical types.
// Barcode definitions of any other type are ignored.
var barcodeTypeMapping = map[string]integration.BarcodeType{
	"GTIN_13":  integration.BarcodeTypeGTIN13,
	"GTIN_128": integration.BarcodeTypeGTIN128,
	"UPC":      integration.BarcodeTypeUPC,
	"ISBN":     integration.BarcodeTypeISBN,
}

// attributeEntry is a cached attribute with its values indexed by value ID
type attributeEntry struct {
	definition *integration.AttributeDefinition
	values     map[int]*integration.AttributeValueDefinition
}

// ReferenceData caches the reference collections of the platform for the
// duration of a run. Each cache is filled on first use; Reset drops all of
// them so the next run reads fresh data.
type ReferenceData struct {
	barcodes       integration.BarcodeReader
	attributes     integration.AttributeReader
	availabilities integration.AvailabilityReader

	barcodeMu    sync.Mutex
	barcodeTypes map[int]integration.BarcodeType

	shippingMu   sync.Mutex
	shippingDays map[int]int

	attributeMu     sync.Mutex
	attributeByID   map[int]*attributeEntry
	attributeLoaded int
}

// NewReferenceData creates empty reference data caches
func NewReferenceData(
	barcodes integration.BarcodeReader,
	attributes integration.AttributeReader,
	availabilities integration.AvailabilityReader,
) *ReferenceData {
	return &ReferenceData{
		barcodes:       barcodes,
		attributes:     attributes,
		availabilities: availabilities,
		attributeByID:  make(map[int]*attributeEntry),
	}
}

// Reset invalidates all caches
func (d *ReferenceData) Reset() {
	d.barcodeMu.Lock()
	d.barcodeTypes = nil
	d.barcodeMu.Unlock()

	d.shippingMu.Lock()
	d.shippingDays = nil
	d.shippingMu.Unlock()

	d.attributeMu.Lock()
	d.attributeByID = make(map[int]*attributeEntry)
	d.attributeLoaded = 0
	d.attributeMu.Unlock()
}

// Warm loads the barcode and shipping caches concurrently. Lookups made
// afterwards behave exactly as if the caches had been filled lazily.
func (d *ReferenceData) Warm(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		d.barcodeMu.Lock()
		defer d.barcodeMu.Unlock()
		return d.loadBarcodeTypes(ctx)
	})
	g.Go(func() error {
		d.shippingMu.Lock()
		defer d.shippingMu.Unlock()
		return d.loadShippingDays(ctx)
	})

	return g.Wait()
}

// BarcodeType returns the canonical type of a barcode definition, false if
// the definition is unknown or of an unsupported type
func (d *ReferenceData) BarcodeType(ctx context.Context, barcodeID int) (integration.BarcodeType, bool, error) {
	d.barcodeMu.Lock()
	defer d.barcodeMu.Unlock()

	if err := d.loadBarcodeTypes(ctx); err != nil {
		return "", false, err
	}

	barcodeType, ok := d.barcodeTypes[barcodeID]
	return barcodeType, ok, nil
}

// ShippingDays returns the average shipping days of an availability, 0 if
// the availability is unknown or has no average
func (d *ReferenceData) ShippingDays(ctx context.Context, availabilityID int) (int, error) {
	d.shippingMu.Lock()
	defer d.shippingMu.Unlock()

	if err := d.loadShippingDays(ctx); err != nil {
		return 0, err
	}

	return d.shippingDays[availabilityID], nil
}

// AttributeValue returns the attribute and the requested value definition.
// The value is nil if the attribute has no value with that ID.
func (d *ReferenceData) AttributeValue(
	ctx context.Context,
	attributeID int,
	valueID int,
) (*integration.AttributeDefinition, *integration.AttributeValueDefinition, error) {
	d.attributeMu.Lock()
	defer d.attributeMu.Unlock()

	entry, ok := d.attributeByID[attributeID]
	if !ok {
		definition, err := d.attributes.FindOne(ctx, attributeID)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: attribute %d: %w", integration.ErrReferenceDataFailure, attributeID, err)
		}
		entry = newAttributeEntry(definition)
		d.attributeByID[attributeID] = entry
		d.attributeLoaded++
	}

	return entry.definition, entry.values[valueID], nil
}

// AttributeFetchCount returns how many attributes were fetched since the
// last reset
func (d *ReferenceData) AttributeFetchCount() int {
	d.attributeMu.Lock()
	defer d.attributeMu.Unlock()
	return d.attributeLoaded
}

// loadBarcodeTypes fills the barcode cache; callers hold barcodeMu
func (d *ReferenceData) loadBarcodeTypes(ctx context.Context) error {
	if d.barcodeTypes != nil {
		return nil
	}

	definitions, err := d.barcodes.FindAll(ctx)
	if err != nil {
		return fmt.Errorf("%w: barcodes: %w", integration.ErrReferenceDataFailure, err)
	}

	barcodeTypes := make(map[int]integration.BarcodeType, len(definitions))
	for _, definition := range definitions {
		if barcodeType, ok := barcodeTypeMapping[definition.Type]; ok {
			barcodeTypes[definition.ID] = barcodeType
		}
	}
	d.barcodeTypes = barcodeTypes
	return nil
}

// loadShippingDays fills the shipping cache; callers hold shippingMu
func (d *ReferenceData) loadShippingDays(ctx context.Context) error {
	if d.shippingDays != nil {
		return nil
	}

	availabilities, err := d.availabilities.FindAll(ctx)
	if err != nil {
		return fmt.Errorf("%w: availabilities: %w", integration.ErrReferenceDataFailure, err)
	}

	shippingDays := make(map[int]int, len(availabilities))
	for _, availability := range availabilities {
		// first profile with a given ID wins
		if _, exists := shippingDays[availability.ID]; exists {
			continue
		}
		shippingDays[availability.ID] = availability.AverageDays
	}
	d.shippingDays = shippingDays
	return nil
}

func newAttributeEntry(definition *integration.AttributeDefinition) *attributeEntry {
	entry := &attributeEntry{
		definition: definition,
		values:     make(map[int]*integration.AttributeValueDefinition),
	}
	if definition == nil {
		entry.definition = &integration.AttributeDefinition{}
		return entry
	}
	for i := range definition.Values {
		value := &definition.Values[i]
		entry.values[value.ID] = value
	}
	return entry
}
