package integration

import "context"

// ---------------------------------------------------------------------------
// Sub-parser ports
// ---------------------------------------------------------------------------

// PriceParser builds the prices of a raw variant
type PriceParser interface {
	Parse(ctx context.Context, variant *RawVariant) ([]Price, error)
}

// ImageParser builds one image link of a variation. The parser may add
// shared objects (media) to the result set; it returns nil when the image
// is to be ignored.
type ImageParser interface {
	ParseImage(ctx context.Context, image *RawImage, texts []RawText, result *ResultSet) (*Image, error)
}

// StockParser builds the stock of a raw variant. A nil stock means the
// variant must not be imported.
type StockParser interface {
	Parse(ctx context.Context, variant *RawVariant) (*Stock, error)
}

// ReferenceAmountCalculator calculates the base price reference amount
type ReferenceAmountCalculator interface {
	Calculate(ctx context.Context, variant *RawVariant) (float64, error)
}

// VariationHelper decides which variation represents a product
type VariationHelper interface {
	// MainVariation returns the raw main variation, false if there is none
	MainVariation(variants []RawVariant) (*RawVariant, bool)

	// MainVariationNumber reconciles the number of the raw main variation
	// with the variations that were actually built and returns the number of
	// the variation to be marked as main
	MainVariationNumber(mainNumber string, variations []*Variation) string
}

// ---------------------------------------------------------------------------
// Reference data ports
// ---------------------------------------------------------------------------

// AvailabilityReader reads the shipping profiles of the platform
type AvailabilityReader interface {
	FindAll(ctx context.Context) ([]Availability, error)
}

// AttributeReader reads attribute definitions of the platform
type AttributeReader interface {
	FindOne(ctx context.Context, attributeID int) (*AttributeDefinition, error)
}

// BarcodeReader reads the barcode definitions of the platform
type BarcodeReader interface {
	FindAll(ctx context.Context) ([]BarcodeDefinition, error)
}

// UnitReader reads the units of measurement of the platform
type UnitReader interface {
	FindAll(ctx context.Context) ([]UnitDefinition, error)
}

// ---------------------------------------------------------------------------
// Configuration port
// ---------------------------------------------------------------------------

// ConfigService reads connector settings. Values are stored loosely typed;
// a missing key yields the default.
type ConfigService interface {
	Get(ctx context.Context, key string, defaultValue any) (any, error)
}
