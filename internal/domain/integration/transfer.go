package integration

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransferObject is a canonical object forwarded to the downstream pipeline
type TransferObject interface {
	GetIdentifier() string
	GetType() ObjectType
}

// ---------------------------------------------------------------------------
// Variation Transfer Object
// ---------------------------------------------------------------------------

// Variation is the canonical variation of a product
type Variation struct {
	Identifier        string
	ProductIdentifier string
	Active            bool
	IsMain            bool
	Number            string
	StockLimitation   bool
	Barcodes          []Barcode
	Position          int
	Model             string
	Images            []Image
	Prices            []Price
	PurchasePrice     float64
	// UnitIdentifier is nil when the variation has no unit
	UnitIdentifier        *string
	Content               float64
	ReferenceAmount       float64
	MaximumOrderQuantity  float64
	MinimumOrderQuantity  float64
	IntervalOrderQuantity float64
	ReleaseDate           *time.Time
	// ShippingTime is the average shipping time in days
	ShippingTime int
	Width        int
	Height       int
	Length       int
	// Weight is in kilograms
	Weight     float64
	Properties []Property
}

// GetIdentifier returns the canonical identifier
func (v *Variation) GetIdentifier() string {
	return v.Identifier
}

// GetType returns ObjectTypeVariation
func (v *Variation) GetType() ObjectType {
	return ObjectTypeVariation
}

// ---------------------------------------------------------------------------
// Stock Transfer Object
// ---------------------------------------------------------------------------

// Stock is the canonical stock of a variation
type Stock struct {
	Identifier          string
	VariationIdentifier string
	Stock               decimal.Decimal
}

// GetIdentifier returns the canonical identifier
func (s *Stock) GetIdentifier() string {
	return s.Identifier
}

// GetType returns ObjectTypeStock
func (s *Stock) GetType() ObjectType {
	return ObjectTypeStock
}

// IsEmpty returns true if no stock is available
func (s *Stock) IsEmpty() bool {
	return s.Stock.IsZero()
}

// ---------------------------------------------------------------------------
// Media Transfer Object
// ---------------------------------------------------------------------------

// Media is an image file shared by all variations that link it
type Media struct {
	Identifier    string
	Link          string
	Name          string
	AlternateName string
	Translations  []Translation
}

// GetIdentifier returns the canonical identifier
func (m *Media) GetIdentifier() string {
	return m.Identifier
}

// GetType returns ObjectTypeMedia
func (m *Media) GetType() ObjectType {
	return ObjectTypeMedia
}

// ---------------------------------------------------------------------------
// Value Objects
// ---------------------------------------------------------------------------

// BarcodeType is the canonical barcode type
type BarcodeType string

const (
	BarcodeTypeGTIN13  BarcodeType = "gtin13"
	BarcodeTypeGTIN128 BarcodeType = "gtin128"
	BarcodeTypeUPC     BarcodeType = "upc"
	BarcodeTypeISBN    BarcodeType = "isbn"
)

// Barcode is a typed barcode of a variation
type Barcode struct {
	Type BarcodeType
	Code string
}

// Image links a media object to a variation
type Image struct {
	MediaIdentifier string
	Position        int
}

// Price is a sales price of a variation
type Price struct {
	Price       decimal.Decimal
	PseudoPrice decimal.Decimal
	FromAmount  float64
	ToAmount    *float64
}

// Translation property discriminators
const (
	TranslationPropertyName          = "name"
	TranslationPropertyValue         = "value"
	TranslationPropertyAlternateName = "alternateName"
)

// Translation is the localized form of one property of an object
type Translation struct {
	LanguageIdentifier string
	Property           string
	Value              string
}

// Property is a localized attribute of a variation
type Property struct {
	Name         string
	Position     int
	Values       []Value
	Translations []Translation
}

// Value is one value of a property
type Value struct {
	Value        string
	Position     int
	Translations []Translation
}
