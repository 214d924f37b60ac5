package integration

import "strconv"

// ---------------------------------------------------------------------------
// Raw input records
// ---------------------------------------------------------------------------

// ItemType is the platform item type of a product
type ItemType string

const (
	// ItemTypeDefault is a regular item
	ItemTypeDefault ItemType = "default"
	// ItemTypeMultiPack is an item sold as a bundle of one main variation
	ItemTypeMultiPack ItemType = "multiPack"
)

// RawProduct is a product record as returned by the platform, including all
// of its variations. It is treated as immutable input.
type RawProduct struct {
	ID         int          `json:"id" validate:"required,gt=0"`
	ItemType   ItemType     `json:"itemType"`
	Texts      []RawText    `json:"texts"`
	Variations []RawVariant `json:"variations" validate:"dive"`
}

// AdapterIdentifier returns the product ID in its identity form
func (p *RawProduct) AdapterIdentifier() string {
	return strconv.Itoa(p.ID)
}

// RawText is a localized text block of a product
type RawText struct {
	Lang             string `json:"lang"`
	Name1            string `json:"name1"`
	Name2            string `json:"name2"`
	Name3            string `json:"name3"`
	ShortDescription string `json:"shortDescription"`
	Description      string `json:"description"`
	Keywords         string `json:"keywords"`
	URLPath          string `json:"urlPath"`
}

// RawVariant is a single variation record of a product
type RawVariant struct {
	ID       int  `json:"id" validate:"required,gt=0"`
	IsMain   bool `json:"isMain"`
	IsActive bool `json:"isActive"`
	// Position orders variations; it also seeds the release date
	Position        *int     `json:"position"`
	Number          string   `json:"number"`
	Model           string   `json:"model"`
	StockLimitation int      `json:"stockLimitation"`
	Unit            *RawUnit `json:"unit"`
	PurchasePrice   float64  `json:"purchasePrice"`

	MinimumOrderQuantity  float64 `json:"minimumOrderQuantity"`
	MaximumOrderQuantity  float64 `json:"maximumOrderQuantity"`
	IntervalOrderQuantity float64 `json:"intervalOrderQuantity"`

	WidthMM    int `json:"widthMM"`
	HeightMM   int `json:"heightMM"`
	LengthMM   int `json:"lengthMM"`
	WeightG    int `json:"weightG"`
	WeightNetG int `json:"weightNetG"`

	Availability int     `json:"availability"`
	ReleasedAt   *string `json:"releasedAt"`

	VariationBarcodes        []RawBarcode        `json:"variationBarcodes"`
	VariationAttributeValues []RawAttributeValue `json:"variationAttributeValues"`
	VariationSalesPrices     []RawSalesPrice     `json:"variationSalesPrices"`
	Images                   []RawImage          `json:"images"`
	Stock                    []RawStock          `json:"stock"`
}

// AdapterIdentifier returns the variant ID in its identity form
func (v *RawVariant) AdapterIdentifier() string {
	return strconv.Itoa(v.ID)
}

// PositionValue returns the position, treating an absent position as 0
func (v *RawVariant) PositionValue() int {
	if v.Position == nil {
		return 0
	}
	return *v.Position
}

// RawUnit is the unit block of a variation
type RawUnit struct {
	UnitID  int     `json:"unitId"`
	Content float64 `json:"content"`
}

// RawBarcode is a barcode attached to a variation
type RawBarcode struct {
	BarcodeID int    `json:"barcodeId"`
	Code      string `json:"code"`
}

// RawAttributeValue links a variation to one value of an attribute
type RawAttributeValue struct {
	AttributeID int `json:"attributeId"`
	ValueID     int `json:"valueId"`
}

// RawSalesPrice is a sales price of a variation
type RawSalesPrice struct {
	SalesPriceID int     `json:"salesPriceId"`
	Price        float64 `json:"price"`
}

// RawImage is an image linked to a variation
type RawImage struct {
	ID       int            `json:"id"`
	URL      string         `json:"url"`
	Position int            `json:"position"`
	Names    []RawImageName `json:"names"`
}

// RawImageName is a localized image name
type RawImageName struct {
	Lang      string `json:"lang"`
	Name      string `json:"name"`
	Alternate string `json:"alternate"`
}

// RawStock is the stock of a variation in one warehouse
type RawStock struct {
	WarehouseID   int     `json:"warehouseId"`
	NetStock      float64 `json:"netStock"`
	PhysicalStock float64 `json:"physicalStock"`
}

// ---------------------------------------------------------------------------
// Reference data records
// ---------------------------------------------------------------------------

// BarcodeDefinition is a barcode type configured on the platform
type BarcodeDefinition struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

// AttributeDefinition is an attribute including its names and values
type AttributeDefinition struct {
	ID             int                        `json:"id"`
	BackendName    string                     `json:"backendName"`
	Position       int                        `json:"position"`
	AttributeNames []LocalizedName            `json:"attributeNames"`
	Values         []AttributeValueDefinition `json:"values"`
}

// AttributeValueDefinition is one selectable value of an attribute
type AttributeValueDefinition struct {
	ID          int             `json:"id"`
	AttributeID int             `json:"attributeId"`
	BackendName string          `json:"backendName"`
	Position    int             `json:"position"`
	ValueNames  []LocalizedName `json:"valueNames"`
}

// LocalizedName is a name in one platform language
type LocalizedName struct {
	Lang string `json:"lang"`
	Name string `json:"name"`
}

// Availability is a shipping profile (availability) of the platform
type Availability struct {
	ID          int `json:"id"`
	AverageDays int `json:"averageDays"`
}

// UnitDefinition is a unit of measurement configured on the platform
type UnitDefinition struct {
	ID                int    `json:"id"`
	UnitOfMeasurement string `json:"unitOfMeasurement"`
}
