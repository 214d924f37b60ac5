package plentymarkets

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/erp/connector/internal/domain/integration"
	"golang.org/x/sync/errgroup"
)

// variationRelations are loaded with every variation of an item
var variationRelations = []string{
	"variationSalesPrices",
	"variationBarcodes",
	"variationAttributeValues",
	"images",
	"stock",
	"unit",
}

// maxConcurrentValueRequests bounds the value name requests of one attribute
const maxConcurrentValueRequests = 4

// ---------------------------------------------------------------------------
// Reference data
// ---------------------------------------------------------------------------

// AvailabilityAPI reads the availabilities (shipping profiles)
type AvailabilityAPI struct {
	client *Client
}

// NewAvailabilityAPI creates an AvailabilityAPI
func NewAvailabilityAPI(client *Client) *AvailabilityAPI {
	return &AvailabilityAPI{client: client}
}

// FindAll returns every availability
func (a *AvailabilityAPI) FindAll(ctx context.Context) ([]integration.Availability, error) {
	return getList[integration.Availability](ctx, a.client, "availabilities", nil)
}

// BarcodeAPI reads the barcode types
type BarcodeAPI struct {
	client *Client
}

// NewBarcodeAPI creates a BarcodeAPI
func NewBarcodeAPI(client *Client) *BarcodeAPI {
	return &BarcodeAPI{client: client}
}

// FindAll returns every barcode type
func (a *BarcodeAPI) FindAll(ctx context.Context) ([]integration.BarcodeDefinition, error) {
	return getList[integration.BarcodeDefinition](ctx, a.client, "items/barcodes", nil)
}

// UnitAPI reads the units of measurement
type UnitAPI struct {
	client *Client
}

// NewUnitAPI creates a UnitAPI
func NewUnitAPI(client *Client) *UnitAPI {
	return &UnitAPI{client: client}
}

// FindAll returns every unit
func (a *UnitAPI) FindAll(ctx context.Context) ([]integration.UnitDefinition, error) {
	return getList[integration.UnitDefinition](ctx, a.client, "items/units", nil)
}

// AttributeAPI reads attributes with their names and values
type AttributeAPI struct {
	client *Client
}

// NewAttributeAPI creates an AttributeAPI
func NewAttributeAPI(client *Client) *AttributeAPI {
	return &AttributeAPI{client: client}
}

// FindOne returns an attribute including the names of the attribute and of
// each of its values
func (a *AttributeAPI) FindOne(ctx context.Context, attributeID int) (*integration.AttributeDefinition, error) {
	attribute, err := getOne[integration.AttributeDefinition](ctx, a.client,
		fmt.Sprintf("items/attributes/%d", attributeID), url.Values{"with": {"names"}})
	if err != nil {
		return nil, err
	}

	values, err := getList[integration.AttributeValueDefinition](ctx, a.client,
		fmt.Sprintf("items/attributes/%d/values", attributeID), nil)
	if err != nil {
		return nil, err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentValueRequests)
	for i := range values {
		g.Go(func() error {
			names, err := getList[integration.LocalizedName](gctx, a.client,
				fmt.Sprintf("items/attribute_values/%d/names", values[i].ID), nil)
			if err != nil {
				return err
			}
			values[i].ValueNames = names
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	attribute.Values = values
	return attribute, nil
}

// ---------------------------------------------------------------------------
// Items
// ---------------------------------------------------------------------------

// ItemAPI reads items with their variations
type ItemAPI struct {
	client *Client
}

// NewItemAPI creates an ItemAPI
func NewItemAPI(client *Client) *ItemAPI {
	return &ItemAPI{client: client}
}

// FindOne returns an item and all of its variations with the relations the
// transformer needs. ErrNotFound is returned for an unknown item.
func (a *ItemAPI) FindOne(ctx context.Context, itemID int) (*integration.RawProduct, error) {
	product, err := getOne[integration.RawProduct](ctx, a.client, fmt.Sprintf("items/%d", itemID), nil)
	if err != nil {
		return nil, err
	}

	variations, err := getList[integration.RawVariant](ctx, a.client,
		fmt.Sprintf("items/%d/variations", itemID),
		url.Values{"with": {strings.Join(variationRelations, ",")}})
	if err != nil {
		return nil, err
	}

	product.Variations = variations
	return product, nil
}

// FindMany returns the items in the given order
func (a *ItemAPI) FindMany(ctx context.Context, itemIDs []int) ([]integration.RawProduct, error) {
	products := make([]integration.RawProduct, 0, len(itemIDs))
	for _, id := range itemIDs {
		product, err := a.FindOne(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", id, err)
		}
		products = append(products, *product)
	}
	return products, nil
}

// Ensure the APIs implement the reference data readers
var (
	_ integration.AvailabilityReader = (*AvailabilityAPI)(nil)
	_ integration.AttributeReader    = (*AttributeAPI)(nil)
	_ integration.BarcodeReader      = (*BarcodeAPI)(nil)
	_ integration.UnitReader         = (*UnitAPI)(nil)
)
