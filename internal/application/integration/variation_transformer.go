package integration

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/erp/connector/internal/domain/integration"
	"go.uber.org/zap"
)

// releaseDateLocation is the zone position based release dates are expressed in
var releaseDateLocation = func() *time.Location {
	location, err := time.LoadLocation("Europe/Berlin")
	if err != nil {
		return time.UTC
	}
	return location
}()

// releaseDateLayouts are tried in order when parsing releasedAt
var releaseDateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// TransformerDeps groups the collaborators of a VariationTransformer
type TransformerDeps struct {
	Identities      integration.IdentityService
	ReferenceData   *ReferenceData
	Prices          integration.PriceParser
	Images          integration.ImageParser
	Stocks          integration.StockParser
	ReferenceAmount integration.ReferenceAmountCalculator
	Helper          integration.VariationHelper
	Logger          *zap.Logger
}

// VariationTransformer turns a raw product into canonical variations and
// stocks. A transformer is used by one run at a time.
type VariationTransformer struct {
	identities      integration.IdentityService
	referenceData   *ReferenceData
	prices          integration.PriceParser
	images          integration.ImageParser
	stocks          integration.StockParser
	referenceAmount integration.ReferenceAmountCalculator
	helper          integration.VariationHelper
	logger          *zap.Logger
	policy          ImportPolicy
}

// NewVariationTransformer creates a transformer using the default policy
func NewVariationTransformer(deps TransformerDeps) *VariationTransformer {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	helper := deps.Helper
	if helper == nil {
		helper = NewVariationHelper()
	}
	return &VariationTransformer{
		identities:      deps.Identities,
		referenceData:   deps.ReferenceData,
		prices:          deps.Prices,
		images:          deps.Images,
		stocks:          deps.Stocks,
		referenceAmount: deps.ReferenceAmount,
		helper:          helper,
		logger:          logger.Named("variation_transformer"),
		policy:          DefaultImportPolicy(),
	}
}

// SetPolicy replaces the policy snapshot used by subsequent transformations
func (t *VariationTransformer) SetPolicy(policy ImportPolicy) {
	t.policy = policy
}

// Policy returns the current policy snapshot
func (t *VariationTransformer) Policy() ImportPolicy {
	return t.policy
}

// Transform builds the variations and stocks of a product.
//
// An empty result is returned when the product has no identity or no main
// variation. Any error aborts the product; no partial result is returned.
func (t *VariationTransformer) Transform(ctx context.Context, product *integration.RawProduct) (*integration.ResultSet, error) {
	result := integration.NewResultSet()
	logger := t.logger.With(zap.Int("product_id", product.ID))

	productIdentity, err := t.identities.FindOneBy(
		ctx,
		integration.PlentymarketsCriteria(product.AdapterIdentifier(), integration.ObjectTypeProduct),
	)
	if err != nil {
		if errors.Is(err, integration.ErrIdentityNotFound) {
			logger.Debug("Product has no identity, skipping")
			return result, nil
		}
		return nil, fmt.Errorf("resolve product identity: %w", err)
	}

	mainRaw, candidates, ok := SelectCandidates(product, t.helper)
	if !ok {
		logger.Debug("Product has no main variation, skipping")
		return result, nil
	}

	for i := range candidates {
		variant := &candidates[i]

		variation, err := t.buildVariation(ctx, product, variant, productIdentity, result)
		if err != nil {
			return nil, fmt.Errorf("variation %d: %w", variant.ID, err)
		}

		stock, err := t.stocks.Parse(ctx, variant)
		if err != nil {
			return nil, fmt.Errorf("variation %d: parse stock: %w", variant.ID, err)
		}
		if stock == nil {
			logger.Debug("Variation has no stock, skipping", zap.Int("variation_id", variant.ID))
			continue
		}
		if !t.policy.ImportVariationsWithoutStock && stock.IsEmpty() {
			logger.Debug("Variation stock is empty, skipping", zap.Int("variation_id", variant.ID))
			continue
		}

		result.Add(variation)
		result.Add(stock)
	}

	electMainVariation(result, t.helper, t.variationNumber(mainRaw), mainRaw.IsActive, t.policy)

	return result, nil
}

// buildVariation assembles one Variation; the result set is handed to the
// image parser, which may add shared media objects to it
func (t *VariationTransformer) buildVariation(
	ctx context.Context,
	product *integration.RawProduct,
	variant *integration.RawVariant,
	productIdentity *integration.Identity,
	result *integration.ResultSet,
) (*integration.Variation, error) {
	identity, err := t.identities.FindOneOrCreate(
		ctx,
		variant.AdapterIdentifier(),
		integration.PlentymarketsAdapterName,
		integration.ObjectTypeVariation,
	)
	if err != nil {
		return nil, fmt.Errorf("resolve variation identity: %w", err)
	}

	variation := &integration.Variation{
		Identifier:        identity.ObjectIdentifier,
		ProductIdentifier: productIdentity.ObjectIdentifier,
		Active:            variant.IsActive,
		Number:            t.variationNumber(variant),
		StockLimitation:   variant.StockLimitation == 1,
		Position:          variant.PositionValue(),
		Model:             variant.Model,
	}

	if variation.Barcodes, err = t.barcodes(ctx, variant); err != nil {
		return nil, err
	}
	if variation.Images, err = t.parseImages(ctx, product, variant, result); err != nil {
		return nil, err
	}
	if variation.Prices, err = t.prices.Parse(ctx, variant); err != nil {
		return nil, fmt.Errorf("parse prices: %w", err)
	}
	variation.PurchasePrice = variant.PurchasePrice

	if variation.UnitIdentifier, err = t.unitIdentifier(ctx, variant); err != nil {
		return nil, err
	}
	if variant.Unit != nil {
		variation.Content = variant.Unit.Content
	}
	if variation.ReferenceAmount, err = t.referenceAmount.Calculate(ctx, variant); err != nil {
		return nil, fmt.Errorf("calculate reference amount: %w", err)
	}

	variation.MaximumOrderQuantity = variant.MaximumOrderQuantity
	variation.MinimumOrderQuantity = variant.MinimumOrderQuantity
	variation.IntervalOrderQuantity = variant.IntervalOrderQuantity
	variation.ReleaseDate = releaseDate(variant)

	if variation.ShippingTime, err = t.referenceData.ShippingDays(ctx, variant.Availability); err != nil {
		return nil, err
	}

	variation.Width = variant.WidthMM
	variation.Height = variant.HeightMM
	variation.Length = variant.LengthMM
	variation.Weight = weight(variant)

	if variation.Properties, err = t.properties(ctx, variant); err != nil {
		return nil, err
	}

	return variation, nil
}

// variationNumber returns the canonical number of a raw variant
func (t *VariationTransformer) variationNumber(variant *integration.RawVariant) string {
	if t.policy.UsesNumberField() {
		return variant.Number
	}
	return strconv.Itoa(variant.ID)
}

func (t *VariationTransformer) barcodes(ctx context.Context, variant *integration.RawVariant) ([]integration.Barcode, error) {
	barcodes := make([]integration.Barcode, 0, len(variant.VariationBarcodes))
	for _, raw := range variant.VariationBarcodes {
		barcodeType, ok, err := t.referenceData.BarcodeType(ctx, raw.BarcodeID)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		barcodes = append(barcodes, integration.Barcode{Type: barcodeType, Code: raw.Code})
	}
	return barcodes, nil
}

func (t *VariationTransformer) parseImages(
	ctx context.Context,
	product *integration.RawProduct,
	variant *integration.RawVariant,
	result *integration.ResultSet,
) ([]integration.Image, error) {
	images := make([]integration.Image, 0, len(variant.Images))
	for i := range variant.Images {
		image, err := t.images.ParseImage(ctx, &variant.Images[i], product.Texts, result)
		if err != nil {
			return nil, fmt.Errorf("parse image %d: %w", variant.Images[i].ID, err)
		}
		if image == nil {
			continue
		}
		images = append(images, *image)
	}
	return images, nil
}

// unitIdentifier resolves the unit of a variant. A variant without unit has
// no unit identifier; a unit without mapping is an error.
func (t *VariationTransformer) unitIdentifier(ctx context.Context, variant *integration.RawVariant) (*string, error) {
	if variant.Unit == nil {
		return nil, nil
	}

	identity, err := t.identities.FindOneBy(
		ctx,
		integration.PlentymarketsCriteria(strconv.Itoa(variant.Unit.UnitID), integration.ObjectTypeUnit),
	)
	if err != nil {
		if errors.Is(err, integration.ErrIdentityNotFound) {
			return nil, fmt.Errorf("%w: unit %d", integration.ErrUnitMappingNotFound, variant.Unit.UnitID)
		}
		return nil, fmt.Errorf("resolve unit identity: %w", err)
	}

	identifier := identity.ObjectIdentifier
	return &identifier, nil
}

func (t *VariationTransformer) properties(ctx context.Context, variant *integration.RawVariant) ([]integration.Property, error) {
	properties := make([]integration.Property, 0, len(variant.VariationAttributeValues))
	for _, pair := range variant.VariationAttributeValues {
		attribute, value, err := t.referenceData.AttributeValue(ctx, pair.AttributeID, pair.ValueID)
		if err != nil {
			return nil, err
		}
		if value == nil || len(value.ValueNames) == 0 {
			continue
		}

		propertyTranslations, err := translate(ctx, t.identities, attribute.AttributeNames, integration.TranslationPropertyName)
		if err != nil {
			return nil, err
		}
		valueTranslations, err := translate(ctx, t.identities, value.ValueNames, integration.TranslationPropertyValue)
		if err != nil {
			return nil, err
		}

		name := attribute.BackendName
		if len(attribute.AttributeNames) > 0 {
			name = attribute.AttributeNames[0].Name
		}

		properties = append(properties, integration.Property{
			Name:     name,
			Position: attribute.Position,
			Values: []integration.Value{{
				Value:        value.ValueNames[0].Name,
				Position:     value.Position,
				Translations: valueTranslations,
			}},
			Translations: propertyTranslations,
		})
	}
	return properties, nil
}

// releaseDate derives the release date of a variant. A present position is
// used as epoch seconds; otherwise releasedAt is parsed. Unparsable values
// yield nil.
func releaseDate(variant *integration.RawVariant) *time.Time {
	if variant.Position != nil {
		date := time.Unix(int64(*variant.Position), 0).In(releaseDateLocation)
		return &date
	}

	if variant.ReleasedAt == nil {
		return nil
	}
	value := strings.TrimSpace(*variant.ReleasedAt)
	if value == "" {
		return nil
	}

	for _, layout := range releaseDateLayouts {
		date, err := time.ParseInLocation(layout, value, releaseDateLocation)
		if err == nil {
			return &date
		}
	}
	return nil
}

// weight returns the weight in kilograms, preferring the net weight
func weight(variant *integration.RawVariant) float64 {
	grams := variant.WeightG
	if variant.WeightNetG > 0 {
		grams = variant.WeightNetG
	}
	return float64(grams) / 1000
}
