package integration

import (
	"context"

	"github.com/erp/connector/internal/domain/integration"
	"github.com/shopspring/decimal"
)

// SalesPriceParser turns the sales prices of a variant into prices valid
// from the first unit. One sales price may be marked as pseudo (list) price.
type SalesPriceParser struct {
	pseudoSalesPriceID int
}

// NewSalesPriceParser creates a parser; a pseudoSalesPriceID of 0 disables
// pseudo prices
func NewSalesPriceParser(pseudoSalesPriceID int) *SalesPriceParser {
	return &SalesPriceParser{pseudoSalesPriceID: pseudoSalesPriceID}
}

// Parse returns the prices of the variant in input order. Prices that are
// not positive are skipped.
func (p *SalesPriceParser) Parse(_ context.Context, variant *integration.RawVariant) ([]integration.Price, error) {
	pseudoPrice := decimal.Zero
	for _, salesPrice := range variant.VariationSalesPrices {
		if p.isPseudo(salesPrice) {
			pseudoPrice = decimal.NewFromFloat(salesPrice.Price).Round(2)
		}
	}

	prices := make([]integration.Price, 0, len(variant.VariationSalesPrices))
	for _, salesPrice := range variant.VariationSalesPrices {
		if p.isPseudo(salesPrice) {
			continue
		}
		price := decimal.NewFromFloat(salesPrice.Price).Round(2)
		if !price.IsPositive() {
			continue
		}
		prices = append(prices, integration.Price{
			Price:       price,
			PseudoPrice: pseudoPrice,
			FromAmount:  1,
		})
	}
	return prices, nil
}

func (p *SalesPriceParser) isPseudo(salesPrice integration.RawSalesPrice) bool {
	return p.pseudoSalesPriceID != 0 && salesPrice.SalesPriceID == p.pseudoSalesPriceID
}

// Ensure SalesPriceParser implements PriceParser
var _ integration.PriceParser = (*SalesPriceParser)(nil)
