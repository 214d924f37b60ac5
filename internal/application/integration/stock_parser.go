package integration

import (
	"context"
	"fmt"

	"github.com/erp/connector/internal/domain/integration"
	"github.com/shopspring/decimal"
)

// NetStockParser builds the stock of a variant from the net stock of all of
// its warehouses
type NetStockParser struct {
	identities integration.IdentityService
}

// NewNetStockParser creates a new NetStockParser
func NewNetStockParser(identities integration.IdentityService) *NetStockParser {
	return &NetStockParser{identities: identities}
}

// Parse sums the net stock of the variant. Negative warehouse stock counts
// as zero.
func (p *NetStockParser) Parse(ctx context.Context, variant *integration.RawVariant) (*integration.Stock, error) {
	stockIdentity, err := p.identities.FindOneOrCreate(ctx, variant.AdapterIdentifier(), integration.PlentymarketsAdapterName, integration.ObjectTypeStock)
	if err != nil {
		return nil, fmt.Errorf("resolve stock identity: %w", err)
	}
	variationIdentity, err := p.identities.FindOneOrCreate(ctx, variant.AdapterIdentifier(), integration.PlentymarketsAdapterName, integration.ObjectTypeVariation)
	if err != nil {
		return nil, fmt.Errorf("resolve variation identity: %w", err)
	}

	total := decimal.Zero
	for _, stock := range variant.Stock {
		quantity := decimal.NewFromFloat(stock.NetStock)
		if quantity.IsPositive() {
			total = total.Add(quantity)
		}
	}

	return &integration.Stock{
		Identifier:          stockIdentity.ObjectIdentifier,
		VariationIdentifier: variationIdentity.ObjectIdentifier,
		Stock:               total,
	}, nil
}

// Ensure NetStockParser implements StockParser
var _ integration.StockParser = (*NetStockParser)(nil)
