package integration

import (
	"github.com/erp/connector/internal/domain/integration"
)

// DefaultVariationHelper elects the first variant flagged as main
type DefaultVariationHelper struct{}

// NewVariationHelper creates a DefaultVariationHelper
func NewVariationHelper() *DefaultVariationHelper {
	return &DefaultVariationHelper{}
}

// MainVariation returns a copy of the first variant flagged as main
func (h *DefaultVariationHelper) MainVariation(variants []integration.RawVariant) (*integration.RawVariant, bool) {
	for i := range variants {
		if variants[i].IsMain {
			main := variants[i]
			return &main, true
		}
	}
	return nil, false
}

// MainVariationNumber keeps the number of the raw main variant when a built
// variation carries it. Otherwise the main variant was not imported and the
// first built variation takes its place.
func (h *DefaultVariationHelper) MainVariationNumber(mainNumber string, variations []*integration.Variation) string {
	if len(variations) == 0 {
		return ""
	}
	for _, variation := range variations {
		if variation.Number == mainNumber {
			return mainNumber
		}
	}
	return variations[0].Number
}

// Ensure DefaultVariationHelper implements VariationHelper
var _ integration.VariationHelper = (*DefaultVariationHelper)(nil)
