package integration

import (
	"sort"

	"github.com/erp/connector/internal/domain/integration"
)

// SelectCandidates picks the variants of a product that are transformed, in
// build order. It returns the raw main variant and false when the product has
// no main variant, in which case nothing of the product is imported.
//
// Multi-pack products only keep their main variants. When several variants
// remain, variants without attribute values are dropped. The remaining
// variants are stably sorted by position.
func SelectCandidates(
	product *integration.RawProduct,
	helper integration.VariationHelper,
) (*integration.RawVariant, []integration.RawVariant, bool) {
	main, ok := helper.MainVariation(product.Variations)
	if !ok || main == nil {
		return nil, nil, false
	}

	candidates := make([]integration.RawVariant, len(product.Variations))
	copy(candidates, product.Variations)

	if product.ItemType == integration.ItemTypeMultiPack {
		candidates = filterVariants(candidates, func(v *integration.RawVariant) bool {
			return v.IsMain
		})
	}

	if len(candidates) > 1 {
		candidates = filterVariants(candidates, func(v *integration.RawVariant) bool {
			return len(v.VariationAttributeValues) > 0
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].PositionValue() < candidates[j].PositionValue()
	})

	return main, candidates, true
}

func filterVariants(
	variants []integration.RawVariant,
	keep func(v *integration.RawVariant) bool,
) []integration.RawVariant {
	filtered := make([]integration.RawVariant, 0, len(variants))
	for i := range variants {
		if keep(&variants[i]) {
			filtered = append(filtered, variants[i])
		}
	}
	return filtered
}
