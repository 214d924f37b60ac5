package integration

import (
	"github.com/erp/connector/internal/domain/integration"
)

// electMainVariation marks the main variation of a product result.
//
// The helper reconciles the number of the raw main variant with the
// variations that survived the stock gate. The first variation carrying that
// number is flagged as main. When the policy checks the active state and the
// raw main variant is inactive, the elected variation is deactivated.
func electMainVariation(
	result *integration.ResultSet,
	helper integration.VariationHelper,
	mainNumber string,
	mainActive bool,
	policy ImportPolicy,
) *integration.Variation {
	variations := result.Variations()
	if len(variations) == 0 {
		return nil
	}

	number := helper.MainVariationNumber(mainNumber, variations)

	for _, variation := range variations {
		if variation.Number != number {
			continue
		}

		variation.IsMain = true
		if policy.CheckActiveMainVariation && !mainActive {
			variation.Active = false
		}
		return variation
	}

	return nil
}
