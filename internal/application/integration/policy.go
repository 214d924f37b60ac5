package integration

import (
	"context"
	"fmt"
	"strings"

	"github.com/erp/connector/internal/domain/integration"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Connector setting keys read at the start of a run
const (
	ConfigKeyImportVariationsWithoutStock = "import_variations_without_stock"
	ConfigKeyCheckActiveMainVariation     = "check_active_main_variation"
	ConfigKeyVariationNumberField         = "variation_number_field"
)

// VariationNumberFieldNumber selects the raw number as variation number.
// Any other value selects the raw variation ID.
const VariationNumberFieldNumber = "number"

// ImportPolicy is the typed snapshot of the settings that gate a run
type ImportPolicy struct {
	// ImportVariationsWithoutStock keeps variations whose stock is empty
	ImportVariationsWithoutStock bool
	// CheckActiveMainVariation deactivates the main variation when the raw
	// main variation is inactive
	CheckActiveMainVariation bool
	// VariationNumberField selects the source of the variation number
	VariationNumberField string
}

// DefaultImportPolicy returns the policy used when nothing is configured
func DefaultImportPolicy() ImportPolicy {
	return ImportPolicy{
		ImportVariationsWithoutStock: true,
		CheckActiveMainVariation:     false,
		VariationNumberField:         VariationNumberFieldNumber,
	}
}

// UsesNumberField returns true if the raw number is the variation number
func (p ImportPolicy) UsesNumberField() bool {
	return p.VariationNumberField == VariationNumberFieldNumber
}

// LoadImportPolicy resolves the policy snapshot from the config service
func LoadImportPolicy(ctx context.Context, config integration.ConfigService) (ImportPolicy, error) {
	policy := DefaultImportPolicy()

	value, err := config.Get(ctx, ConfigKeyImportVariationsWithoutStock, true)
	if err != nil {
		return policy, fmt.Errorf("read %s: %w", ConfigKeyImportVariationsWithoutStock, err)
	}
	policy.ImportVariationsWithoutStock = truthy(value)

	value, err = config.Get(ctx, ConfigKeyCheckActiveMainVariation, nil)
	if err != nil {
		return policy, fmt.Errorf("read %s: %w", ConfigKeyCheckActiveMainVariation, err)
	}
	policy.CheckActiveMainVariation = truthy(value)

	value, err = config.Get(ctx, ConfigKeyVariationNumberField, VariationNumberFieldNumber)
	if err != nil {
		return policy, fmt.Errorf("read %s: %w", ConfigKeyVariationNumberField, err)
	}
	policy.VariationNumberField = ""
	if field, ok := value.(string); ok {
		policy.VariationNumberField = field
	}

	return policy, nil
}

// truthy interprets a stored setting. Strings hold JSON encoded values, so
// "true", "1" and "\"yes\"" are true while "false", "0", "" and undecodable
// text are false.
func truthy(value any) bool {
	switch v := value.(type) {
	case nil:
		return false
	case bool:
		return v
	case int:
		return v != 0
	case int64:
		return v != 0
	case float64:
		return v != 0
	case string:
		var decoded any
		if err := json.Unmarshal([]byte(strings.TrimSpace(v)), &decoded); err != nil {
			return false
		}
		if s, ok := decoded.(string); ok {
			return s != "" && s != "0"
		}
		return truthy(decoded)
	case []any:
		return len(v) > 0
	case map[string]any:
		return len(v) > 0
	default:
		return true
	}
}
