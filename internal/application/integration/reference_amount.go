package integration

import (
	"context"
	"fmt"
	"sync"

	"github.com/erp/connector/internal/domain/integration"
)

// Units of measurement whose base price refers to 100 units for small contents
var smallQuantityUnits = map[string]bool{
	"GRM": true, // gram
	"MLT": true, // millilitre
}

// UnitReferenceAmountCalculator derives the base price reference amount
// from the unit of a variant. Gram and millilitre contents up to 250 refer
// to 100 units, larger contents to 1000; every other unit refers to 1.
type UnitReferenceAmountCalculator struct {
	units integration.UnitReader

	mu    sync.Mutex
	codes map[int]string
}

// NewReferenceAmountCalculator creates a UnitReferenceAmountCalculator
func NewReferenceAmountCalculator(units integration.UnitReader) *UnitReferenceAmountCalculator {
	return &UnitReferenceAmountCalculator{units: units}
}

// Reset drops the cached units
func (c *UnitReferenceAmountCalculator) Reset() {
	c.mu.Lock()
	c.codes = nil
	c.mu.Unlock()
}

// Calculate returns the reference amount of a variant
func (c *UnitReferenceAmountCalculator) Calculate(ctx context.Context, variant *integration.RawVariant) (float64, error) {
	if variant.Unit == nil || variant.Unit.Content <= 1 {
		return 1, nil
	}

	code, err := c.unitCode(ctx, variant.Unit.UnitID)
	if err != nil {
		return 0, err
	}
	if !smallQuantityUnits[code] {
		return 1, nil
	}
	if variant.Unit.Content <= 250 {
		return 100, nil
	}
	return 1000, nil
}

func (c *UnitReferenceAmountCalculator) unitCode(ctx context.Context, unitID int) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.codes == nil {
		units, err := c.units.FindAll(ctx)
		if err != nil {
			return "", fmt.Errorf("%w: units: %w", integration.ErrReferenceDataFailure, err)
		}
		codes := make(map[int]string, len(units))
		for _, unit := range units {
			codes[unit.ID] = unit.UnitOfMeasurement
		}
		c.codes = codes
	}

	return c.codes[unitID], nil
}

// Ensure UnitReferenceAmountCalculator implements ReferenceAmountCalculator
var _ integration.ReferenceAmountCalculator = (*UnitReferenceAmountCalculator)(nil)
