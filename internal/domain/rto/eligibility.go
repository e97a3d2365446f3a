package rto

import (
	"context"
	"fmt"
)

// EligibilityInspector lists the units of an order that can still be returned.
type EligibilityInspector struct {
	platform Platform
}

// NewEligibilityInspector creates a new eligibility inspector.
func NewEligibilityInspector(platform Platform) *EligibilityInspector {
	return &EligibilityInspector{platform: platform}
}

// Inspect flattens the platform's grouped view, preserving platform order.
// An order without open fulfillments yields an empty slice.
func (i *EligibilityInspector) Inspect(ctx context.Context, orderID string) ([]ReturnableUnit, error) {
	groups, err := i.platform.ReturnableFulfillments(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("returnable fulfillments: %w", err)
	}

	units := make([]ReturnableUnit, 0, len(groups))
	for _, g := range groups {
		units = append(units, g.Units...)
	}
	return units, nil
}
