package rto

import (
	"context"
	"fmt"

	"rtoflow/internal/core/apperror"
)

// FirstEligibleUnit is the unit selection policy: only the first returnable unit of an
// order is ever returned by this automation, as a single-line return.
func FirstEligibleUnit(units []ReturnableUnit) (ReturnableUnit, bool) {
	if len(units) == 0 {
		return ReturnableUnit{}, false
	}
	return units[0], true
}

// FinalQuantity applies the quantity policy: min(max(1, requested), remaining).
func FinalQuantity(requested, remaining int) int {
	qty := max(1, requested)
	return max(0, min(qty, remaining))
}

// ReturnOpener opens a return on the platform.
type ReturnOpener struct {
	platform Platform
}

// NewReturnOpener creates a new return opener.
func NewReturnOpener(platform Platform) *ReturnOpener {
	return &ReturnOpener{platform: platform}
}

// Open creates a single-line return for unit. The call is not idempotent and is never retried.
func (o *ReturnOpener) Open(ctx context.Context, orderID string, unit ReturnableUnit, quantity int, reason, note string) (*OpenedReturn, error) {
	if quantity < 1 {
		return nil, apperror.NewValidation("return quantity must be positive").
			WithDetail("quantity", quantity)
	}

	req := ReturnRequest{
		OrderID: orderID,
		Lines: []ReturnRequestLine{{
			FulfillmentLineItemID: unit.FulfillmentLineItemID,
			Quantity:              quantity,
			Reason:                reason,
			Note:                  note,
		}},
	}

	opened, err := o.platform.CreateReturn(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("create return: %w", err)
	}
	if opened == nil || opened.ReturnID == "" {
		return nil, apperror.NewPlatform("returnCreate", "return created without an id")
	}
	if len(opened.Lines) == 0 {
		return nil, apperror.NewPlatform("returnCreate", "return created without return lines").
			WithDetail("return_id", opened.ReturnID)
	}
	return opened, nil
}
