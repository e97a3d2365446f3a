package rto

import (
	"context"
	"fmt"

	"rtoflow/pkg/logger"
)

// ReconciliationLoader maps the lines of an opened return onto the platform's
// reverse fulfillment lines and resolves the restock location.
type ReconciliationLoader struct {
	platform Platform
}

// NewReconciliationLoader creates a new reconciliation loader.
func NewReconciliationLoader(platform Platform) *ReconciliationLoader {
	return &ReconciliationLoader{platform: platform}
}

// Load issues the combined read for the return and joins it.
func (l *ReconciliationLoader) Load(ctx context.Context, opened *OpenedReturn, orderID string) (*Reconciliation, error) {
	snap, err := l.platform.LoadReturnSnapshot(ctx, opened.ReturnID, orderID)
	if err != nil {
		return nil, fmt.Errorf("load return snapshot: %w", err)
	}
	return Reconcile(ctx, opened, snap)
}

// Reconcile joins snap against opened on the fulfillment line item id.
//
// The location is the first non-empty assigned location. Each return line of opened
// is matched with the first reverse line sharing its fulfillment line item; quantity is
// the minimum reported by the opened line, the re-read return line and the reverse line.
// Unmatched lines are dropped; no match at all is an error.
func Reconcile(ctx context.Context, opened *OpenedReturn, snap *ReturnSnapshot) (*Reconciliation, error) {
	locationID := firstLocation(snap.Locations)
	if locationID == "" {
		return nil, errNoRestockLocation(opened.ReturnID)
	}

	openedByID := make(map[string]ReturnLine, len(opened.Lines))
	for _, line := range opened.Lines {
		openedByID[line.ReturnLineItemID] = line
	}

	lines := snap.ReturnLines
	if len(lines) == 0 {
		lines = opened.Lines
	}

	entries := make([]DispositionEntry, 0, len(lines))
	used := make(map[string]int, len(lines))
	for _, line := range lines {
		own, ok := openedByID[line.ReturnLineItemID]
		if !ok {
			logger.Warn(ctx, "return line not part of opened return, skipped",
				"return_id", opened.ReturnID,
				"return_line_item_id", line.ReturnLineItemID,
			)
			continue
		}

		fulfillmentLineID := line.FulfillmentLineItemID
		if fulfillmentLineID == "" {
			fulfillmentLineID = own.FulfillmentLineItemID
		}

		reverse, candidates := matchReverseLine(snap.ReverseLines, fulfillmentLineID)
		if candidates == 0 {
			continue
		}
		if candidates > 1 {
			logger.Warn(ctx, "multiple reverse fulfillment lines match, using first",
				"return_id", opened.ReturnID,
				"fulfillment_line_item_id", fulfillmentLineID,
				"candidates", candidates,
				"chosen", reverse.ID,
			)
		}

		qty := min(own.Quantity, reverse.TotalQuantity)
		if line.Quantity > 0 {
			qty = min(qty, line.Quantity)
		}
		qty = min(qty, own.Quantity-used[own.ReturnLineItemID])
		if qty <= 0 {
			continue
		}
		used[own.ReturnLineItemID] += qty

		entries = append(entries, DispositionEntry{
			ReturnLineItemID:         own.ReturnLineItemID,
			ReverseFulfillmentLineID: reverse.ID,
			Quantity:                 qty,
			LocationID:               locationID,
		})
	}

	if len(entries) == 0 {
		return nil, errUnmappedLines(opened.ReturnID, len(lines))
	}

	return &Reconciliation{Entries: entries, LocationID: locationID}, nil
}

func firstLocation(locations []StockLocation) string {
	for _, loc := range locations {
		if loc.ID != "" {
			return loc.ID
		}
	}
	return ""
}

// matchReverseLine returns the first reverse line for fulfillmentLineID and the number of candidates.
func matchReverseLine(lines []ReverseFulfillmentLine, fulfillmentLineID string) (ReverseFulfillmentLine, int) {
	var first ReverseFulfillmentLine
	count := 0
	if fulfillmentLineID == "" {
		return first, 0
	}
	for _, rl := range lines {
		if rl.FulfillmentLineItemID != fulfillmentLineID {
			continue
		}
		if count == 0 {
			first = rl
		}
		count++
	}
	return first, count
}
