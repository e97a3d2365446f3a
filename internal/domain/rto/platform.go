package rto

import "context"

//go:generate mockgen -source=platform.go -destination=mocks/platform_mock.go -package=mocks

// Platform is the commerce platform as seen by the saga.
// Implementations apply their own per-call timeout and rate limiting.
type Platform interface {
	// FindOrderByName returns the order whose name equals name exactly.
	// A missing order is reported as an apperror with CodeNotFound.
	FindOrderByName(ctx context.Context, name string) (*OrderSnapshot, error)

	// ReturnableFulfillments lists the order's fulfillments with units still eligible for return.
	ReturnableFulfillments(ctx context.Context, orderID string) ([]ReturnableFulfillment, error)

	// CreateReturn opens a return. Not idempotent.
	CreateReturn(ctx context.Context, req ReturnRequest) (*OpenedReturn, error)

	// LoadReturnSnapshot reads the return lines, reverse fulfillment lines and the
	// order's assigned fulfillment locations in one round trip.
	LoadReturnSnapshot(ctx context.Context, returnID, orderID string) (*ReturnSnapshot, error)

	// ProcessReturn restocks the given entries and returns the platform return id. Not idempotent.
	ProcessReturn(ctx context.Context, req ProcessRequest) (string, error)
}
