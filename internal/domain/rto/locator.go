package rto

import (
	"context"
	"fmt"
	"strings"

	"rtoflow/internal/core/apperror"
	"rtoflow/pkg/logger"
)

// OrderMarker is the optional prefix of human-entered order names.
const OrderMarker = "#"

// OrderLocator resolves a human-entered order identifier to the platform order.
type OrderLocator struct {
	platform Platform
}

// NewOrderLocator creates a new order locator.
func NewOrderLocator(platform Platform) *OrderLocator {
	return &OrderLocator{platform: platform}
}

// Locate tries the identifier as given, then with the marker toggled.
// Returns ErrOrderNotFound when neither variant resolves; transport errors are returned as is.
func (l *OrderLocator) Locate(ctx context.Context, identifier string) (*OrderSnapshot, error) {
	for _, name := range NameVariants(identifier) {
		order, err := l.platform.FindOrderByName(ctx, name)
		if err == nil {
			logger.Debug(ctx, "order located", "identifier", identifier, "name", name, "order_id", order.ID)
			return order, nil
		}
		if !apperror.IsNotFound(err) {
			return nil, fmt.Errorf("find order %q: %w", name, err)
		}
	}
	return nil, ErrOrderNotFound
}

// NameVariants returns the lookup order: the trimmed identifier first, then the
// marker-toggled form. Blank variants are omitted.
func NameVariants(identifier string) []string {
	exact := strings.TrimSpace(identifier)
	if exact == "" {
		return nil
	}

	var toggled string
	if strings.HasPrefix(exact, OrderMarker) {
		toggled = strings.TrimSpace(strings.TrimPrefix(exact, OrderMarker))
	} else {
		toggled = OrderMarker + exact
	}

	if toggled == "" {
		return []string{exact}
	}
	return []string{exact, toggled}
}
