// Package context provides request-scoped values extraction.
package context

import (
	"context"
)

// BatchContext identifies the batch a job belongs to.
type BatchContext struct {
	BatchID string
	Source  string // http, http-single, cli
	Size    int
}

type batchContextKey struct{}

// WithBatch adds BatchContext to context.
func WithBatch(ctx context.Context, batch *BatchContext) context.Context {
	return context.WithValue(ctx, batchContextKey{}, batch)
}

// GetBatch returns BatchContext from context.
func GetBatch(ctx context.Context) *BatchContext {
	if v, ok := ctx.Value(batchContextKey{}).(*BatchContext); ok {
		return v
	}
	return nil
}

// GetBatchID returns batch ID from context or empty string.
func GetBatchID(ctx context.Context) string {
	if b := GetBatch(ctx); b != nil {
		return b.BatchID
	}
	return ""
}
