package rto

import (
	"context"
	"fmt"

	"rtoflow/internal/core/apperror"
)

// DispositionCommitter finalizes a return by restocking its mapped lines.
type DispositionCommitter struct {
	platform Platform
}

// NewDispositionCommitter creates a new disposition committer.
func NewDispositionCommitter(platform Platform) *DispositionCommitter {
	return &DispositionCommitter{platform: platform}
}

// Commit submits the restock mutation. Not idempotent; never retried.
func (c *DispositionCommitter) Commit(ctx context.Context, returnID string, rec *Reconciliation) (string, error) {
	if len(rec.Entries) == 0 {
		return "", apperror.NewValidation("nothing to restock").WithDetail("return_id", returnID)
	}

	processedID, err := c.platform.ProcessReturn(ctx, ProcessRequest{
		ReturnID: returnID,
		Entries:  rec.Entries,
	})
	if err != nil {
		return "", fmt.Errorf("process return: %w", err)
	}
	if processedID == "" {
		processedID = returnID
	}
	return processedID, nil
}
