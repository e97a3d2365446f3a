package rto

import (
	"errors"

	"rtoflow/internal/core/apperror"
)

// Operator-facing messages for saga failures.
const (
	MsgNoRestockLocation = "No location found to restock"
	MsgUnmappedLines     = "Could not map return lines for disposition"
)

// ErrOrderNotFound is returned by OrderLocator when no identifier variant resolves.
var ErrOrderNotFound = errors.New("order not found")

func errNoRestockLocation(returnID string) error {
	return apperror.NewBusinessRule(apperror.CodeNoRestockLocation, MsgNoRestockLocation).
		WithDetail("return_id", returnID)
}

func errUnmappedLines(returnID string, lines int) error {
	return apperror.NewBusinessRule(apperror.CodeUnmappedReturnLines, MsgUnmappedLines).
		WithDetail("return_id", returnID).
		WithDetail("return_lines", lines)
}

// failureMessage renders err for JobResult.Message.
// Domain errors expose their curated message; anything else is reported verbatim.
func failureMessage(err error) string {
	if appErr, ok := apperror.AsAppError(err); ok {
		switch appErr.Code {
		case apperror.CodeNoRestockLocation, apperror.CodeUnmappedReturnLines,
			apperror.CodeValidation, apperror.CodePlatform:
			return appErr.Message
		}
	}
	return err.Error()
}
