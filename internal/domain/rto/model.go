// Package rto implements the Return-to-Origin saga: locate an order on the commerce
// platform, open a return for its first returnable unit and restock it.
package rto

import (
	"strings"

	"rtoflow/internal/core/types"
)

// Status is the terminal outcome of one job.
type Status string

const (
	StatusNotFound      Status = "not_found"
	StatusSkippedPaid   Status = "skipped_paid"
	StatusNoReturnables Status = "no_returnables"
	StatusZeroRemaining Status = "zero_remaining"
	StatusReturnCreated Status = "return_created"
	StatusError         Status = "error"
)

func (s Status) String() string { return string(s) }

// IsValid reports whether s is one of the terminal statuses.
func (s Status) IsValid() bool {
	switch s {
	case StatusNotFound, StatusSkippedPaid, StatusNoReturnables,
		StatusZeroRemaining, StatusReturnCreated, StatusError:
		return true
	}
	return false
}

// FinancialStatus is the order's payment state, lower-cased.
type FinancialStatus string

const (
	FinancialPending           FinancialStatus = "pending"
	FinancialAuthorized        FinancialStatus = "authorized"
	FinancialPartiallyPaid     FinancialStatus = "partially_paid"
	FinancialPaid              FinancialStatus = "paid"
	FinancialPartiallyRefunded FinancialStatus = "partially_refunded"
	FinancialRefunded          FinancialStatus = "refunded"
	FinancialVoided            FinancialStatus = "voided"
	FinancialExpired           FinancialStatus = "expired"
)

// ParseFinancialStatus normalizes platform values such as "PAID" or "Partially Paid".
func ParseFinancialStatus(s string) FinancialStatus {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, " ", "_")
	return FinancialStatus(s)
}

// ReturnJob is one (order, quantity) request.
type ReturnJob struct {
	OrderIdentifier   string `json:"orderIdentifier"`
	RequestedQuantity int    `json:"requestedQuantity"`
	Reason            string `json:"reason,omitempty"`
	Note              string `json:"note,omitempty"`
}

// OrderSnapshot is the platform's current view of an order. Never cached across jobs.
type OrderSnapshot struct {
	ID              string
	Name            string
	FinancialStatus FinancialStatus
	TotalPrice      types.Money
	HasTotal        bool
	Currency        string
}

// ReturnableFulfillment groups the returnable units of one fulfillment.
type ReturnableFulfillment struct {
	FulfillmentID string
	Units         []ReturnableUnit
}

// ReturnableUnit is a fulfilled line that has not been fully returned yet.
type ReturnableUnit struct {
	FulfillmentLineItemID string
	RemainingQuantity     int
}

// ReturnRequestLine is one requested return line.
type ReturnRequestLine struct {
	FulfillmentLineItemID string
	Quantity              int
	Reason                string
	Note                  string
}

// ReturnRequest is the input of the return-create mutation.
type ReturnRequest struct {
	OrderID string
	Lines   []ReturnRequestLine
}

// ReturnLine is a line of an opened return.
type ReturnLine struct {
	ReturnLineItemID      string
	FulfillmentLineItemID string
	Quantity              int
}

// OpenedReturn is the durable return created on the platform.
type OpenedReturn struct {
	ReturnID string
	Lines    []ReturnLine
}

// ReverseFulfillmentLine is the platform's logistics record for a returned unit.
// Only FulfillmentLineItemID is shared with ReturnLine.
type ReverseFulfillmentLine struct {
	ID                    string
	FulfillmentLineItemID string
	TotalQuantity         int
}

// StockLocation is where returned units are restocked.
type StockLocation struct {
	ID string
}

// ReturnSnapshot is the combined read issued after a return is opened.
type ReturnSnapshot struct {
	ReturnLines  []ReturnLine
	ReverseLines []ReverseFulfillmentLine
	Locations    []StockLocation
}

// DispositionEntry restocks Quantity units of one return line at LocationID.
type DispositionEntry struct {
	ReturnLineItemID         string
	ReverseFulfillmentLineID string
	Quantity                 int
	LocationID               string
}

// Reconciliation is the joined result ready to be committed.
type Reconciliation struct {
	Entries    []DispositionEntry
	LocationID string
}

// ProcessRequest is the input of the return-process mutation.
type ProcessRequest struct {
	ReturnID string
	Entries  []DispositionEntry
}

// JobResult is the terminal, externally visible outcome of one job.
type JobResult struct {
	OrderIdentifier string       `json:"orderIdentifier"`
	Status          Status       `json:"status"`
	Message         string       `json:"message,omitempty"`
	ReturnID        string       `json:"returnId,omitempty"`
	Quantity        int          `json:"quantity,omitempty"`
	OrderTotal      *types.Money `json:"orderTotal,omitempty"`
	Currency        string       `json:"currency,omitempty"`
}

// Succeeded reports whether the return was created and restocked.
func (r JobResult) Succeeded() bool {
	return r.Status == StatusReturnCreated
}
