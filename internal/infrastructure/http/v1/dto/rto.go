package dto

import (
	"strings"

	"rtoflow/internal/domain/rto"
)

// ReturnDefaults fill reason and note when a request omits them.
type ReturnDefaults struct {
	Reason string
	Note   string
}

// Resolve returns reason and note, falling back to the defaults when blank.
func (d ReturnDefaults) Resolve(reason, note string) (string, string) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = d.Reason
	}
	note = strings.TrimSpace(note)
	if note == "" {
		note = d.Note
	}
	return reason, note
}

// --- Request DTOs ---

// BatchItem is one order in a JSON batch.
type BatchItem struct {
	OrderName string `json:"orderName" binding:"required"`
	Quantity  *int   `json:"quantity"`
}

// BatchRequest is the JSON body of POST /rto/batch.
type BatchRequest struct {
	Items            []BatchItem `json:"items" binding:"required,min=1,dive"`
	ReturnReason     string      `json:"returnReason"`
	ReturnReasonNote string      `json:"returnReasonNote"`
}

// ToJobs converts the request. Missing or non-positive quantities become 1.
func (r *BatchRequest) ToJobs(defaults ReturnDefaults) []rto.ReturnJob {
	reason, note := defaults.Resolve(r.ReturnReason, r.ReturnReasonNote)
	jobs := make([]rto.ReturnJob, 0, len(r.Items))
	for _, item := range r.Items {
		qty := 1
		if item.Quantity != nil {
			qty = max(1, *item.Quantity)
		}
		jobs = append(jobs, rto.ReturnJob{
			OrderIdentifier:   strings.TrimSpace(item.OrderName),
			RequestedQuantity: qty,
			Reason:            reason,
			Note:              note,
		})
	}
	return jobs
}

// SingleRequest is the JSON body of POST /rto/single.
type SingleRequest struct {
	OrderName        string `json:"orderName" binding:"required"`
	Quantity         int    `json:"quantity"`
	ReturnReason     string `json:"returnReason"`
	ReturnReasonNote string `json:"returnReasonNote"`
}

// ToJob converts the request. The quantity is floored at 1.
func (r *SingleRequest) ToJob(defaults ReturnDefaults) rto.ReturnJob {
	reason, note := defaults.Resolve(r.ReturnReason, r.ReturnReasonNote)
	return rto.ReturnJob{
		OrderIdentifier:   strings.TrimSpace(r.OrderName),
		RequestedQuantity: max(1, r.Quantity),
		Reason:            reason,
		Note:              note,
	}
}

// --- Response DTOs ---

// BatchResponse is returned for every processed batch, whatever the per-job outcomes.
type BatchResponse struct {
	Success bool               `json:"success"`
	BatchID string             `json:"batchId"`
	Summary map[rto.Status]int `json:"summary"`
	Results []rto.JobResult    `json:"results"`
}

// NewBatchResponse creates a batch response.
func NewBatchResponse(batchID string, results []rto.JobResult) BatchResponse {
	return BatchResponse{
		Success: true,
		BatchID: batchID,
		Summary: rto.Summarize(results),
		Results: results,
	}
}

// SingleResponse wraps one job result. Success is true only when the return was created.
type SingleResponse struct {
	Success bool          `json:"success"`
	Result  rto.JobResult `json:"result"`
}
