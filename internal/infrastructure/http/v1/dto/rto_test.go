package dto

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"rtoflow/internal/domain/rto"
)

func intPtr(v int) *int { return &v }

func TestBatchRequest_ToJobs(t *testing.T) {
	req := BatchRequest{
		Items: []BatchItem{
			{OrderName: " MA1 ", Quantity: intPtr(3)},
			{OrderName: "#MA2"},
			{OrderName: "MA3", Quantity: intPtr(0)},
		},
		ReturnReasonNote: "Courier RTO",
	}

	jobs := req.ToJobs(ReturnDefaults{Reason: "OTHER", Note: "Returned to origin"})

	assert.Equal(t, []rto.ReturnJob{
		{OrderIdentifier: "MA1", RequestedQuantity: 3, Reason: "OTHER", Note: "Courier RTO"},
		{OrderIdentifier: "#MA2", RequestedQuantity: 1, Reason: "OTHER", Note: "Courier RTO"},
		{OrderIdentifier: "MA3", RequestedQuantity: 1, Reason: "OTHER", Note: "Courier RTO"},
	}, jobs)
}

func TestSingleRequest_ToJob(t *testing.T) {
	req := SingleRequest{OrderName: "MA779", Quantity: -2, ReturnReason: "UNWANTED"}

	job := req.ToJob(ReturnDefaults{Reason: "OTHER", Note: "Returned to origin"})

	assert.Equal(t, rto.ReturnJob{
		OrderIdentifier:   "MA779",
		RequestedQuantity: 1,
		Reason:            "UNWANTED",
		Note:              "Returned to origin",
	}, job)
}

func TestNewBatchResponse(t *testing.T) {
	resp := NewBatchResponse("b-1", []rto.JobResult{
		{Status: rto.StatusReturnCreated},
		{Status: rto.StatusNotFound},
		{Status: rto.StatusReturnCreated},
	})

	assert.True(t, resp.Success)
	assert.Equal(t, map[rto.Status]int{rto.StatusReturnCreated: 2, rto.StatusNotFound: 1}, resp.Summary)
}
