package rto_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"rtoflow/internal/core/apperror"
	"rtoflow/internal/core/types"
	"rtoflow/internal/domain/rto"
	"rtoflow/internal/domain/rto/mocks"
)

const orderID = "gid://shopify/Order/42"

func notFound(name string) error { return apperror.NewNotFound("order", name) }

func unpaid(name string) *rto.OrderSnapshot {
	return &rto.OrderSnapshot{
		ID:              orderID,
		Name:            name,
		FinancialStatus: rto.FinancialPending,
		TotalPrice:      types.MustMoney("59.90"),
		HasTotal:        true,
		Currency:        "INR",
	}
}

func units(remaining int) []rto.ReturnableFulfillment {
	return []rto.ReturnableFulfillment{{
		FulfillmentID: "gid://shopify/Fulfillment/1",
		Units:         []rto.ReturnableUnit{{FulfillmentLineItemID: "fli-1", RemainingQuantity: remaining}},
	}}
}

func TestProcess_NotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	p := mocks.NewMockPlatform(ctrl)

	gomock.InOrder(
		p.EXPECT().FindOrderByName(gomock.Any(), "MA777").Return(nil, notFound("MA777")),
		p.EXPECT().FindOrderByName(gomock.Any(), "#MA777").Return(nil, notFound("#MA777")),
	)

	res := rto.NewService(p).Process(context.Background(), rto.ReturnJob{OrderIdentifier: "MA777", RequestedQuantity: 1})

	assert.Equal(t, rto.StatusNotFound, res.Status)
	assert.Equal(t, "MA777", res.OrderIdentifier)
	assert.Empty(t, res.ReturnID)
}

func TestProcess_SkipsPaidOrders(t *testing.T) {
	ctrl := gomock.NewController(t)
	p := mocks.NewMockPlatform(ctrl)

	paid := unpaid("#MA778")
	paid.FinancialStatus = rto.FinancialPaid
	gomock.InOrder(
		p.EXPECT().FindOrderByName(gomock.Any(), "MA778").Return(nil, notFound("MA778")),
		p.EXPECT().FindOrderByName(gomock.Any(), "#MA778").Return(paid, nil),
	)
	// No further expectations: any other platform call fails the test.

	res := rto.NewService(p).Process(context.Background(), rto.ReturnJob{OrderIdentifier: "MA778", RequestedQuantity: 3})

	assert.Equal(t, rto.StatusSkippedPaid, res.Status)
	require.NotNil(t, res.OrderTotal)
	assert.Equal(t, "59.9", res.OrderTotal.String())
}

func TestProcess_NoReturnables(t *testing.T) {
	ctrl := gomock.NewController(t)
	p := mocks.NewMockPlatform(ctrl)

	p.EXPECT().FindOrderByName(gomock.Any(), "#MA1001").Return(unpaid("#MA1001"), nil)
	p.EXPECT().ReturnableFulfillments(gomock.Any(), orderID).Return([]rto.ReturnableFulfillment{{FulfillmentID: "f-1"}}, nil)

	res := rto.NewService(p).Process(context.Background(), rto.ReturnJob{OrderIdentifier: "#MA1001", RequestedQuantity: 1})

	assert.Equal(t, rto.StatusNoReturnables, res.Status)
}

func TestProcess_ZeroRemaining(t *testing.T) {
	ctrl := gomock.NewController(t)
	p := mocks.NewMockPlatform(ctrl)

	p.EXPECT().FindOrderByName(gomock.Any(), "#MA1002").Return(unpaid("#MA1002"), nil)
	p.EXPECT().ReturnableFulfillments(gomock.Any(), orderID).Return(units(0), nil)

	res := rto.NewService(p).Process(context.Background(), rto.ReturnJob{OrderIdentifier: "#MA1002", RequestedQuantity: 4})

	assert.Equal(t, rto.StatusZeroRemaining, res.Status)
}

func expectHappyPath(p *mocks.MockPlatform, name string, remaining, wantQty int) {
	p.EXPECT().FindOrderByName(gomock.Any(), name).Return(unpaid(name), nil)
	p.EXPECT().ReturnableFulfillments(gomock.Any(), orderID).Return(units(remaining), nil)
	p.EXPECT().CreateReturn(gomock.Any(), rto.ReturnRequest{
		OrderID: orderID,
		Lines: []rto.ReturnRequestLine{{
			FulfillmentLineItemID: "fli-1",
			Quantity:              wantQty,
			Reason:                "OTHER",
			Note:                  "Returned to origin",
		}},
	}).Return(&rto.OpenedReturn{
		ReturnID: "gid://shopify/Return/7",
		Lines:    []rto.ReturnLine{{ReturnLineItemID: "rli-1", FulfillmentLineItemID: "fli-1", Quantity: wantQty}},
	}, nil)
}

func TestProcess_ReturnCreated_ClampsToRemaining(t *testing.T) {
	ctrl := gomock.NewController(t)
	p := mocks.NewMockPlatform(ctrl)

	expectHappyPath(p, "MA779", 2, 2)
	p.EXPECT().LoadReturnSnapshot(gomock.Any(), "gid://shopify/Return/7", orderID).Return(&rto.ReturnSnapshot{
		ReturnLines:  []rto.ReturnLine{{ReturnLineItemID: "rli-1", FulfillmentLineItemID: "fli-1", Quantity: 2}},
		ReverseLines: []rto.ReverseFulfillmentLine{{ID: "rfl-1", FulfillmentLineItemID: "fli-1", TotalQuantity: 2}},
		Locations:    []rto.StockLocation{{ID: "gid://shopify/Location/3"}},
	}, nil)
	p.EXPECT().ProcessReturn(gomock.Any(), rto.ProcessRequest{
		ReturnID: "gid://shopify/Return/7",
		Entries: []rto.DispositionEntry{{
			ReturnLineItemID:         "rli-1",
			ReverseFulfillmentLineID: "rfl-1",
			Quantity:                 2,
			LocationID:               "gid://shopify/Location/3",
		}},
	}).Return("gid://shopify/Return/7", nil)

	res := rto.NewService(p).Process(context.Background(), rto.ReturnJob{
		OrderIdentifier:   "MA779",
		RequestedQuantity: 5,
		Reason:            "OTHER",
		Note:              "Returned to origin",
	})

	assert.Equal(t, rto.StatusReturnCreated, res.Status)
	assert.Equal(t, "gid://shopify/Return/7", res.ReturnID)
	assert.Equal(t, 2, res.Quantity)
	assert.Equal(t, "INR", res.Currency)
	assert.True(t, res.Succeeded())
}

func TestProcess_UnmappedLines(t *testing.T) {
	ctrl := gomock.NewController(t)
	p := mocks.NewMockPlatform(ctrl)

	expectHappyPath(p, "MA780", 1, 1)
	p.EXPECT().LoadReturnSnapshot(gomock.Any(), gomock.Any(), orderID).Return(&rto.ReturnSnapshot{
		ReturnLines:  []rto.ReturnLine{{ReturnLineItemID: "rli-1", FulfillmentLineItemID: "fli-1", Quantity: 1}},
		ReverseLines: []rto.ReverseFulfillmentLine{{ID: "rfl-9", FulfillmentLineItemID: "fli-9", TotalQuantity: 1}},
		Locations:    []rto.StockLocation{{ID: "gid://shopify/Location/3"}},
	}, nil)

	res := rto.NewService(p).Process(context.Background(), rto.ReturnJob{
		OrderIdentifier: "MA780", RequestedQuantity: 1, Reason: "OTHER", Note: "Returned to origin",
	})

	assert.Equal(t, rto.StatusError, res.Status)
	assert.Equal(t, "Could not map return lines for disposition", res.Message)
	assert.Equal(t, "gid://shopify/Return/7", res.ReturnID, "opened return stays visible to operators")
}

func TestProcess_NoLocation(t *testing.T) {
	ctrl := gomock.NewController(t)
	p := mocks.NewMockPlatform(ctrl)

	expectHappyPath(p, "MA781", 1, 1)
	p.EXPECT().LoadReturnSnapshot(gomock.Any(), gomock.Any(), orderID).Return(&rto.ReturnSnapshot{
		ReturnLines:  []rto.ReturnLine{{ReturnLineItemID: "rli-1", FulfillmentLineItemID: "fli-1", Quantity: 1}},
		ReverseLines: []rto.ReverseFulfillmentLine{{ID: "rfl-1", FulfillmentLineItemID: "fli-1", TotalQuantity: 1}},
	}, nil)

	res := rto.NewService(p).Process(context.Background(), rto.ReturnJob{
		OrderIdentifier: "MA781", RequestedQuantity: 1, Reason: "OTHER", Note: "Returned to origin",
	})

	assert.Equal(t, rto.StatusError, res.Status)
	assert.Equal(t, "No location found to restock", res.Message)
}

func TestProcess_TransportErrorsAreVerbatim(t *testing.T) {
	ctrl := gomock.NewController(t)
	p := mocks.NewMockPlatform(ctrl)

	p.EXPECT().FindOrderByName(gomock.Any(), "MA1").Return(unpaid("MA1"), nil)
	p.EXPECT().ReturnableFulfillments(gomock.Any(), orderID).Return(nil, errors.New("read tcp: connection reset by peer"))

	res := rto.NewService(p).Process(context.Background(), rto.ReturnJob{OrderIdentifier: "MA1", RequestedQuantity: 1})

	assert.Equal(t, rto.StatusError, res.Status)
	assert.Equal(t, "returnable fulfillments: read tcp: connection reset by peer", res.Message)
}

func TestProcess_CommitFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	p := mocks.NewMockPlatform(ctrl)

	expectHappyPath(p, "MA782", 1, 1)
	p.EXPECT().LoadReturnSnapshot(gomock.Any(), gomock.Any(), orderID).Return(&rto.ReturnSnapshot{
		ReverseLines: []rto.ReverseFulfillmentLine{{ID: "rfl-1", FulfillmentLineItemID: "fli-1", TotalQuantity: 1}},
		Locations:    []rto.StockLocation{{ID: "loc"}},
	}, nil)
	p.EXPECT().ProcessReturn(gomock.Any(), gomock.Any()).
		Return("", apperror.NewPlatform("returnProcess", "Return line item quantity is invalid"))

	res := rto.NewService(p).Process(context.Background(), rto.ReturnJob{
		OrderIdentifier: "MA782", RequestedQuantity: 1, Reason: "OTHER", Note: "Returned to origin",
	})

	assert.Equal(t, rto.StatusError, res.Status)
	assert.Equal(t, "Return line item quantity is invalid", res.Message)
}

func TestProcess_PanicBecomesError(t *testing.T) {
	ctrl := gomock.NewController(t)
	p := mocks.NewMockPlatform(ctrl)

	p.EXPECT().FindOrderByName(gomock.Any(), "MA2").DoAndReturn(func(context.Context, string) (*rto.OrderSnapshot, error) {
		panic("nil map write")
	})

	res := rto.NewService(p).Process(context.Background(), rto.ReturnJob{OrderIdentifier: "MA2", RequestedQuantity: 1})

	assert.Equal(t, rto.StatusError, res.Status)
	assert.Equal(t, "panic: nil map write", res.Message)
}

func TestProcess_FloorsRequestedQuantity(t *testing.T) {
	tests := []struct {
		name      string
		requested int
	}{
		{"zero", 0},
		{"negative", -3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			p := mocks.NewMockPlatform(ctrl)

			expectHappyPath(p, "MA3", 2, 1)
			p.EXPECT().LoadReturnSnapshot(gomock.Any(), "gid://shopify/Return/7", orderID).Return(&rto.ReturnSnapshot{
				ReturnLines:  []rto.ReturnLine{{ReturnLineItemID: "rli-1", FulfillmentLineItemID: "fli-1", Quantity: 1}},
				ReverseLines: []rto.ReverseFulfillmentLine{{ID: "rfl-1", FulfillmentLineItemID: "fli-1", TotalQuantity: 1}},
				Locations:    []rto.StockLocation{{ID: "gid://shopify/Location/3"}},
			}, nil)
			p.EXPECT().ProcessReturn(gomock.Any(), gomock.Any()).Return("gid://shopify/Return/7", nil)

			res := rto.NewService(p).Process(context.Background(), rto.ReturnJob{
				OrderIdentifier:   "MA3",
				RequestedQuantity: tt.requested,
				Reason:            "OTHER",
				Note:              "Returned to origin",
			})

			assert.Equal(t, rto.StatusReturnCreated, res.Status)
			assert.Equal(t, 1, res.Quantity)
		})
	}
}

func TestProcess_BlankIdentifierIsNotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	p := mocks.NewMockPlatform(ctrl)

	// No EXPECT: any platform call fails the test.
	res := rto.NewService(p).Process(context.Background(), rto.ReturnJob{OrderIdentifier: "  ", RequestedQuantity: 1})

	assert.Equal(t, rto.StatusNotFound, res.Status)
	assert.Equal(t, "Order not found", res.Message)
}

func TestBatch_OneFailingJobKeepsOthers(t *testing.T) {
	ctrl := gomock.NewController(t)
	p := mocks.NewMockPlatform(ctrl)

	paid := unpaid("MA10")
	paid.FinancialStatus = rto.FinancialPaid
	p.EXPECT().FindOrderByName(gomock.Any(), "MA10").Return(paid, nil)
	p.EXPECT().FindOrderByName(gomock.Any(), "MA11").Return(nil, errors.New("i/o timeout"))
	p.EXPECT().FindOrderByName(gomock.Any(), "MA12").Return(paid, nil)

	runner := rto.NewBatchRunner(rto.NewService(p), rto.DefaultBatchConfig())
	results := runner.Run(context.Background(), []rto.ReturnJob{
		{OrderIdentifier: "MA10", RequestedQuantity: 1},
		{OrderIdentifier: "MA11", RequestedQuantity: 1},
		{OrderIdentifier: "MA12", RequestedQuantity: 1},
	})

	require.Len(t, results, 3)
	assert.Equal(t, rto.StatusSkippedPaid, results[0].Status)
	assert.Equal(t, rto.StatusError, results[1].Status)
	assert.Equal(t, `find order "MA11": i/o timeout`, results[1].Message)
	assert.Equal(t, rto.StatusSkippedPaid, results[2].Status)
}
