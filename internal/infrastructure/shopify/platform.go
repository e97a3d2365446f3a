package shopify

import (
	"context"
	"fmt"
	"strings"

	"rtoflow/internal/core/apperror"
	"rtoflow/internal/core/types"
	"rtoflow/internal/domain/rto"
)

// Compile-time check that Client implements rto.Platform.
var _ rto.Platform = (*Client)(nil)

type idRef struct {
	ID string `json:"id"`
}

type userError struct {
	Field   []string `json:"field"`
	Message string   `json:"message"`
}

type moneyV2 struct {
	Amount       string `json:"amount"`
	CurrencyCode string `json:"currencyCode"`
}

type orderNode struct {
	ID                     string `json:"id"`
	Name                   string `json:"name"`
	DisplayFinancialStatus string `json:"displayFinancialStatus"`
	TotalPriceSet          *struct {
		ShopMoney moneyV2 `json:"shopMoney"`
	} `json:"totalPriceSet"`
}

type ordersData struct {
	Orders struct {
		Nodes []orderNode `json:"nodes"`
	} `json:"orders"`
}

// FindOrderByName implements rto.Platform.
func (c *Client) FindOrderByName(ctx context.Context, name string) (*rto.OrderSnapshot, error) {
	const op = "orders"

	var data ordersData
	vars := map[string]any{"query": "name:" + quoteSearch(name)}
	if err := c.do(ctx, op, orderByNameQuery, vars, &data); err != nil {
		return nil, err
	}

	// Search is fuzzy; only an exact name match counts.
	for _, node := range data.Orders.Nodes {
		if node.Name != name {
			continue
		}
		return toOrderSnapshot(op, node)
	}
	return nil, apperror.NewNotFound("order", name)
}

func toOrderSnapshot(op string, node orderNode) (*rto.OrderSnapshot, error) {
	if node.ID == "" {
		return nil, apperror.NewPlatform(op, fmt.Sprintf("order %s returned without an id", node.Name))
	}
	snap := &rto.OrderSnapshot{
		ID:              node.ID,
		Name:            node.Name,
		FinancialStatus: rto.ParseFinancialStatus(node.DisplayFinancialStatus),
	}
	if node.TotalPriceSet != nil {
		amount, ok, err := types.ParseAmount(node.TotalPriceSet.ShopMoney.Amount)
		if err != nil {
			return nil, apperror.NewPlatform(op, err.Error())
		}
		snap.TotalPrice = amount
		snap.HasTotal = ok
		snap.Currency = node.TotalPriceSet.ShopMoney.CurrencyCode
	}
	return snap, nil
}

// quoteSearch quotes a value for the Shopify search syntax.
func quoteSearch(v string) string {
	v = strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(v)
	return `"` + v + `"`
}

type returnableData struct {
	ReturnableFulfillments struct {
		Nodes []struct {
			ID                             string `json:"id"`
			Fulfillment                    *idRef `json:"fulfillment"`
			ReturnableFulfillmentLineItems struct {
				Nodes []struct {
					RemainingQuantity   *int   `json:"remainingQuantity"`
					FulfillmentLineItem *idRef `json:"fulfillmentLineItem"`
				} `json:"nodes"`
			} `json:"returnableFulfillmentLineItems"`
		} `json:"nodes"`
	} `json:"returnableFulfillments"`
}

// ReturnableFulfillments implements rto.Platform.
func (c *Client) ReturnableFulfillments(ctx context.Context, orderID string) ([]rto.ReturnableFulfillment, error) {
	const op = "returnableFulfillments"

	var data returnableData
	if err := c.do(ctx, op, returnableFulfillmentsQuery, map[string]any{"orderId": orderID}, &data); err != nil {
		return nil, err
	}

	groups := make([]rto.ReturnableFulfillment, 0, len(data.ReturnableFulfillments.Nodes))
	for _, node := range data.ReturnableFulfillments.Nodes {
		group := rto.ReturnableFulfillment{FulfillmentID: node.ID}
		if node.Fulfillment != nil && node.Fulfillment.ID != "" {
			group.FulfillmentID = node.Fulfillment.ID
		}
		for _, item := range node.ReturnableFulfillmentLineItems.Nodes {
			if item.FulfillmentLineItem == nil || item.FulfillmentLineItem.ID == "" {
				return nil, apperror.NewPlatform(op, "returnable line without fulfillment line item id")
			}
			if item.RemainingQuantity == nil {
				return nil, apperror.NewPlatform(op, "returnable line without remaining quantity")
			}
			group.Units = append(group.Units, rto.ReturnableUnit{
				FulfillmentLineItemID: item.FulfillmentLineItem.ID,
				RemainingQuantity:     *item.RemainingQuantity,
			})
		}
		groups = append(groups, group)
	}
	return groups, nil
}

type returnLineNode struct {
	ID                  string `json:"id"`
	Quantity            *int   `json:"quantity"`
	FulfillmentLineItem *idRef `json:"fulfillmentLineItem"`
}

type returnLinesConn struct {
	Nodes []returnLineNode `json:"nodes"`
}

// toDomain fails on the first incomplete line.
func (conn returnLinesConn) toDomain(op string) ([]rto.ReturnLine, error) {
	lines := make([]rto.ReturnLine, 0, len(conn.Nodes))
	for _, n := range conn.Nodes {
		switch {
		case n.ID == "":
			return nil, apperror.NewPlatform(op, "return line without id")
		case n.FulfillmentLineItem == nil || n.FulfillmentLineItem.ID == "":
			return nil, apperror.NewPlatform(op, fmt.Sprintf("return line %s without fulfillment line item id", n.ID))
		case n.Quantity == nil:
			return nil, apperror.NewPlatform(op, fmt.Sprintf("return line %s without quantity", n.ID))
		}
		lines = append(lines, rto.ReturnLine{
			ReturnLineItemID:      n.ID,
			FulfillmentLineItemID: n.FulfillmentLineItem.ID,
			Quantity:              *n.Quantity,
		})
	}
	return lines, nil
}

type returnCreateData struct {
	ReturnCreate struct {
		Return *struct {
			ID              string          `json:"id"`
			ReturnLineItems returnLinesConn `json:"returnLineItems"`
		} `json:"return"`
		UserErrors []userError `json:"userErrors"`
	} `json:"returnCreate"`
}

type returnLineInput struct {
	FulfillmentLineItemID string `json:"fulfillmentLineItemId"`
	Quantity              int    `json:"quantity"`
	ReturnReason          string `json:"returnReason"`
	CustomerNote          string `json:"customerNote,omitempty"`
}

// CreateReturn implements rto.Platform.
func (c *Client) CreateReturn(ctx context.Context, req rto.ReturnRequest) (*rto.OpenedReturn, error) {
	const op = "returnCreate"

	lines := make([]returnLineInput, 0, len(req.Lines))
	for _, l := range req.Lines {
		lines = append(lines, returnLineInput{
			FulfillmentLineItemID: l.FulfillmentLineItemID,
			Quantity:              l.Quantity,
			ReturnReason:          l.Reason,
			CustomerNote:          l.Note,
		})
	}
	vars := map[string]any{
		"returnInput": map[string]any{
			"orderId":         req.OrderID,
			"returnLineItems": lines,
			"notifyCustomer":  false,
		},
	}

	var data returnCreateData
	if err := c.do(ctx, op, returnCreateMutation, vars, &data); err != nil {
		return nil, err
	}
	if err := userErrorsToError(op, data.ReturnCreate.UserErrors); err != nil {
		return nil, err
	}
	if data.ReturnCreate.Return == nil {
		return nil, apperror.NewPlatform(op, "returnCreate returned no return")
	}

	created, err := data.ReturnCreate.Return.ReturnLineItems.toDomain(op)
	if err != nil {
		return nil, err
	}
	return &rto.OpenedReturn{ReturnID: data.ReturnCreate.Return.ID, Lines: created}, nil
}

type returnSnapshotData struct {
	Return *struct {
		ID                       string          `json:"id"`
		ReturnLineItems          returnLinesConn `json:"returnLineItems"`
		ReverseFulfillmentOrders struct {
			Nodes []struct {
				ID        string `json:"id"`
				LineItems struct {
					Nodes []struct {
						ID                  string `json:"id"`
						TotalQuantity       *int   `json:"totalQuantity"`
						FulfillmentLineItem *idRef `json:"fulfillmentLineItem"`
					} `json:"nodes"`
				} `json:"lineItems"`
			} `json:"nodes"`
		} `json:"reverseFulfillmentOrders"`
	} `json:"return"`
	Order *struct {
		FulfillmentOrders struct {
			Nodes []struct {
				ID               string `json:"id"`
				AssignedLocation *struct {
					Location *idRef `json:"location"`
				} `json:"assignedLocation"`
			} `json:"nodes"`
		} `json:"fulfillmentOrders"`
	} `json:"order"`
}

// LoadReturnSnapshot implements rto.Platform.
func (c *Client) LoadReturnSnapshot(ctx context.Context, returnID, orderID string) (*rto.ReturnSnapshot, error) {
	const op = "returnSnapshot"

	var data returnSnapshotData
	vars := map[string]any{"returnId": returnID, "orderId": orderID}
	if err := c.do(ctx, op, returnSnapshotQuery, vars, &data); err != nil {
		return nil, err
	}
	if data.Return == nil {
		return nil, apperror.NewPlatform(op, fmt.Sprintf("return %s not found", returnID))
	}

	returnLines, err := data.Return.ReturnLineItems.toDomain(op)
	if err != nil {
		return nil, err
	}
	snap := &rto.ReturnSnapshot{ReturnLines: returnLines}

	for _, rfo := range data.Return.ReverseFulfillmentOrders.Nodes {
		for _, li := range rfo.LineItems.Nodes {
			switch {
			case li.ID == "":
				return nil, apperror.NewPlatform(op, fmt.Sprintf("reverse fulfillment order %s has a line without id", rfo.ID))
			case li.FulfillmentLineItem == nil || li.FulfillmentLineItem.ID == "":
				return nil, apperror.NewPlatform(op, fmt.Sprintf("reverse line %s without fulfillment line item id", li.ID))
			case li.TotalQuantity == nil:
				return nil, apperror.NewPlatform(op, fmt.Sprintf("reverse line %s without total quantity", li.ID))
			}
			snap.ReverseLines = append(snap.ReverseLines, rto.ReverseFulfillmentLine{
				ID:                    li.ID,
				FulfillmentLineItemID: li.FulfillmentLineItem.ID,
				TotalQuantity:         *li.TotalQuantity,
			})
		}
	}

	if data.Order != nil {
		for _, fo := range data.Order.FulfillmentOrders.Nodes {
			loc := ""
			if fo.AssignedLocation != nil && fo.AssignedLocation.Location != nil {
				loc = fo.AssignedLocation.Location.ID
			}
			snap.Locations = append(snap.Locations, rto.StockLocation{ID: loc})
		}
	}
	return snap, nil
}

type returnProcessData struct {
	ReturnProcess struct {
		Return *struct {
			ID     string `json:"id"`
			Status string `json:"status"`
		} `json:"return"`
		UserErrors []userError `json:"userErrors"`
	} `json:"returnProcess"`
}

type dispositionInput struct {
	ReverseFulfillmentOrderLineItemID string `json:"reverseFulfillmentOrderLineItemId"`
	Quantity                          int    `json:"quantity"`
	LocationID                        string `json:"locationId"`
	DispositionType                   string `json:"dispositionType"`
}

type processLineInput struct {
	ID           string             `json:"id"`
	Quantity     int                `json:"quantity"`
	Dispositions []dispositionInput `json:"dispositions"`
}

// dispositionRestocked puts units back into sellable stock.
const dispositionRestocked = "RESTOCKED"

// ProcessReturn implements rto.Platform.
func (c *Client) ProcessReturn(ctx context.Context, req rto.ProcessRequest) (string, error) {
	const op = "returnProcess"

	vars := map[string]any{
		"input": map[string]any{
			"returnId":        req.ReturnID,
			"returnLineItems": groupProcessLines(req.Entries),
			"notifyCustomer":  false,
		},
	}

	var data returnProcessData
	if err := c.do(ctx, op, returnProcessMutation, vars, &data); err != nil {
		return "", err
	}
	if err := userErrorsToError(op, data.ReturnProcess.UserErrors); err != nil {
		return "", err
	}
	if data.ReturnProcess.Return == nil {
		return "", nil
	}
	return data.ReturnProcess.Return.ID, nil
}

// groupProcessLines folds entries into one input line per return line, in first-seen order.
func groupProcessLines(entries []rto.DispositionEntry) []processLineInput {
	index := make(map[string]int, len(entries))
	lines := make([]processLineInput, 0, len(entries))
	for _, e := range entries {
		i, ok := index[e.ReturnLineItemID]
		if !ok {
			i = len(lines)
			index[e.ReturnLineItemID] = i
			lines = append(lines, processLineInput{ID: e.ReturnLineItemID})
		}
		lines[i].Quantity += e.Quantity
		lines[i].Dispositions = append(lines[i].Dispositions, dispositionInput{
			ReverseFulfillmentOrderLineItemID: e.ReverseFulfillmentLineID,
			Quantity:                          e.Quantity,
			LocationID:                        e.LocationID,
			DispositionType:                   dispositionRestocked,
		})
	}
	return lines
}
