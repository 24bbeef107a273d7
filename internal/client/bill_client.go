package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/prudhivi99/billing-console/internal/models"
)

const billsPath = "/api/bills"

type BillClient struct {
	baseClient
}

func NewBillClient(endpoint Endpoint, opts ...Option) *BillClient {
	return &BillClient{baseClient: newBaseClient("billing-service", endpoint, opts...)}
}

// List returns the list-bills payload as received; its envelope is not fixed.
func (c *BillClient) List(ctx context.Context) (json.RawMessage, error) {
	return c.raw(ctx, billsPath)
}

// ListByCustomer returns the bills-of-customer payload as received.
func (c *BillClient) ListByCustomer(ctx context.Context, customerID int64) (json.RawMessage, error) {
	return c.raw(ctx, fmt.Sprintf("%s/customer/%d", billsPath, customerID))
}

// Get fetches a bare bill.
func (c *BillClient) Get(ctx context.Context, id int64) (*models.Bill, error) {
	var bill models.Bill
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("%s/%d", billsPath, id), nil, &bill); err != nil {
		return nil, err
	}
	return &bill, nil
}

func (c *BillClient) Create(ctx context.Context, req models.CreateBillRequest) (*models.Bill, error) {
	var bill models.Bill
	if err := c.do(ctx, http.MethodPost, billsPath, req, &bill); err != nil {
		return nil, err
	}
	return &bill, nil
}

func (c *BillClient) Delete(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("%s/%d", billsPath, id), nil, nil)
}
