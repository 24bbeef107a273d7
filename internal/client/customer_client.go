package client

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prudhivi99/billing-console/internal/models"
)

const customersPath = "/api/customers"

type CustomerClient struct {
	baseClient
}

func NewCustomerClient(endpoint Endpoint, opts ...Option) *CustomerClient {
	return &CustomerClient{baseClient: newBaseClient("customer-service", endpoint, opts...)}
}

func (c *CustomerClient) List(ctx context.Context) ([]models.Customer, error) {
	customers := []models.Customer{}
	if err := c.do(ctx, http.MethodGet, customersPath, nil, &customers); err != nil {
		return nil, err
	}
	return customers, nil
}

// Get fetches a customer from Customer Service
func (c *CustomerClient) Get(ctx context.Context, id int64) (*models.Customer, error) {
	var customer models.Customer
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("%s/%d", customersPath, id), nil, &customer); err != nil {
		return nil, err
	}
	return &customer, nil
}

func (c *CustomerClient) Create(ctx context.Context, customer *models.Customer) (*models.Customer, error) {
	var created models.Customer
	if err := c.do(ctx, http.MethodPost, customersPath, customer, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (c *CustomerClient) Update(ctx context.Context, id int64, customer *models.Customer) (*models.Customer, error) {
	var updated models.Customer
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("%s/%d", customersPath, id), customer, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (c *CustomerClient) Delete(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("%s/%d", customersPath, id), nil, nil)
}
