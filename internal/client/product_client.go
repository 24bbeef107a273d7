package client

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prudhivi99/billing-console/internal/models"
)

const productsPath = "/api/products"

type ProductClient struct {
	baseClient
}

func NewProductClient(endpoint Endpoint, opts ...Option) *ProductClient {
	return &ProductClient{baseClient: newBaseClient("inventory-service", endpoint, opts...)}
}

func (c *ProductClient) List(ctx context.Context) ([]models.Product, error) {
	return c.list(ctx, productsPath)
}

// Available lists products that still have stock.
func (c *ProductClient) Available(ctx context.Context) ([]models.Product, error) {
	return c.list(ctx, productsPath+"/available")
}

// Get fetches a product from Product Service
func (c *ProductClient) Get(ctx context.Context, id int64) (*models.Product, error) {
	var product models.Product
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("%s/%d", productsPath, id), nil, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

func (c *ProductClient) Create(ctx context.Context, product *models.Product) (*models.Product, error) {
	var created models.Product
	if err := c.do(ctx, http.MethodPost, productsPath, product, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (c *ProductClient) Update(ctx context.Context, id int64, product *models.Product) (*models.Product, error) {
	var updated models.Product
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("%s/%d", productsPath, id), product, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (c *ProductClient) Delete(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("%s/%d", productsPath, id), nil, nil)
}

func (c *ProductClient) list(ctx context.Context, path string) ([]models.Product, error) {
	products := []models.Product{}
	if err := c.do(ctx, http.MethodGet, path, nil, &products); err != nil {
		return nil, err
	}
	return products, nil
}
