// Package aggregator builds bill details by joining a bill with the customer
// and product it references.
package aggregator

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/prudhivi99/billing-console/internal/models"
)

const (
	DefaultCustomerError = "Customer not found"
	DefaultProductError  = "Product not found"
)

var ErrInvalidBillID = errors.New("bill id must be positive")

type BillFetcher interface {
	Get(ctx context.Context, id int64) (*models.Bill, error)
}

type CustomerFetcher interface {
	Get(ctx context.Context, id int64) (*models.Customer, error)
}

type ProductFetcher interface {
	Get(ctx context.Context, id int64) (*models.Product, error)
}

// LookupRecorder counts reference lookups by relation and outcome.
type LookupRecorder interface {
	ReferenceLookup(relation string, ok bool)
}

type Options struct {
	// CustomerError and ProductError replace the default messages.
	CustomerError string
	ProductError  string
	Logger        *zap.Logger
	Recorder      LookupRecorder
}

type Aggregator struct {
	bills     BillFetcher
	customers CustomerFetcher
	products  ProductFetcher

	customerError string
	productError  string
	logger        *zap.Logger
	recorder      LookupRecorder
}

func New(bills BillFetcher, customers CustomerFetcher, products ProductFetcher, opts Options) *Aggregator {
	a := &Aggregator{
		bills:         bills,
		customers:     customers,
		products:      products,
		customerError: DefaultCustomerError,
		productError:  DefaultProductError,
		logger:        zap.NewNop(),
		recorder:      opts.Recorder,
	}
	if opts.CustomerError != "" {
		a.customerError = opts.CustomerError
	}
	if opts.ProductError != "" {
		a.productError = opts.ProductError
	}
	if opts.Logger != nil {
		a.logger = opts.Logger
	}
	return a
}

// BillDetail fetches the bill, then its customer and product concurrently.
// A failed bill fetch fails the whole call. A failed customer or product
// fetch only sets the matching error message on the result.
func (a *Aggregator) BillDetail(ctx context.Context, id int64) (*models.BillDetail, error) {
	if id <= 0 {
		return nil, ErrInvalidBillID
	}

	bill, err := a.bills.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get bill %d: %w", id, err)
	}
	if bill == nil {
		return nil, fmt.Errorf("bill %d: empty response", id)
	}

	var (
		customer    *models.Customer
		product     *models.Product
		customerErr error
		productErr  error
	)

	// Tasks record their own failure and always return nil so that one
	// lookup never cancels the other.
	var g errgroup.Group
	g.Go(func() error {
		customer, customerErr = a.customers.Get(ctx, bill.CustomerID)
		if customerErr == nil && customer == nil {
			customerErr = errors.New("empty customer response")
		}
		return nil
	})
	g.Go(func() error {
		product, productErr = a.products.Get(ctx, bill.ProductID)
		if productErr == nil && product == nil {
			productErr = errors.New("empty product response")
		}
		return nil
	})
	_ = g.Wait()

	// The caller went away; nobody is waiting for the result.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	detail := &models.BillDetail{Bill: *bill}

	if customerErr != nil {
		a.logger.Warn("customer lookup failed",
			zap.Int64("bill_id", id),
			zap.Int64("customer_id", bill.CustomerID),
			zap.Error(customerErr),
		)
		detail.CustomerError = a.customerError
	} else {
		detail.Customer = customer
	}
	a.record("customer", customerErr == nil)

	if productErr != nil {
		a.logger.Warn("product lookup failed",
			zap.Int64("bill_id", id),
			zap.Int64("product_id", bill.ProductID),
			zap.Error(productErr),
		)
		detail.ProductError = a.productError
	} else {
		detail.Product = product
	}
	a.record("product", productErr == nil)

	return detail, nil
}

func (a *Aggregator) record(relation string, ok bool) {
	if a.recorder != nil {
		a.recorder.ReferenceLookup(relation, ok)
	}
}
