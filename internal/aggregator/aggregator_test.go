package aggregator

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prudhivi99/billing-console/internal/client"
	"github.com/prudhivi99/billing-console/internal/models"
)

type billFunc func(ctx context.Context, id int64) (*models.Bill, error)

func (f billFunc) Get(ctx context.Context, id int64) (*models.Bill, error) { return f(ctx, id) }

type customerFunc func(ctx context.Context, id int64) (*models.Customer, error)

func (f customerFunc) Get(ctx context.Context, id int64) (*models.Customer, error) { return f(ctx, id) }

type productFunc func(ctx context.Context, id int64) (*models.Product, error)

func (f productFunc) Get(ctx context.Context, id int64) (*models.Product, error) { return f(ctx, id) }

type lookupCounter struct {
	mu     sync.Mutex
	counts map[string]int
}

func (c *lookupCounter) ReferenceLookup(relation string, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.counts == nil {
		c.counts = map[string]int{}
	}
	c.counts[fmt.Sprintf("%s:%t", relation, ok)]++
}

func ptr[T any](v T) *T { return &v }

func testBill(id int64) *models.Bill {
	return &models.Bill{ID: ptr(id), CustomerID: 3, ProductID: 2, Quantity: 4}
}

func TestAggregator_BillDetail(t *testing.T) {
	alice := &models.Customer{ID: 3, Name: "Alice", Email: "alice@example.com"}
	widget := &models.Product{ID: 2, Name: "Widget", Price: decimal.RequireFromString("2.50"), Quantity: 10}

	testCases := []struct {
		name          string
		customerErr   error
		productErr    error
		expectCust    bool
		expectProd    bool
		customerError string
		productError  string
	}{
		{
			name:       "both_references_resolve",
			expectCust: true,
			expectProd: true,
		},
		{
			name:         "product_lookup_fails",
			productErr:   &client.StatusError{Service: "inventory-service", StatusCode: http.StatusNotFound},
			expectCust:   true,
			productError: DefaultProductError,
		},
		{
			name:          "customer_transport_failure",
			customerErr:   errors.New("connection refused"),
			expectProd:    true,
			customerError: DefaultCustomerError,
		},
		{
			name:          "both_references_fail",
			customerErr:   errors.New("timeout"),
			productErr:    errors.New("timeout"),
			customerError: DefaultCustomerError,
			productError:  DefaultProductError,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var customerCalls, productCalls atomic.Int32
			recorder := &lookupCounter{}

			agg := New(
				billFunc(func(_ context.Context, id int64) (*models.Bill, error) { return testBill(id), nil }),
				customerFunc(func(_ context.Context, id int64) (*models.Customer, error) {
					customerCalls.Add(1)
					assert.Equal(t, int64(3), id)
					if tc.customerErr != nil {
						return nil, tc.customerErr
					}
					return alice, nil
				}),
				productFunc(func(_ context.Context, id int64) (*models.Product, error) {
					productCalls.Add(1)
					assert.Equal(t, int64(2), id)
					if tc.productErr != nil {
						return nil, tc.productErr
					}
					return widget, nil
				}),
				Options{Recorder: recorder},
			)

			detail, err := agg.BillDetail(context.Background(), 1)

			require.NoError(t, err)
			require.NotNil(t, detail)
			assert.Equal(t, int64(1), *detail.Bill.ID)
			assert.Equal(t, int32(1), customerCalls.Load())
			assert.Equal(t, int32(1), productCalls.Load())

			if tc.expectCust {
				assert.Equal(t, alice, detail.Customer)
				assert.Empty(t, detail.CustomerError)
			} else {
				assert.Nil(t, detail.Customer)
				assert.Equal(t, tc.customerError, detail.CustomerError)
			}

			if tc.expectProd {
				assert.Equal(t, widget, detail.Product)
				assert.Empty(t, detail.ProductError)
			} else {
				assert.Nil(t, detail.Product)
				assert.Equal(t, tc.productError, detail.ProductError)
			}

			assert.Equal(t, 1, recorder.counts[fmt.Sprintf("customer:%t", tc.expectCust)])
			assert.Equal(t, 1, recorder.counts[fmt.Sprintf("product:%t", tc.expectProd)])
		})
	}
}

func TestAggregator_BillFailureIsFatal(t *testing.T) {
	var referenceCalls atomic.Int32

	agg := New(
		billFunc(func(context.Context, int64) (*models.Bill, error) {
			return nil, &client.StatusError{Service: "billing-service", StatusCode: http.StatusNotFound}
		}),
		customerFunc(func(context.Context, int64) (*models.Customer, error) {
			referenceCalls.Add(1)
			return &models.Customer{}, nil
		}),
		productFunc(func(context.Context, int64) (*models.Product, error) {
			referenceCalls.Add(1)
			return &models.Product{}, nil
		}),
		Options{},
	)

	detail, err := agg.BillDetail(context.Background(), 999)

	assert.Nil(t, detail)
	require.Error(t, err)
	assert.ErrorIs(t, err, client.ErrNotFound)
	assert.Contains(t, err.Error(), "failed to get bill 999")
	assert.Zero(t, referenceCalls.Load())
}

func TestAggregator_InvalidID(t *testing.T) {
	agg := New(nil, nil, nil, Options{})

	for _, id := range []int64{0, -1} {
		detail, err := agg.BillDetail(context.Background(), id)
		assert.Nil(t, detail)
		assert.ErrorIs(t, err, ErrInvalidBillID)
	}
}

func TestAggregator_CustomMessagesAndEmptyResponses(t *testing.T) {
	agg := New(
		billFunc(func(_ context.Context, id int64) (*models.Bill, error) { return testBill(id), nil }),
		customerFunc(func(context.Context, int64) (*models.Customer, error) { return nil, nil }),
		productFunc(func(context.Context, int64) (*models.Product, error) { return nil, nil }),
		Options{CustomerError: "Could not fetch customer details", ProductError: "Could not fetch product details"},
	)

	detail, err := agg.BillDetail(context.Background(), 5)

	require.NoError(t, err)
	assert.Nil(t, detail.Customer)
	assert.Nil(t, detail.Product)
	assert.Equal(t, "Could not fetch customer details", detail.CustomerError)
	assert.Equal(t, "Could not fetch product details", detail.ProductError)
}

func TestAggregator_ReferenceLookupsRunConcurrently(t *testing.T) {
	customerStarted := make(chan struct{})
	productStarted := make(chan struct{})

	agg := New(
		billFunc(func(_ context.Context, id int64) (*models.Bill, error) { return testBill(id), nil }),
		customerFunc(func(context.Context, int64) (*models.Customer, error) {
			close(customerStarted)
			select {
			case <-productStarted:
				return &models.Customer{ID: 3}, nil
			case <-time.After(2 * time.Second):
				return nil, errors.New("product lookup never started")
			}
		}),
		productFunc(func(context.Context, int64) (*models.Product, error) {
			close(productStarted)
			select {
			case <-customerStarted:
				return &models.Product{ID: 2}, nil
			case <-time.After(2 * time.Second):
				return nil, errors.New("customer lookup never started")
			}
		}),
		Options{},
	)

	detail, err := agg.BillDetail(context.Background(), 1)

	require.NoError(t, err)
	assert.NotNil(t, detail.Customer)
	assert.NotNil(t, detail.Product)
}

func TestAggregator_SlowFailureDoesNotAffectOtherLookup(t *testing.T) {
	agg := New(
		billFunc(func(_ context.Context, id int64) (*models.Bill, error) { return testBill(id), nil }),
		customerFunc(func(context.Context, int64) (*models.Customer, error) {
			time.Sleep(50 * time.Millisecond)
			return nil, errors.New("customer-service unavailable")
		}),
		productFunc(func(ctx context.Context, _ int64) (*models.Product, error) {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return &models.Product{ID: 2, Name: "Widget"}, nil
		}),
		Options{},
	)

	detail, err := agg.BillDetail(context.Background(), 1)

	require.NoError(t, err)
	assert.Equal(t, DefaultCustomerError, detail.CustomerError)
	require.NotNil(t, detail.Product)
	assert.Equal(t, "Widget", detail.Product.Name)
}

func TestAggregator_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	agg := New(
		billFunc(func(_ context.Context, id int64) (*models.Bill, error) { return testBill(id), nil }),
		customerFunc(func(ctx context.Context, _ int64) (*models.Customer, error) {
			cancel()
			return nil, ctx.Err()
		}),
		productFunc(func(context.Context, int64) (*models.Product, error) { return &models.Product{ID: 2}, nil }),
		Options{},
	)

	detail, err := agg.BillDetail(ctx, 1)

	assert.Nil(t, detail)
	assert.ErrorIs(t, err, context.Canceled)
}

// Customer service 404s, product service answers: the detail carries the
// bill, the product and the default customer message.
func TestAggregator_WithRemoteClients(t *testing.T) {
	bills := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/bills/1" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":1,"customerId":3,"productId":2,"quantity":3,"totalAmount":7.5,"createdAt":"2025-03-01T09:00:00"}`)
	}))
	defer bills.Close()

	customers := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer customers.Close()

	products := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/products/2", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":2,"name":"Widget","price":2.5,"quantity":7}`)
	}))
	defer products.Close()

	agg := New(
		client.NewBillClient(client.StaticEndpoint(bills.URL)),
		client.NewCustomerClient(client.StaticEndpoint(customers.URL)),
		client.NewProductClient(client.StaticEndpoint(products.URL)),
		Options{},
	)

	detail, err := agg.BillDetail(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), *detail.Bill.ID)
	assert.Equal(t, "7.5", detail.Bill.TotalAmount.String())
	assert.Nil(t, detail.Customer)
	assert.Equal(t, "Customer not found", detail.CustomerError)
	require.NotNil(t, detail.Product)
	assert.Equal(t, "Widget", detail.Product.Name)
	assert.Empty(t, detail.ProductError)

	_, err = agg.BillDetail(context.Background(), 42)
	assert.ErrorIs(t, err, client.ErrNotFound)
}
