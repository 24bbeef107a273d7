package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/prudhivi99/billing-console/internal/models"
)

type recordingObserver struct {
	mu    sync.Mutex
	calls []int
}

func (o *recordingObserver) ObserveUpstream(_, _ string, statusCode int, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.calls = append(o.calls, statusCode)
}

func TestBillClient_Get(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/bills/7", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":7,"customer_id":3,"product_id":5,"quantity":2,"total_amount":19.98}`))
	}))
	defer server.Close()

	obs := &recordingObserver{}
	c := NewBillClient(StaticEndpoint(server.URL+"/"), WithObserver(obs))

	bill, err := c.Get(context.Background(), 7)
	require.NoError(t, err)
	require.NotNil(t, bill.ID)
	assert.Equal(t, int64(7), *bill.ID)
	assert.Equal(t, int64(3), bill.CustomerID)
	assert.Equal(t, int64(5), bill.ProductID)
	assert.Equal(t, 2, bill.Quantity)
	require.NotNil(t, bill.TotalAmount)
	assert.True(t, decimal.RequireFromString("19.98").Equal(*bill.TotalAmount))
	assert.Equal(t, []int{http.StatusOK}, obs.calls)
}

func TestBillClient_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no such bill", http.StatusNotFound)
	}))
	defer server.Close()

	_, err := NewBillClient(StaticEndpoint(server.URL)).Get(context.Background(), 99)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, "billing-service", statusErr.Service)
	assert.Equal(t, "/api/bills/99", statusErr.Path)
	assert.Equal(t, "no such bill", statusErr.Body)
}

func TestStatusError_OnlyNotFoundMatches(t *testing.T) {
	err := &StatusError{Service: "billing-service", StatusCode: http.StatusBadRequest}
	assert.False(t, errors.Is(err, ErrNotFound))
	assert.Contains(t, err.Error(), "status 400")
}

func TestBillClient_Create(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req models.CreateBillRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, models.CreateBillRequest{CustomerID: 1, ProductID: 2, Quantity: 3}, req)

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":11,"customerId":1,"productId":2,"quantity":3}`))
	}))
	defer server.Close()

	bill, err := NewBillClient(StaticEndpoint(server.URL)).Create(context.Background(),
		models.CreateBillRequest{CustomerID: 1, ProductID: 2, Quantity: 3})
	require.NoError(t, err)
	assert.Equal(t, int64(11), *bill.ID)
}

func TestBillClient_ListReturnsRawPayload(t *testing.T) {
	payload := `{"content":[{"id":1}],"totalElements":1}`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, payload)
	}))
	defer server.Close()

	raw, err := NewBillClient(StaticEndpoint(server.URL)).List(context.Background())
	require.NoError(t, err)
	assert.JSONEq(t, payload, string(raw))
}

func TestBillClient_DeleteNoContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	assert.NoError(t, NewBillClient(StaticEndpoint(server.URL)).Delete(context.Background(), 4))
}

func TestClient_TransportFailureIsObserved(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	obs := &recordingObserver{}
	_, err := NewCustomerClient(StaticEndpoint(url), WithObserver(obs)).Get(context.Background(), 1)
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, []int{0}, obs.calls)
}

func TestClient_ContextCanceled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewProductClient(StaticEndpoint(server.URL)).Get(ctx, 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestProductClient_Available(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/products/available", r.URL.Path)
		_, _ = io.WriteString(w, `[{"id":1,"name":"Pen","price":1.50,"quantity":4}]`)
	}))
	defer server.Close()

	products, err := NewProductClient(StaticEndpoint(server.URL)).Available(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "Pen", products[0].Name)
	assert.True(t, decimal.RequireFromString("1.5").Equal(products[0].Price))
}

func TestCustomerClient_Update(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/api/customers/5", r.URL.Path)
		_, _ = io.Copy(w, r.Body)
	}))
	defer server.Close()

	got, err := NewCustomerClient(StaticEndpoint(server.URL)).Update(context.Background(), 5,
		&models.Customer{ID: 5, Name: "Ada", Email: "ada@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "Ada", got.Name)
}

func TestClient_RateLimit(t *testing.T) {
	var hits int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		_, _ = io.WriteString(w, `{"id":1,"name":"Ada","email":"ada@example.com"}`)
	}))
	defer server.Close()

	limiter := rate.NewLimiter(rate.Every(time.Hour), 1)
	c := NewCustomerClient(StaticEndpoint(server.URL), WithRateLimit(limiter))

	_, err := c.Get(context.Background(), 1)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = c.Get(ctx, 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limited")
	assert.Equal(t, 1, hits)
}

func TestBillClient_GetRejectsEmptyDocument(t *testing.T) {
	testCases := []struct {
		name string
		body string
	}{
		{name: "no_body", body: ""},
		{name: "whitespace", body: "  \n"},
		{name: "json_null", body: "null"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = io.WriteString(w, tc.body)
			}))
			defer server.Close()

			bill, err := NewBillClient(StaticEndpoint(server.URL)).Get(context.Background(), 7)
			require.Error(t, err)
			assert.Nil(t, bill)
			assert.ErrorIs(t, err, ErrEmptyResponse)
			assert.False(t, errors.Is(err, ErrNotFound))
		})
	}
}
