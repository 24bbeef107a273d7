package models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

type Bill struct {
	ID          *int64           `json:"id,omitempty"`
	CustomerID  int64            `json:"customerId"`
	ProductID   int64            `json:"productId"`
	Quantity    int              `json:"quantity"`
	TotalAmount *decimal.Decimal `json:"totalAmount,omitempty"`
	CreatedAt   *time.Time       `json:"createdAt,omitempty"`
}

// UnmarshalJSON accepts both camelCase and snake_case field names; the
// billing service has been seen to emit either depending on its serializer.
// camelCase wins when both are present.
func (b *Bill) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID               *int64           `json:"id"`
		CustomerID       *int64           `json:"customerId"`
		CustomerIDSnake  *int64           `json:"customer_id"`
		ProductID        *int64           `json:"productId"`
		ProductIDSnake   *int64           `json:"product_id"`
		Quantity         int              `json:"quantity"`
		TotalAmount      *decimal.Decimal `json:"totalAmount"`
		TotalAmountSnake *decimal.Decimal `json:"total_amount"`
		CreatedAt        *flexTime        `json:"createdAt"`
		CreatedAtSnake   *flexTime        `json:"created_at"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*b = Bill{
		ID:          raw.ID,
		CustomerID:  derefInt64(firstNonNil(raw.CustomerID, raw.CustomerIDSnake)),
		ProductID:   derefInt64(firstNonNil(raw.ProductID, raw.ProductIDSnake)),
		Quantity:    raw.Quantity,
		TotalAmount: firstNonNil(raw.TotalAmount, raw.TotalAmountSnake),
	}
	if ts := firstNonNil(raw.CreatedAt, raw.CreatedAtSnake); ts != nil {
		t := time.Time(*ts)
		b.CreatedAt = &t
	}
	return nil
}

// BillDetail is a bill joined with its customer and product. Exactly one of
// Customer/CustomerError and one of Product/ProductError is set.
type BillDetail struct {
	Bill          Bill      `json:"bill"`
	Customer      *Customer `json:"customer,omitempty"`
	CustomerError string    `json:"customerError,omitempty"`
	Product       *Product  `json:"product,omitempty"`
	ProductError  string    `json:"productError,omitempty"`
}

// CreateBillRequest is the body the billing service expects on POST /api/bills.
type CreateBillRequest struct {
	CustomerID int64 `json:"customerId"`
	ProductID  int64 `json:"productId"`
	Quantity   int   `json:"quantity"`
}

// flexTime parses RFC 3339 as well as the zone-less ISO layout that
// LocalDateTime serializers produce.
type flexTime time.Time

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

func (t *flexTime) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	var lastErr error
	for _, layout := range timeLayouts {
		parsed, err := time.Parse(layout, s)
		if err == nil {
			*t = flexTime(parsed)
			return nil
		}
		lastErr = err
	}
	return lastErr
}

func firstNonNil[T any](values ...*T) *T {
	for _, v := range values {
		if v != nil {
			return v
		}
	}
	return nil
}

func derefInt64(v *int64) int64 {
	if v == nil {
		return 0
	}
	return *v
}
