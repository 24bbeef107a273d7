package models

import "github.com/shopspring/decimal"

type Product struct {
	ID          int64           `json:"id,omitempty"`
	Name        string          `json:"name" binding:"required"`
	Description string          `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity" binding:"min=0"`
}

func init() {
	// Upstream services exchange money as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}
