package models

import "time"

// BillEvent is published when the console creates or deletes a bill
type BillEvent struct {
	Type       string    `json:"type"`
	BillID     int64     `json:"bill_id"`
	CustomerID int64     `json:"customer_id,omitempty"`
	ProductID  int64     `json:"product_id,omitempty"`
	Quantity   int       `json:"quantity,omitempty"`
	RequestID  string    `json:"request_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

const (
	BillCreatedEvent = "bill.created"
	BillDeletedEvent = "bill.deleted"
)

// AuditRecord is a BillEvent as stored by the audit service
type AuditRecord struct {
	ID int64 `json:"id"`
	BillEvent
	RecordedAt time.Time `json:"recorded_at"`
}
