package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/prudhivi99/billing-console/internal/logger"
	"github.com/prudhivi99/billing-console/internal/models"
)

// Queues carrying console activity, one per event type
const (
	BillCreatedQueue = models.BillCreatedEvent
	BillDeletedQueue = models.BillDeletedEvent
)

// Broker is the part of messaging.RabbitMQ the publisher needs.
type Broker interface {
	DeclareQueue(name string) error
	Publish(ctx context.Context, queue string, message []byte) error
}

type BillPublisher struct {
	mq  Broker
	now func() time.Time
}

func NewBillPublisher(mq Broker) (*BillPublisher, error) {
	for _, queue := range []string{BillCreatedQueue, BillDeletedQueue} {
		if err := mq.DeclareQueue(queue); err != nil {
			return nil, err
		}
	}
	return &BillPublisher{mq: mq, now: time.Now}, nil
}

// PublishBillCreated publishes a bill.created event
func (p *BillPublisher) PublishBillCreated(ctx context.Context, bill *models.Bill) error {
	event := models.BillEvent{
		Type:       models.BillCreatedEvent,
		CustomerID: bill.CustomerID,
		ProductID:  bill.ProductID,
		Quantity:   bill.Quantity,
	}
	if bill.ID != nil {
		event.BillID = *bill.ID
	}
	return p.publish(ctx, BillCreatedQueue, event)
}

// PublishBillDeleted publishes a bill.deleted event
func (p *BillPublisher) PublishBillDeleted(ctx context.Context, billID int64) error {
	return p.publish(ctx, BillDeletedQueue, models.BillEvent{
		Type:   models.BillDeletedEvent,
		BillID: billID,
	})
}

func (p *BillPublisher) publish(ctx context.Context, queue string, event models.BillEvent) error {
	event.RequestID = logger.GetRequestID(ctx)
	event.OccurredAt = p.now().UTC()

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	return p.mq.Publish(ctx, queue, data)
}
