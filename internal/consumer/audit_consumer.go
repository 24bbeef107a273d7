package consumer

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/prudhivi99/billing-console/internal/models"
)

// EventRecorder persists one bill event.
type EventRecorder interface {
	Record(ctx context.Context, event models.BillEvent) (int64, error)
}

// DefaultRetryDelay is how long a failed delivery is held before requeueing.
const DefaultRetryDelay = 2 * time.Second

type AuditConsumer struct {
	repo       EventRecorder
	logger     *zap.Logger
	retryDelay time.Duration
}

type Option func(*AuditConsumer)

// WithRetryDelay overrides DefaultRetryDelay.
func WithRetryDelay(d time.Duration) Option {
	return func(c *AuditConsumer) { c.retryDelay = d }
}

func NewAuditConsumer(repo EventRecorder, logger *zap.Logger, opts ...Option) *AuditConsumer {
	c := &AuditConsumer{repo: repo, logger: logger, retryDelay: DefaultRetryDelay}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Process records every delivery until the channel closes or ctx is done.
// Unparseable messages are dropped. Storage failures are requeued after the
// retry delay so a down database is not hammered with redeliveries.
func (c *AuditConsumer) Process(ctx context.Context, messages <-chan amqp.Delivery) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-messages:
			if !ok {
				return
			}
			c.handle(ctx, msg)
		}
	}
}

func (c *AuditConsumer) handle(ctx context.Context, msg amqp.Delivery) {
	var event models.BillEvent
	if err := json.Unmarshal(msg.Body, &event); err != nil || event.Type == "" || event.BillID <= 0 {
		c.logger.Warn("Dropping unparseable event",
			zap.String("routing_key", msg.RoutingKey),
			zap.ByteString("body", msg.Body),
			zap.Error(err),
		)
		_ = msg.Nack(false, false)
		return
	}

	log := c.logger.With(
		zap.String("type", event.Type),
		zap.Int64("bill_id", event.BillID),
		zap.String("request_id", event.RequestID),
	)

	id, err := c.repo.Record(ctx, event)
	if err != nil {
		log.Error("Failed to record event, requeueing", zap.Error(err), zap.Duration("retry_delay", c.retryDelay))
		c.wait(ctx)
		_ = msg.Nack(false, true)
		return
	}

	_ = msg.Ack(false)
	log.Info("Event recorded", zap.Int64("audit_id", id))
}

func (c *AuditConsumer) wait(ctx context.Context) {
	if c.retryDelay <= 0 {
		return
	}
	timer := time.NewTimer(c.retryDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
