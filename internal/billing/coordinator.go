// Package billing submits bill changes to the billing service on behalf of
// the console.
package billing

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/prudhivi99/billing-console/internal/models"
)

// BillListRoute is where the console goes after a successful change.
const BillListRoute = "/bills"

var (
	ErrPrecondition    = errors.New("bill precondition failed")
	ErrMissingCustomer = fmt.Errorf("%w: customer is required", ErrPrecondition)
	ErrMissingProduct  = fmt.Errorf("%w: product is required", ErrPrecondition)
	ErrInvalidQuantity = fmt.Errorf("%w: quantity must be a positive integer", ErrPrecondition)
	ErrInvalidBillID   = fmt.Errorf("%w: bill id must be positive", ErrPrecondition)
)

//go:generate mockgen -source=coordinator.go -destination=../mocks/billingmock/coordinator_mock.go -package=billingmock

type BillService interface {
	Create(ctx context.Context, req models.CreateBillRequest) (*models.Bill, error)
	Delete(ctx context.Context, id int64) error
}

type EventPublisher interface {
	PublishBillCreated(ctx context.Context, bill *models.Bill) error
	PublishBillDeleted(ctx context.Context, billID int64) error
}

// OutcomeRecorder counts creation attempts by outcome.
type OutcomeRecorder interface {
	BillCreation(outcome string)
}

// Candidate is a bill as chosen in the creation form. Nil references mean
// nothing was selected.
type Candidate struct {
	CustomerID *int64 `json:"customerId" validate:"required,gt=0"`
	ProductID  *int64 `json:"productId" validate:"required,gt=0"`
	Quantity   int    `json:"quantity" validate:"gt=0"`
}

// Result tells the caller what was created and where to navigate next.
type Result struct {
	Bill     *models.Bill `json:"bill"`
	Redirect string       `json:"redirect"`
}

type Coordinator struct {
	bills     BillService
	publisher EventPublisher
	recorder  OutcomeRecorder
	validate  *validator.Validate
	logger    *zap.Logger
}

type Option func(*Coordinator)

func WithPublisher(p EventPublisher) Option {
	return func(c *Coordinator) { c.publisher = p }
}

func WithRecorder(r OutcomeRecorder) Option {
	return func(c *Coordinator) { c.recorder = r }
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Coordinator) { c.logger = l }
}

func NewCoordinator(bills BillService, opts ...Option) *Coordinator {
	c := &Coordinator{
		bills:    bills,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Create validates the candidate and submits it. Nothing is sent when a
// reference is missing. Totals and stock are the billing service's job.
func (c *Coordinator) Create(ctx context.Context, candidate Candidate) (*Result, error) {
	if err := c.check(candidate); err != nil {
		c.record("rejected")
		return nil, err
	}

	bill, err := c.bills.Create(ctx, models.CreateBillRequest{
		CustomerID: *candidate.CustomerID,
		ProductID:  *candidate.ProductID,
		Quantity:   candidate.Quantity,
	})
	if err != nil {
		c.record("failed")
		return nil, fmt.Errorf("failed to create bill: %w", err)
	}
	if bill == nil {
		c.record("failed")
		return nil, errors.New("failed to create bill: empty response")
	}
	c.record("created")

	if bill.ID != nil {
		c.logger.Info("bill created",
			zap.Int64("bill_id", *bill.ID),
			zap.Int64("customer_id", bill.CustomerID),
			zap.Int64("product_id", bill.ProductID),
		)
	}

	if c.publisher != nil {
		// The bill already exists; a lost event must not fail the request.
		// The event outlives a disconnected caller.
		if err := c.publisher.PublishBillCreated(context.WithoutCancel(ctx), bill); err != nil {
			c.logger.Warn("failed to publish bill.created", zap.Error(err))
		}
	}

	return &Result{Bill: bill, Redirect: BillListRoute}, nil
}

// Delete removes a bill. Repeated calls are not deduplicated.
func (c *Coordinator) Delete(ctx context.Context, id int64) (*Result, error) {
	if id <= 0 {
		return nil, ErrInvalidBillID
	}

	if err := c.bills.Delete(ctx, id); err != nil {
		return nil, fmt.Errorf("failed to delete bill %d: %w", id, err)
	}
	c.logger.Info("bill deleted", zap.Int64("bill_id", id))

	if c.publisher != nil {
		if err := c.publisher.PublishBillDeleted(context.WithoutCancel(ctx), id); err != nil {
			c.logger.Warn("failed to publish bill.deleted", zap.Int64("bill_id", id), zap.Error(err))
		}
	}

	return &Result{Redirect: BillListRoute}, nil
}

// check maps struct validation failures onto the package's sentinel errors.
func (c *Coordinator) check(candidate Candidate) error {
	err := c.validate.Struct(candidate)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %v", ErrPrecondition, err)
	}

	var errs []error
	for _, fe := range fieldErrs {
		switch fe.Field() {
		case "CustomerID":
			errs = append(errs, ErrMissingCustomer)
		case "ProductID":
			errs = append(errs, ErrMissingProduct)
		case "Quantity":
			errs = append(errs, ErrInvalidQuantity)
		default:
			errs = append(errs, fmt.Errorf("%w: %s", ErrPrecondition, fe.Error()))
		}
	}
	return errors.Join(errs...)
}

func (c *Coordinator) record(outcome string) {
	if c.recorder != nil {
		c.recorder.BillCreation(outcome)
	}
}
