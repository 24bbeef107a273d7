package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/prudhivi99/billing-console/internal/billing"
	"github.com/prudhivi99/billing-console/internal/envelope"
	"github.com/prudhivi99/billing-console/internal/logger"
	"github.com/prudhivi99/billing-console/internal/models"
)

// BillLister returns list payloads exactly as the billing service sent them
type BillLister interface {
	List(ctx context.Context) (json.RawMessage, error)
	ListByCustomer(ctx context.Context, customerID int64) (json.RawMessage, error)
}

type BillDetailer interface {
	BillDetail(ctx context.Context, id int64) (*models.BillDetail, error)
}

type BillCoordinator interface {
	Create(ctx context.Context, candidate billing.Candidate) (*billing.Result, error)
	Delete(ctx context.Context, id int64) (*billing.Result, error)
}

type BillHandler struct {
	bills       BillLister
	details     BillDetailer
	coordinator BillCoordinator
}

func NewBillHandler(bills BillLister, details BillDetailer, coordinator BillCoordinator) *BillHandler {
	return &BillHandler{
		bills:       bills,
		details:     details,
		coordinator: coordinator,
	}
}

// ListBills returns every bill as a flat array, whatever envelope the billing service used
func (h *BillHandler) ListBills(c *gin.Context) {
	raw, err := h.bills.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, envelope.DecodeBills(raw, logger.FromContext(c.Request.Context())))
}

func (h *BillHandler) ListBillsByCustomer(c *gin.Context) {
	customerID, ok := parseID(c, "customerId")
	if !ok {
		return
	}

	raw, err := h.bills.ListByCustomer(c.Request.Context(), customerID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, envelope.DecodeBills(raw, logger.FromContext(c.Request.Context())))
}

// GetBill returns the bill joined with its customer and product
func (h *BillHandler) GetBill(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	detail, err := h.details.BillDetail(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

func (h *BillHandler) CreateBill(c *gin.Context) {
	var candidate billing.Candidate
	if err := c.ShouldBindJSON(&candidate); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.coordinator.Create(c.Request.Context(), candidate)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h *BillHandler) DeleteBill(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if _, err := h.coordinator.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
