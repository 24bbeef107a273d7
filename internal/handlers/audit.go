package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/prudhivi99/billing-console/internal/models"
)

type EventLister interface {
	List(ctx context.Context, limit int) ([]models.AuditRecord, error)
}

type AuditHandler struct {
	events EventLister
}

func NewAuditHandler(events EventLister) *AuditHandler {
	return &AuditHandler{events: events}
}

// ListEvents returns recorded bill events, newest first. ?limit=N caps the page.
func (h *AuditHandler) ListEvents(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = n
	}

	events, err := h.events.List(c.Request.Context(), limit)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list events"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events, "count": len(events)})
}
