package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/prudhivi99/billing-console/internal/aggregator"
	"github.com/prudhivi99/billing-console/internal/billing"
	"github.com/prudhivi99/billing-console/internal/client"
	"github.com/prudhivi99/billing-console/internal/logger"
)

// StatusClientClosedRequest is used when the browser went away mid-request
const StatusClientClosedRequest = 499

// respondError maps an operation error onto an HTTP status
func respondError(c *gin.Context, err error) {
	_ = c.Error(err)

	if errors.Is(err, context.Canceled) {
		c.AbortWithStatus(StatusClientClosedRequest)
		return
	}

	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.FromContext(c.Request.Context()).Error("upstream failure", zap.Error(err))
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}

func statusFor(err error) int {
	var statusErr *client.StatusError
	switch {
	case errors.Is(err, billing.ErrPrecondition), errors.Is(err, aggregator.ErrInvalidBillID):
		return http.StatusBadRequest
	case errors.Is(err, client.ErrNotFound):
		return http.StatusNotFound
	case errors.As(err, &statusErr) && statusErr.StatusCode >= 400 && statusErr.StatusCode < 500:
		return statusErr.StatusCode
	default:
		return http.StatusBadGateway
	}
}

// parseID reads a positive int64 path parameter, answering 400 otherwise
func parseID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return id, true
}
