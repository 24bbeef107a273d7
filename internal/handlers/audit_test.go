package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/prudhivi99/billing-console/internal/models"
)

type fakeEvents struct {
	limit int
	err   error
}

func (f *fakeEvents) List(_ context.Context, limit int) ([]models.AuditRecord, error) {
	f.limit = limit
	if f.err != nil {
		return nil, f.err
	}
	return []models.AuditRecord{{ID: 1, BillEvent: models.BillEvent{Type: models.BillCreatedEvent, BillID: 3}}}, nil
}

func TestAuditHandler_ListEvents(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name      string
		query     string
		err       error
		wantCode  int
		wantLimit int
	}{
		{name: "default limit", wantCode: http.StatusOK, wantLimit: 0},
		{name: "explicit limit", query: "?limit=5", wantCode: http.StatusOK, wantLimit: 5},
		{name: "bad limit", query: "?limit=abc", wantCode: http.StatusBadRequest},
		{name: "storage failure", err: errors.New("db down"), wantCode: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events := &fakeEvents{err: tt.err, limit: -1}
			router := gin.New()
			router.GET("/events", NewAuditHandler(events).ListEvents)

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/events"+tt.query, nil))

			assert.Equal(t, tt.wantCode, w.Code)
			if tt.wantCode == http.StatusOK {
				assert.Equal(t, tt.wantLimit, events.limit)
				assert.Contains(t, w.Body.String(), `"type":"bill.created"`)
			}
		})
	}
}
