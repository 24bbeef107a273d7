package handlers

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

// RouteTable reports the current base URL of every upstream service
type RouteTable interface {
	Snapshot() map[string]string
}

type HealthHandler struct {
	service string
	routes  RouteTable
	client  *http.Client
}

func NewHealthHandler(service string, routes RouteTable) *HealthHandler {
	return &HealthHandler{
		service: service,
		routes:  routes,
		client:  &http.Client{Timeout: 2 * time.Second},
	}
}

// HealthCheck pings every upstream's /health. The console itself is up
// whenever it answers, so the status code is always 200.
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	routes := h.routes.Snapshot()

	var (
		mu       sync.Mutex
		statuses = make(map[string]string, len(routes))
	)
	g, ctx := errgroup.WithContext(c.Request.Context())
	for name, url := range routes {
		g.Go(func() error {
			status := "healthy"
			if !h.ping(ctx, url) {
				status = "unhealthy"
			}
			mu.Lock()
			statuses[name] = status
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	status := "healthy"
	for _, s := range statuses {
		if s != "healthy" {
			status = "degraded"
			break
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   status,
		"service":  h.service,
		"services": statuses,
	})
}

func (h *HealthHandler) ping(ctx context.Context, baseURL string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := h.client.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

func (h *HealthHandler) ListServices(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"services": h.routes.Snapshot()})
}
