package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	m := New()

	m.ReferenceLookup("customer", true)
	m.ReferenceLookup("customer", false)
	m.ReferenceLookup("customer", false)
	m.BillCreation("rejected")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.referenceLookups.WithLabelValues("customer", "found")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.referenceLookups.WithLabelValues("customer", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.billCreations.WithLabelValues("rejected")))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ReferenceLookup("product", false)
		m.BillCreation("created")
		m.ObserveUpstream("billing-service", http.MethodGet, 0, time.Second)
	})
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.ObserveUpstream("billing-service", http.MethodGet, http.StatusOK, 20*time.Millisecond)
	m.ObserveUpstream("billing-service", http.MethodGet, 0, time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `console_upstream_request_duration_seconds_count{code="200",method="GET",service="billing-service"} 1`)
	assert.Contains(t, string(body), `code="error"`)
}
