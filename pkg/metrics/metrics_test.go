package metrics

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsCounters(t *testing.T) {
	m := New()

	m.OrderPlaced("cod")
	m.OrderPlaced("cod")
	m.OrderPlaced("online")
	m.StockReservationFailed("insufficient_stock")
	m.ObserveHTTP("GET", "/api/products", "200", 0.01)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ordersPlaced.WithLabelValues("cod")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ordersPlaced.WithLabelValues("online")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.stockFailures.WithLabelValues("insufficient_stock")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "/api/products", "200")))
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.OrderPlaced("cod")
		m.OrderCancelled()
		m.StockReservationFailed("x")
		m.PaymentVerified(true)
		m.ObserveHTTP("GET", "/", "200", 1)
	})
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New()
	m.OrderCancelled()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "storefront_orders_cancelled_total 1")
}

func TestSeparateInstancesDoNotCollide(t *testing.T) {
	assert.NotPanics(t, func() {
		_ = New()
		_ = New()
	})
}
