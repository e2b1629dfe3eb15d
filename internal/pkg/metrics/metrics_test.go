package metrics_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ammerola/stockroom/internal/pkg/metrics"
)

func TestMetrics_Counters(t *testing.T) {
	m := metrics.New()

	m.ObserveHTTP(http.MethodPost, "POST /register", http.StatusCreated, 10*time.Millisecond)
	m.SetInventoryItems(3)
	m.PhotoOperation("save", nil)
	m.PhotoOperation("save", errors.New("disk full"))
	m.CleanupFailed("replace")
	m.OrphansRemoved(2)
	m.InventoryReloaded()

	count, err := testutil.GatherAndCount(m.Registry(),
		"stockroom_http_requests_total",
		"stockroom_photos_operations_total",
		"stockroom_photos_cleanup_failures_total")
	require.NoError(t, err)
	assert.Equal(t, 4, count)
}

func TestMetrics_Handler(t *testing.T) {
	m := metrics.New()
	m.SetInventoryItems(5)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "stockroom_inventory_items 5")
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *metrics.Metrics

	assert.NotPanics(t, func() {
		m.ObserveHTTP(http.MethodGet, "GET /inventory", http.StatusOK, time.Millisecond)
		m.SetInventoryItems(1)
		m.PhotoOperation("delete", nil)
		m.CleanupFailed("delete")
		m.OrphansRemoved(1)
		m.InventoryReloaded()
	})
}
