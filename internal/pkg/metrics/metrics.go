// internal/pkg/metrics/metrics.go
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "stockroom"

// Photo operation results
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

// Metrics holds the service's Prometheus collectors on a private registry
type Metrics struct {
	registry *prometheus.Registry

	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
	inventoryItems  prometheus.Gauge
	photoOperations *prometheus.CounterVec
	cleanupFailures *prometheus.CounterVec
	orphansRemoved  prometheus.Counter
	inventoryReload prometheus.Counter
}

// New creates and registers all collectors
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		inventoryItems: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "inventory_items",
			Help:      "Number of items currently in the inventory.",
		}),
		photoOperations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "photos",
			Name:      "operations_total",
			Help:      "Photo storage operations by kind and result.",
		}, []string{"operation", "result"}),
		cleanupFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "photos",
			Name:      "cleanup_failures_total",
			Help:      "Best-effort photo deletions that failed, by reason.",
		}, []string{"reason"}),
		orphansRemoved: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "photos",
			Name:      "orphans_removed_total",
			Help:      "Unreferenced photos removed by the cleanup worker.",
		}),
		inventoryReload: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "inventory_reloads_total",
			Help:      "Reloads triggered by external edits of the inventory file.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequests,
		m.httpDuration,
		m.inventoryItems,
		m.photoOperations,
		m.cleanupFailures,
		m.orphansRemoved,
		m.inventoryReload,
	)

	return m
}

// Registry exposes the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the exposition format for this registry
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveHTTP records one served request
func (m *Metrics) ObserveHTTP(method, route string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// SetInventoryItems records the current inventory size
func (m *Metrics) SetInventoryItems(n int) {
	if m == nil {
		return
	}
	m.inventoryItems.Set(float64(n))
}

// PhotoOperation counts a photo storage operation
func (m *Metrics) PhotoOperation(operation string, err error) {
	if m == nil {
		return
	}
	result := ResultSuccess
	if err != nil {
		result = ResultFailure
	}
	m.photoOperations.WithLabelValues(operation, result).Inc()
}

// CleanupFailed counts a best-effort photo deletion that did not succeed
func (m *Metrics) CleanupFailed(reason string) {
	if m == nil {
		return
	}
	m.cleanupFailures.WithLabelValues(reason).Inc()
}

// OrphansRemoved counts photos removed by the cleanup worker
func (m *Metrics) OrphansRemoved(n int) {
	if m == nil {
		return
	}
	m.orphansRemoved.Add(float64(n))
}

// InventoryReloaded counts a reload caused by an external edit
func (m *Metrics) InventoryReloaded() {
	if m == nil {
		return
	}
	m.inventoryReload.Inc()
}
