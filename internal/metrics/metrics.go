// Package metrics collects and exposes Prometheus metrics for the backend
// gateway.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector records backend gateway activity. All methods are safe on a nil
// receiver so callers can run without metrics wired up (tests mostly do).
type Collector struct {
	registry *prometheus.Registry

	requests *prometheus.CounterVec
	failures *prometheus.CounterVec
	status   *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

// NewCollector creates a Collector with its own registry.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bookshelf_backend_requests_total",
			Help: "Total backend requests by gateway operation",
		}, []string{"operation"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bookshelf_backend_failures_total",
			Help: "Total failed backend requests by gateway operation",
		}, []string{"operation"}),
		status: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bookshelf_backend_status_total",
			Help: "Backend responses by HTTP status code",
		}, []string{"status_code"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "bookshelf_backend_latency_seconds",
			Help:    "Backend request latency in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
	}

	c.registry.MustRegister(c.requests, c.failures, c.status, c.latency)

	return c
}

// RecordRequest records one backend round trip. A statusCode of zero means
// the request never produced a response (transport error).
func (c *Collector) RecordRequest(operation string, statusCode int, started time.Time, err error) {
	if c == nil {
		return
	}
	c.requests.WithLabelValues(operation).Inc()
	c.latency.WithLabelValues(operation).Observe(time.Since(started).Seconds())
	if statusCode > 0 {
		c.status.WithLabelValues(strconv.Itoa(statusCode)).Inc()
	}
	if err != nil {
		c.failures.WithLabelValues(operation).Inc()
	}
}

// Handler returns the HTTP handler serving the metrics endpoint.
func (c *Collector) Handler() http.Handler {
	if c == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
