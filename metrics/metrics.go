// Package metrics exports repository activity as Prometheus metrics.
package metrics

import (
	"context"
	"net/http"

	auth "github.com/goliatone/go-auth-flows"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "authflow"

// Collector is an auth.ActivitySink that counts operations by outcome and
// failures by error kind.
type Collector struct {
	operations *prometheus.CounterVec
	failures   *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

var _ auth.ActivitySink = (*Collector)(nil)

// NewCollector creates a Collector and registers its metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Authentication operations by provider, operation and outcome.",
		}, []string{"provider", "operation", "outcome"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "failures_total",
			Help:      "Failed authentication operations by error kind.",
		}, []string{"provider", "operation", "kind"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_duration_seconds",
			Help:      "Latency of authentication operations.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"provider", "operation"}),
	}

	reg.MustRegister(c.operations, c.failures, c.duration)
	return c
}

// Record implements auth.ActivitySink.
func (c *Collector) Record(_ context.Context, event auth.ActivityEvent) error {
	op := string(event.Operation)
	c.operations.WithLabelValues(event.ProviderID, op, event.Outcome).Inc()
	if event.ErrorKind != "" {
		c.failures.WithLabelValues(event.ProviderID, op, string(event.ErrorKind)).Inc()
	}
	if event.Duration > 0 {
		c.duration.WithLabelValues(event.ProviderID, op).Observe(event.Duration.Seconds())
	}
	return nil
}

// Handler serves the metrics gathered by gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
