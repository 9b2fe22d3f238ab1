// Package metrics provides Prometheus metrics for a sync run.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "notionsync"

// Collector holds the metrics of one run on its own registry. A nil
// *Collector is valid and records nothing.
type Collector struct {
	registry *prometheus.Registry

	apiRequestsTotal *prometheus.CounterVec
	apiRetriesTotal  *prometheus.CounterVec
	pagesTotal       *prometheus.CounterVec
	pageDuration     prometheus.Histogram
	runDuration      prometheus.Gauge
}

func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),

		// API request metrics
		apiRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "api_requests_total",
				Help:      "Total number of remote API requests",
			},
			[]string{"operation", "outcome"},
		),
		apiRetriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "api_retries_total",
				Help:      "Total number of retried remote API requests",
			},
			[]string{"operation"},
		),

		// Page metrics
		pagesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "pages_total",
				Help:      "Total number of pages by outcome",
			},
			[]string{"outcome"},
		),
		pageDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "page_duration_seconds",
				Help:      "Time to fetch, convert and commit one page",
				Buckets:   prometheus.DefBuckets,
			},
		),
		runDuration: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "last_run_duration_seconds",
				Help:      "Duration of the last sync run",
			},
		),
	}

	c.registry.MustRegister(
		c.apiRequestsTotal,
		c.apiRetriesTotal,
		c.pagesTotal,
		c.pageDuration,
		c.runDuration,
	)
	return c
}

// Registry exposes the underlying registry, mostly for tests.
func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

// RecordRequest records one remote call with its outcome label.
func (c *Collector) RecordRequest(operation, outcome string) {
	if c == nil {
		return
	}
	c.apiRequestsTotal.WithLabelValues(operation, outcome).Inc()
}

// RecordRetry records one retry of a remote call.
func (c *Collector) RecordRetry(operation string) {
	if c == nil {
		return
	}
	c.apiRetriesTotal.WithLabelValues(operation).Inc()
}

// RecordPage records a finished page.
func (c *Collector) RecordPage(outcome string, duration time.Duration) {
	if c == nil {
		return
	}
	c.pagesTotal.WithLabelValues(outcome).Inc()
	if duration > 0 {
		c.pageDuration.Observe(duration.Seconds())
	}
}

// RecordRun records the duration of a whole run.
func (c *Collector) RecordRun(duration time.Duration) {
	if c == nil {
		return
	}
	c.runDuration.Set(duration.Seconds())
}

// WriteTextfile writes the metrics in the text exposition format, for the
// node exporter textfile collector.
func (c *Collector) WriteTextfile(path string) error {
	if c == nil || path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, c.registry)
}
