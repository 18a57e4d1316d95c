package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// RunMetricsCollector counts finished runs
type RunMetricsCollector struct {
	runsTotal          *prometheus.CounterVec
	runDuration        prometheus.Histogram
	conservationBreach prometheus.Counter
}

// NewRunMetricsCollector creates a new run metrics collector
func NewRunMetricsCollector() *RunMetricsCollector {
	return &RunMetricsCollector{
		runsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "run",
				Name:      "total",
				Help:      "Total number of finished runs by status",
			},
			[]string{"status"},
		),
		runDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "run",
				Name:      "duration_seconds",
				Help:      "Run duration distribution",
				Buckets:   []float64{0.1, 0.5, 1, 5, 10, 30, 60, 300},
			},
		),
		conservationBreach: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "run",
				Name:      "conservation_breaches_total",
				Help:      "Runs whose container total changed",
			},
		),
	}
}

// Register registers all metrics with the Prometheus registry
func (c *RunMetricsCollector) Register() error {
	if Registry == nil {
		return nil // Metrics not enabled
	}
	for _, metric := range []prometheus.Collector{c.runsTotal, c.runDuration, c.conservationBreach} {
		if err := Registry.Register(metric); err != nil {
			return err
		}
	}
	return nil
}

// RecordRunCompletion implements RunMetricsRecorder
func (c *RunMetricsCollector) RecordRunCompletion(status string, duration time.Duration, conserved bool) {
	c.runsTotal.WithLabelValues(status).Inc()
	c.runDuration.Observe(duration.Seconds())
	if !conserved {
		c.conservationBreach.Inc()
	}
}
