package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	// Namespace for all metrics
	namespace = "portsim"
	// Subsystem for port metrics
	subsystem = "port"
)

var (
	// Registry is the global Prometheus registry for all metrics
	Registry *prometheus.Registry

	// globalRunCollector is the singleton run metrics collector
	// Set by SetGlobalRunCollector() when metrics are enabled
	globalRunCollector RunMetricsRecorder
)

// RunMetricsRecorder records the outcome of whole simulation runs
type RunMetricsRecorder interface {
	RecordRunCompletion(status string, duration time.Duration, conserved bool)
}

// InitRegistry initializes the Prometheus registry
// Should be called once at application startup if metrics are enabled
func InitRegistry() {
	Registry = prometheus.NewRegistry()
}

// GetRegistry returns the global Prometheus registry
// Returns nil if metrics are not initialized
func GetRegistry() *prometheus.Registry {
	return Registry
}

// IsEnabled returns true if metrics collection is enabled
func IsEnabled() bool {
	return Registry != nil
}

// Handler serves the global registry in the Prometheus exposition format
func Handler() http.Handler {
	if Registry == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{Registry: Registry})
}

// SetGlobalRunCollector sets the global run metrics collector
func SetGlobalRunCollector(collector RunMetricsRecorder) {
	globalRunCollector = collector
}

// RecordRunCompletion records a finished run globally
func RecordRunCompletion(status string, duration time.Duration, conserved bool) {
	if globalRunCollector != nil {
		globalRunCollector.RecordRunCompletion(status, duration, conserved)
	}
}
