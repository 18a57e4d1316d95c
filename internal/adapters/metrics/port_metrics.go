package metrics

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/andrescamacho/portsim-go/internal/domain/port"
)

// PortSample is a point-in-time view of the berth pool.
// Berths in use are tracked from mooring and release events only.
type PortSample struct {
	FreeBerths int
}

// PortMetricsCollector turns port events into Prometheus metrics.
// It implements port.Recorder and is safe for concurrent use.
type PortMetricsCollector struct {
	// Dependencies
	sample func() PortSample // optional, polled by Start

	// Berth metrics
	berthsInUse   prometheus.Gauge
	berthsFree    prometheus.Gauge
	mooringsTotal *prometheus.CounterVec
	mooringWait   prometheus.Histogram
	releasesTotal prometheus.Counter

	// Transfer metrics
	transfersTotal  *prometheus.CounterVec
	containersMoved *prometheus.CounterVec
	portLevel       prometheus.Gauge

	// Lifecycle
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
}

// NewPortMetricsCollector creates a new port metrics collector
func NewPortMetricsCollector(sample func() PortSample) *PortMetricsCollector {
	return &PortMetricsCollector{
		sample: sample,

		berthsInUse: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "berths_in_use",
			Help:      "Number of berths currently reserved by a ship",
		}),
		berthsFree: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "berths_free",
			Help:      "Number of berths in the free pool at the last sample",
		}),
		mooringsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "moorings_total",
				Help:      "Total mooring attempts by outcome",
			},
			[]string{"outcome"},
		),
		mooringWait: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "mooring_wait_seconds",
			Help:      "Time ships waited for a free berth",
			Buckets:   []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5, 30},
		}),
		releasesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "releases_total",
			Help:      "Total berths returned to the pool",
		}),
		transfersTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "transfers_total",
				Help:      "Total transfer attempts by direction and outcome",
			},
			[]string{"direction", "outcome"},
		),
		containersMoved: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "containers_moved_total",
				Help:      "Total containers moved by direction",
			},
			[]string{"direction"},
		),
		portLevel: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "warehouse_containers",
			Help:      "Containers in the port warehouse after the last transfer",
		}),
	}
}

// Register registers all metrics with the Prometheus registry
func (c *PortMetricsCollector) Register() error {
	if Registry == nil {
		return nil // Metrics not enabled
	}

	metrics := []prometheus.Collector{
		c.berthsInUse,
		c.berthsFree,
		c.mooringsTotal,
		c.mooringWait,
		c.releasesTotal,
		c.transfersTotal,
		c.containersMoved,
		c.portLevel,
	}
	for _, metric := range metrics {
		if err := Registry.Register(metric); err != nil {
			return err
		}
	}
	return nil
}

// RecordMooring implements port.Recorder
func (c *PortMetricsCollector) RecordMooring(e port.MooringEvent) {
	c.mooringsTotal.WithLabelValues(port.Outcome(e.Err)).Inc()
	if e.Err == nil {
		c.berthsInUse.Inc()
		c.mooringWait.Observe(e.Wait.Seconds())
	}
}

// RecordRelease implements port.Recorder
func (c *PortMetricsCollector) RecordRelease(e port.ReleaseEvent) {
	c.berthsInUse.Dec()
	c.releasesTotal.Inc()
}

// RecordTransfer implements port.Recorder
func (c *PortMetricsCollector) RecordTransfer(e port.TransferEvent) {
	direction := string(e.Direction)
	c.transfersTotal.WithLabelValues(direction, port.Outcome(e.Err)).Inc()
	if e.Err == nil {
		c.containersMoved.WithLabelValues(direction).Add(float64(e.Units))
	}
	if e.PortLevel >= 0 {
		c.portLevel.Set(float64(e.PortLevel))
	}
}

// Start polls the sample function until Stop is called or ctx is done
func (c *PortMetricsCollector) Start(ctx context.Context, interval time.Duration) {
	if c.sample == nil {
		return
	}
	var pollCtx context.Context
	pollCtx, c.cancelFunc = context.WithCancel(ctx)

	c.wg.Add(1)
	go c.collectPortMetrics(pollCtx, interval)
}

// Stop gracefully stops the metrics collection
func (c *PortMetricsCollector) Stop() {
	if c.cancelFunc != nil {
		c.cancelFunc()
	}
	c.wg.Wait()
}

func (c *PortMetricsCollector) collectPortMetrics(ctx context.Context, interval time.Duration) {
	defer c.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	c.updatePortMetrics()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.updatePortMetrics()
		}
	}
}

func (c *PortMetricsCollector) updatePortMetrics() {
	s := c.sample()
	c.berthsFree.Set(float64(s.FreeBerths))
}
