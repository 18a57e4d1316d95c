package metrics_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/andrescamacho/portsim-go/internal/adapters/metrics"
	"github.com/andrescamacho/portsim-go/internal/domain/port"
	"github.com/andrescamacho/portsim-go/internal/domain/warehouse"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestPortMetricsCollector_RecordsPortEvents(t *testing.T) {
	// Arrange
	metrics.InitRegistry()
	t.Cleanup(func() { metrics.Registry = nil })
	collector := metrics.NewPortMetricsCollector(nil)
	require.NoError(t, collector.Register())

	// Act
	collector.RecordMooring(port.MooringEvent{ShipID: "Ship1", BerthID: 0, Wait: 20 * time.Millisecond})
	collector.RecordMooring(port.MooringEvent{ShipID: "Ship2", BerthID: -1, Err: &port.MooringDeniedError{Err: context.Canceled}})
	collector.RecordTransfer(port.TransferEvent{BerthID: 0, Direction: port.DirectionUnload, Units: 15, PortLevel: 30})
	collector.RecordTransfer(port.TransferEvent{
		BerthID: 0, Direction: port.DirectionLoad, Units: 40, PortLevel: 30,
		Err: &port.TransferRefusedError{Reason: port.ReasonInsufficientStock},
	})
	collector.RecordTransfer(port.TransferEvent{
		BerthID: 0, Direction: port.DirectionLoad, Units: 1, PortLevel: -1,
		Err: &port.TransferAbandonedError{Err: &warehouse.LockTimeoutError{}},
	})
	collector.RecordRelease(port.ReleaseEvent{ShipID: "Ship1", BerthID: 0})

	// Assert
	expected := `
# HELP portsim_port_transfers_total Total transfer attempts by direction and outcome
# TYPE portsim_port_transfers_total counter
portsim_port_transfers_total{direction="LOAD",outcome="insufficient_stock"} 1
portsim_port_transfers_total{direction="LOAD",outcome="lock_timeout"} 1
portsim_port_transfers_total{direction="UNLOAD",outcome="success"} 1
# HELP portsim_port_containers_moved_total Total containers moved by direction
# TYPE portsim_port_containers_moved_total counter
portsim_port_containers_moved_total{direction="UNLOAD"} 15
# HELP portsim_port_moorings_total Total mooring attempts by outcome
# TYPE portsim_port_moorings_total counter
portsim_port_moorings_total{outcome="mooring_denied"} 1
portsim_port_moorings_total{outcome="success"} 1
# HELP portsim_port_warehouse_containers Containers in the port warehouse after the last transfer
# TYPE portsim_port_warehouse_containers gauge
portsim_port_warehouse_containers 30
# HELP portsim_port_berths_in_use Number of berths currently reserved by a ship
# TYPE portsim_port_berths_in_use gauge
portsim_port_berths_in_use 0
# HELP portsim_port_releases_total Total berths returned to the pool
# TYPE portsim_port_releases_total counter
portsim_port_releases_total 1
`
	err := testutil.GatherAndCompare(metrics.Registry, strings.NewReader(expected),
		"portsim_port_transfers_total",
		"portsim_port_containers_moved_total",
		"portsim_port_moorings_total",
		"portsim_port_warehouse_containers",
		"portsim_port_berths_in_use",
		"portsim_port_releases_total",
	)
	assert.NoError(t, err)
	assert.Equal(t, 1, testutil.CollectAndCount(metrics.Registry, "portsim_port_mooring_wait_seconds"))
}

func TestPortMetricsCollector_WiredIntoPort(t *testing.T) {
	metrics.InitRegistry()
	t.Cleanup(func() { metrics.Registry = nil })
	collector := metrics.NewPortMetricsCollector(nil)
	require.NoError(t, collector.Register())

	p, err := port.NewPort(1, 90, port.WithRecorder(collector))
	require.NoError(t, err)
	require.NoError(t, p.SetContainersToWarehouse(warehouse.NewContainers(0, 15)))
	ship, err := warehouse.New(90)
	require.NoError(t, err)
	ship.AddContainers(warehouse.NewContainers(30, 15))

	berth, err := p.Moor(context.Background(), "Ship1")
	require.NoError(t, err)
	require.True(t, berth.Add(context.Background(), ship, 15))
	require.NoError(t, p.Unmoor(context.Background(), "Ship1"))

	assert.NoError(t, testutil.GatherAndCompare(metrics.Registry, strings.NewReader(`
# HELP portsim_port_warehouse_containers Containers in the port warehouse after the last transfer
# TYPE portsim_port_warehouse_containers gauge
portsim_port_warehouse_containers 30
`), "portsim_port_warehouse_containers"))
}

func TestPortMetricsCollector_PollsSample(t *testing.T) {
	metrics.InitRegistry()
	t.Cleanup(func() { metrics.Registry = nil })
	collector := metrics.NewPortMetricsCollector(func() metrics.PortSample {
		return metrics.PortSample{FreeBerths: 1}
	})
	require.NoError(t, collector.Register())

	collector.Start(context.Background(), time.Hour)
	collector.Stop()

	assert.NoError(t, testutil.GatherAndCompare(metrics.Registry, strings.NewReader(`
# HELP portsim_port_berths_free Number of berths in the free pool at the last sample
# TYPE portsim_port_berths_free gauge
portsim_port_berths_free 1
`), "portsim_port_berths_free"))
}

func TestPortMetricsCollector_SamplingLeavesBerthsInUseToEvents(t *testing.T) {
	// Arrange
	metrics.InitRegistry()
	t.Cleanup(func() { metrics.Registry = nil })
	collector := metrics.NewPortMetricsCollector(func() metrics.PortSample {
		return metrics.PortSample{FreeBerths: 0}
	})
	require.NoError(t, collector.Register())
	collector.RecordMooring(port.MooringEvent{ShipID: "Ship1", BerthID: 0})
	collector.RecordMooring(port.MooringEvent{ShipID: "Ship2", BerthID: 1})

	// Act
	collector.Start(context.Background(), time.Hour)
	collector.Stop()
	collector.RecordRelease(port.ReleaseEvent{ShipID: "Ship2", BerthID: 1})

	// Assert
	assert.NoError(t, testutil.GatherAndCompare(metrics.Registry, strings.NewReader(`
# HELP portsim_port_berths_free Number of berths in the free pool at the last sample
# TYPE portsim_port_berths_free gauge
portsim_port_berths_free 0
# HELP portsim_port_berths_in_use Number of berths currently reserved by a ship
# TYPE portsim_port_berths_in_use gauge
portsim_port_berths_in_use 1
`), "portsim_port_berths_free", "portsim_port_berths_in_use"))
}

func TestRegister_NoopWhenDisabled(t *testing.T) {
	metrics.Registry = nil

	assert.False(t, metrics.IsEnabled())
	assert.NoError(t, metrics.NewPortMetricsCollector(nil).Register())
	assert.NoError(t, metrics.NewRunMetricsCollector().Register())
}

func TestRunMetricsCollector(t *testing.T) {
	metrics.InitRegistry()
	t.Cleanup(func() {
		metrics.Registry = nil
		metrics.SetGlobalRunCollector(nil)
	})
	collector := metrics.NewRunMetricsCollector()
	require.NoError(t, collector.Register())
	metrics.SetGlobalRunCollector(collector)

	metrics.RecordRunCompletion("COMPLETED", time.Second, true)
	metrics.RecordRunCompletion("FAILED", time.Second, false)

	assert.NoError(t, testutil.GatherAndCompare(metrics.Registry, strings.NewReader(`
# HELP portsim_run_conservation_breaches_total Runs whose container total changed
# TYPE portsim_run_conservation_breaches_total counter
portsim_run_conservation_breaches_total 1
# HELP portsim_run_total Total number of finished runs by status
# TYPE portsim_run_total counter
portsim_run_total{status="COMPLETED"} 1
portsim_run_total{status="FAILED"} 1
`), "portsim_run_conservation_breaches_total", "portsim_run_total"))
}

func TestHandler(t *testing.T) {
	metrics.Registry = nil
	rec := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	metrics.InitRegistry()
	t.Cleanup(func() { metrics.Registry = nil })
	collector := metrics.NewRunMetricsCollector()
	require.NoError(t, collector.Register())
	collector.RecordRunCompletion("COMPLETED", time.Second, true)

	rec = httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `portsim_run_total{status="COMPLETED"} 1`)
}

