package port_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/portsim-go/internal/domain/port"
	"github.com/andrescamacho/portsim-go/internal/domain/shared"
	"github.com/andrescamacho/portsim-go/internal/domain/warehouse"
)

func TestNewPort(t *testing.T) {
	p, err := port.NewPort(2, 90)

	require.NoError(t, err)
	assert.Equal(t, 2, p.BerthCount())
	assert.Equal(t, 2, p.FreeBerths())
	assert.Equal(t, []int{0, 1}, p.BerthIDs())
	assert.Equal(t, 90, p.Warehouse().Capacity())
	assert.Equal(t, 0, p.Warehouse().RealSize())
}

func TestNewPort_RejectsInvalidSizes(t *testing.T) {
	tests := []struct {
		name     string
		berths   int
		capacity int
	}{
		{"zero berths", 0, 90},
		{"negative berths", -1, 90},
		{"negative capacity", 2, -5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := port.NewPort(tt.berths, tt.capacity)

			var invalid *shared.ValidationError
			assert.ErrorAs(t, err, &invalid)
		})
	}
}

func TestPort_SetContainersToWarehouse(t *testing.T) {
	p, err := port.NewPort(1, 20)
	require.NoError(t, err)

	require.NoError(t, p.SetContainersToWarehouse(warehouse.NewContainers(0, 15)))
	assert.Equal(t, 15, p.Warehouse().RealSize())

	err = p.SetContainersToWarehouse(warehouse.NewContainers(15, 6))
	var invalid *shared.ValidationError
	assert.ErrorAs(t, err, &invalid)
	assert.Equal(t, 15, p.Warehouse().RealSize())
}

func TestPort_AcquireAndReleaseBerth(t *testing.T) {
	// Arrange
	rec := &recordingRecorder{}
	p := newLoadedPort(t, 2, 90, 0, port.WithRecorder(rec))
	ctx := context.Background()

	// Act
	ok := p.AcquireBerth(ctx, "Ship1")

	// Assert
	require.True(t, ok)
	assert.Equal(t, 1, p.FreeBerths())
	berth, err := p.GetBerth("Ship1")
	require.NoError(t, err)
	assert.Equal(t, map[port.ShipID]int{"Ship1": berth.ID()}, p.MooredShips())

	require.True(t, p.ReleaseBerth(ctx, "Ship1"))
	assert.Equal(t, 2, p.FreeBerths())
	assert.Empty(t, p.MooredShips())

	_, err = p.GetBerth("Ship1")
	var violation *port.ProtocolViolationError
	assert.ErrorAs(t, err, &violation)

	require.Len(t, rec.moorings, 1)
	assert.Equal(t, berth.ID(), rec.moorings[0].BerthID)
	require.Len(t, rec.releases, 1)
	assert.Equal(t, port.ReleaseEvent{ShipID: "Ship1", BerthID: berth.ID()}, rec.releases[0])
}

func TestPort_ThirdShipWaitsForFreeBerth(t *testing.T) {
	// Arrange: two berths, two ships already moored
	p := newLoadedPort(t, 2, 90, 0)
	ctx := context.Background()
	require.True(t, p.AcquireBerth(ctx, "Ship1"))
	require.True(t, p.AcquireBerth(ctx, "Ship2"))
	released, err := p.GetBerth("Ship1")
	require.NoError(t, err)

	// Act
	acquired := make(chan bool, 1)
	go func() {
		acquired <- p.AcquireBerth(ctx, "Ship3")
	}()

	// Assert: Ship3 blocks until a berth is released
	select {
	case <-acquired:
		t.Fatal("Ship3 acquired a berth while both were reserved")
	case <-time.After(50 * time.Millisecond):
	}

	require.True(t, p.ReleaseBerth(ctx, "Ship1"))

	select {
	case ok := <-acquired:
		require.True(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("Ship3 never acquired the released berth")
	}

	berth, err := p.GetBerth("Ship3")
	require.NoError(t, err)
	assert.Same(t, released, berth)
	assert.Equal(t, 0, p.FreeBerths())
}

func TestPort_GetBerthWithoutReservationIsProtocolViolation(t *testing.T) {
	p := newLoadedPort(t, 2, 90, 15)

	berth, err := p.GetBerth("Ship1")

	assert.Nil(t, berth)
	var violation *port.ProtocolViolationError
	require.ErrorAs(t, err, &violation)
	assert.Equal(t, port.ShipID("Ship1"), violation.ShipID)
	assert.Equal(t, port.OutcomeProtocolViolation, port.Outcome(err))
	assert.Equal(t, 15, p.Warehouse().RealSize())
}

func TestPort_DoubleMooringIsRejected(t *testing.T) {
	// Arrange: a single berth, already held by Ship1
	p := newLoadedPort(t, 1, 90, 0)
	ctx := context.Background()
	require.True(t, p.AcquireBerth(ctx, "Ship1"))
	first, err := p.GetBerth("Ship1")
	require.NoError(t, err)

	// Act
	_, err = p.Moor(ctx, "Ship1")

	// Assert
	var violation *port.ProtocolViolationError
	require.ErrorAs(t, err, &violation)
	current, err := p.GetBerth("Ship1")
	require.NoError(t, err)
	assert.Same(t, first, current)
	assert.Equal(t, 0, p.FreeBerths())
}

func TestPort_DoubleMooringKeepsPoolWhole(t *testing.T) {
	p := newLoadedPort(t, 3, 90, 0)
	ctx := context.Background()
	require.True(t, p.AcquireBerth(ctx, "Ship1"))

	assert.False(t, p.AcquireBerth(ctx, "Ship1"))

	assert.Equal(t, 2, p.FreeBerths())
	assert.Len(t, p.MooredShips(), 1)
}

func TestPort_ReleaseWithoutReservation(t *testing.T) {
	p := newLoadedPort(t, 2, 90, 0)

	assert.False(t, p.ReleaseBerth(context.Background(), "Ghost"))

	err := p.Unmoor(context.Background(), "Ghost")
	var violation *port.ProtocolViolationError
	assert.ErrorAs(t, err, &violation)
	assert.Equal(t, 2, p.FreeBerths())
}

func TestPort_ReleaseTwiceFailsSecondTime(t *testing.T) {
	p := newLoadedPort(t, 2, 90, 0)
	ctx := context.Background()
	require.True(t, p.AcquireBerth(ctx, "Ship1"))

	assert.True(t, p.ReleaseBerth(ctx, "Ship1"))
	assert.False(t, p.ReleaseBerth(ctx, "Ship1"))
	assert.Equal(t, 2, p.FreeBerths())
}

func TestPort_CancelledMooringWait(t *testing.T) {
	// Arrange
	rec := &recordingRecorder{}
	p := newLoadedPort(t, 1, 90, 0, port.WithRecorder(rec))
	require.True(t, p.AcquireBerth(context.Background(), "Ship1"))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	// Act
	_, err := p.Moor(ctx, "Ship2")

	// Assert
	var denied *port.MooringDeniedError
	require.ErrorAs(t, err, &denied)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Equal(t, port.OutcomeMooringDenied, port.Outcome(err))
	assert.Len(t, p.MooredShips(), 1)
	assert.Equal(t, 0, p.FreeBerths())

	last := rec.moorings[len(rec.moorings)-1]
	assert.Equal(t, -1, last.BerthID)
	assert.Error(t, last.Err)
}

func TestPort_MooringWaitUsesClock(t *testing.T) {
	clock := shared.NewMockClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	rec := &recordingRecorder{}
	p := newLoadedPort(t, 1, 90, 0, port.WithRecorder(rec), port.WithClock(clock))

	require.True(t, p.AcquireBerth(context.Background(), "Ship1"))

	require.Len(t, rec.moorings, 1)
	assert.Equal(t, time.Duration(0), rec.moorings[0].Wait)
}

func TestPort_BerthAccounting(t *testing.T) {
	// free + reserved always equals the berth count
	p := newLoadedPort(t, 3, 90, 0)
	ctx := context.Background()
	ships := []port.ShipID{"A", "B", "C"}

	for i, id := range ships {
		require.True(t, p.AcquireBerth(ctx, id))
		assert.Equal(t, p.BerthCount(), p.FreeBerths()+len(p.MooredShips()), "after mooring %d", i)
	}
	for i, id := range ships {
		require.True(t, p.ReleaseBerth(ctx, id))
		assert.Equal(t, p.BerthCount(), p.FreeBerths()+len(p.MooredShips()), "after release %d", i)
	}
}

func TestPort_DistinctShipsHoldDistinctBerths(t *testing.T) {
	p := newLoadedPort(t, 3, 90, 0)
	ctx := context.Background()
	for _, id := range []port.ShipID{"A", "B", "C"} {
		require.True(t, p.AcquireBerth(ctx, id))
	}

	seen := map[int]bool{}
	for _, berthID := range p.MooredShips() {
		assert.False(t, seen[berthID], "berth %d reserved twice", berthID)
		seen[berthID] = true
	}
	assert.Len(t, seen, 3)
}

func TestPort_LogsThroughContextLogger(t *testing.T) {
	logger := &capturingLogger{}
	ctx := shared.WithLogger(context.Background(), logger)
	p := newLoadedPort(t, 1, 90, 0)

	require.True(t, p.AcquireBerth(ctx, "Ship1"))
	require.False(t, p.AcquireBerth(ctx, "Ship1"))

	assert.Contains(t, logger.levels(), shared.LevelDebug)
	assert.Contains(t, logger.levels(), shared.LevelWarn)
}
