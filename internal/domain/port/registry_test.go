package port_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/portsim-go/internal/domain/port"
)

func TestRegistry_PutGetRemove(t *testing.T) {
	p := newLoadedPort(t, 2, 10, 0)
	berth := mustMoor(t, p, "Ship1")
	r := port.NewRegistry()

	require.True(t, r.PutIfAbsent("Ship1", berth))
	assert.False(t, r.PutIfAbsent("Ship1", berth))
	assert.Equal(t, 1, r.Len())

	got, ok := r.Get("Ship1")
	require.True(t, ok)
	assert.Same(t, berth, got)

	removed, ok := r.Remove("Ship1")
	require.True(t, ok)
	assert.Same(t, berth, removed)

	_, ok = r.Remove("Ship1")
	assert.False(t, ok)
	assert.Equal(t, 0, r.Len())
}

func TestRegistry_SnapshotIsACopy(t *testing.T) {
	p := newLoadedPort(t, 1, 10, 0)
	berth := mustMoor(t, p, "Ship1")
	r := port.NewRegistry()
	r.PutIfAbsent("Ship1", berth)

	snap := r.Snapshot()
	delete(snap, "Ship1")

	assert.Equal(t, 1, r.Len())
}

func TestRegistry_ConcurrentPutIfAbsentHasOneWinner(t *testing.T) {
	p := newLoadedPort(t, 1, 10, 0)
	berth := mustMoor(t, p, "Ship1")
	r := port.NewRegistry()

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if r.PutIfAbsent("Contended", berth) {
				mu.Lock()
				wins++
				mu.Unlock()
			}
			r.Get(port.ShipID(fmt.Sprintf("Other%d", i)))
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
}

func mustMoor(t *testing.T, p *port.Port, id port.ShipID) *port.Berth {
	t.Helper()
	berth, err := p.Moor(context.Background(), id)
	require.NoError(t, err)
	return berth
}
