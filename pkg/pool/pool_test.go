package pool_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/andrescamacho/portsim-go/pkg/pool"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestPool_StartsFull(t *testing.T) {
	p := pool.New(1, 2, 3)

	assert.Equal(t, 3, p.Capacity())
	assert.Equal(t, 3, p.Available())
}

func TestPool_AcquireAndRelease(t *testing.T) {
	// Arrange
	p := pool.New("a", "b")

	// Act
	first, err := p.Acquire(context.Background())
	require.NoError(t, err)
	second, err := p.Acquire(context.Background())
	require.NoError(t, err)

	// Assert
	assert.ElementsMatch(t, []string{"a", "b"}, []string{first, second})
	assert.Equal(t, 0, p.Available())

	require.NoError(t, p.Release(first))
	assert.Equal(t, 1, p.Available())
}

func TestPool_TryAcquireOnEmptyPool(t *testing.T) {
	p := pool.New(7)

	item, ok := p.TryAcquire()
	require.True(t, ok)
	assert.Equal(t, 7, item)

	_, ok = p.TryAcquire()
	assert.False(t, ok)
}

func TestPool_ReleaseIntoFullPoolOverflows(t *testing.T) {
	p := pool.New(1)

	err := p.Release(2)

	assert.ErrorIs(t, err, pool.ErrPoolOverflow)
	assert.Equal(t, 1, p.Available())
}

func TestPool_AcquireBlocksUntilRelease(t *testing.T) {
	// Arrange
	p := pool.New(1)
	held, err := p.Acquire(context.Background())
	require.NoError(t, err)

	got := make(chan int, 1)
	go func() {
		item, err := p.Acquire(context.Background())
		if err == nil {
			got <- item
		}
	}()

	// Assert: still waiting while the only item is held
	select {
	case <-got:
		t.Fatal("acquire returned while the pool was empty")
	case <-time.After(50 * time.Millisecond):
	}

	// Act
	require.NoError(t, p.Release(held))

	// Assert
	select {
	case item := <-got:
		assert.Equal(t, 1, item)
	case <-time.After(time.Second):
		t.Fatal("acquire did not return after release")
	}
}

func TestPool_AcquireCancelled(t *testing.T) {
	// Arrange
	p := pool.New(1)
	_, err := p.Acquire(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	// Act
	_, err = p.Acquire(ctx)

	// Assert
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 0, p.Available())
}

func TestPool_AcquireWithDoneContextTakesNothing(t *testing.T) {
	p := pool.New(1, 2)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Acquire(ctx)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 2, p.Available())
}

func TestPool_ConcurrentUseNeverExceedsCapacity(t *testing.T) {
	// Arrange
	const capacity = 3
	p := pool.New(1, 2, 3)

	var (
		mu      sync.Mutex
		inUse   = map[int]bool{}
		maxSeen int
		wg      sync.WaitGroup
	)

	// Act
	for g := 0; g < 20; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				item, err := p.Acquire(context.Background())
				if err != nil {
					t.Error(err)
					return
				}

				mu.Lock()
				if inUse[item] {
					t.Errorf("item %d handed out twice", item)
				}
				inUse[item] = true
				if len(inUse) > maxSeen {
					maxSeen = len(inUse)
				}
				mu.Unlock()

				mu.Lock()
				delete(inUse, item)
				mu.Unlock()

				if err := p.Release(item); err != nil {
					t.Error(err)
					return
				}
			}
		}()
	}
	wg.Wait()

	// Assert
	assert.LessOrEqual(t, maxSeen, capacity)
	assert.Equal(t, capacity, p.Available())
}
