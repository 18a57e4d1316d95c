package persistence_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/portsim-go/internal/adapters/persistence"
	"github.com/andrescamacho/portsim-go/internal/domain/shared"
	"github.com/andrescamacho/portsim-go/test/helpers"
)

func TestRunLogRepository_LogAndGetLogs(t *testing.T) {
	// Arrange
	db := helpers.NewTestDB(t)
	clock := shared.NewMockClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	runs := persistence.NewGormRunRepository(db)
	require.NoError(t, runs.Create(context.Background(), newRun("run-1", clock.Now())))
	repo := persistence.NewGormRunLogRepository(db, clock)
	ctx := context.Background()

	// Act
	require.NoError(t, repo.Log(ctx, "run-1", shared.LevelInfo, "run started", nil))
	clock.Advance(time.Second)
	require.NoError(t, repo.Log(ctx, "run-1", shared.LevelDebug, "berth 0 UNLOAD 5 containers",
		map[string]interface{}{"berth_id": 0, "units": 5}))
	clock.Advance(time.Second)
	require.NoError(t, repo.Log(ctx, "run-1", shared.LevelInfo, "run finished", nil))

	entries, err := repo.GetLogs(ctx, "run-1", 10, nil)

	// Assert: newest first
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "run finished", entries[0].Message)
	assert.Equal(t, "run started", entries[2].Message)
	assert.Equal(t, map[string]interface{}{"berth_id": float64(0), "units": float64(5)}, entries[1].Metadata)
	assert.Nil(t, entries[0].Metadata)
	assert.True(t, clock.Now().Equal(entries[0].Timestamp))
}

func TestRunLogRepository_FiltersByLevelAndLimit(t *testing.T) {
	db := helpers.NewTestDB(t)
	repo := persistence.NewGormRunLogRepository(db, nil)
	ctx := context.Background()
	runs := persistence.NewGormRunRepository(db)
	require.NoError(t, runs.Create(ctx, newRun("run-1", time.Now())))
	require.NoError(t, runs.Create(ctx, newRun("run-2", time.Now())))
	for i := 0; i < 5; i++ {
		require.NoError(t, repo.Log(ctx, "run-1", shared.LevelDebug, "transfer", nil))
	}
	require.NoError(t, repo.Log(ctx, "run-1", shared.LevelWarn, "double mooring", nil))
	require.NoError(t, repo.Log(ctx, "run-2", shared.LevelWarn, "other run", nil))

	warn := shared.LevelWarn
	warnings, err := repo.GetLogs(ctx, "run-1", 10, &warn)
	require.NoError(t, err)
	limited, err := repo.GetLogs(ctx, "run-1", 2, nil)
	require.NoError(t, err)

	require.Len(t, warnings, 1)
	assert.Equal(t, "double mooring", warnings[0].Message)
	assert.Len(t, limited, 2)
}
