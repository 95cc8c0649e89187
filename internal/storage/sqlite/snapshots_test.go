package sqlite

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tidewatch/beach-report/internal/conditions"
	"github.com/tidewatch/beach-report/pkg/logger"
)

func newTestStorage(t *testing.T) *SnapshotStorage {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	storage, err := NewSnapshotStorage(path, logger.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { storage.Close() })
	return storage
}

func testSnapshot(locationID string) *conditions.Snapshot {
	return &conditions.Snapshot{
		LocationID:    locationID,
		WaterTempF:    74.2,
		SurfHeightFt:  1.8,
		CurrentTideFt: 2.1,
		TideStatus:    conditions.TideRising,
		AirTempF:      81.5,
		WindSpeedMph:  12,
		WindDirection: "E",
		HumidityPct:   65,
		UVIndex:       7,
		Conditions:    "Partly Cloudy",
		FlagWarning:   conditions.FlagGreen,
		LastUpdated:   time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC),
	}
}

func TestSnapshotStorage_InsertAndQuery(t *testing.T) {
	storage := newTestStorage(t)

	require.NoError(t, storage.Insert(testSnapshot("1")))
	require.NoError(t, storage.Insert(testSnapshot("1")))
	require.NoError(t, storage.Insert(testSnapshot("2")))

	entries, err := storage.RecentByLocation("1", 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	e := entries[0]
	assert.Equal(t, "1", e.LocationID)
	assert.Equal(t, 74.2, e.WaterTempF)
	assert.Equal(t, 2.1, e.CurrentTideFt)
	assert.Equal(t, "Rising", e.TideStatus)
	assert.Equal(t, "E", e.WindDirection)
	assert.Equal(t, 7, e.UVIndex)
	assert.Equal(t, "Partly Cloudy", e.Conditions)
	assert.Equal(t, "green", e.FlagWarning)
}

func TestSnapshotStorage_LimitApplied(t *testing.T) {
	storage := newTestStorage(t)

	for i := 0; i < 5; i++ {
		require.NoError(t, storage.Insert(testSnapshot("1")))
	}

	entries, err := storage.RecentByLocation("1", 3)
	require.NoError(t, err)
	assert.Len(t, entries, 3)
}

func TestSnapshotStorage_EmptyLocation(t *testing.T) {
	storage := newTestStorage(t)

	entries, err := storage.RecentByLocation("7", 10)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestSnapshotStorage_Count(t *testing.T) {
	storage := newTestStorage(t)

	count, err := storage.Count()
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	require.NoError(t, storage.Insert(testSnapshot("1")))
	require.NoError(t, storage.Insert(testSnapshot("2")))

	count, err = storage.Count()
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}
