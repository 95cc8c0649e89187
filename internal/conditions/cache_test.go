package conditions

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tidewatch/beach-report/internal/observability"
	"github.com/tidewatch/beach-report/internal/station"
	"github.com/tidewatch/beach-report/pkg/logger"
)

// --- fake provider for cache tests ---

type countingProvider struct {
	aggregateCalls int
	tideCalls      int
	snapshot       *Snapshot
	schedule       []TidePrediction
	err            error
}

func (p *countingProvider) Aggregate(_ context.Context, locationID string) (*Snapshot, error) {
	p.aggregateCalls++
	if p.err != nil {
		return nil, p.err
	}
	snap := *p.snapshot
	snap.LocationID = locationID
	return &snap, nil
}

func (p *countingProvider) TideSchedule(_ context.Context, _ string) ([]TidePrediction, error) {
	p.tideCalls++
	if p.err != nil {
		return nil, p.err
	}
	return p.schedule, nil
}

func newTestCache(t *testing.T, provider Provider, clock clockwork.Clock) *CacheService {
	t.Helper()
	registry, err := station.NewRegistry(nil)
	require.NoError(t, err)
	synth := NewSynthesizer(registry, nil, clock)
	return NewCacheService(provider, synth, 5*time.Minute, clock, logger.NewNop(), observability.NewMetricsForTesting())
}

func liveSnapshot() *Snapshot {
	return &Snapshot{
		WaterTempF:   74.2,
		SurfHeightFt: 1.8,
		AirTempF:     81,
		WindSpeedMph: 8,
		UVIndex:      6,
	}
}

func TestCacheService_ServesCachedSnapshotWhileFresh(t *testing.T) {
	clock := clockwork.NewFakeClock()
	provider := &countingProvider{snapshot: liveSnapshot()}
	cache := newTestCache(t, provider, clock)

	first, err := cache.GetConditions(context.Background(), "1", false)
	require.NoError(t, err)

	clock.Advance(2 * time.Minute)

	second, err := cache.GetConditions(context.Background(), "1", false)
	require.NoError(t, err)

	assert.Same(t, first, second, "cached snapshot should be returned unchanged")
	assert.Equal(t, 1, provider.aggregateCalls, "should only aggregate once within the freshness window")
}

func TestCacheService_RefetchesAfterWindowExpires(t *testing.T) {
	clock := clockwork.NewFakeClock()
	provider := &countingProvider{snapshot: liveSnapshot()}
	cache := newTestCache(t, provider, clock)

	_, err := cache.GetConditions(context.Background(), "1", false)
	require.NoError(t, err)

	clock.Advance(5*time.Minute + time.Second)

	_, err = cache.GetConditions(context.Background(), "1", false)
	require.NoError(t, err)

	assert.Equal(t, 2, provider.aggregateCalls)
}

func TestCacheService_ForceRefreshBypassesCache(t *testing.T) {
	clock := clockwork.NewFakeClock()
	provider := &countingProvider{snapshot: liveSnapshot()}
	cache := newTestCache(t, provider, clock)

	_, err := cache.GetConditions(context.Background(), "1", false)
	require.NoError(t, err)

	_, err = cache.GetConditions(context.Background(), "1", true)
	require.NoError(t, err)

	assert.Equal(t, 2, provider.aggregateCalls)
}

func TestCacheService_SeparateEntriesPerLocation(t *testing.T) {
	clock := clockwork.NewFakeClock()
	provider := &countingProvider{snapshot: liveSnapshot()}
	cache := newTestCache(t, provider, clock)

	s1, err := cache.GetConditions(context.Background(), "1", false)
	require.NoError(t, err)
	s2, err := cache.GetConditions(context.Background(), "2", false)
	require.NoError(t, err)

	assert.Equal(t, "1", s1.LocationID)
	assert.Equal(t, "2", s2.LocationID)
	assert.Equal(t, 2, provider.aggregateCalls)
}

func TestCacheService_SyntheticFallbackOnError(t *testing.T) {
	clock := clockwork.NewFakeClock()
	provider := &countingProvider{err: errors.New("upstream unavailable")}
	cache := newTestCache(t, provider, clock)

	snap, err := cache.GetConditions(context.Background(), "2", false)
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.True(t, snap.Synthetic)
	assert.Equal(t, "2", snap.LocationID)
	assert.NotEmpty(t, snap.FlagWarning)
	assert.NotEmpty(t, snap.UVGuide)
}

func TestCacheService_SyntheticResultsAreNotCached(t *testing.T) {
	clock := clockwork.NewFakeClock()
	provider := &countingProvider{err: errors.New("upstream unavailable")}
	cache := newTestCache(t, provider, clock)

	_, err := cache.GetConditions(context.Background(), "1", false)
	require.NoError(t, err)

	// Upstream recovers; the next call must go back to the provider
	// instead of serving the synthetic snapshot from cache.
	provider.err = nil
	provider.snapshot = liveSnapshot()

	snap, err := cache.GetConditions(context.Background(), "1", false)
	require.NoError(t, err)
	assert.False(t, snap.Synthetic)
	assert.Equal(t, 2, provider.aggregateCalls)
}

func TestCacheService_TideScheduleCaching(t *testing.T) {
	clock := clockwork.NewFakeClock()
	provider := &countingProvider{
		snapshot: liveSnapshot(),
		schedule: []TidePrediction{
			{Time: "2025-06-15 14:00", Type: TideTypeHigh, HeightFt: 3.2},
			{Time: "2025-06-15 20:10", Type: TideTypeLow, HeightFt: 0.4},
		},
	}
	cache := newTestCache(t, provider, clock)

	first, err := cache.GetTideSchedule(context.Background(), "1", false)
	require.NoError(t, err)
	require.Len(t, first, 2)

	_, err = cache.GetTideSchedule(context.Background(), "1", false)
	require.NoError(t, err)
	assert.Equal(t, 1, provider.tideCalls)

	clock.Advance(6 * time.Minute)

	_, err = cache.GetTideSchedule(context.Background(), "1", false)
	require.NoError(t, err)
	assert.Equal(t, 2, provider.tideCalls)
}

func TestCacheService_SynthesizesTideScheduleWhenEmpty(t *testing.T) {
	clock := clockwork.NewFakeClock()
	provider := &countingProvider{snapshot: liveSnapshot(), schedule: nil}
	cache := newTestCache(t, provider, clock)

	schedule, err := cache.GetTideSchedule(context.Background(), "1", false)
	require.NoError(t, err)
	require.Len(t, schedule, 4)

	// Synthetic schedules alternate between extrema.
	for i := 1; i < len(schedule); i++ {
		assert.NotEqual(t, schedule[i-1].Type, schedule[i].Type)
	}
}

func TestCacheService_Stats(t *testing.T) {
	clock := clockwork.NewFakeClock()
	provider := &countingProvider{snapshot: liveSnapshot()}
	cache := newTestCache(t, provider, clock)

	_, err := cache.GetConditions(context.Background(), "1", false)
	require.NoError(t, err)

	stats := cache.Stats()
	assert.Equal(t, 1, stats["snapshot_entries"])
	assert.Equal(t, 1, stats["fresh_snapshots"])
	assert.Equal(t, 300, stats["freshness_window_secs"])

	clock.Advance(10 * time.Minute)
	stats = cache.Stats()
	assert.Equal(t, 0, stats["fresh_snapshots"])
}
