package conditions

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/tidewatch/beach-report/internal/observability"
	"github.com/tidewatch/beach-report/pkg/logger"
)

// Cache lookup kinds for diagnostics.
const (
	kindConditions = "conditions"
	kindTides      = "tides"
)

// Provider is the aggregation backend the cache sits in front of. It
// is an interface so tests can substitute a counting fake.
type Provider interface {
	Aggregate(ctx context.Context, locationID string) (*Snapshot, error)
	TideSchedule(ctx context.Context, locationID string) ([]TidePrediction, error)
}

type snapshotEntry struct {
	value     *Snapshot
	fetchedAt time.Time
}

type tideEntry struct {
	value     []TidePrediction
	fetchedAt time.Time
}

// CacheService memoizes snapshots and tide schedules per location with
// a fixed freshness window. A fresh entry is served without upstream
// traffic; a stale or force-refreshed entry triggers aggregation.
// When aggregation fails entirely the service falls back to synthetic
// data so the caller always receives a renderable result — synthetic
// results are never cached, so the next request retries upstream.
//
// The service exclusively owns its cache maps. Entries are superseded,
// never mutated, and age out implicitly through the freshness check;
// the maps live for the lifetime of the service.
type CacheService struct {
	provider Provider
	synth    *Synthesizer
	clock    clockwork.Clock
	window   time.Duration
	logger   *logger.Logger
	metrics  *observability.Metrics

	mu        sync.RWMutex
	snapshots map[string]snapshotEntry
	tides     map[string]tideEntry
}

// NewCacheService creates a caching layer over the given provider
func NewCacheService(
	provider Provider,
	synth *Synthesizer,
	window time.Duration,
	clock clockwork.Clock,
	log *logger.Logger,
	metrics *observability.Metrics,
) *CacheService {
	return &CacheService{
		provider:  provider,
		synth:     synth,
		clock:     clock,
		window:    window,
		logger:    log.Named("conditions-cache"),
		metrics:   metrics,
		snapshots: make(map[string]snapshotEntry),
		tides:     make(map[string]tideEntry),
	}
}

// GetConditions returns the conditions snapshot for a location,
// serving the cached value while fresh. The returned snapshot is
// always fully populated; the error is reserved for the case where
// even synthetic fallback could not be produced, which the defined
// fallback chain never reaches.
func (s *CacheService) GetConditions(ctx context.Context, locationID string, forceRefresh bool) (*Snapshot, error) {
	if !forceRefresh {
		s.mu.RLock()
		entry, ok := s.snapshots[locationID]
		s.mu.RUnlock()
		if ok && s.fresh(entry.fetchedAt) {
			s.metrics.ObserveCacheLookup(kindConditions, observability.CacheHit)
			s.logger.Debug("Serving cached conditions",
				logger.String("location_id", locationID),
				logger.Time("fetched_at", entry.fetchedAt))
			return entry.value, nil
		}
	}
	s.metrics.ObserveCacheLookup(kindConditions, observability.CacheMiss)

	snapshot, err := s.provider.Aggregate(ctx, locationID)
	if err != nil {
		s.metrics.ObserveCacheLookup(kindConditions, observability.CacheSynthetic)
		s.logger.Warn("Aggregation failed, serving synthetic conditions",
			logger.String("location_id", locationID),
			logger.Error(err))
		return s.synth.Snapshot(locationID), nil
	}

	s.mu.Lock()
	s.snapshots[locationID] = snapshotEntry{value: snapshot, fetchedAt: s.clock.Now()}
	s.mu.Unlock()

	return snapshot, nil
}

// GetTideSchedule returns the upcoming tide extrema for a location,
// serving the cached schedule while fresh and synthesizing one when
// upstream data is unavailable.
func (s *CacheService) GetTideSchedule(ctx context.Context, locationID string, forceRefresh bool) ([]TidePrediction, error) {
	if !forceRefresh {
		s.mu.RLock()
		entry, ok := s.tides[locationID]
		s.mu.RUnlock()
		if ok && s.fresh(entry.fetchedAt) {
			s.metrics.ObserveCacheLookup(kindTides, observability.CacheHit)
			return entry.value, nil
		}
	}
	s.metrics.ObserveCacheLookup(kindTides, observability.CacheMiss)

	schedule, err := s.provider.TideSchedule(ctx, locationID)
	if err != nil || len(schedule) == 0 {
		s.metrics.ObserveCacheLookup(kindTides, observability.CacheSynthetic)
		s.logger.Warn("Tide schedule unavailable, serving synthetic schedule",
			logger.String("location_id", locationID),
			logger.Error(err))
		return s.synth.TideSchedule(locationID), nil
	}

	s.mu.Lock()
	s.tides[locationID] = tideEntry{value: schedule, fetchedAt: s.clock.Now()}
	s.mu.Unlock()

	return schedule, nil
}

// Stats reports cache occupancy and freshness for diagnostics
func (s *CacheService) Stats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	freshSnapshots := 0
	for _, e := range s.snapshots {
		if s.fresh(e.fetchedAt) {
			freshSnapshots++
		}
	}

	return map[string]any{
		"snapshot_entries":      len(s.snapshots),
		"fresh_snapshots":       freshSnapshots,
		"tide_entries":          len(s.tides),
		"freshness_window_secs": int(s.window.Seconds()),
	}
}

func (s *CacheService) fresh(fetchedAt time.Time) bool {
	return s.clock.Since(fetchedAt) < s.window
}
