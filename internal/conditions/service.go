package conditions

import (
	"context"
	"sync"
	"time"

	"github.com/tidewatch/beach-report/pkg/logger"
)

// Publisher receives refreshed snapshots for live distribution
type Publisher interface {
	PublishSnapshot(snapshot *Snapshot)
}

// HistoryStore persists aggregated snapshots
type HistoryStore interface {
	Insert(snapshot *Snapshot) error
}

// Service keeps the tracked locations warm: an initial fetch at
// startup, then a ticker-driven refresh that pushes each new snapshot
// to the publisher and the history store. Request-path reads stay on
// the synchronous CacheService; this loop only refreshes ahead of
// demand.
type Service struct {
	cache     *CacheService
	publisher Publisher
	history   HistoryStore
	tracked   []string
	interval  time.Duration
	logger    *logger.Logger

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.Mutex
	started bool
}

// NewService creates the background refresh service. The publisher and
// history store are optional; a nil value disables that sink.
func NewService(cache *CacheService, publisher Publisher, history HistoryStore, tracked []string, interval time.Duration, log *logger.Logger) *Service {
	ctx, cancel := context.WithCancel(context.Background())
	return &Service{
		cache:     cache,
		publisher: publisher,
		history:   history,
		tracked:   tracked,
		interval:  interval,
		logger:    log.Named("conditions-service"),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Start begins the background refresh loop
func (s *Service) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if len(s.tracked) == 0 {
		s.logger.Info("No tracked locations configured, background refresh disabled")
		s.started = true
		return nil
	}

	s.logger.Info("Starting conditions refresh service",
		logger.Int("tracked_locations", len(s.tracked)),
		logger.Duration("interval", s.interval))

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.refreshLoop()
	}()

	s.started = true
	return nil
}

// Stop shuts the refresh loop down and waits for it to finish
func (s *Service) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}

	s.logger.Info("Stopping conditions refresh service")
	s.cancel()
	s.wg.Wait()
	s.started = false
	return nil
}

// Tracked returns the configured tracked location ids
func (s *Service) Tracked() []string {
	return s.tracked
}

func (s *Service) refreshLoop() {
	// Initial fetch so tracked locations are warm before the first tick.
	s.refreshAll()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			s.logger.Info("Conditions refresh loop stopped")
			return
		case <-ticker.C:
			s.refreshAll()
		}
	}
}

func (s *Service) refreshAll() {
	start := time.Now()

	for _, locationID := range s.tracked {
		if s.ctx.Err() != nil {
			return
		}
		s.refreshLocation(locationID)
	}

	s.logger.Info("Tracked locations refreshed",
		logger.Int("count", len(s.tracked)),
		logger.Duration("duration", time.Since(start)))
}

func (s *Service) refreshLocation(locationID string) {
	snapshot, err := s.cache.GetConditions(s.ctx, locationID, true)
	if err != nil {
		s.logger.Error("Failed to refresh conditions",
			logger.String("location_id", locationID),
			logger.Error(err))
		return
	}

	if _, err := s.cache.GetTideSchedule(s.ctx, locationID, true); err != nil {
		s.logger.Error("Failed to refresh tide schedule",
			logger.String("location_id", locationID),
			logger.Error(err))
	}

	if s.publisher != nil {
		s.publisher.PublishSnapshot(snapshot)
	}

	if s.history != nil && !snapshot.Synthetic {
		if err := s.history.Insert(snapshot); err != nil {
			s.logger.Error("Failed to persist snapshot",
				logger.String("location_id", locationID),
				logger.Error(err))
		}
	}
}
