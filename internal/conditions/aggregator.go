package conditions

import (
	"context"
	"sync"

	"github.com/jonboulle/clockwork"

	"github.com/tidewatch/beach-report/internal/observability"
	"github.com/tidewatch/beach-report/internal/station"
	"github.com/tidewatch/beach-report/pkg/logger"
)

// Aggregator assembles one complete conditions snapshot per request.
// It is stateless: every call resolves the station, fans out all
// upstream fetchers concurrently, merges the results with fallback
// precedence, and applies the derivation functions. It fails only when
// the location id has no registered station.
type Aggregator struct {
	registry     *station.Registry
	tides        *TidesClient
	nws          *NWSClient
	surfEstimate SurfEstimatorFunc
	sunTimes     SunTimesFunc
	clock        clockwork.Clock
	logger       *logger.Logger
	metrics      *observability.Metrics
}

// NewAggregator creates an aggregator. The surf estimator and sun
// times functions are injectable seams; pass nil to use the default
// placeholder implementations.
func NewAggregator(
	registry *station.Registry,
	tides *TidesClient,
	nws *NWSClient,
	surfEstimate SurfEstimatorFunc,
	sunTimes SunTimesFunc,
	clock clockwork.Clock,
	log *logger.Logger,
	metrics *observability.Metrics,
) *Aggregator {
	if surfEstimate == nil {
		surfEstimate = RandomizedSurfEstimate
	}
	if sunTimes == nil {
		sunTimes = PlaceholderSunTimes
	}
	return &Aggregator{
		registry:     registry,
		tides:        tides,
		nws:          nws,
		surfEstimate: surfEstimate,
		sunTimes:     sunTimes,
		clock:        clock,
		logger:       log.Named("aggregator"),
		metrics:      metrics,
	}
}

// fetchResults collects the outcome of the six concurrent upstream
// fetches. Each fetcher owns exactly one field group, so no locking is
// needed around the join.
type fetchResults struct {
	waterLevel    float64
	waterLevelOK  bool
	predictions   []TidePrediction
	predictionsOK bool
	waterTemp     float64
	waterTempOK   bool
	airTemp       float64
	airTempOK     bool
	wind          WindReading
	windOK        bool
	forecast      *ForecastPeriod
}

// Aggregate builds the conditions snapshot for a location. It returns
// station.ErrNotFound (wrapped) for unknown ids; otherwise it always
// produces a complete snapshot, substituting defined defaults for any
// upstream signal that was unavailable.
func (a *Aggregator) Aggregate(ctx context.Context, locationID string) (*Snapshot, error) {
	st, err := a.registry.Lookup(locationID)
	if err != nil {
		return nil, err
	}

	results := a.fanOut(ctx, st)

	failed := 0
	for _, ok := range []bool{
		results.waterLevelOK, results.predictionsOK, results.waterTempOK,
		results.airTempOK, results.windOK, results.forecast != nil,
	} {
		if !ok {
			failed++
		}
	}
	if failed > 0 {
		a.logger.Info("Aggregating with degraded upstream data",
			logger.String("location_id", locationID),
			logger.Int("unavailable_signals", failed))
	}

	snapshot := a.merge(locationID, st, results)
	a.metrics.SnapshotsBuilt.Inc()
	return snapshot, nil
}

// TideSchedule returns the upcoming tide extrema for a location. Like
// Aggregate it fails on unknown ids; upstream failure surfaces as an
// error for the caching layer to convert into synthetic data.
func (a *Aggregator) TideSchedule(ctx context.Context, locationID string) ([]TidePrediction, error) {
	st, err := a.registry.Lookup(locationID)
	if err != nil {
		return nil, err
	}
	return a.tides.FetchTidePredictions(ctx, st.TideStationID)
}

// fanOut launches all six upstream fetches concurrently and waits for
// every one to settle. The fetchers are mutually independent; a
// failure in one never blocks the others.
func (a *Aggregator) fanOut(ctx context.Context, st station.Station) *fetchResults {
	results := &fetchResults{}

	var wg sync.WaitGroup
	wg.Add(6)

	go func() {
		defer wg.Done()
		v, err := a.tides.FetchWaterLevel(ctx, st.TideStationID)
		if err == nil {
			results.waterLevel = v
			results.waterLevelOK = true
		}
	}()

	go func() {
		defer wg.Done()
		p, err := a.tides.FetchTidePredictions(ctx, st.TideStationID)
		if err == nil {
			results.predictions = p
			results.predictionsOK = true
		}
	}()

	go func() {
		defer wg.Done()
		v, err := a.tides.FetchWaterTemperature(ctx, st.TideStationID)
		if err == nil {
			results.waterTemp = v
			results.waterTempOK = true
		}
	}()

	go func() {
		defer wg.Done()
		v, err := a.tides.FetchAirTemperature(ctx, st.TideStationID)
		if err == nil {
			results.airTemp = v
			results.airTempOK = true
		}
	}()

	go func() {
		defer wg.Done()
		w, err := a.tides.FetchWind(ctx, st.TideStationID)
		if err == nil {
			results.wind = w
			results.windOK = true
		}
	}()

	go func() {
		defer wg.Done()
		f, err := a.nws.FetchForecast(ctx, st.Latitude, st.Longitude)
		if err == nil {
			results.forecast = f
		}
	}()

	wg.Wait()
	return results
}

// merge reduces the fetch results into one snapshot. Station readings
// fill their fields when available, defined constants fill the gaps,
// and a resolved forecast overrides the ambient-weather fields for
// whichever of its sub-fields are present: the forecast source is
// considered more authoritative when both resolve.
func (a *Aggregator) merge(locationID string, st station.Station, results *fetchResults) *Snapshot {
	now := a.clock.Now()

	airTemp := DefaultAirTempF
	if results.airTempOK {
		airTemp = results.airTemp
	}
	windSpeed := DefaultWindSpeedMph
	windDirection := DefaultWindDirection
	if results.windOK {
		windSpeed = results.wind.SpeedMph
		windDirection = results.wind.Direction
	}
	humidity := DefaultHumidityPct
	narrative := DefaultConditions

	if f := results.forecast; f != nil {
		if f.TempF != nil {
			airTemp = *f.TempF
		}
		if f.WindSpeedMph != nil {
			windSpeed = *f.WindSpeedMph
		}
		if f.WindDirection != "" {
			windDirection = f.WindDirection
		}
		if f.HumidityPct != nil {
			humidity = *f.HumidityPct
		}
		if f.ShortForecast != "" {
			narrative = f.ShortForecast
		}
	}

	waterTemp := DefaultWaterTempF
	if results.waterTempOK {
		waterTemp = results.waterTemp
	}
	currentTide := DefaultTideFt
	if results.waterLevelOK {
		currentTide = results.waterLevel
	}

	surfHeight := a.surfEstimate(locationID)
	uvIndex := EstimateUVIndex(now, st.Latitude)
	sunrise, sunset := a.sunTimes(st.Latitude, st.Longitude, now)
	flag, flagText := ClassifyFlag(surfHeight, windSpeed, uvIndex)

	return &Snapshot{
		LocationID:      locationID,
		WaterTempF:      waterTemp,
		SurfHeightFt:    surfHeight,
		CurrentTideFt:   currentTide,
		TideStatus:      ClassifyTideStatus(currentTide, results.predictions),
		AirTempF:        airTemp,
		WindSpeedMph:    windSpeed,
		WindDirection:   windDirection,
		HumidityPct:     humidity,
		UVIndex:         uvIndex,
		UVGuide:         UVGuide(uvIndex),
		Sunrise:         sunrise,
		Sunset:          sunset,
		Conditions:      narrative,
		FlagWarning:     flag,
		FlagWarningText: flagText,
		LastUpdated:     now,
	}
}
