package conditions

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/tidewatch/beach-report/internal/observability"
	"github.com/tidewatch/beach-report/pkg/logger"
)

// Upstream product names on the tides/currents API.
const (
	productWaterLevel  = "water_level"
	productPredictions = "predictions"
	productWaterTemp   = "water_temperature"
	productAirTemp     = "air_temperature"
	productWind        = "wind"
)

// TidesClient fetches station observations and tide predictions from
// the tides/currents API. Each fetch makes exactly one attempt; any
// transport error, non-2xx status, or malformed payload is returned as
// an error for the aggregator to normalize into the per-field fallback.
type TidesClient struct {
	baseURL    string
	httpClient *http.Client
	clock      clockwork.Clock
	logger     *logger.Logger
	metrics    *observability.Metrics
}

// NewTidesClient creates a tides API client
func NewTidesClient(baseURL string, timeout time.Duration, clock clockwork.Clock, log *logger.Logger, metrics *observability.Metrics) *TidesClient {
	return &TidesClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		clock:   clock,
		logger:  log.Named("tides-client"),
		metrics: metrics,
	}
}

// readingResponse is the JSON envelope for single-observation products.
// All numeric values arrive as strings.
type readingResponse struct {
	Data []struct {
		Time  string `json:"t"`
		Value string `json:"v"`
	} `json:"data"`
}

// windResponse is the JSON envelope for the wind product
type windResponse struct {
	Data []struct {
		Time      string `json:"t"`
		Speed     string `json:"s"`
		Direction string `json:"d"`
	} `json:"data"`
}

// predictionsResponse is the JSON envelope for tide extrema predictions
type predictionsResponse struct {
	Predictions []struct {
		Time  string `json:"t"`
		Value string `json:"v"`
		Type  string `json:"type"`
	} `json:"predictions"`
}

// FetchWaterLevel returns the latest water level reading for a station
// in feet, MLLW datum referenced.
func (c *TidesClient) FetchWaterLevel(ctx context.Context, stationID string) (float64, error) {
	return c.fetchLatestReading(ctx, stationID, productWaterLevel, true)
}

// FetchWaterTemperature returns the latest water temperature reading in
// degrees Fahrenheit.
func (c *TidesClient) FetchWaterTemperature(ctx context.Context, stationID string) (float64, error) {
	return c.fetchLatestReading(ctx, stationID, productWaterTemp, false)
}

// FetchAirTemperature returns the latest air temperature reading in
// degrees Fahrenheit.
func (c *TidesClient) FetchAirTemperature(ctx context.Context, stationID string) (float64, error) {
	return c.fetchLatestReading(ctx, stationID, productAirTemp, false)
}

// FetchWind returns the latest wind reading for a station with the
// direction converted to a 16-point cardinal label.
func (c *TidesClient) FetchWind(ctx context.Context, stationID string) (WindReading, error) {
	params := url.Values{
		"date":      {"latest"},
		"station":   {stationID},
		"product":   {productWind},
		"time_zone": {"lst_ldt"},
		"units":     {"english"},
		"format":    {"json"},
	}

	var resp windResponse
	err := c.get(ctx, productWind, stationID, params, &resp)
	if err != nil {
		return WindReading{}, err
	}
	if len(resp.Data) == 0 {
		return WindReading{}, fmt.Errorf("no wind data for station %s", stationID)
	}

	latest := resp.Data[0]
	speed, err := strconv.ParseFloat(latest.Speed, 64)
	if err != nil {
		return WindReading{}, fmt.Errorf("invalid wind speed %q: %w", latest.Speed, err)
	}
	degrees, err := strconv.ParseFloat(latest.Direction, 64)
	if err != nil {
		return WindReading{}, fmt.Errorf("invalid wind direction %q: %w", latest.Direction, err)
	}

	return WindReading{
		SpeedMph:  speed,
		Direction: CardinalDirection(degrees),
	}, nil
}

// FetchTidePredictions returns the next tide extrema for today and
// tomorrow, capped at four events in chronological order.
func (c *TidesClient) FetchTidePredictions(ctx context.Context, stationID string) ([]TidePrediction, error) {
	now := c.clock.Now()
	params := url.Values{
		"begin_date": {now.Format("20060102")},
		"end_date":   {now.AddDate(0, 0, 1).Format("20060102")},
		"station":    {stationID},
		"product":    {productPredictions},
		"datum":      {"MLLW"},
		"time_zone":  {"lst_ldt"},
		"units":      {"english"},
		"interval":   {"hilo"},
		"format":     {"json"},
	}

	var resp predictionsResponse
	err := c.get(ctx, productPredictions, stationID, params, &resp)
	if err != nil {
		return nil, err
	}
	if len(resp.Predictions) == 0 {
		return nil, fmt.Errorf("no tide predictions for station %s", stationID)
	}

	raw := resp.Predictions
	if len(raw) > 4 {
		raw = raw[:4]
	}

	predictions := make([]TidePrediction, 0, len(raw))
	for _, p := range raw {
		height, err := strconv.ParseFloat(p.Value, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid tide height %q: %w", p.Value, err)
		}
		t, err := time.Parse("2006-01-02 15:04", p.Time)
		if err != nil {
			return nil, fmt.Errorf("invalid prediction time %q: %w", p.Time, err)
		}
		tideType := TideTypeLow
		if p.Type == "H" {
			tideType = TideTypeHigh
		}
		predictions = append(predictions, TidePrediction{
			Time:     formatClock(t),
			Type:     tideType,
			HeightFt: height,
		})
	}

	return predictions, nil
}

// fetchLatestReading fetches a single-observation product and returns
// the value of the first (latest) reading.
func (c *TidesClient) fetchLatestReading(ctx context.Context, stationID, product string, withDatum bool) (float64, error) {
	params := url.Values{
		"date":      {"latest"},
		"station":   {stationID},
		"product":   {product},
		"time_zone": {"lst_ldt"},
		"units":     {"english"},
		"format":    {"json"},
	}
	if withDatum {
		params.Set("datum", "MLLW")
	}

	var resp readingResponse
	err := c.get(ctx, product, stationID, params, &resp)
	if err != nil {
		return 0, err
	}
	if len(resp.Data) == 0 {
		return 0, fmt.Errorf("no %s data for station %s", product, stationID)
	}

	value, err := strconv.ParseFloat(resp.Data[0].Value, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", product, resp.Data[0].Value, err)
	}
	return value, nil
}

// get performs one GET against the tides API and decodes the JSON
// response into target.
func (c *TidesClient) get(ctx context.Context, product, stationID string, params url.Values, target any) error {
	start := c.clock.Now()
	requestURL := c.baseURL + "?" + params.Encode()

	err := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("tides API request: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("tides API returned status %d", resp.StatusCode)
		}

		if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
			return fmt.Errorf("decode tides response: %w", err)
		}
		return nil
	}()

	c.metrics.ObserveUpstreamRequest(product, c.clock.Since(start), err)

	if err != nil {
		c.logger.Warn("Tides API fetch failed",
			logger.String("product", product),
			logger.String("station", stationID),
			logger.Error(err))
		return err
	}

	c.logger.Debug("Tides API fetch completed",
		logger.String("product", product),
		logger.String("station", stationID))
	return nil
}
