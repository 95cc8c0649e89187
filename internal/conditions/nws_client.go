package conditions

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/tidewatch/beach-report/internal/observability"
	"github.com/tidewatch/beach-report/pkg/logger"
)

const productForecast = "forecast"

// windSpeedPattern extracts the leading number from NWS free-text wind
// speeds like "10 mph" or "10 to 15 mph".
var windSpeedPattern = regexp.MustCompile(`\d+`)

// NWSClient resolves a coordinate pair to a weather forecast through
// the NWS points API. The resolution is two-step: point -> forecast
// URL -> first forecast period. Either step failing fails the whole
// forecast; there are no partial results.
type NWSClient struct {
	pointsBaseURL string
	userAgent     string
	httpClient    *http.Client
	clock         clockwork.Clock
	logger        *logger.Logger
	metrics       *observability.Metrics
}

// NewNWSClient creates a forecast client. The NWS API requires a
// client-identifying User-Agent header on every request.
func NewNWSClient(pointsBaseURL, userAgent string, timeout time.Duration, clock clockwork.Clock, log *logger.Logger, metrics *observability.Metrics) *NWSClient {
	return &NWSClient{
		pointsBaseURL: pointsBaseURL,
		userAgent:     userAgent,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		clock:   clock,
		logger:  log.Named("nws-client"),
		metrics: metrics,
	}
}

type pointResponse struct {
	Properties struct {
		Forecast string `json:"forecast"`
	} `json:"properties"`
}

type forecastResponse struct {
	Properties struct {
		Periods []struct {
			Temperature      *float64 `json:"temperature"`
			WindSpeed        string   `json:"windSpeed"`
			WindDirection    string   `json:"windDirection"`
			RelativeHumidity struct {
				Value *float64 `json:"value"`
			} `json:"relativeHumidity"`
			ShortForecast string `json:"shortForecast"`
		} `json:"periods"`
	} `json:"properties"`
}

// FetchForecast returns the first forecast period for a coordinate pair
func (c *NWSClient) FetchForecast(ctx context.Context, lat, lon float64) (*ForecastPeriod, error) {
	start := c.clock.Now()

	period, err := c.fetchForecast(ctx, lat, lon)

	c.metrics.ObserveUpstreamRequest(productForecast, c.clock.Since(start), err)

	if err != nil {
		c.logger.Warn("NWS forecast fetch failed",
			logger.Float64("lat", lat),
			logger.Float64("lon", lon),
			logger.Error(err))
		return nil, err
	}

	c.logger.Debug("NWS forecast fetch completed",
		logger.Float64("lat", lat),
		logger.Float64("lon", lon),
		logger.String("short_forecast", period.ShortForecast))
	return period, nil
}

func (c *NWSClient) fetchForecast(ctx context.Context, lat, lon float64) (*ForecastPeriod, error) {
	pointURL := fmt.Sprintf("%s/%.4f,%.4f", c.pointsBaseURL, lat, lon)

	var point pointResponse
	if err := c.get(ctx, pointURL, &point); err != nil {
		return nil, fmt.Errorf("resolve forecast point: %w", err)
	}
	if point.Properties.Forecast == "" {
		return nil, fmt.Errorf("point response missing forecast URL")
	}

	var forecast forecastResponse
	if err := c.get(ctx, point.Properties.Forecast, &forecast); err != nil {
		return nil, fmt.Errorf("fetch forecast: %w", err)
	}
	if len(forecast.Properties.Periods) == 0 {
		return nil, fmt.Errorf("forecast response has no periods")
	}

	first := forecast.Properties.Periods[0]
	period := &ForecastPeriod{
		TempF:         first.Temperature,
		WindDirection: first.WindDirection,
		HumidityPct:   first.RelativeHumidity.Value,
		ShortForecast: first.ShortForecast,
	}

	if match := windSpeedPattern.FindString(first.WindSpeed); match != "" {
		if speed, err := strconv.Atoi(match); err == nil {
			mph := float64(speed)
			period.WindSpeedMph = &mph
		}
	}

	return period, nil
}

func (c *NWSClient) get(ctx context.Context, requestURL string, target any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request %s: %w", requestURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d from %s", resp.StatusCode, requestURL)
	}

	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
