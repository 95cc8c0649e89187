package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tidewatch/beach-report/internal/conditions"
	"github.com/tidewatch/beach-report/internal/config"
	"github.com/tidewatch/beach-report/internal/observability"
	"github.com/tidewatch/beach-report/internal/station"
	"github.com/tidewatch/beach-report/internal/websocket"
	"github.com/tidewatch/beach-report/pkg/logger"
)

// newTestServer wires a full router against a tides/NWS stub that
// always fails. Known locations aggregate with defaults, unknown ones
// fall through to the synthetic generator; either way these tests are
// about routing and response shape, not upstream behavior.
func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(upstream.Close)

	registry, err := station.NewRegistry(nil)
	require.NoError(t, err)

	log := logger.NewNop()
	promRegistry := prometheus.NewRegistry()
	metrics := observability.NewMetrics(promRegistry)
	clock := clockwork.NewRealClock()

	tides := conditions.NewTidesClient(upstream.URL, time.Second, clock, log, metrics)
	nws := conditions.NewNWSClient(upstream.URL, "beach-report-test/1.0", time.Second, clock, log, metrics)
	aggregator := conditions.NewAggregator(registry, tides, nws, nil, nil, clock, log, metrics)
	synth := conditions.NewSynthesizer(registry, nil, clock)
	cache := conditions.NewCacheService(aggregator, synth, 5*time.Minute, clock, log, metrics)

	wsServer := websocket.NewServer(log, metrics)
	go wsServer.Run()

	cfg := &config.Config{}
	cfg.Storage.HistoryLimit = 50

	router := NewRouter(cache, registry, nil, nil, cfg, log, wsServer, promRegistry)
	server := httptest.NewServer(router.Routes())
	t.Cleanup(server.Close)
	return server
}

func getJSON(t *testing.T, url string, target any) int {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(target))
	return resp.StatusCode
}

func TestAPI_GetStations(t *testing.T) {
	server := newTestServer(t)

	var body struct {
		Count    int               `json:"count"`
		Stations []station.Station `json:"stations"`
	}
	status := getJSON(t, server.URL+"/api/v1/stations", &body)

	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, 10, body.Count)
	require.Len(t, body.Stations, 10)
	assert.Equal(t, "Miami Beach", body.Stations[0].Name)
}

func TestAPI_GetStation(t *testing.T) {
	server := newTestServer(t)

	var st station.Station
	status := getJSON(t, server.URL+"/api/v1/stations/7", &st)

	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Santa Monica Beach", st.Name)
	assert.Equal(t, "9410660", st.TideStationID)
}

func TestAPI_GetStationNotFound(t *testing.T) {
	server := newTestServer(t)

	var body map[string]string
	status := getJSON(t, server.URL+"/api/v1/stations/999", &body)

	assert.Equal(t, http.StatusNotFound, status)
	assert.Contains(t, body["error"], "999")
}

func TestAPI_GetConditions(t *testing.T) {
	server := newTestServer(t)

	var snap conditions.Snapshot
	status := getJSON(t, server.URL+"/api/v1/conditions/1", &snap)

	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "1", snap.LocationID)
	assert.False(t, snap.Synthetic, "known locations aggregate with defaults, not synthetic data")
	assert.Equal(t, conditions.DefaultAirTempF, snap.AirTempF)
	assert.Equal(t, conditions.DefaultWaterTempF, snap.WaterTempF)
	assert.NotEmpty(t, snap.FlagWarning)
	assert.NotEmpty(t, snap.UVGuide)
}

func TestAPI_GetConditionsUnknownLocationStillServes(t *testing.T) {
	server := newTestServer(t)

	var snap conditions.Snapshot
	status := getJSON(t, server.URL+"/api/v1/conditions/999", &snap)

	assert.Equal(t, http.StatusOK, status)
	assert.True(t, snap.Synthetic)
	assert.Equal(t, "999", snap.LocationID)
}

func TestAPI_GetTides(t *testing.T) {
	server := newTestServer(t)

	var body struct {
		LocationID  string                      `json:"location_id"`
		Predictions []conditions.TidePrediction `json:"predictions"`
	}
	status := getJSON(t, server.URL+"/api/v1/tides/1", &body)

	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "1", body.LocationID)
	assert.Len(t, body.Predictions, 4)
}

func TestAPI_GetAlerts(t *testing.T) {
	server := newTestServer(t)

	var body struct {
		LocationID string             `json:"location_id"`
		Count      int                `json:"count"`
		Alerts     []conditions.Alert `json:"alerts"`
	}
	status := getJSON(t, server.URL+"/api/v1/alerts/1", &body)

	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "1", body.LocationID)
	assert.Equal(t, body.Count, len(body.Alerts))
}

func TestAPI_GetHistoryDisabled(t *testing.T) {
	server := newTestServer(t)

	var body map[string]string
	status := getJSON(t, server.URL+"/api/v1/history/1", &body)

	assert.Equal(t, http.StatusNotFound, status)
	assert.Contains(t, body["error"], "disabled")
}

func TestAPI_GetHealth(t *testing.T) {
	server := newTestServer(t)

	var body map[string]any
	status := getJSON(t, server.URL+"/api/v1/health", &body)

	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, float64(10), body["stations"])
	assert.Contains(t, body, "cache")
}

func TestAPI_MetricsEndpoint(t *testing.T) {
	server := newTestServer(t)

	resp, err := http.Get(server.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
