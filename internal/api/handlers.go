package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/tidewatch/beach-report/internal/conditions"
	"github.com/tidewatch/beach-report/internal/config"
	"github.com/tidewatch/beach-report/internal/station"
	"github.com/tidewatch/beach-report/internal/storage/sqlite"
	"github.com/tidewatch/beach-report/internal/websocket"
	"github.com/tidewatch/beach-report/pkg/logger"
)

// Handler contains the API handlers
type Handler struct {
	cache    *conditions.CacheService
	registry *station.Registry
	history  *sqlite.SnapshotStorage
	service  *conditions.Service
	config   *config.Config
	logger   *logger.Logger
	wsServer *websocket.Server
}

// NewHandler creates a new API handler
func NewHandler(cache *conditions.CacheService, registry *station.Registry, history *sqlite.SnapshotStorage, service *conditions.Service, config *config.Config, logger *logger.Logger, wsServer *websocket.Server) *Handler {
	return &Handler{
		cache:    cache,
		registry: registry,
		history:  history,
		service:  service,
		config:   config,
		logger:   logger.Named("api-handler"),
		wsServer: wsServer,
	}
}

// GetStations returns all registered beach stations
func (h *Handler) GetStations(w http.ResponseWriter, r *http.Request) {
	stations := h.registry.All()
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"count":    len(stations),
		"stations": stations,
	})
}

// GetStation returns a single station by location ID
func (h *Handler) GetStation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	st, err := h.registry.Lookup(id)
	if err != nil {
		if errors.Is(err, station.ErrNotFound) {
			WriteJSON(w, http.StatusNotFound, map[string]string{"error": "station not found: " + id})
			return
		}
		h.logger.Error("Failed to look up station", logger.Error(err), logger.String("location_id", id))
		WriteJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}

	WriteJSON(w, http.StatusOK, st)
}

// GetConditions returns the current conditions snapshot for a location.
// Pass ?refresh=true to bypass the cache.
func (h *Handler) GetConditions(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	forceRefresh := r.URL.Query().Get("refresh") == "true"

	snapshot, err := h.cache.GetConditions(r.Context(), id, forceRefresh)
	if err != nil {
		h.logger.Error("Failed to get conditions", logger.Error(err), logger.String("location_id", id))
		WriteJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get conditions"})
		return
	}

	WriteJSON(w, http.StatusOK, snapshot)
}

// GetTides returns upcoming tide predictions for a location
func (h *Handler) GetTides(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	forceRefresh := r.URL.Query().Get("refresh") == "true"

	predictions, err := h.cache.GetTideSchedule(r.Context(), id, forceRefresh)
	if err != nil {
		h.logger.Error("Failed to get tide schedule", logger.Error(err), logger.String("location_id", id))
		WriteJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get tide schedule"})
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"location_id": id,
		"predictions": predictions,
	})
}

// GetAlerts derives safety alerts for a location from its current conditions
func (h *Handler) GetAlerts(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	snapshot, err := h.cache.GetConditions(r.Context(), id, false)
	if err != nil {
		h.logger.Error("Failed to get conditions for alerts", logger.Error(err), logger.String("location_id", id))
		WriteJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get conditions"})
		return
	}

	alerts := conditions.DeriveAlerts(snapshot)
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"location_id": id,
		"count":       len(alerts),
		"alerts":      alerts,
	})
}

// GetHistory returns persisted snapshot history for a location
func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		WriteJSON(w, http.StatusNotFound, map[string]string{"error": "history recording is disabled"})
		return
	}

	id := chi.URLParam(r, "id")

	limit := h.config.Storage.HistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			WriteJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid limit: " + raw})
			return
		}
		if parsed < limit {
			limit = parsed
		}
	}

	entries, err := h.history.RecentByLocation(id, limit)
	if err != nil {
		h.logger.Error("Failed to query snapshot history", logger.Error(err), logger.String("location_id", id))
		WriteJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to query history"})
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"location_id": id,
		"count":       len(entries),
		"entries":     entries,
	})
}

// GetHealth returns server health status
func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":     "ok",
		"stations":   h.registry.Count(),
		"cache":      h.cache.Stats(),
		"ws_clients": h.wsServer.ClientCount(),
	}
	if h.service != nil {
		response["tracked"] = h.service.Tracked()
	}
	WriteJSON(w, http.StatusOK, response)
}

// HandleWebSocket upgrades the connection and registers the client for
// live conditions updates
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	h.wsServer.HandleConnection(w, r)
}

// WriteJSON writes a JSON response
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
