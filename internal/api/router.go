package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tidewatch/beach-report/internal/conditions"
	"github.com/tidewatch/beach-report/internal/config"
	"github.com/tidewatch/beach-report/internal/station"
	"github.com/tidewatch/beach-report/internal/storage/sqlite"
	"github.com/tidewatch/beach-report/internal/websocket"
	"github.com/tidewatch/beach-report/pkg/logger"
)

// Router wraps the chi router with the API handlers
type Router struct {
	handler  *Handler
	registry prometheus.Gatherer
	logger   *logger.Logger
}

// NewRouter creates a new API router
func NewRouter(cache *conditions.CacheService, registry *station.Registry, history *sqlite.SnapshotStorage, service *conditions.Service, cfg *config.Config, log *logger.Logger, wsServer *websocket.Server, promRegistry prometheus.Gatherer) *Router {
	return &Router{
		handler:  NewHandler(cache, registry, history, service, cfg, log, wsServer),
		registry: promRegistry,
		logger:   log.Named("api-router"),
	}
}

// Routes builds the HTTP route tree
func (rt *Router) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/stations", rt.handler.GetStations)
		r.Get("/stations/{id}", rt.handler.GetStation)
		r.Get("/conditions/{id}", rt.handler.GetConditions)
		r.Get("/tides/{id}", rt.handler.GetTides)
		r.Get("/alerts/{id}", rt.handler.GetAlerts)
		r.Get("/history/{id}", rt.handler.GetHistory)
		r.Get("/health", rt.handler.GetHealth)
	})

	r.Handle("/metrics", promhttp.HandlerFor(rt.registry, promhttp.HandlerOpts{}))
	r.Get("/ws", rt.handler.HandleWebSocket)

	return r
}
