package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/tidewatch/beach-report/internal/api"
	"github.com/tidewatch/beach-report/internal/conditions"
	"github.com/tidewatch/beach-report/internal/config"
	"github.com/tidewatch/beach-report/internal/observability"
	"github.com/tidewatch/beach-report/internal/station"
	"github.com/tidewatch/beach-report/internal/storage/sqlite"
	"github.com/tidewatch/beach-report/internal/websocket"
	"github.com/tidewatch/beach-report/pkg/logger"
)

var (
	// Version is injected at build time
	Version = "dev"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "", "Path to configuration file (optional - will search in configs/ and root directory)")
	flag.Parse()

	// Load configuration with fallback logic
	cfg, err := config.LoadWithFallback(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	// Create logger
	log, err := logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("Starting beach-report server",
		logger.String("version", Version),
		logger.String("config_path", *configPath),
	)

	// Build the station registry
	registry, err := station.NewRegistry(cfg.Stations.Extra)
	if err != nil {
		log.Error("Failed to build station registry", logger.Error(err))
		os.Exit(1)
	}
	log.Info("Station registry loaded", logger.Int("stations", registry.Count()))

	// Create metrics
	promRegistry := prometheus.NewRegistry()
	metrics := observability.NewMetrics(promRegistry)

	clock := clockwork.NewRealClock()

	// Create snapshot history storage (optional)
	var history *sqlite.SnapshotStorage
	if cfg.Storage.RecordHistory {
		history, err = sqlite.NewSnapshotStorage(cfg.Storage.SQLitePath, log)
		if err != nil {
			log.Error("Failed to create SQLite storage", logger.Error(err))
			os.Exit(1)
		}
		defer history.Close()
		log.Info("Using SQLite storage", logger.String("path", cfg.Storage.SQLitePath))
	}

	// Create WebSocket server
	wsServer := websocket.NewServer(log, metrics)

	// Start WebSocket server
	go wsServer.Run()

	// Create upstream clients and the aggregation chain
	tidesClient := conditions.NewTidesClient(cfg.Upstream.TidesBaseURL, cfg.RequestTimeout(), clock, log, metrics)
	nwsClient := conditions.NewNWSClient(cfg.Upstream.NWSPointsBaseURL, cfg.Upstream.UserAgent, cfg.RequestTimeout(), clock, log, metrics)
	aggregator := conditions.NewAggregator(registry, tidesClient, nwsClient, nil, nil, clock, log, metrics)
	synthesizer := conditions.NewSynthesizer(registry, nil, clock)
	cache := conditions.NewCacheService(aggregator, synthesizer, cfg.CacheWindow(), clock, log, metrics)

	// Create and start the background refresh service (if enabled)
	var refreshService *conditions.Service
	if cfg.Refresh.Enabled {
		tracked := cfg.Stations.Tracked
		if len(tracked) == 0 {
			for _, st := range registry.All() {
				tracked = append(tracked, st.ID)
			}
		}

		var historyStore conditions.HistoryStore
		if history != nil {
			historyStore = history
		}

		refreshService = conditions.NewService(cache, wsServer, historyStore, tracked, cfg.RefreshInterval(), log)
		if err := refreshService.Start(); err != nil {
			log.Error("Failed to start refresh service", logger.Error(err))
			os.Exit(1)
		}
	} else {
		log.Info("Background refresh disabled in configuration")
	}

	// Create API router
	router := api.NewRouter(cache, registry, history, refreshService, cfg, log, wsServer, promRegistry)

	// --- Setup for multiple HTTP servers ---
	var servers []*http.Server
	allPorts := []int{cfg.Server.Port}
	if len(cfg.Server.AdditionalPorts) > 0 {
		allPorts = append(allPorts, cfg.Server.AdditionalPorts...)
	}

	log.Info("Configured listener ports", logger.Any("ports", allPorts))

	// Start a server for each configured port
	for _, port := range allPorts {
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, port)
		server := &http.Server{
			Addr:         addr,
			Handler:      router.Routes(), // All servers use the same main router
			ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSecs) * time.Second,
			WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSecs) * time.Second,
			IdleTimeout:  time.Duration(cfg.Server.IdleTimeoutSecs) * time.Second,
		}
		servers = append(servers, server)

		go func(s *http.Server) {
			log.Info("Starting HTTP server", logger.String("addr", s.Addr))
			if err := s.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error("HTTP server error on startup", logger.String("addr", s.Addr), logger.Error(err))
			}
		}(server)
	}

	// Wait for interrupt signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info("Shutting down server...")

	// Stop background services first
	if refreshService != nil {
		log.Info("Stopping refresh service...")
		refreshService.Stop()
		log.Info("Refresh service stopped.")
	}

	// Shutdown all HTTP servers
	log.Info("Shutting down HTTP servers...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	var wg sync.WaitGroup
	for _, s := range servers {
		wg.Add(1)
		go func(srv *http.Server) {
			defer wg.Done()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				log.Error("HTTP server shutdown error", logger.String("addr", srv.Addr), logger.Error(err))
			} else {
				log.Info("HTTP server shutdown complete", logger.String("addr", srv.Addr))
			}
		}(s)
	}
	wg.Wait()

	log.Info("Server fully stopped")
}
