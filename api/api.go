// Package api serves the HTTP surface: recent alerts, summaries, station
// status, Prometheus metrics and a live websocket alert stream.
package api

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"sentinel/config"
	"sentinel/ingest"
	"sentinel/risk"
	"sentinel/sink"
)

// rateLimiterEntry holds a per-IP rate limiter with last seen time
type rateLimiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// API holds the HTTP server and its data sources.
type API struct {
	router  *mux.Router
	server  *http.Server
	cfg     config.APIConfig
	sink    *sink.Sink
	buffers *ingest.BufferSet
	feed    *ingest.Feed
	risk    *risk.Store
	hub     *Hub
	logger  *zap.SugaredLogger

	rateLimiters   map[string]*rateLimiterEntry
	rateLimitersMu sync.Mutex
	stopCh         chan struct{}

	startedAt time.Time
}

// NewAPI creates the API server. The feed may be nil when no live ingestion
// is attached.
func NewAPI(
	cfg config.APIConfig,
	alertSink *sink.Sink,
	buffers *ingest.BufferSet,
	feed *ingest.Feed,
	riskStore *risk.Store,
	logger *zap.SugaredLogger,
) *API {
	a := &API{
		router:       mux.NewRouter(),
		cfg:          cfg,
		sink:         alertSink,
		buffers:      buffers,
		feed:         feed,
		risk:         riskStore,
		hub:          NewHub(logger),
		logger:       logger,
		rateLimiters: make(map[string]*rateLimiterEntry),
		stopCh:       make(chan struct{}),
		startedAt:    time.Now(),
	}
	a.setupRoutes()
	go a.cleanupRateLimiters()
	return a
}

// Hub returns the websocket hub so the engine can broadcast accepted alerts.
func (a *API) Hub() *Hub {
	return a.hub
}

func (a *API) setupRoutes() {
	a.router.Use(a.rateLimitMiddleware)

	v1 := a.router.PathPrefix("/api/v1").Subrouter()
	v1.HandleFunc("/alerts", a.handleAlerts).Methods("GET")
	v1.HandleFunc("/alerts/summary", a.handleAlertSummary).Methods("GET")
	v1.HandleFunc("/alerts/stream", a.handleAlertStream).Methods("GET")
	v1.HandleFunc("/stations", a.handleStations).Methods("GET")
	v1.HandleFunc("/status", a.handleStatus).Methods("GET")

	a.router.Handle("/metrics", promhttp.Handler()).Methods("GET")
}

// Start runs the hub and the HTTP server. Blocks until the server stops.
func (a *API) Start() error {
	go a.hub.Run(a.stopCh)
	a.server = &http.Server{
		Addr:    fmt.Sprintf("%s:%d", a.cfg.Host, a.cfg.Port),
		Handler: a.router,
	}
	return a.server.ListenAndServe()
}

// Stop shuts the server down gracefully.
func (a *API) Stop(ctx context.Context) error {
	close(a.stopCh)
	if a.server != nil {
		return a.server.Shutdown(ctx)
	}
	return nil
}
