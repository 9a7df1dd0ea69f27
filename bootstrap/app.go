package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"sentinel/api"
	"sentinel/catalog"
	"sentinel/config"
	"sentinel/detect"
	"sentinel/ingest"
	"sentinel/notify"
	"sentinel/risk"
	"sentinel/sink"
	"sentinel/storage"
	"sentinel/suppress"
	"sentinel/util/goroutine"
)

// App wires every component of the detection service.
type App struct {
	Config *config.Config
	Logger *zap.Logger
	Sugar  *zap.SugaredLogger

	SQLite  *storage.SQLite
	Catalog *catalog.Store

	Buffers   *ingest.BufferSet
	Inventory *ingest.InventoryStore
	DLQ       *ingest.DLQ
	Feed      *ingest.Feed

	Risk       *risk.Store
	Suppressor *suppress.Suppressor
	Sink       *sink.Sink
	Engine     *detect.Engine
	Notifier   *notify.Notifier
	APIServer  *api.API

	cancel    context.CancelFunc
	serviceWg sync.WaitGroup
}

// NewApp creates a new application instance and initializes all components.
func NewApp(ctx context.Context) (*App, error) {
	app := &App{}

	logger, sugar, err := InitLogger()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	app.Logger = logger
	app.Sugar = sugar

	sugar.Info("Sentinel starting...")

	cfg, err := InitConfig(sugar)
	if err != nil {
		return nil, err
	}
	app.Config = cfg

	if err := EnsureDataDirectories(cfg, sugar); err != nil {
		return nil, fmt.Errorf("pre-flight check failed: %w", err)
	}

	sqlite, err := InitSQLite(cfg, sugar)
	if err != nil {
		return nil, err
	}
	app.SQLite = sqlite

	app.Catalog = catalog.NewStore(sugar)
	if err := app.Catalog.Load(cfg.Catalog.ProductsFile, cfg.Catalog.CustomersFile); err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	sugar.Infow("Catalog loaded",
		"products", app.Catalog.ProductCount(),
		"customers", app.Catalog.CustomerCount())

	app.Buffers = ingest.NewBufferSet(cfg.Engine.BufferCapacity)
	app.Inventory = ingest.NewInventoryStore()

	if sqlite != nil {
		app.DLQ = ingest.NewDLQ(sqlite.DB, sugar)
	} else {
		app.DLQ = ingest.NewDLQ(nil, sugar)
	}

	app.Feed = ingest.NewFeed(ingest.FeedConfig{
		Host:             cfg.Feed.Host,
		Port:             cfg.Feed.Port,
		ReadTimeout:      cfg.Feed.ReadTimeout,
		ReconnectInitial: cfg.Feed.ReconnectInitial,
		ReconnectMax:     cfg.Feed.ReconnectMax,
		MaxRetries:       cfg.Feed.MaxRetries,
	}, app.Buffers, app.Inventory, app.DLQ, sugar)

	app.Risk = risk.NewStore()
	app.Suppressor = suppress.NewSuppressor(suppress.Config{
		DuplicateWindow: cfg.Suppression.DuplicateWindow,
		HighWindow:      cfg.Suppression.HighWindow,
		MediumWindow:    cfg.Suppression.MediumWindow,
		LowWindow:       cfg.Suppression.LowWindow,
	}, sugar)
	app.Sink = sink.NewSink(cfg.DataPaths.AlertsPath, cfg.Sink.RecentLimit, sugar)

	app.Engine = detect.NewEngine(
		cfg.Engine,
		cfg.Detectors,
		app.Buffers,
		app.Inventory,
		app.Catalog,
		app.Risk,
		app.Suppressor,
		app.Sink,
		app.Feed,
		sugar,
	)
	if sqlite != nil {
		app.Engine.SetAlertStore(storage.NewAlertStorage(sqlite, sugar))
	}
	if notifier := notify.NewNotifier(cfg.Notify, sugar); notifier != nil {
		app.Notifier = notifier
		app.Engine.SetNotifier(notifier)
	}

	app.APIServer = api.NewAPI(cfg.API, app.Sink, app.Buffers, app.Feed, app.Risk, sugar)
	app.Engine.SetBroadcast(app.APIServer.Hub().BroadcastAlert)

	return app, nil
}

// Start launches the feed, the detection cycle, the summary exporter and the
// API server.
func (a *App) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	a.cancel = cancel

	a.Feed.Start(runCtx)
	a.Engine.Start(runCtx)
	a.startSummaryExporter(runCtx)

	a.serviceWg.Add(1)
	go func() {
		defer a.serviceWg.Done()
		defer goroutine.Recover("api-server", a.Sugar)

		a.Sugar.Infow("API server listening",
			"host", a.Config.API.Host,
			"port", a.Config.API.Port)
		if err := a.APIServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Sugar.Errorw("API server failed", "error", err)
		}
	}()

	return nil
}

// startSummaryExporter periodically writes the aggregated alert summary.
func (a *App) startSummaryExporter(ctx context.Context) {
	interval := a.Config.Sink.SummaryInterval
	if interval <= 0 {
		return
	}
	a.serviceWg.Add(1)
	go func() {
		defer a.serviceWg.Done()
		defer goroutine.Recover("summary-exporter", a.Sugar)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := a.Sink.WriteSummary(a.Config.DataPaths.SummaryPath); err != nil {
					a.Sugar.Errorw("Failed to write summary", "error", err)
				}
			}
		}
	}()
}

// WaitForShutdown blocks until a shutdown signal is received.
func (a *App) WaitForShutdown() {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c
}

// Shutdown gracefully stops all components: the feed and the cycle first,
// then a final summary export, then the API server and storage.
func (a *App) Shutdown() {
	a.Sugar.Info("Shutting down...")

	if a.cancel != nil {
		a.cancel()
	}
	a.Feed.Wait()
	a.Engine.Wait()

	if err := a.Sink.WriteSummary(a.Config.DataPaths.SummaryPath); err != nil {
		a.Sugar.Errorw("Failed to write final summary", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.APIServer.Stop(shutdownCtx); err != nil {
		a.Sugar.Errorw("API server shutdown failed", "error", err)
	}
	a.serviceWg.Wait()

	if a.SQLite != nil {
		if err := a.SQLite.Close(); err != nil {
			a.Sugar.Errorw("Failed to close SQLite", "error", err)
		}
	}

	a.Sugar.Info("Shutdown complete")
	_ = a.Logger.Sync()
}
