package detect

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"sentinel/catalog"
	"sentinel/config"
	"sentinel/core"
	"sentinel/ingest"
	"sentinel/metrics"
	"sentinel/risk"
	"sentinel/sink"
	"sentinel/suppress"
	"sentinel/util/goroutine"
)

// AlertStore persists accepted alerts.
type AlertStore interface {
	SaveAlert(alert *core.Alert) error
}

// Notifier forwards accepted alerts to an external channel.
type Notifier interface {
	Notify(alert *core.Alert)
}

// Engine runs the detection cycle: it snapshots the ingestion buffers, fans
// the detectors out over the stable snapshot, funnels candidates through the
// suppressor in order, and applies the proposed risk deltas only after every
// detector has finished reading.
type Engine struct {
	cfg        config.EngineConfig
	thresholds config.DetectorThresholds
	buffers    *ingest.BufferSet
	inventory  *ingest.InventoryStore
	catalog    *catalog.Store
	risk       *risk.Store
	suppressor *suppress.Suppressor
	sink       *sink.Sink
	feed       *ingest.Feed
	detectors  []Detector
	seq        *core.AlertSequence
	logger     *zap.SugaredLogger

	store     AlertStore
	notifier  Notifier
	broadcast func(*core.Alert)

	// processedTx tracks POS records already fed into the risk store, so
	// overlapping snapshots do not double-count transactions.
	processedTx map[string]bool

	wg sync.WaitGroup
}

// NewEngine wires the detection cycle. The feed may be nil when no live
// ingestion is attached.
func NewEngine(
	cfg config.EngineConfig,
	thresholds config.DetectorThresholds,
	buffers *ingest.BufferSet,
	inventory *ingest.InventoryStore,
	catalogStore *catalog.Store,
	riskStore *risk.Store,
	suppressor *suppress.Suppressor,
	alertSink *sink.Sink,
	feed *ingest.Feed,
	logger *zap.SugaredLogger,
) *Engine {
	return &Engine{
		cfg:         cfg,
		thresholds:  thresholds,
		buffers:     buffers,
		inventory:   inventory,
		catalog:     catalogStore,
		risk:        riskStore,
		suppressor:  suppressor,
		sink:        alertSink,
		feed:        feed,
		detectors:   Detectors(thresholds),
		seq:         core.NewAlertSequence(),
		logger:      logger,
		processedTx: make(map[string]bool),
	}
}

// SetAlertStore attaches optional alert persistence.
func (e *Engine) SetAlertStore(store AlertStore) { e.store = store }

// SetNotifier attaches an optional external notifier.
func (e *Engine) SetNotifier(notifier Notifier) { e.notifier = notifier }

// SetBroadcast attaches an optional live broadcast callback, invoked for
// every accepted alert.
func (e *Engine) SetBroadcast(fn func(*core.Alert)) { e.broadcast = fn }

// Start runs the detection cycle on a ticker until ctx is cancelled. An
// in-flight cycle finishes before Wait returns.
func (e *Engine) Start(ctx context.Context) {
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		defer goroutine.Recover("detection-cycle", e.logger)

		ticker := time.NewTicker(e.cfg.CyclePeriod)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				e.RunCycle(time.Now())
			}
		}
	}()
}

// Wait blocks until the cycle goroutine has stopped.
func (e *Engine) Wait() {
	e.wg.Wait()
}

type detectorResult struct {
	alerts []*core.Alert
	deltas []risk.Delta
}

// RunCycle executes one full detection pass at the given time and returns
// the accepted alerts.
func (e *Engine) RunCycle(now time.Time) []*core.Alert {
	started := time.Now()
	defer func() {
		metrics.DetectionCycleDuration.Observe(time.Since(started).Seconds())
	}()

	dctx := e.buildContext(now)

	// All detectors read the same snapshots; results are collected per
	// detector and merged in declaration order so cycle output is
	// deterministic.
	results := make([]detectorResult, len(e.detectors))
	var wg sync.WaitGroup
	for i, detector := range e.detectors {
		wg.Add(1)
		go func(i int, detector Detector) {
			defer wg.Done()
			defer goroutine.Recover("detector-"+detector.Name(), e.logger)

			alerts, deltas, err := detector.Detect(dctx)
			if err != nil {
				metrics.DetectorFailures.WithLabelValues(detector.Name()).Inc()
				e.logger.Errorw("Detector failed", "detector", detector.Name(), "error", err)
				return
			}
			results[i] = detectorResult{alerts: alerts, deltas: deltas}
		}(i, detector)
	}
	wg.Wait()

	var candidates []*core.Alert
	var deltas []risk.Delta
	for _, result := range results {
		candidates = append(candidates, result.alerts...)
		deltas = append(deltas, result.deltas...)
	}
	for _, alert := range candidates {
		metrics.AlertsGenerated.WithLabelValues(string(alert.Kind), string(alert.Severity)).Inc()
	}

	var accepted []*core.Alert
	for _, alert := range candidates {
		// The suppressor counts what it drops.
		result := e.suppressor.ProcessAt(alert, now)
		if !result.Accepted {
			continue
		}
		accepted = append(accepted, alert)
		e.deliver(alert)
	}

	e.risk.Apply(deltas)
	e.recordTransactions(dctx.POS)

	if len(candidates) > 0 {
		e.logger.Infow("Detection cycle complete",
			"candidates", len(candidates),
			"accepted", len(accepted),
			"duration", time.Since(started))
	} else {
		e.logger.Debugw("Detection cycle complete", "duration", time.Since(started))
	}
	return accepted
}

func (e *Engine) buildContext(now time.Time) *Context {
	var feedStatus ingest.FeedStatus
	if e.feed != nil {
		feedStatus = e.feed.Status()
	}
	return &Context{
		Now:         now,
		POS:         e.buffers.POS.Snapshot(e.cfg.SnapshotSize),
		RFID:        e.buffers.RFID.Snapshot(e.cfg.SnapshotSize),
		Queue:       e.buffers.Queue.Snapshot(e.cfg.SnapshotSize),
		Recognition: e.buffers.Recognition.Snapshot(e.cfg.SnapshotSize),
		Inventory:   e.inventory.Snapshot(),
		Catalog:     e.catalog,
		Risk:        e.risk,
		Thresholds:  e.thresholds,
		JoinWindow:  e.cfg.JoinWindow,
		Feed:        feedStatus,
		seq:         e.seq,
	}
}

func (e *Engine) deliver(alert *core.Alert) {
	e.sink.Append(alert)
	if e.store != nil {
		if err := e.store.SaveAlert(alert); err != nil {
			e.logger.Errorw("Failed to persist alert", "alert_id", alert.AlertID, "error", err)
		}
	}
	if e.notifier != nil {
		e.notifier.Notify(alert)
	}
	if e.broadcast != nil {
		e.broadcast(alert)
	}
}

// recordTransactions feeds POS records not seen in a previous cycle into the
// risk store's behavioral history. The processed set is rebuilt from the
// current snapshot each cycle; evicted records cannot reappear.
func (e *Engine) recordTransactions(pos []*core.SensorRecord) {
	next := make(map[string]bool, len(pos))
	for _, rec := range pos {
		next[rec.RecordID] = true
		if e.processedTx[rec.RecordID] {
			continue
		}
		if rec.POS == nil || rec.POS.CustomerID == "" {
			continue
		}
		e.risk.RecordTransaction(rec.POS.CustomerID, risk.Transaction{
			StationID: rec.StationID,
			SKU:       rec.POS.SKU,
			Price:     rec.POS.Price,
			Timestamp: rec.Timestamp,
		})
	}
	e.processedTx = next
}
