package ingest

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"sentinel/core"
	"sentinel/metrics"
	"sentinel/util/goroutine"

	"go.uber.org/zap"
)

// maxLineSize bounds a single feed line. Sensor observations are small; a
// larger line indicates a corrupt or hostile feed.
const maxLineSize = 1024 * 1024

// FeedStatus describes the health of the feed connection.
type FeedStatus struct {
	Connected           bool      `json:"connected"`
	ConsecutiveFailures int       `json:"consecutive_failures"`
	LastError           string    `json:"last_error,omitempty"`
	LastRecordAt        time.Time `json:"last_record_at"`
	RecordsIngested     uint64    `json:"records_ingested"`
	RecordsMalformed    uint64    `json:"records_malformed"`
	Degraded            bool      `json:"degraded"`
}

// FeedConfig holds the connection and retry tunables for the feed client.
type FeedConfig struct {
	Host             string
	Port             int
	ReadTimeout      time.Duration
	ReconnectInitial time.Duration
	ReconnectMax     time.Duration
	MaxRetries       int
}

// Feed consumes the newline-delimited JSON sensor stream over TCP and owns
// all writes into the ingestion buffers. Disconnects trigger bounded retry
// with exponential backoff; repeated failure marks the feed degraded, which
// the detection engine surfaces as a health alert.
type Feed struct {
	cfg       FeedConfig
	buffers   *BufferSet
	inventory *InventoryStore
	dlq       *DLQ
	logger    *zap.SugaredLogger

	mu     sync.RWMutex
	status FeedStatus

	wg sync.WaitGroup
}

// NewFeed creates a feed client. dlq may be nil; malformed lines are then
// only counted.
func NewFeed(cfg FeedConfig, buffers *BufferSet, inventory *InventoryStore, dlq *DLQ, logger *zap.SugaredLogger) *Feed {
	return &Feed{
		cfg:       cfg,
		buffers:   buffers,
		inventory: inventory,
		dlq:       dlq,
		logger:    logger,
	}
}

// Start launches the feed reader goroutine. It returns immediately; use the
// context to stop and Wait to drain.
func (f *Feed) Start(ctx context.Context) {
	f.wg.Add(1)
	go func() {
		defer f.wg.Done()
		defer goroutine.Recover("feed-reader", f.logger)
		f.run(ctx)
	}()
}

// Wait blocks until the reader goroutine has exited.
func (f *Feed) Wait() {
	f.wg.Wait()
}

// Status returns a copy of the current feed health.
func (f *Feed) Status() FeedStatus {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.status
}

func (f *Feed) run(ctx context.Context) {
	backoff := f.cfg.ReconnectInitial
	if backoff <= 0 {
		backoff = time.Second
	}

	for {
		if ctx.Err() != nil {
			return
		}

		err := f.consume(ctx)
		if ctx.Err() != nil {
			return
		}

		failures := f.recordDisconnect(err)
		metrics.FeedReconnects.Inc()

		if f.cfg.MaxRetries > 0 && failures >= f.cfg.MaxRetries {
			f.logger.Errorw("Feed gave up after repeated failures",
				"failures", failures,
				"error", err)
			f.setDegraded(true)
			// Keep retrying at the max interval so a recovered feed is
			// picked up without a restart, but stay marked degraded
			// until a record arrives.
			backoff = f.cfg.ReconnectMax
		}

		f.logger.Warnw("Feed disconnected, retrying",
			"error", err,
			"backoff", backoff,
			"failures", failures)

		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}

		backoff *= 2
		if f.cfg.ReconnectMax > 0 && backoff > f.cfg.ReconnectMax {
			backoff = f.cfg.ReconnectMax
		}
	}
}

// consume dials the feed and processes lines until error or cancellation.
func (f *Feed) consume(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", f.cfg.Host, f.cfg.Port)
	dialer := net.Dialer{Timeout: 10 * time.Second}

	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to connect to feed at %s: %w", addr, err)
	}
	defer conn.Close()

	// Close the connection when the context is cancelled so the blocking
	// read below returns.
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	f.logger.Infow("Connected to sensor feed", "addr", addr)
	f.setConnected(true)
	defer f.setConnected(false)

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	// Arm the deadline before the first read so a connected but silent
	// feed cannot stall the loop.
	if f.cfg.ReadTimeout > 0 {
		_ = conn.SetReadDeadline(time.Now().Add(f.cfg.ReadTimeout))
	}
	for scanner.Scan() {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if f.cfg.ReadTimeout > 0 {
			_ = conn.SetReadDeadline(time.Now().Add(f.cfg.ReadTimeout))
		}

		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		f.handleLine(line)
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("feed read error: %w", err)
	}
	return fmt.Errorf("feed closed by remote")
}

// handleLine parses and routes one feed line. Malformed lines are counted
// and dead-lettered, never fatal.
func (f *Feed) handleLine(line []byte) {
	rec, snapshot, err := ParseRecord(line)
	if err != nil {
		metrics.RecordsMalformed.WithLabelValues("parse_failure").Inc()
		f.countMalformed()
		if f.dlq != nil {
			f.dlq.Add(&FailedRecord{
				RawLine:     string(line),
				ErrorReason: "parse_failure",
				ErrorDetail: err.Error(),
			})
		}
		return
	}

	if snapshot != nil {
		f.inventory.Update(snapshot)
		metrics.RecordsIngested.WithLabelValues(core.SourceInventory.String()).Inc()
		f.countIngested()
		return
	}

	f.buffers.Append(rec)
	metrics.RecordsIngested.WithLabelValues(rec.Source.String()).Inc()
	f.countIngested()
}

func (f *Feed) setConnected(connected bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status.Connected = connected
	if connected {
		f.status.ConsecutiveFailures = 0
		f.status.LastError = ""
	}
}

func (f *Feed) setDegraded(degraded bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status.Degraded = degraded
}

func (f *Feed) recordDisconnect(err error) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status.ConsecutiveFailures++
	if err != nil {
		f.status.LastError = err.Error()
	}
	return f.status.ConsecutiveFailures
}

func (f *Feed) countIngested() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status.RecordsIngested++
	f.status.LastRecordAt = time.Now()
	f.status.Degraded = false
}

func (f *Feed) countMalformed() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status.RecordsMalformed++
}
