// Package suppress collapses near-duplicate candidate alerts and enforces
// per-category minimum re-alert intervals so a persistent condition cannot
// cause an alert storm. Critical alerts always pass unless they are exact
// duplicates.
package suppress

import (
	"fmt"
	"sync"
	"time"

	"sentinel/core"
	"sentinel/metrics"

	"go.uber.org/zap"
)

// Drop reasons reported in results and metrics.
const (
	ReasonDuplicate  = "duplicate_identity"
	ReasonSuppressed = "category_window"
)

// Config holds the suppression windows.
type Config struct {
	// DuplicateWindow drops candidates whose (kind, station, customer)
	// identity was accepted within this window.
	DuplicateWindow time.Duration
	// Per-severity minimum intervals between accepted alerts of the same
	// (kind, severity). Critical bypasses these entirely.
	HighWindow   time.Duration
	MediumWindow time.Duration
	LowWindow    time.Duration
}

// DefaultConfig mirrors the windows the system's rules were tuned against.
func DefaultConfig() Config {
	return Config{
		DuplicateWindow: 5 * time.Minute,
		HighWindow:      10 * time.Minute,
		MediumWindow:    15 * time.Minute,
		LowWindow:       30 * time.Minute,
	}
}

// Result reports what happened to one candidate.
type Result struct {
	Accepted bool
	Reason   string // set when dropped
}

// Suppressor is the dedup/suppression state machine. It is sequential and
// cheap; the engine runs it single-threaded after the parallel detector
// phase.
type Suppressor struct {
	cfg    Config
	logger *zap.SugaredLogger

	mu sync.Mutex
	// lastIdentity tracks acceptance time per (kind, station, customer).
	lastIdentity map[string]time.Time
	// lastCategory tracks acceptance time per (kind, severity).
	lastCategory map[string]time.Time
}

// NewSuppressor creates a suppressor with the given windows.
func NewSuppressor(cfg Config, logger *zap.SugaredLogger) *Suppressor {
	if cfg.DuplicateWindow <= 0 {
		cfg = DefaultConfig()
	}
	return &Suppressor{
		cfg:          cfg,
		logger:       logger,
		lastIdentity: make(map[string]time.Time),
		lastCategory: make(map[string]time.Time),
	}
}

// Process runs one candidate through deduplication and suppression.
func (s *Suppressor) Process(alert *core.Alert) Result {
	return s.ProcessAt(alert, time.Now())
}

// ProcessAt is Process with an explicit clock, for deterministic tests.
func (s *Suppressor) ProcessAt(alert *core.Alert, now time.Time) Result {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Exact duplicate identity within the window is dropped regardless of
	// severity.
	identity := alert.Identity()
	if last, ok := s.lastIdentity[identity]; ok && now.Sub(last) < s.cfg.DuplicateWindow {
		metrics.AlertsSuppressed.WithLabelValues(ReasonDuplicate).Inc()
		return Result{Accepted: false, Reason: ReasonDuplicate}
	}

	// Critical bypasses the category windows.
	if alert.Severity != core.SeverityCritical {
		category := categoryKey(alert.Kind, alert.Severity)
		window := s.windowFor(alert.Severity)
		if last, ok := s.lastCategory[category]; ok && now.Sub(last) < window {
			metrics.AlertsSuppressed.WithLabelValues(ReasonSuppressed).Inc()
			return Result{Accepted: false, Reason: ReasonSuppressed}
		}
		s.lastCategory[category] = now
	}

	s.lastIdentity[identity] = now
	s.pruneLocked(now)
	return Result{Accepted: true}
}

// windowFor returns the category window for a severity. Unknown severities
// use the medium window.
func (s *Suppressor) windowFor(severity core.Severity) time.Duration {
	switch severity {
	case core.SeverityHigh:
		return s.cfg.HighWindow
	case core.SeverityMedium:
		return s.cfg.MediumWindow
	case core.SeverityLow:
		return s.cfg.LowWindow
	default:
		return s.cfg.MediumWindow
	}
}

// pruneLocked discards identity entries older than the duplicate window so
// the map stays bounded by recent alert variety.
func (s *Suppressor) pruneLocked(now time.Time) {
	for identity, last := range s.lastIdentity {
		if now.Sub(last) >= s.cfg.DuplicateWindow {
			delete(s.lastIdentity, identity)
		}
	}
}

func categoryKey(kind core.AlertKind, severity core.Severity) string {
	return fmt.Sprintf("%s|%s", kind, severity)
}
