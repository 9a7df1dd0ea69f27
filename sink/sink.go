// Package sink is the ordered, append-only log of accepted alerts. Alerts
// stay in memory for the process lifetime; file and database persistence are
// fire-and-forget per cycle, so a write failure never aborts detection.
package sink

import (
	"encoding/json"
	"os"
	"sort"
	"sync"
	"time"

	"sentinel/core"
	"sentinel/metrics"

	"go.uber.org/zap"
)

// Summary aggregates accepted alerts for external reporting.
type Summary struct {
	GeneratedAt time.Time      `json:"generated_at"`
	Total       int            `json:"total"`
	ByKind      map[string]int `json:"by_kind"`
	BySeverity  map[string]int `json:"by_severity"`
	Recent      []*core.Alert  `json:"recent"`
}

// Sink appends accepted alerts in order and serves summary aggregation.
type Sink struct {
	alertsPath  string
	recentLimit int
	logger      *zap.SugaredLogger

	mu     sync.RWMutex
	alerts []*core.Alert
}

// NewSink creates a sink writing accepted alerts to alertsPath as JSONL.
// An empty path disables the file output.
func NewSink(alertsPath string, recentLimit int, logger *zap.SugaredLogger) *Sink {
	if recentLimit < 1 {
		recentLimit = 50
	}
	return &Sink{
		alertsPath:  alertsPath,
		recentLimit: recentLimit,
		logger:      logger,
	}
}

// Append accepts an alert into the log and writes it to the JSONL output.
// The write is retried once; on repeated failure it is logged and the alert
// remains in memory for a later export.
func (s *Sink) Append(alert *core.Alert) {
	s.mu.Lock()
	s.alerts = append(s.alerts, alert)
	s.mu.Unlock()

	if s.alertsPath == "" {
		return
	}
	if err := s.writeLine(alert); err != nil {
		if err = s.writeLine(alert); err != nil {
			metrics.SinkWriteFailures.Inc()
			s.logger.Errorw("Failed to persist alert to JSONL output",
				"alert_id", alert.AlertID,
				"path", s.alertsPath,
				"error", err)
		}
	}
}

// Export returns aggregated counts and the most recent alerts, optionally
// filtered to one kind. An empty kind means all kinds.
func (s *Sink) Export(kind core.AlertKind) Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	summary := Summary{
		GeneratedAt: time.Now().UTC(),
		ByKind:      make(map[string]int),
		BySeverity:  make(map[string]int),
	}

	var matched []*core.Alert
	for _, a := range s.alerts {
		if kind != "" && a.Kind != kind {
			continue
		}
		matched = append(matched, a)
		summary.ByKind[string(a.Kind)]++
		summary.BySeverity[string(a.Severity)]++
	}
	summary.Total = len(matched)

	start := len(matched) - s.recentLimit
	if start < 0 {
		start = 0
	}
	summary.Recent = append([]*core.Alert{}, matched[start:]...)
	return summary
}

// Recent returns up to limit most recent accepted alerts, newest last.
func (s *Sink) Recent(limit int) []*core.Alert {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 || limit > len(s.alerts) {
		limit = len(s.alerts)
	}
	return append([]*core.Alert{}, s.alerts[len(s.alerts)-limit:]...)
}

// Len returns the number of accepted alerts.
func (s *Sink) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.alerts)
}

// WriteSummary exports the aggregate summary as JSON to path.
func (s *Sink) WriteSummary(path string) error {
	summary := s.Export("")

	// Stable kind ordering is nice for diffing exports but maps do not
	// guarantee it; marshal sorts keys for us.
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// KindsSeen returns the distinct alert kinds in the log, sorted.
func (s *Sink) KindsSeen() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]struct{})
	for _, a := range s.alerts {
		seen[string(a.Kind)] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for k := range seen {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func (s *Sink) writeLine(alert *core.Alert) error {
	f, err := os.OpenFile(s.alertsPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	data, err := json.Marshal(alert)
	if err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = f.Write(data)
	return err
}
