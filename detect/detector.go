// Package detect implements the stream correlation and detection engine: the
// cross-stream temporal joins, the detector rules that consume them, and the
// periodic cycle that runs every detector over a stable snapshot of buffer
// state.
package detect

import (
	"time"

	"sentinel/catalog"
	"sentinel/config"
	"sentinel/core"
	"sentinel/ingest"
	"sentinel/risk"
)

// RiskReader is the read-only view detectors get of the risk store. Writes
// go through proposed deltas so evaluation stays order-independent within a
// cycle.
type RiskReader interface {
	Get(customerID string) *risk.Profile
	HighRisk(threshold float64) []*risk.Profile
}

// Context is the immutable input to one detector evaluation: buffer
// snapshots taken at cycle start, the catalog, a stable risk view and the
// configured thresholds.
type Context struct {
	Now time.Time

	POS         []*core.SensorRecord
	RFID        []*core.SensorRecord
	Queue       []*core.SensorRecord
	Recognition []*core.SensorRecord

	// Inventory is the latest per-SKU stock snapshot from the feed.
	Inventory map[string]int

	Catalog    *catalog.Store
	Risk       RiskReader
	Thresholds config.DetectorThresholds
	// JoinWindow bounds cross-stream temporal correlation.
	JoinWindow time.Duration
	Feed       ingest.FeedStatus

	seq *core.AlertSequence
}

// NewAlert creates a candidate alert stamped with the next process-unique ID
// and the cycle time.
func (c *Context) NewAlert(kind core.AlertKind, severity core.Severity) *core.Alert {
	return &core.Alert{
		AlertID:   c.seq.Next(),
		Timestamp: c.Now,
		Kind:      kind,
		Severity:  severity,
		Evidence:  make(map[string]interface{}),
	}
}

// Detector is one independent rule module. Detect is a pure function of the
// context: it returns candidate alerts and proposed risk deltas and must not
// mutate shared state, so detectors can run concurrently.
type Detector interface {
	Name() string
	Detect(ctx *Context) ([]*core.Alert, []risk.Delta, error)
}

// Detectors builds the full rule set in evaluation order.
func Detectors(cfg config.DetectorThresholds) []Detector {
	return []Detector{
		NewScanAvoidanceDetector(cfg),
		NewBarcodeSwitchDetector(cfg),
		NewWeightDetector(cfg),
		NewHealthDetector(cfg),
		NewQueueDetector(cfg),
		NewTheftRiskDetector(cfg),
		NewInventoryDetector(cfg),
		NewCoordinationDetector(cfg),
		NewStaffingDetector(cfg),
		NewIdleStationDetector(cfg),
	}
}

// selfCheckoutPrefixes identify self-service stations, which carry a higher
// fraud weighting.
var selfCheckoutPrefixes = []string{"SCC", "SCO"}

func isSelfCheckout(stationID string) bool {
	for _, prefix := range selfCheckoutPrefixes {
		if len(stationID) >= len(prefix) && stationID[:len(prefix)] == prefix {
			return true
		}
	}
	return false
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
