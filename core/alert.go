package core

import (
	"fmt"
	"sync/atomic"
	"time"
)

// Severity classifies how urgent an alert is.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// String returns the string representation
func (s Severity) String() string {
	return string(s)
}

// IsValid checks if the severity is valid
func (s Severity) IsValid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	default:
		return false
	}
}

// Rank returns an ordering value, higher means more severe. Unknown
// severities rank below low.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 4
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	default:
		return 0
	}
}

// AlertKind names a detector finding. The values double as the event_name
// field in exported alerts.
type AlertKind string

const (
	KindScanAvoidance        AlertKind = "Scanner Avoidance"
	KindBarcodeSwitching     AlertKind = "Barcode Switching"
	KindWeightDiscrepancy    AlertKind = "Weight Discrepancy"
	KindStationOutage        AlertKind = "System Crash"
	KindStationDegraded      AlertKind = "System Performance Degradation"
	KindLongQueue            AlertKind = "Long Queue Alert"
	KindPredictedCongestion  AlertKind = "Predicted Queue Congestion"
	KindSystemWideCongestion AlertKind = "System-wide Queue Congestion"
	KindTheftRisk            AlertKind = "High Theft Risk Alert"
	KindInventoryDiscrepancy AlertKind = "Inventory Discrepancy"
	KindCoordinatedActivity  AlertKind = "Coordinated Multi-Station Fraud"
	KindStaffingNeed         AlertKind = "Critical Staffing Need"
	KindStationInefficiency  AlertKind = "Station Performance Optimization"
	KindStaffingCrisis       AlertKind = "System-wide Staffing Crisis"
	KindEnergyOpportunity    AlertKind = "Energy Conservation Opportunity"
	KindEnergyOptimization   AlertKind = "System-wide Energy Optimization"
	KindIngestionDegraded    AlertKind = "Ingestion Feed Degradation"
)

// Alert is a discrete, timestamped finding emitted by a detector. Alerts are
// never mutated after the suppressor accepts them.
type Alert struct {
	AlertID    string                 `json:"alert_id"`
	Timestamp  time.Time              `json:"timestamp"`
	Kind       AlertKind              `json:"event_name"`
	StationID  string                 `json:"station_id,omitempty"`
	CustomerID string                 `json:"customer_id,omitempty"`
	Severity   Severity               `json:"severity"`
	// Confidence estimates certainty that the finding reflects a true
	// condition, in [0,1].
	Confidence float64                `json:"confidence"`
	Evidence   map[string]interface{} `json:"evidence,omitempty"`
}

// Identity is the deduplication key for an alert: two candidates with the
// same identity within the duplicate window are the same finding.
func (a *Alert) Identity() string {
	return fmt.Sprintf("%s|%s|%s", a.Kind, a.StationID, a.CustomerID)
}

// AlertSequence issues process-unique, monotonically increasing alert IDs.
type AlertSequence struct {
	counter atomic.Uint64
}

// NewAlertSequence creates a sequence starting at 1.
func NewAlertSequence() *AlertSequence {
	return &AlertSequence{}
}

// Next returns the next alert ID in SENTINEL-NNNN form.
func (s *AlertSequence) Next() string {
	return fmt.Sprintf("SENTINEL-%04d", s.counter.Add(1))
}
