package core

import (
	"time"

	"github.com/google/uuid"
)

// SourceKind identifies which sensor produced a record.
type SourceKind string

const (
	// SourcePOS is a point-of-sale transaction observation
	SourcePOS SourceKind = "pos"
	// SourceRFID is an RFID tag read observation
	SourceRFID SourceKind = "rfid"
	// SourceQueue is a queue-camera sample
	SourceQueue SourceKind = "queue"
	// SourceRecognition is a product-recognition hint
	SourceRecognition SourceKind = "recognition"
	// SourceInventory is a periodic inventory snapshot
	SourceInventory SourceKind = "inventory"
)

// String returns the string representation
func (s SourceKind) String() string {
	return string(s)
}

// IsValid checks if the source kind is valid
func (s SourceKind) IsValid() bool {
	switch s {
	case SourcePOS, SourceRFID, SourceQueue, SourceRecognition, SourceInventory:
		return true
	default:
		return false
	}
}

// RFIDLocationInScanArea is the location value reported when a tagged item
// enters a station's scan area.
const RFIDLocationInScanArea = "IN_SCAN_AREA"

// StatusActive is the nominal status reported by a healthy station. Anything
// else ("Read Error", "System Crash", ...) counts as an error observation.
const StatusActive = "Active"

// POSPayload carries the fields of a point-of-sale transaction.
type POSPayload struct {
	CustomerID  string  `json:"customer_id"`
	SKU         string  `json:"sku"`
	ProductName string  `json:"product_name,omitempty"`
	Price       float64 `json:"price"`
	Weight      float64 `json:"weight_g"`
}

// RFIDPayload carries the fields of an RFID tag read.
type RFIDPayload struct {
	EPC        string `json:"epc,omitempty"`
	SKU        string `json:"sku"`
	CustomerID string `json:"customer_id,omitempty"`
	Location   string `json:"location"`
}

// QueuePayload carries the fields of a queue-camera sample.
type QueuePayload struct {
	CustomerCount    int     `json:"customer_count"`
	AverageDwellTime float64 `json:"average_dwell_time"` // seconds
}

// RecognitionPayload carries the fields of a product-recognition hint.
type RecognitionPayload struct {
	SKU        string  `json:"predicted_product"`
	CustomerID string  `json:"customer_id,omitempty"`
	Accuracy   float64 `json:"accuracy,omitempty"`
}

// SensorRecord is one observation from one sensor source. Exactly one of the
// payload pointers matching Source is non-nil. Records are created by the
// ingest parser and never mutated afterwards.
type SensorRecord struct {
	RecordID  string     `json:"record_id"`
	Source    SourceKind `json:"source_kind"`
	StationID string     `json:"station_id"`
	// Timestamp is zero when the feed timestamp failed to parse; such
	// records are excluded from time-windowed joins but still buffered.
	Timestamp time.Time `json:"timestamp"`
	Status    string    `json:"status,omitempty"`

	POS         *POSPayload         `json:"pos,omitempty"`
	RFID        *RFIDPayload        `json:"rfid,omitempty"`
	Queue       *QueuePayload       `json:"queue,omitempty"`
	Recognition *RecognitionPayload `json:"recognition,omitempty"`
}

// NewSensorRecord creates a record with a generated ID for the given source.
func NewSensorRecord(source SourceKind, stationID string) *SensorRecord {
	return &SensorRecord{
		RecordID:  uuid.New().String(),
		Source:    source,
		StationID: stationID,
	}
}

// CustomerID returns the customer identifier carried by the payload, if any.
func (r *SensorRecord) CustomerID() string {
	switch {
	case r.POS != nil:
		return r.POS.CustomerID
	case r.RFID != nil:
		return r.RFID.CustomerID
	case r.Recognition != nil:
		return r.Recognition.CustomerID
	}
	return ""
}

// SKU returns the product identifier carried by the payload, if any.
func (r *SensorRecord) SKU() string {
	switch {
	case r.POS != nil:
		return r.POS.SKU
	case r.RFID != nil:
		return r.RFID.SKU
	case r.Recognition != nil:
		return r.Recognition.SKU
	}
	return ""
}

// HasTimestamp reports whether the record carries a usable timestamp.
func (r *SensorRecord) HasTimestamp() bool {
	return !r.Timestamp.IsZero()
}

// IsError reports whether the record carries a non-nominal station status.
func (r *SensorRecord) IsError() bool {
	return r.Status != "" && r.Status != StatusActive
}
