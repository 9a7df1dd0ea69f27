package ingest

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"sentinel/core"
)

// feedEnvelope is the wire shape of one feed line: a dataset tag plus a
// nested event object.
type feedEnvelope struct {
	Dataset string    `json:"dataset"`
	Event   feedEvent `json:"event"`
}

type feedEvent struct {
	Timestamp string                 `json:"timestamp"`
	StationID string                 `json:"station_id"`
	Status    string                 `json:"status"`
	Data      map[string]interface{} `json:"data"`
}

// ParseRecord parses one newline-delimited JSON feed line into a tagged
// sensor record. Inventory snapshot lines return (nil, snapshot, nil).
// Malformed lines return an error; callers skip and count them, never abort.
func ParseRecord(line []byte) (*core.SensorRecord, map[string]int, error) {
	var env feedEnvelope
	if err := json.Unmarshal(line, &env); err != nil {
		return nil, nil, fmt.Errorf("unparsable feed line: %w", err)
	}

	source, ok := routeDataset(env.Dataset)
	if !ok {
		return nil, nil, fmt.Errorf("unknown dataset %q", env.Dataset)
	}

	if source == core.SourceInventory {
		snapshot := make(map[string]int, len(env.Event.Data))
		for sku, v := range env.Event.Data {
			snapshot[sku] = int(toFloat(v))
		}
		return nil, snapshot, nil
	}

	if env.Event.StationID == "" {
		return nil, nil, fmt.Errorf("dataset %q: missing station_id", env.Dataset)
	}

	rec := core.NewSensorRecord(source, env.Event.StationID)
	rec.Status = env.Event.Status

	// A bad timestamp keeps the record out of windowed joins but is not
	// fatal to ingestion.
	if ts, err := parseTimestamp(env.Event.Timestamp); err == nil {
		rec.Timestamp = ts
	}

	data := env.Event.Data
	switch source {
	case core.SourcePOS:
		rec.POS = &core.POSPayload{
			CustomerID:  toString(data["customer_id"]),
			SKU:         toString(data["sku"]),
			ProductName: toString(data["product_name"]),
			Price:       toFloat(data["price"]),
			Weight:      toFloat(data["weight_g"]),
		}
		if rec.POS.Weight == 0 {
			rec.POS.Weight = toFloat(data["weight"])
		}
		if rec.POS.SKU == "" {
			return nil, nil, fmt.Errorf("pos record at %s: missing sku", rec.StationID)
		}
	case core.SourceRFID:
		rec.RFID = &core.RFIDPayload{
			EPC:        toString(data["epc"]),
			SKU:        toString(data["sku"]),
			CustomerID: toString(data["customer_id"]),
			Location:   toString(data["location"]),
		}
	case core.SourceQueue:
		rec.Queue = &core.QueuePayload{
			CustomerCount:    int(toFloat(data["customer_count"])),
			AverageDwellTime: toFloat(data["average_dwell_time"]),
		}
	case core.SourceRecognition:
		rec.Recognition = &core.RecognitionPayload{
			SKU:        toString(data["predicted_product"]),
			CustomerID: toString(data["customer_id"]),
			Accuracy:   toFloat(data["accuracy"]),
		}
		if rec.Recognition.SKU == "" {
			rec.Recognition.SKU = toString(data["sku"])
		}
	}

	return rec, nil, nil
}

// routeDataset maps a feed dataset tag to a source kind. Matching is
// case-insensitive and substring-based, following the upstream feed's loose
// naming ("POS_Transactions", "RFID_data", "Queue_monitor", ...).
func routeDataset(dataset string) (core.SourceKind, bool) {
	d := strings.ToLower(dataset)
	switch {
	case strings.Contains(d, "rfid"):
		return core.SourceRFID, true
	case strings.Contains(d, "pos"), strings.Contains(d, "transaction"):
		return core.SourcePOS, true
	case strings.Contains(d, "recognition"):
		return core.SourceRecognition, true
	case strings.Contains(d, "queue"):
		return core.SourceQueue, true
	case strings.Contains(d, "inventory"):
		return core.SourceInventory, true
	default:
		return "", false
	}
}

// parseTimestamp accepts RFC3339 with or without zone, the formats the feed
// actually emits.
func parseTimestamp(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05"} {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

func toString(v interface{}) string {
	s, _ := v.(string)
	return s
}

func toFloat(v interface{}) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case json.Number:
		f, _ := n.Float64()
		return f
	default:
		return 0
	}
}
