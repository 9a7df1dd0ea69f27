package detect

import (
	"time"

	"sentinel/core"
)

// Pair is one joined record pair from two buffer snapshots.
type Pair struct {
	A *core.SensorRecord
	B *core.SensorRecord
}

// KeyFunc extracts a join key from a record. Returning ok=false excludes the
// record from the join.
type KeyFunc func(*core.SensorRecord) (string, bool)

// Join pairs records across two snapshots where the key functions agree and
// the timestamps fall within window of each other. Records without a usable
// timestamp are skipped. When several candidates from b satisfy the join for
// one record of a, the chronologically nearest wins.
func Join(a, b []*core.SensorRecord, keyA, keyB KeyFunc, window time.Duration) []Pair {
	if len(a) == 0 || len(b) == 0 {
		return nil
	}

	// Index b by key; snapshots are small (bounded buffers), so a simple
	// bucket index beats anything fancier.
	index := make(map[string][]*core.SensorRecord, len(b))
	for _, rec := range b {
		if !rec.HasTimestamp() {
			continue
		}
		key, ok := keyB(rec)
		if !ok {
			continue
		}
		index[key] = append(index[key], rec)
	}

	var pairs []Pair
	for _, rec := range a {
		if !rec.HasTimestamp() {
			continue
		}
		key, ok := keyA(rec)
		if !ok {
			continue
		}

		var best *core.SensorRecord
		var bestGap time.Duration
		for _, candidate := range index[key] {
			gap := rec.Timestamp.Sub(candidate.Timestamp)
			if gap < 0 {
				gap = -gap
			}
			if gap > window {
				continue
			}
			if best == nil || gap < bestGap {
				best = candidate
				bestGap = gap
			}
		}
		if best != nil {
			pairs = append(pairs, Pair{A: rec, B: best})
		}
	}
	return pairs
}

// StationCustomerKey joins on (station, customer).
func StationCustomerKey(rec *core.SensorRecord) (string, bool) {
	customer := rec.CustomerID()
	if rec.StationID == "" || customer == "" {
		return "", false
	}
	return rec.StationID + "|" + customer, true
}

// StationCustomerSKUKey joins on (station, customer, SKU).
func StationCustomerSKUKey(rec *core.SensorRecord) (string, bool) {
	customer := rec.CustomerID()
	sku := rec.SKU()
	if rec.StationID == "" || customer == "" || sku == "" {
		return "", false
	}
	return rec.StationID + "|" + customer + "|" + sku, true
}

// StationSKUKey joins on (station, SKU).
func StationSKUKey(rec *core.SensorRecord) (string, bool) {
	sku := rec.SKU()
	if rec.StationID == "" || sku == "" {
		return "", false
	}
	return rec.StationID + "|" + sku, true
}
