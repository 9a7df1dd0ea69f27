package detect

import (
	"fmt"
	"sort"

	"sentinel/config"
	"sentinel/core"
	"sentinel/risk"
)

// coordinationDetector looks for fraud spread across stations: transactions
// bucketed into fixed time windows, scored on high-value concentration,
// synchronized errors and limited customer overlap across simultaneously
// active stations.
type coordinationDetector struct {
	cfg config.DetectorThresholds
}

// NewCoordinationDetector builds the multi-station coordination rule.
func NewCoordinationDetector(cfg config.DetectorThresholds) Detector {
	return &coordinationDetector{cfg: cfg}
}

func (d *coordinationDetector) Name() string { return "coordinated_activity" }

type coordinationScore struct {
	indicators []string
	overall    float64
	totalValue float64
}

func (d *coordinationDetector) Detect(ctx *Context) ([]*core.Alert, []risk.Delta, error) {
	windowSeconds := int64(d.cfg.CoordinationWindow.Seconds())
	if windowSeconds <= 0 {
		return nil, nil, nil
	}

	buckets := make(map[int64]map[string][]*core.SensorRecord)
	for _, rec := range ctx.POS {
		if rec.POS == nil || !rec.HasTimestamp() || rec.StationID == "" {
			continue
		}
		bucket := rec.Timestamp.Unix() / windowSeconds
		stations := buckets[bucket]
		if stations == nil {
			stations = make(map[string][]*core.SensorRecord)
			buckets[bucket] = stations
		}
		stations[rec.StationID] = append(stations[rec.StationID], rec)
	}

	bucketKeys := make([]int64, 0, len(buckets))
	for bucket := range buckets {
		bucketKeys = append(bucketKeys, bucket)
	}
	sort.Slice(bucketKeys, func(i, j int) bool { return bucketKeys[i] < bucketKeys[j] })

	var alerts []*core.Alert
	for _, bucket := range bucketKeys {
		stations := buckets[bucket]
		if len(stations) < d.cfg.CoordinationStations {
			continue
		}
		score := d.score(stations)
		if score.overall <= d.cfg.CoordinationThreshold {
			continue
		}

		involved := make([]string, 0, len(stations))
		for stationID := range stations {
			involved = append(involved, stationID)
		}
		sort.Strings(involved)

		alert := ctx.NewAlert(core.KindCoordinatedActivity, core.SeverityCritical)
		alert.Confidence = 0.9
		alert.Evidence["time_window_start"] = bucket * windowSeconds
		alert.Evidence["stations_involved"] = involved
		alert.Evidence["coordination_indicators"] = score.indicators
		alert.Evidence["overall_coordination_score"] = score.overall
		alert.Evidence["total_value_at_risk"] = score.totalValue
		alerts = append(alerts, alert)
	}
	return alerts, nil, nil
}

func (d *coordinationDetector) score(stations map[string][]*core.SensorRecord) coordinationScore {
	var score coordinationScore

	highValueCount := 0
	errorCount := 0
	customers := make(map[string]bool)

	stationIDs := make([]string, 0, len(stations))
	for stationID := range stations {
		stationIDs = append(stationIDs, stationID)
	}
	sort.Strings(stationIDs)

	for _, stationID := range stationIDs {
		stationValue := 0.0
		for _, rec := range stations[stationID] {
			stationValue += rec.POS.Price
			if rec.POS.Price > 500 {
				highValueCount++
			}
			if rec.IsError() {
				errorCount++
			}
			if customerID := rec.POS.CustomerID; customerID != "" {
				customers[customerID] = true
			}
		}
		score.totalValue += stationValue
		if stationValue > 2000 {
			score.indicators = append(score.indicators, fmt.Sprintf("high_value_concentration_%s", stationID))
		}
	}

	if highValueCount >= 5 {
		score.indicators = append(score.indicators, "synchronized_high_value_transactions")
	}
	if errorCount >= 3 {
		score.indicators = append(score.indicators, "synchronized_system_errors")
	}
	if len(customers) < len(stations)*2 {
		score.indicators = append(score.indicators, "limited_customer_overlap")
	}

	base := float64(len(score.indicators)) * 0.25
	valueFactor := clamp01(score.totalValue / 10000)
	score.overall = clamp01(base + valueFactor)
	return score
}
