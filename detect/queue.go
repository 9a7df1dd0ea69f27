package detect

import (
	"fmt"
	"sort"
	"time"

	"sentinel/config"
	"sentinel/core"
	"sentinel/risk"
)

const (
	// queueHistoryLimit bounds the per (station, hour) sample history used
	// for peak prediction.
	queueHistoryLimit = 50
	// queueSamplesNeeded is the minimum history before the percentile
	// predictor replaces the hour-of-day fallback.
	queueSamplesNeeded = 3
)

// defaultPeakByHour is the fallback peak prediction when a station has no
// usable history for the current hour.
var defaultPeakByHour = map[int]int{
	9: 6, 10: 8, 11: 7, 12: 9, 13: 10, 17: 8, 18: 9, 19: 7,
}

// queueDetector alerts on current congestion and forecasts near-term peaks
// from per (station, hour) history. The detector owns its history; samples
// are deduplicated by record ID because consecutive snapshots overlap.
type queueDetector struct {
	cfg     config.DetectorThresholds
	history map[string][]int
	seen    map[string]bool
}

// NewQueueDetector builds the queue congestion and forecast rule.
func NewQueueDetector(cfg config.DetectorThresholds) Detector {
	return &queueDetector{
		cfg:     cfg,
		history: make(map[string][]int),
		seen:    make(map[string]bool),
	}
}

func (d *queueDetector) Name() string { return "queue_congestion" }

func (d *queueDetector) Detect(ctx *Context) ([]*core.Alert, []risk.Delta, error) {
	latest := make(map[string]*core.SensorRecord)
	for _, rec := range ctx.Queue {
		if rec.Queue == nil || rec.StationID == "" {
			continue
		}
		d.observe(rec)
		// Snapshot is oldest-first, so the last record per station wins.
		latest[rec.StationID] = rec
	}
	if len(latest) == 0 {
		return nil, nil, nil
	}

	var alerts []*core.Alert
	totalWaiting := 0
	for _, stationID := range sortedStations(latest) {
		rec := latest[stationID]
		length := rec.Queue.CustomerCount
		waitTime := rec.Queue.AverageDwellTime
		totalWaiting += length

		predictedPeak := d.predictPeak(stationID, ctx.Now.Hour())

		if length > d.cfg.QueueLengthAlert {
			// Severity tiers step two customers above the configured
			// alert length.
			severity := core.SeverityMedium
			switch {
			case length > d.cfg.QueueLengthAlert+4:
				severity = core.SeverityCritical
			case length > d.cfg.QueueLengthAlert+2:
				severity = core.SeverityHigh
			}
			alert := ctx.NewAlert(core.KindLongQueue, severity)
			alert.StationID = stationID
			alert.Confidence = 0.9
			alert.Evidence["current_queue_length"] = length
			alert.Evidence["average_wait_time"] = waitTime
			alert.Evidence["predicted_peak_length"] = predictedPeak
			alert.Evidence["customer_satisfaction_impact"] = satisfactionImpact(waitTime)
			alerts = append(alerts, alert)
		}

		if predictedPeak > length+d.cfg.PeakMargin {
			alert := ctx.NewAlert(core.KindPredictedCongestion, core.SeverityMedium)
			alert.StationID = stationID
			alert.Confidence = 0.6
			alert.Evidence["current_length"] = length
			alert.Evidence["predicted_peak"] = predictedPeak
			alert.Evidence["estimated_peak_time"] = ctx.Now.Add(10 * time.Minute)
			alerts = append(alerts, alert)
		}
	}

	if totalWaiting > d.cfg.GlobalQueueThreshold {
		alert := ctx.NewAlert(core.KindSystemWideCongestion, core.SeverityHigh)
		alert.Confidence = 0.9
		alert.Evidence["total_customers_waiting"] = totalWaiting
		alert.Evidence["affected_stations"] = len(latest)
		alerts = append(alerts, alert)
	}

	return alerts, nil, nil
}

// observe records a queue sample into the (station, hour) history once.
func (d *queueDetector) observe(rec *core.SensorRecord) {
	if !rec.HasTimestamp() || d.seen[rec.RecordID] {
		return
	}
	d.seen[rec.RecordID] = true
	if len(d.seen) > 8*queueHistoryLimit {
		d.seen = map[string]bool{rec.RecordID: true}
	}

	key := historyKey(rec.StationID, rec.Timestamp.Hour())
	samples := append(d.history[key], rec.Queue.CustomerCount)
	if len(samples) > queueHistoryLimit {
		samples = samples[len(samples)-queueHistoryLimit:]
	}
	d.history[key] = samples
}

// predictPeak returns the 90th percentile of history for the station and
// hour, or the hour-of-day default when history is thin.
func (d *queueDetector) predictPeak(stationID string, hour int) int {
	samples := d.history[historyKey(stationID, hour)]
	if len(samples) >= queueSamplesNeeded {
		return percentile90(samples)
	}
	if peak, ok := defaultPeakByHour[hour]; ok {
		return peak
	}
	return 5
}

func historyKey(stationID string, hour int) string {
	return fmt.Sprintf("%s_%d", stationID, hour)
}

// percentile90 computes the 90th percentile with linear interpolation over
// the sorted samples.
func percentile90(samples []int) int {
	sorted := make([]int, len(samples))
	copy(sorted, samples)
	sort.Ints(sorted)

	rank := 0.9 * float64(len(sorted)-1)
	lo := int(rank)
	if lo >= len(sorted)-1 {
		return sorted[len(sorted)-1]
	}
	frac := rank - float64(lo)
	return int(float64(sorted[lo]) + frac*float64(sorted[lo+1]-sorted[lo]))
}

func satisfactionImpact(waitSeconds float64) string {
	switch {
	case waitSeconds > 600:
		return "severe_negative"
	case waitSeconds > 300:
		return "moderate_negative"
	case waitSeconds > 180:
		return "minor_negative"
	default:
		return "acceptable"
	}
}

func sortedStations(latest map[string]*core.SensorRecord) []string {
	stations := make([]string, 0, len(latest))
	for stationID := range latest {
		stations = append(stations, stationID)
	}
	sort.Strings(stations)
	return stations
}
