package detect

import (
	"math"

	"sentinel/config"
	"sentinel/core"
	"sentinel/risk"
)

// healthDetector watches per-station transaction flow for outages and error
// bursts, and surfaces ingestion feed degradation reported by the feed
// client through the same alert pipeline.
type healthDetector struct {
	cfg config.DetectorThresholds
}

// NewHealthDetector builds the station health rule.
func NewHealthDetector(cfg config.DetectorThresholds) Detector {
	return &healthDetector{cfg: cfg}
}

func (d *healthDetector) Name() string { return "station_health" }

type stationHealth struct {
	lastSeen     int64 // unix seconds of latest transaction
	transactions int
	errors       int
}

func (d *healthDetector) Detect(ctx *Context) ([]*core.Alert, []risk.Delta, error) {
	health := make(map[string]*stationHealth)
	for _, rec := range ctx.POS {
		if rec.StationID == "" {
			continue
		}
		h := health[rec.StationID]
		if h == nil {
			h = &stationHealth{}
			health[rec.StationID] = h
		}
		h.transactions++
		if rec.IsError() {
			h.errors++
		}
		if rec.HasTimestamp() && rec.Timestamp.Unix() > h.lastSeen {
			h.lastSeen = rec.Timestamp.Unix()
		}
	}

	var alerts []*core.Alert
	for stationID, h := range health {
		if h.lastSeen == 0 {
			continue
		}
		downtime := ctx.Now.Unix() - h.lastSeen
		if downtime > int64(d.cfg.OutageTimeout.Seconds()) {
			severity := core.SeverityHigh
			if downtime > 2*int64(d.cfg.OutageTimeout.Seconds()) {
				severity = core.SeverityCritical
			}
			alert := ctx.NewAlert(core.KindStationOutage, severity)
			alert.StationID = stationID
			alert.Confidence = 0.9
			alert.Evidence["downtime_seconds"] = downtime
			alert.Evidence["estimated_loss"] = d.downtimeImpact(stationID, float64(downtime))
			alerts = append(alerts, alert)
			continue
		}

		errorRate := float64(h.errors) / math.Max(1, float64(h.transactions))
		if errorRate > d.cfg.ErrorRateThreshold {
			alert := ctx.NewAlert(core.KindStationDegraded, core.SeverityMedium)
			alert.StationID = stationID
			alert.Confidence = 0.9
			alert.Evidence["error_rate"] = errorRate
			alert.Evidence["transaction_count"] = h.transactions
			alert.Evidence["error_count"] = h.errors
			alerts = append(alerts, alert)
		}
	}

	if ctx.Feed.Degraded {
		alert := ctx.NewAlert(core.KindIngestionDegraded, core.SeverityHigh)
		alert.Confidence = 1.0
		alert.Evidence["consecutive_failures"] = ctx.Feed.ConsecutiveFailures
		if ctx.Feed.LastError != "" {
			alert.Evidence["last_error"] = ctx.Feed.LastError
		}
		if !ctx.Feed.LastRecordAt.IsZero() {
			alert.Evidence["last_record_at"] = ctx.Feed.LastRecordAt
		}
		alerts = append(alerts, alert)
	}

	return alerts, nil, nil
}

// downtimeImpact estimates lost revenue while a station is down. Staffed
// lanes turn over faster than self-checkout.
func (d *healthDetector) downtimeImpact(stationID string, downtimeSeconds float64) float64 {
	perMinute := 3.0
	if isSelfCheckout(stationID) {
		perMinute = 2.0
	}
	minutes := downtimeSeconds / 60
	return math.Round(minutes*perMinute*d.cfg.AvgTransactionValue*100) / 100
}
