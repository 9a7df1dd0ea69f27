package detect

import (
	"math"
	"sort"
	"time"

	"sentinel/config"
	"sentinel/core"
	"sentinel/risk"
)

// idleStationDetector finds stations burning power with nothing to do:
// low transaction volume, repeated empty-queue samples, and no activity for
// longer than the idle threshold.
type idleStationDetector struct {
	cfg config.DetectorThresholds
}

// NewIdleStationDetector builds the energy conservation rule.
func NewIdleStationDetector(cfg config.DetectorThresholds) Detector {
	return &idleStationDetector{cfg: cfg}
}

func (d *idleStationDetector) Name() string { return "idle_station" }

type stationActivity struct {
	transactions int
	idlePeriods  int
	lastActivity time.Time
}

func (d *idleStationDetector) Detect(ctx *Context) ([]*core.Alert, []risk.Delta, error) {
	activity := make(map[string]*stationActivity)
	get := func(stationID string) *stationActivity {
		a := activity[stationID]
		if a == nil {
			a = &stationActivity{}
			activity[stationID] = a
		}
		return a
	}

	for _, rec := range ctx.POS {
		if rec.StationID == "" {
			continue
		}
		a := get(rec.StationID)
		a.transactions++
		if rec.HasTimestamp() && rec.Timestamp.After(a.lastActivity) {
			a.lastActivity = rec.Timestamp
		}
	}
	for _, rec := range ctx.Queue {
		if rec.Queue == nil || rec.StationID == "" {
			continue
		}
		if rec.Queue.CustomerCount == 0 {
			get(rec.StationID).idlePeriods++
		}
	}
	if len(activity) == 0 {
		return nil, nil, nil
	}

	stations := make([]string, 0, len(activity))
	for stationID := range activity {
		stations = append(stations, stationID)
	}
	sort.Strings(stations)

	// Utilization compares a station's transaction count with an even
	// share of the POS snapshot.
	expectedShare := float64(len(ctx.POS)) / float64(len(activity))
	if expectedShare < 1 {
		expectedShare = 1
	}

	var alerts []*core.Alert
	var underutilized []string
	for _, stationID := range stations {
		a := activity[stationID]
		utilization := float64(a.transactions) / expectedShare
		if utilization >= 0.2 || a.idlePeriods <= 10 {
			continue
		}
		if a.lastActivity.IsZero() {
			continue
		}
		idleFor := ctx.Now.Sub(a.lastActivity)
		if idleFor <= d.cfg.IdleThreshold {
			continue
		}
		underutilized = append(underutilized, stationID)

		alert := ctx.NewAlert(core.KindEnergyOpportunity, core.SeverityLow)
		alert.StationID = stationID
		alert.Confidence = 0.6
		alert.Evidence["idle_duration_minutes"] = idleFor.Minutes()
		alert.Evidence["utilization_score"] = utilization
		alert.Evidence["estimated_energy_savings"] = d.energySavings(idleFor)
		alerts = append(alerts, alert)
	}

	if len(underutilized) >= 2 {
		totalSavings := 0.0
		for range underutilized {
			totalSavings += d.energySavings(10 * time.Minute)
		}
		alert := ctx.NewAlert(core.KindEnergyOptimization, core.SeverityLow)
		alert.Confidence = 0.9
		alert.Evidence["underutilized_stations"] = underutilized
		alert.Evidence["potential_energy_savings"] = totalSavings
		alerts = append(alerts, alert)
	}

	return alerts, nil, nil
}

// energySavings prices the electricity a powered-down station would not
// draw over the idle span.
func (d *idleStationDetector) energySavings(idle time.Duration) float64 {
	savings := d.cfg.StationPowerKW * idle.Hours() * d.cfg.EnergyCostPerKWH
	return math.Round(savings*100) / 100
}
