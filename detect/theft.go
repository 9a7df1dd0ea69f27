package detect

import (
	"sort"

	"sentinel/config"
	"sentinel/core"
	"sentinel/risk"
)

// theftRiskDetector escalates customers whose accumulated risk crossed the
// profile threshold and whose recent activity shows a compounding pattern:
// transaction velocity, value concentration, station hopping and anomaly
// frequency, combined as a weighted score.
type theftRiskDetector struct {
	cfg config.DetectorThresholds
}

// NewTheftRiskDetector builds the theft risk scoring rule.
func NewTheftRiskDetector(cfg config.DetectorThresholds) Detector {
	return &theftRiskDetector{cfg: cfg}
}

func (d *theftRiskDetector) Name() string { return "theft_risk" }

type riskFactors struct {
	velocity  float64
	value     float64
	hopping   float64
	anomalies float64
	overall   float64
}

func (d *theftRiskDetector) Detect(ctx *Context) ([]*core.Alert, []risk.Delta, error) {
	profiles := ctx.Risk.HighRisk(d.cfg.TheftRiskThreshold)
	if len(profiles) == 0 {
		return nil, nil, nil
	}
	sort.Slice(profiles, func(i, j int) bool {
		return profiles[i].CustomerID < profiles[j].CustomerID
	})

	var alerts []*core.Alert
	for _, profile := range profiles {
		var recent []*core.SensorRecord
		for _, rec := range ctx.POS {
			if rec.POS != nil && rec.POS.CustomerID == profile.CustomerID {
				recent = append(recent, rec)
			}
		}
		if len(recent) == 0 {
			continue
		}

		factors := d.scoreFactors(profile, recent)
		if factors.overall <= d.cfg.OverallRiskCutoff {
			continue
		}

		stations := make(map[string]bool)
		totalValue := 0.0
		for _, rec := range recent {
			stations[rec.StationID] = true
			totalValue += rec.POS.Price
		}

		alert := ctx.NewAlert(core.KindTheftRisk, core.SeverityCritical)
		alert.CustomerID = profile.CustomerID
		alert.Confidence = 0.9
		alert.Evidence["risk_score"] = profile.RiskScore
		alert.Evidence["overall_risk"] = factors.overall
		alert.Evidence["risk_factors"] = map[string]interface{}{
			"transaction_velocity": factors.velocity,
			"value_concentration":  factors.value,
			"station_hopping":      factors.hopping,
			"anomaly_frequency":    factors.anomalies,
		}
		alert.Evidence["recent_transactions"] = len(recent)
		alert.Evidence["stations_involved"] = len(stations)
		alert.Evidence["total_value_at_risk"] = totalValue
		alerts = append(alerts, alert)
	}
	return alerts, nil, nil
}

func (d *theftRiskDetector) scoreFactors(profile *risk.Profile, recent []*core.SensorRecord) riskFactors {
	var f riskFactors

	if len(recent) > 10 {
		f.velocity = clamp01(float64(len(recent)) / 15)
	}

	totalValue := 0.0
	stations := make(map[string]bool)
	for _, rec := range recent {
		totalValue += rec.POS.Price
		stations[rec.StationID] = true
	}
	if totalValue > 2000 {
		f.value = clamp01(totalValue / 5000)
	}
	if len(stations) > 2 {
		f.hopping = clamp01(float64(len(stations)) / 5)
	}
	if profile.AnomalyCount > 0 {
		f.anomalies = clamp01(float64(profile.AnomalyCount) / 10)
	}

	f.overall = 0.25*f.velocity + 0.30*f.value + 0.20*f.hopping + 0.25*f.anomalies
	return f
}
