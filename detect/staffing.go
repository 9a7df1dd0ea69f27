package detect

import (
	"sort"

	"sentinel/config"
	"sentinel/core"
	"sentinel/risk"
)

// staffingDetector turns queue and transaction metrics into workforce
// signals: acute per-station needs, below-floor efficiency, and a
// system-wide pressure score summed over all stations.
type staffingDetector struct {
	cfg config.DetectorThresholds
}

// NewStaffingDetector builds the staffing and efficiency rule.
func NewStaffingDetector(cfg config.DetectorThresholds) Detector {
	return &staffingDetector{cfg: cfg}
}

func (d *staffingDetector) Name() string { return "staffing" }

type stationMetrics struct {
	queueLength  int
	waitTime     float64
	queueSamples []int
	transactions int
	errors       int
}

func (d *staffingDetector) Detect(ctx *Context) ([]*core.Alert, []risk.Delta, error) {
	metrics := make(map[string]*stationMetrics)
	get := func(stationID string) *stationMetrics {
		m := metrics[stationID]
		if m == nil {
			m = &stationMetrics{}
			metrics[stationID] = m
		}
		return m
	}

	for _, rec := range ctx.Queue {
		if rec.Queue == nil || rec.StationID == "" {
			continue
		}
		m := get(rec.StationID)
		if rec.Queue.CustomerCount > m.queueLength {
			m.queueLength = rec.Queue.CustomerCount
		}
		if rec.Queue.AverageDwellTime > m.waitTime {
			m.waitTime = rec.Queue.AverageDwellTime
		}
		m.queueSamples = append(m.queueSamples, rec.Queue.CustomerCount)
	}
	if len(metrics) == 0 {
		return nil, nil, nil
	}
	for _, rec := range ctx.POS {
		if m, ok := metrics[rec.StationID]; ok {
			m.transactions++
			if rec.IsError() {
				m.errors++
			}
		}
	}

	stations := make([]string, 0, len(metrics))
	for stationID := range metrics {
		stations = append(stations, stationID)
	}
	sort.Strings(stations)

	var alerts []*core.Alert
	totalPressure := 0.0
	congested := 0
	for _, stationID := range stations {
		m := metrics[stationID]
		totalPressure += float64(m.queueLength) * m.waitTime
		if m.queueLength > d.cfg.QueueLengthAlert {
			congested++
		}

		waitAlert := d.cfg.WaitTimeAlert.Seconds()
		if m.queueLength > d.cfg.StaffingQueueLength && m.waitTime > waitAlert {
			priority := "high"
			if m.waitTime > waitAlert*1.5 {
				priority = "critical"
			}
			alert := ctx.NewAlert(core.KindStaffingNeed, core.SeverityHigh)
			alert.StationID = stationID
			alert.Confidence = 0.9
			alert.Evidence["staff_type"] = "Cashier"
			alert.Evidence["current_queue_length"] = m.queueLength
			alert.Evidence["current_wait_time"] = m.waitTime
			alert.Evidence["priority"] = priority
			alert.Evidence["efficiency_score"] = efficiencyScore(m)
			alerts = append(alerts, alert)
			continue
		}

		if score := efficiencyScore(m); score < d.cfg.EfficiencyFloor {
			alert := ctx.NewAlert(core.KindStationInefficiency, core.SeverityMedium)
			alert.StationID = stationID
			alert.Confidence = 0.6
			alert.Evidence["current_efficiency"] = score
			alert.Evidence["optimization_potential"] = 100 - score
			alerts = append(alerts, alert)
		}
	}

	if totalPressure > d.cfg.QueuePressureThreshold {
		alert := ctx.NewAlert(core.KindStaffingCrisis, core.SeverityCritical)
		alert.Confidence = 0.9
		alert.Evidence["total_queue_pressure"] = totalPressure
		alert.Evidence["affected_stations"] = congested
		alerts = append(alerts, alert)
	}

	return alerts, nil, nil
}

// efficiencyScore rates a station 0-100: errors cost up to 30 points and
// queues past four customers cost 10 points per extra customer on average.
func efficiencyScore(m *stationMetrics) float64 {
	score := 100.0

	transactions := m.transactions
	if transactions < 1 {
		transactions = 1
	}
	score -= float64(m.errors) / float64(transactions) * 30

	if len(m.queueSamples) > 0 {
		sum := 0
		for _, sample := range m.queueSamples {
			sum += sample
		}
		avg := float64(sum) / float64(len(m.queueSamples))
		if avg > 4 {
			score -= (avg - 4) * 10
		}
	}

	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
