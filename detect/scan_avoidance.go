package detect

import (
	"sentinel/config"
	"sentinel/core"
	"sentinel/risk"
)

// defaultCustomerRisk is assumed for customers with no accumulated history.
const defaultCustomerRisk = 0.3

// scanAvoidanceDetector flags RFID tags seen in a scan area with no matching
// sale. An item entering the scan area should produce a POS transaction for
// the same station, customer and SKU within the join window; when none
// arrives, a multi-factor confidence score decides whether it was avoidance
// or sensor noise.
type scanAvoidanceDetector struct {
	cfg config.DetectorThresholds
}

// NewScanAvoidanceDetector builds the scan avoidance rule.
func NewScanAvoidanceDetector(cfg config.DetectorThresholds) Detector {
	return &scanAvoidanceDetector{cfg: cfg}
}

func (d *scanAvoidanceDetector) Name() string { return "scan_avoidance" }

func (d *scanAvoidanceDetector) Detect(ctx *Context) ([]*core.Alert, []risk.Delta, error) {
	var scanArea []*core.SensorRecord
	for _, rec := range ctx.RFID {
		if rec.RFID == nil || rec.RFID.Location != core.RFIDLocationInScanArea {
			continue
		}
		if rec.SKU() == "" || !rec.HasTimestamp() {
			continue
		}
		scanArea = append(scanArea, rec)
	}
	if len(scanArea) == 0 {
		return nil, nil, nil
	}

	matched := make(map[*core.SensorRecord]bool)
	for _, pair := range Join(scanArea, ctx.POS, StationCustomerSKUKey, StationCustomerSKUKey, ctx.JoinWindow) {
		matched[pair.A] = true
	}

	var alerts []*core.Alert
	var deltas []risk.Delta
	for _, rec := range scanArea {
		if matched[rec] {
			continue
		}
		customerID := rec.CustomerID()
		sku := rec.SKU()
		product, _ := ctx.Catalog.Product(sku)

		valueFactor := clamp01(product.Price / d.cfg.ProductValueNorm)
		riskFactor := defaultCustomerRisk
		if profile := ctx.Risk.Get(customerID); profile.RiskScore > 0 {
			riskFactor = profile.RiskScore
		}
		stationFactor := 0.5
		if isSelfCheckout(rec.StationID) {
			stationFactor = 0.8
		}
		timeFactor := 0.7

		confidence := (valueFactor + riskFactor + stationFactor + timeFactor) / 4
		if confidence < d.cfg.ScanAvoidanceConfidence {
			continue
		}

		severity := core.SeverityMedium
		if confidence > 0.9 {
			severity = core.SeverityHigh
		}

		alert := ctx.NewAlert(core.KindScanAvoidance, severity)
		alert.StationID = rec.StationID
		alert.CustomerID = customerID
		alert.Confidence = confidence
		alert.Evidence["sku"] = sku
		alert.Evidence["product_value"] = product.Price
		alert.Evidence["risk_factors"] = map[string]interface{}{
			"value_factor":   valueFactor,
			"risk_factor":    riskFactor,
			"station_factor": stationFactor,
			"time_factor":    timeFactor,
		}
		alerts = append(alerts, alert)

		deltas = append(deltas, risk.Delta{CustomerID: customerID, Score: 0.2, Anomalies: 1})
	}
	return alerts, deltas, nil
}
