package detect

import (
	"strings"

	"sentinel/config"
	"sentinel/core"
	"sentinel/risk"
)

// barcodeSwitchDetector correlates product recognition hints with the sale
// rung up at the same station for the same customer. Scanning a cheap SKU
// while the camera recognized an expensive one is the classic switch.
type barcodeSwitchDetector struct {
	cfg config.DetectorThresholds
}

// NewBarcodeSwitchDetector builds the barcode switching rule.
func NewBarcodeSwitchDetector(cfg config.DetectorThresholds) Detector {
	return &barcodeSwitchDetector{cfg: cfg}
}

func (d *barcodeSwitchDetector) Name() string { return "barcode_switching" }

func (d *barcodeSwitchDetector) Detect(ctx *Context) ([]*core.Alert, []risk.Delta, error) {
	pairs := Join(ctx.Recognition, ctx.POS, StationCustomerKey, StationCustomerKey, ctx.JoinWindow)

	var alerts []*core.Alert
	var deltas []risk.Delta
	for _, pair := range pairs {
		recognizedSKU := pair.A.SKU()
		scannedSKU := pair.B.SKU()
		if recognizedSKU == "" || scannedSKU == "" || recognizedSKU == scannedSKU {
			continue
		}
		recognized, ok := ctx.Catalog.Product(recognizedSKU)
		if !ok {
			continue
		}
		scanned, ok := ctx.Catalog.Product(scannedSKU)
		if !ok {
			continue
		}

		priceDiff := recognized.Price - scanned.Price
		priceRatio := 0.0
		if scanned.Price > 0 {
			priceRatio = recognized.Price / scanned.Price
		}

		var triggers []string
		if priceDiff > d.cfg.PriceGapAbs && priceRatio > d.cfg.PriceGapRatio {
			triggers = append(triggers, "major_price_gap")
		}
		if recognized.Category != scanned.Category && priceDiff > d.cfg.CategoryGapAbs {
			triggers = append(triggers, "category_price_mismatch")
		}
		if strings.Contains(strings.ToLower(recognized.Name), "premium") &&
			strings.Contains(strings.ToLower(scanned.Name), "basic") {
			triggers = append(triggers, "premium_to_basic_switch")
		}
		if len(triggers) == 0 {
			continue
		}

		riskScore := priceDiff / 1000
		if len(triggers) > 1 {
			riskScore += 0.3
		} else {
			riskScore += 0.1
		}
		riskScore = clamp01(riskScore)

		alert := ctx.NewAlert(core.KindBarcodeSwitching, core.SeverityHigh)
		alert.StationID = pair.A.StationID
		alert.CustomerID = pair.A.CustomerID()
		alert.Confidence = riskScore
		alert.Evidence["recognized_sku"] = recognizedSKU
		alert.Evidence["scanned_sku"] = scannedSKU
		alert.Evidence["recognized_product"] = recognized.Name
		alert.Evidence["scanned_product"] = scanned.Name
		alert.Evidence["price_difference"] = priceDiff
		alert.Evidence["price_ratio"] = priceRatio
		alert.Evidence["detection_triggers"] = triggers
		alert.Evidence["potential_loss"] = priceDiff
		alerts = append(alerts, alert)

		if customerID := pair.A.CustomerID(); customerID != "" {
			deltas = append(deltas, risk.Delta{CustomerID: customerID, Score: riskScore})
		}
	}
	return alerts, deltas, nil
}
