package detect

import (
	"sort"

	"sentinel/config"
	"sentinel/core"
	"sentinel/risk"
)

// inventoryDetector reconciles sales against RFID detections and stock
// levels per SKU. More tag reads than sales suggests items leaving without
// being rung up; a negative expected remainder suggests unrecorded loss
// before the window started.
type inventoryDetector struct {
	cfg config.DetectorThresholds
}

// NewInventoryDetector builds the inventory reconciliation rule.
func NewInventoryDetector(cfg config.DetectorThresholds) Detector {
	return &inventoryDetector{cfg: cfg}
}

func (d *inventoryDetector) Name() string { return "inventory_discrepancy" }

type skuActivity struct {
	sales      int
	revenue    float64
	detections int
}

func (d *inventoryDetector) Detect(ctx *Context) ([]*core.Alert, []risk.Delta, error) {
	activity := make(map[string]*skuActivity)
	track := func(sku string) *skuActivity {
		a := activity[sku]
		if a == nil {
			a = &skuActivity{}
			activity[sku] = a
		}
		return a
	}

	for _, rec := range ctx.POS {
		if rec.POS != nil && rec.POS.SKU != "" {
			a := track(rec.POS.SKU)
			a.sales++
			a.revenue += rec.POS.Price
		}
	}
	for _, rec := range ctx.RFID {
		if rec.RFID != nil && rec.RFID.SKU != "" {
			track(rec.RFID.SKU).detections++
		}
	}

	skus := make([]string, 0, len(activity))
	for sku := range activity {
		skus = append(skus, sku)
	}
	sort.Strings(skus)

	var alerts []*core.Alert
	for _, sku := range skus {
		a := activity[sku]
		product, ok := ctx.Catalog.Product(sku)
		if !ok {
			continue
		}

		initial := product.Quantity
		if snapshot, ok := ctx.Inventory[sku]; ok {
			initial = snapshot
		}
		expectedRemaining := initial - a.sales

		var indicators []string
		score := 0.0
		if a.detections > a.sales+d.cfg.InventoryMargin {
			indicators = append(indicators, "excess_rfid_detections")
			score += 0.4
		}
		if product.Price > 500 && a.sales > 5 {
			indicators = append(indicators, "high_value_volume")
			score += 0.3
		}
		if expectedRemaining < 0 {
			indicators = append(indicators, "negative_inventory")
			score += 0.5
		}
		if len(indicators) == 0 {
			continue
		}

		severity := core.SeverityMedium
		if score > 0.8 {
			severity = core.SeverityHigh
		}

		excess := a.detections - a.sales
		if excess < 0 {
			excess = 0
		}

		alert := ctx.NewAlert(core.KindInventoryDiscrepancy, severity)
		alert.Confidence = 0.9
		alert.Evidence["sku"] = sku
		alert.Evidence["product_name"] = product.Name
		alert.Evidence["initial_inventory"] = initial
		alert.Evidence["sales_recorded"] = a.sales
		alert.Evidence["expected_remaining"] = expectedRemaining
		alert.Evidence["rfid_detections"] = a.detections
		alert.Evidence["total_revenue"] = a.revenue
		alert.Evidence["anomaly_indicators"] = indicators
		alert.Evidence["risk_score"] = score
		alert.Evidence["potential_theft_loss"] = float64(excess) * product.Price
		alerts = append(alerts, alert)
	}
	return alerts, nil, nil
}
