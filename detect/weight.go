package detect

import (
	"math"
	"strings"

	"sentinel/catalog"
	"sentinel/config"
	"sentinel/core"
	"sentinel/risk"
)

// weightDetector compares the scale reading of each self-checkout sale with
// the catalog weight. The tolerance adapts to the product: variable-weight
// categories (produce, bakery, deli) legitimately deviate more than packaged
// goods.
type weightDetector struct {
	cfg config.DetectorThresholds
}

// NewWeightDetector builds the weight discrepancy rule.
func NewWeightDetector(cfg config.DetectorThresholds) Detector {
	return &weightDetector{cfg: cfg}
}

func (d *weightDetector) Name() string { return "weight_discrepancy" }

var variableWeightCategories = map[string]bool{
	"produce": true,
	"bakery":  true,
	"deli":    true,
}

func (d *weightDetector) tolerance(product catalog.Product) float64 {
	if variableWeightCategories[strings.ToLower(product.Category)] {
		return d.cfg.WeightToleranceVariable
	}
	name := strings.ToLower(product.Name)
	if strings.Contains(name, "package") || strings.Contains(name, "bulk") {
		return d.cfg.WeightTolerancePackaged
	}
	return d.cfg.WeightTolerance
}

func (d *weightDetector) Detect(ctx *Context) ([]*core.Alert, []risk.Delta, error) {
	var alerts []*core.Alert
	var deltas []risk.Delta
	for _, rec := range ctx.POS {
		if rec.POS == nil || !isSelfCheckout(rec.StationID) {
			continue
		}
		product, ok := ctx.Catalog.Product(rec.POS.SKU)
		if !ok || product.Weight <= 0 {
			continue
		}

		relDev := math.Abs(rec.POS.Weight-product.Weight) / product.Weight
		tol := d.tolerance(product)
		// Boundary equality is within tolerance.
		if relDev <= tol {
			continue
		}

		severity := core.SeverityMedium
		confidence := 0.6
		if relDev > 0.3 {
			severity = core.SeverityHigh
			confidence = 0.9
		}

		alert := ctx.NewAlert(core.KindWeightDiscrepancy, severity)
		alert.StationID = rec.StationID
		alert.CustomerID = rec.POS.CustomerID
		alert.Confidence = confidence
		alert.Evidence["sku"] = rec.POS.SKU
		alert.Evidence["product_name"] = product.Name
		alert.Evidence["product_category"] = product.Category
		alert.Evidence["expected_weight"] = product.Weight
		alert.Evidence["actual_weight"] = rec.POS.Weight
		alert.Evidence["variance_percentage"] = relDev * 100
		alert.Evidence["severity_score"] = math.Min(1, relDev+product.Price/1000)
		alert.Evidence["potential_fraud"] = relDev > 0.5
		alerts = append(alerts, alert)

		if rec.POS.CustomerID != "" {
			deltas = append(deltas, risk.Delta{
				CustomerID: rec.POS.CustomerID,
				Score:      math.Min(0.3, relDev),
			})
		}
	}
	return alerts, deltas, nil
}
