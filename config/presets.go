package config

import "time"

// Threshold presets. The source system shipped two differently tuned
// detection engines side by side; neither was marked canonical, so both
// tunings are exposed here and selected by detectors.preset. Any threshold
// set explicitly in config or env wins over the preset value.

type thresholdPreset struct {
	scanAvoidanceConfidence float64
	productValueNorm        float64
	priceGapAbs             float64
	priceGapRatio           float64
	categoryGapAbs          float64
	weightTolerance         float64
	weightToleranceVariable float64
	weightTolerancePackaged float64
	outageTimeout           time.Duration
	errorRateThreshold      float64
	avgTransactionValue     float64
	queueLengthAlert        int
	staffingQueueLength     int
	waitTimeAlert           time.Duration
	peakMargin              int
	globalQueueThreshold    int
	theftRiskThreshold      float64
	overallRiskCutoff       float64
	inventoryMargin         int
	coordinationWindow      time.Duration
	coordinationStations    int
	coordinationThreshold   float64
	efficiencyFloor         float64
	queuePressureThreshold  float64
	idleThreshold           time.Duration
	stationPowerKW          float64
	energyCostPerKWH        float64
}

var presets = map[string]thresholdPreset{
	// standard matches the tuning the system ran with in production trials.
	"standard": {
		scanAvoidanceConfidence: 0.75,
		productValueNorm:        500,
		priceGapAbs:             200,
		priceGapRatio:           2.0,
		categoryGapAbs:          100,
		weightTolerance:         0.15,
		weightToleranceVariable: 0.25,
		weightTolerancePackaged: 0.20,
		outageTimeout:           10 * time.Minute,
		errorRateThreshold:      0.3,
		avgTransactionValue:     250,
		queueLengthAlert:        4,
		staffingQueueLength:     6,
		waitTimeAlert:           400 * time.Second,
		peakMargin:              3,
		globalQueueThreshold:    20,
		theftRiskThreshold:      0.7,
		overallRiskCutoff:       0.8,
		inventoryMargin:         2,
		coordinationWindow:      5 * time.Minute,
		coordinationStations:    3,
		coordinationThreshold:   0.75,
		efficiencyFloor:         60,
		queuePressureThreshold:  500,
		idleThreshold:           10 * time.Minute,
		stationPowerKW:          0.2,
		energyCostPerKWH:        20,
	},
	// strict trades alert volume for earlier warning.
	"strict": {
		scanAvoidanceConfidence: 0.65,
		productValueNorm:        400,
		priceGapAbs:             150,
		priceGapRatio:           1.5,
		categoryGapAbs:          75,
		weightTolerance:         0.10,
		weightToleranceVariable: 0.20,
		weightTolerancePackaged: 0.15,
		outageTimeout:           5 * time.Minute,
		errorRateThreshold:      0.2,
		avgTransactionValue:     250,
		queueLengthAlert:        3,
		staffingQueueLength:     5,
		waitTimeAlert:           3 * time.Minute,
		peakMargin:              2,
		globalQueueThreshold:    15,
		theftRiskThreshold:      0.6,
		overallRiskCutoff:       0.7,
		inventoryMargin:         1,
		coordinationWindow:      5 * time.Minute,
		coordinationStations:    3,
		coordinationThreshold:   0.6,
		efficiencyFloor:         70,
		queuePressureThreshold:  350,
		idleThreshold:           5 * time.Minute,
		stationPowerKW:          0.2,
		energyCostPerKWH:        20,
	},
}

// applyPreset fills zero-valued thresholds from the selected preset.
func (d *DetectorThresholds) applyPreset() {
	name := d.Preset
	if name == "" {
		name = "standard"
		d.Preset = name
	}
	p, ok := presets[name]
	if !ok {
		p = presets["standard"]
	}

	if d.ScanAvoidanceConfidence == 0 {
		d.ScanAvoidanceConfidence = p.scanAvoidanceConfidence
	}
	if d.ProductValueNorm == 0 {
		d.ProductValueNorm = p.productValueNorm
	}
	if d.PriceGapAbs == 0 {
		d.PriceGapAbs = p.priceGapAbs
	}
	if d.PriceGapRatio == 0 {
		d.PriceGapRatio = p.priceGapRatio
	}
	if d.CategoryGapAbs == 0 {
		d.CategoryGapAbs = p.categoryGapAbs
	}
	if d.WeightTolerance == 0 {
		d.WeightTolerance = p.weightTolerance
	}
	if d.WeightToleranceVariable == 0 {
		d.WeightToleranceVariable = p.weightToleranceVariable
	}
	if d.WeightTolerancePackaged == 0 {
		d.WeightTolerancePackaged = p.weightTolerancePackaged
	}
	if d.OutageTimeout == 0 {
		d.OutageTimeout = p.outageTimeout
	}
	if d.ErrorRateThreshold == 0 {
		d.ErrorRateThreshold = p.errorRateThreshold
	}
	if d.AvgTransactionValue == 0 {
		d.AvgTransactionValue = p.avgTransactionValue
	}
	if d.QueueLengthAlert == 0 {
		d.QueueLengthAlert = p.queueLengthAlert
	}
	if d.StaffingQueueLength == 0 {
		d.StaffingQueueLength = p.staffingQueueLength
	}
	if d.WaitTimeAlert == 0 {
		d.WaitTimeAlert = p.waitTimeAlert
	}
	if d.PeakMargin == 0 {
		d.PeakMargin = p.peakMargin
	}
	if d.GlobalQueueThreshold == 0 {
		d.GlobalQueueThreshold = p.globalQueueThreshold
	}
	if d.TheftRiskThreshold == 0 {
		d.TheftRiskThreshold = p.theftRiskThreshold
	}
	if d.OverallRiskCutoff == 0 {
		d.OverallRiskCutoff = p.overallRiskCutoff
	}
	if d.InventoryMargin == 0 {
		d.InventoryMargin = p.inventoryMargin
	}
	if d.CoordinationWindow == 0 {
		d.CoordinationWindow = p.coordinationWindow
	}
	if d.CoordinationStations == 0 {
		d.CoordinationStations = p.coordinationStations
	}
	if d.CoordinationThreshold == 0 {
		d.CoordinationThreshold = p.coordinationThreshold
	}
	if d.EfficiencyFloor == 0 {
		d.EfficiencyFloor = p.efficiencyFloor
	}
	if d.QueuePressureThreshold == 0 {
		d.QueuePressureThreshold = p.queuePressureThreshold
	}
	if d.IdleThreshold == 0 {
		d.IdleThreshold = p.idleThreshold
	}
	if d.StationPowerKW == 0 {
		d.StationPowerKW = p.stationPowerKW
	}
	if d.EnergyCostPerKWH == 0 {
		d.EnergyCostPerKWH = p.energyCostPerKWH
	}
}
