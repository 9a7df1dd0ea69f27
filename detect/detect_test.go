package detect

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"sentinel/catalog"
	"sentinel/config"
	"sentinel/core"
	"sentinel/risk"
)

// baseTime anchors every scenario at a fixed, DST-free instant.
var baseTime = time.Date(2025, 8, 13, 12, 0, 0, 0, time.UTC)

const testProductsCSV = `SKU,product_name,category,price,weight,quantity
PRD_A_01,Premium Coffee 500g,Beverages,2500,500,50
PRD_A_02,Basic Instant Coffee,Beverages,120,200,80
PRD_E_01,Laptop Charger,Electronics,900,300,20
PRD_P_01,Bananas,produce,90,1000,100
PRD_S_01,Scented Candle,Household,650,150,40
`

const testCustomersCSV = `Customer_ID,Name,Age,Address,TEL
C001,Nimal Perera,34,12 Galle Rd,0771234567
C002,Kumari Silva,28,5 Temple Ln,0719876543
C003,Ruwan Fernando,45,88 Lake View,0723456789
`

func testCatalog(t *testing.T) *catalog.Store {
	t.Helper()
	dir := t.TempDir()
	productsPath := filepath.Join(dir, "products.csv")
	customersPath := filepath.Join(dir, "customers.csv")
	require.NoError(t, os.WriteFile(productsPath, []byte(testProductsCSV), 0644))
	require.NoError(t, os.WriteFile(customersPath, []byte(testCustomersCSV), 0644))

	store := catalog.NewStore(zap.NewNop().Sugar())
	require.NoError(t, store.Load(productsPath, customersPath))
	return store
}

func testThresholds() config.DetectorThresholds {
	return config.DetectorThresholds{
		Preset:                  "standard",
		ScanAvoidanceConfidence: 0.75,
		ProductValueNorm:        500,
		PriceGapAbs:             200,
		PriceGapRatio:           2.0,
		CategoryGapAbs:          100,
		WeightTolerance:         0.15,
		WeightToleranceVariable: 0.25,
		WeightTolerancePackaged: 0.20,
		OutageTimeout:           10 * time.Minute,
		ErrorRateThreshold:      0.3,
		AvgTransactionValue:     250,
		QueueLengthAlert:        4,
		StaffingQueueLength:     6,
		WaitTimeAlert:           400 * time.Second,
		PeakMargin:              3,
		GlobalQueueThreshold:    20,
		TheftRiskThreshold:      0.7,
		OverallRiskCutoff:       0.8,
		InventoryMargin:         2,
		CoordinationWindow:      5 * time.Minute,
		CoordinationStations:    3,
		CoordinationThreshold:   0.75,
		EfficiencyFloor:         60,
		QueuePressureThreshold:  500,
		IdleThreshold:           10 * time.Minute,
		StationPowerKW:          0.2,
		EnergyCostPerKWH:        20,
	}
}

func testContext(t *testing.T) *Context {
	t.Helper()
	return &Context{
		Now:        baseTime,
		Catalog:    testCatalog(t),
		Risk:       risk.NewStore(),
		Thresholds: testThresholds(),
		JoinWindow: 45 * time.Second,
		seq:        core.NewAlertSequence(),
	}
}

func posRecord(station, customer, sku string, price, weight float64, ts time.Time) *core.SensorRecord {
	rec := core.NewSensorRecord(core.SourcePOS, station)
	rec.Timestamp = ts
	rec.Status = core.StatusActive
	rec.POS = &core.POSPayload{
		CustomerID: customer,
		SKU:        sku,
		Price:      price,
		Weight:     weight,
	}
	return rec
}

func rfidRecord(station, customer, sku, location string, ts time.Time) *core.SensorRecord {
	rec := core.NewSensorRecord(core.SourceRFID, station)
	rec.Timestamp = ts
	rec.Status = core.StatusActive
	rec.RFID = &core.RFIDPayload{
		SKU:        sku,
		CustomerID: customer,
		Location:   location,
	}
	return rec
}

func queueRecord(station string, count int, dwell float64, ts time.Time) *core.SensorRecord {
	rec := core.NewSensorRecord(core.SourceQueue, station)
	rec.Timestamp = ts
	rec.Status = core.StatusActive
	rec.Queue = &core.QueuePayload{
		CustomerCount:    count,
		AverageDwellTime: dwell,
	}
	return rec
}

func recognitionRecord(station, customer, sku string, ts time.Time) *core.SensorRecord {
	rec := core.NewSensorRecord(core.SourceRecognition, station)
	rec.Timestamp = ts
	rec.Status = core.StatusActive
	rec.Recognition = &core.RecognitionPayload{
		SKU:        sku,
		CustomerID: customer,
		Accuracy:   0.95,
	}
	return rec
}

// kindsOf collects the alert kinds in emission order.
func kindsOf(alerts []*core.Alert) []core.AlertKind {
	kinds := make([]core.AlertKind, 0, len(alerts))
	for _, a := range alerts {
		kinds = append(kinds, a.Kind)
	}
	return kinds
}
