package main

import (
	"math/rand"
	"time"
)

// product is one synthetic catalog entry.
type product struct {
	SKU    string
	Name   string
	Price  float64
	Weight float64
}

var products = []product{
	{"PRD_F_01", "Basic Rice 1kg", 180, 1000},
	{"PRD_F_02", "Premium Basmati Rice 1kg", 650, 1000},
	{"PRD_F_03", "Fresh Bananas", 120, 800},
	{"PRD_F_04", "Wheat Bread Loaf", 90, 450},
	{"PRD_H_01", "Dish Soap 500ml", 240, 520},
	{"PRD_H_02", "Laundry Detergent 2kg", 880, 2050},
	{"PRD_E_01", "Wireless Earbuds", 4500, 60},
	{"PRD_E_02", "Phone Charger", 1200, 110},
	{"PRD_B_01", "Shampoo Bottle 400ml", 560, 430},
	{"PRD_B_02", "Premium Face Cream", 1450, 120},
}

var stations = []string{"RC01", "RC02", "SCC1", "SCC2"}

var customers = []string{
	"C001", "C002", "C003", "C004", "C005",
	"C006", "C007", "C008", "C009", "C010",
}

// generator produces synthetic retail sensor feed lines with a tunable
// share of injected anomalies.
type generator struct {
	rand        *rand.Rand
	anomalyRate float64
}

func newGenerator(seed int64, anomalyRate float64) *generator {
	return &generator{
		rand:        rand.New(rand.NewSource(seed)),
		anomalyRate: anomalyRate,
	}
}

type envelope struct {
	Dataset string                 `json:"dataset"`
	Event   map[string]interface{} `json:"event"`
}

func (g *generator) pickProduct() product { return products[g.rand.Intn(len(products))] }
func (g *generator) pickStation() string  { return stations[g.rand.Intn(len(stations))] }
func (g *generator) pickCustomer() string { return customers[g.rand.Intn(len(customers))] }
func (g *generator) anomaly() bool        { return g.rand.Float64() < g.anomalyRate }
func (g *generator) timestamp() string    { return time.Now().Format("2006-01-02T15:04:05") }
func (g *generator) selfCheckout() string { return stations[2+g.rand.Intn(2)] }

// nextBatch emits one "tick" of sensor activity: a POS sale with its
// surrounding RFID and recognition observations plus a queue sample, with
// anomalies woven in at the configured rate.
func (g *generator) nextBatch() []envelope {
	var batch []envelope

	station := g.pickStation()
	customer := g.pickCustomer()
	item := g.pickProduct()
	ts := g.timestamp()

	switch {
	case g.anomaly() && g.rand.Float64() < 0.4:
		// Scan avoidance: tag enters the scan area at a self-checkout
		// with no matching sale.
		expensive := products[6+g.rand.Intn(4)]
		batch = append(batch, g.rfid(ts, g.selfCheckout(), customer, expensive.SKU, "IN_SCAN_AREA"))

	case g.anomaly() && g.rand.Float64() < 0.5:
		// Barcode switch: camera sees a premium SKU, the sale records a
		// cheap one.
		recognized := products[6+g.rand.Intn(4)]
		scanned := products[g.rand.Intn(4)]
		batch = append(batch,
			g.recognition(ts, station, customer, recognized.SKU),
			g.pos(ts, station, customer, scanned, scanned.Weight))

	case g.anomaly():
		// Weight mismatch at a self-checkout.
		sc := g.selfCheckout()
		batch = append(batch, g.pos(ts, sc, customer, item, item.Weight*(1.5+g.rand.Float64())))

	default:
		batch = append(batch,
			g.rfid(ts, station, customer, item.SKU, "IN_SCAN_AREA"),
			g.pos(ts, station, customer, item, item.Weight*(0.95+0.1*g.rand.Float64())),
			g.recognition(ts, station, customer, item.SKU))
	}

	batch = append(batch, g.queueSample(ts))

	if g.rand.Float64() < 0.05 {
		batch = append(batch, g.inventorySnapshot(ts))
	}
	return batch
}

func (g *generator) pos(ts, station, customer string, item product, weight float64) envelope {
	status := "Active"
	if g.rand.Float64() < 0.05 {
		status = "Read Error"
	}
	return envelope{
		Dataset: "POS_Transactions",
		Event: map[string]interface{}{
			"timestamp":  ts,
			"station_id": station,
			"status":     status,
			"data": map[string]interface{}{
				"customer_id":  customer,
				"sku":          item.SKU,
				"product_name": item.Name,
				"price":        item.Price,
				"weight_g":     weight,
			},
		},
	}
}

func (g *generator) rfid(ts, station, customer, sku, location string) envelope {
	return envelope{
		Dataset: "RFID_data",
		Event: map[string]interface{}{
			"timestamp":  ts,
			"station_id": station,
			"status":     "Active",
			"data": map[string]interface{}{
				"epc":         "E280" + sku,
				"sku":         sku,
				"customer_id": customer,
				"location":    location,
			},
		},
	}
}

func (g *generator) recognition(ts, station, customer, sku string) envelope {
	return envelope{
		Dataset: "Product_recognition",
		Event: map[string]interface{}{
			"timestamp":  ts,
			"station_id": station,
			"status":     "Active",
			"data": map[string]interface{}{
				"predicted_product": sku,
				"customer_id":       customer,
				"accuracy":          0.75 + 0.2*g.rand.Float64(),
			},
		},
	}
}

func (g *generator) queueSample(ts string) envelope {
	count := g.rand.Intn(6)
	if g.anomaly() {
		count = 7 + g.rand.Intn(5)
	}
	return envelope{
		Dataset: "Queue_monitor",
		Event: map[string]interface{}{
			"timestamp":  ts,
			"station_id": g.pickStation(),
			"status":     "Active",
			"data": map[string]interface{}{
				"customer_count":     count,
				"average_dwell_time": float64(count) * (60 + 40*g.rand.Float64()),
			},
		},
	}
}

func (g *generator) inventorySnapshot(ts string) envelope {
	data := make(map[string]interface{}, len(products))
	for _, item := range products {
		data[item.SKU] = 40 + g.rand.Intn(60)
	}
	return envelope{
		Dataset: "Current_inventory_data",
		Event: map[string]interface{}{
			"timestamp": ts,
			"data":      data,
		},
	}
}
