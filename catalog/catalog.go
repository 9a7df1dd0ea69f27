// Package catalog loads the static product and customer reference tables and
// serves read-only lookups to the detectors. The store is populated once at
// startup and never mutated, so lookups need no synchronization.
package catalog

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// UnknownCategory is returned for SKUs absent from the product table.
const UnknownCategory = "Unknown"

// Product is one row of the product reference table.
type Product struct {
	SKU      string  `json:"sku"`
	Name     string  `json:"name"`
	Category string  `json:"category"`
	Price    float64 `json:"price"`
	Weight   float64 `json:"weight_g"`
	// Quantity is the initial stock level used by inventory reconciliation.
	Quantity int `json:"quantity"`
}

// Customer is one row of the customer reference table.
type Customer struct {
	ID      string `json:"customer_id"`
	Name    string `json:"name"`
	Age     int    `json:"age,omitempty"`
	Address string `json:"address,omitempty"`
	Phone   string `json:"phone,omitempty"`
}

// Store holds the loaded reference tables.
type Store struct {
	products  map[string]Product
	customers map[string]Customer
	logger    *zap.SugaredLogger
}

// NewStore creates an empty store.
func NewStore(logger *zap.SugaredLogger) *Store {
	return &Store{
		products:  make(map[string]Product),
		customers: make(map[string]Customer),
		logger:    logger,
	}
}

// Load reads both reference tables. A missing file logs a warning and leaves
// that table empty; lookups then resolve to defaults.
func (s *Store) Load(productsFile, customersFile string) error {
	if err := s.loadProducts(productsFile); err != nil {
		return fmt.Errorf("failed to load products: %w", err)
	}
	if err := s.loadCustomers(customersFile); err != nil {
		return fmt.Errorf("failed to load customers: %w", err)
	}
	s.logger.Infow("Catalog loaded",
		"products", len(s.products),
		"customers", len(s.customers))
	return nil
}

// Product looks up a SKU. Unknown SKUs resolve to a zero-valued entry with
// category "Unknown" rather than an error.
func (s *Store) Product(sku string) (Product, bool) {
	p, ok := s.products[sku]
	if !ok {
		return Product{SKU: sku, Category: UnknownCategory}, false
	}
	return p, true
}

// Customer looks up a customer identifier, resolving unknown IDs to a
// zero-valued entry.
func (s *Store) Customer(id string) (Customer, bool) {
	c, ok := s.customers[id]
	if !ok {
		return Customer{ID: id, Name: "Unknown"}, false
	}
	return c, true
}

// ProductCount returns the number of loaded products.
func (s *Store) ProductCount() int {
	return len(s.products)
}

// CustomerCount returns the number of loaded customers.
func (s *Store) CustomerCount() int {
	return len(s.customers)
}

// Products returns all loaded products.
func (s *Store) Products() []Product {
	out := make([]Product, 0, len(s.products))
	for _, p := range s.products {
		out = append(out, p)
	}
	return out
}

func (s *Store) loadProducts(path string) error {
	rows, header, err := readCSV(path)
	if err != nil {
		if os.IsNotExist(err) {
			s.logger.Warnw("Products file not found, catalog lookups will use defaults", "path", path)
			return nil
		}
		return err
	}

	for _, row := range rows {
		sku := field(row, header, "SKU", "sku")
		if sku == "" {
			continue
		}
		s.products[sku] = Product{
			SKU:      sku,
			Name:     field(row, header, "product_name", "name"),
			Category: orDefault(field(row, header, "category"), UnknownCategory),
			Price:    parseFloat(field(row, header, "price")),
			Weight:   parseFloat(field(row, header, "weight", "weight_g")),
			Quantity: int(parseFloat(field(row, header, "quantity"))),
		}
	}
	return nil
}

func (s *Store) loadCustomers(path string) error {
	rows, header, err := readCSV(path)
	if err != nil {
		if os.IsNotExist(err) {
			s.logger.Warnw("Customers file not found, catalog lookups will use defaults", "path", path)
			return nil
		}
		return err
	}

	for _, row := range rows {
		id := field(row, header, "Customer_ID", "customer_id")
		if id == "" {
			continue
		}
		s.customers[id] = Customer{
			ID:      id,
			Name:    field(row, header, "Name", "name"),
			Age:     int(parseFloat(field(row, header, "Age", "age"))),
			Address: field(row, header, "Address", "address"),
			Phone:   field(row, header, "TEL", "phone"),
		}
	}
	return nil
}

// readCSV reads all rows of a headered CSV file. The header is returned as a
// lowercase column name -> index map.
func readCSV(path string) ([][]string, map[string]int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, map[string]int{}, nil
	}

	header := make(map[string]int, len(records[0]))
	for i, name := range records[0] {
		header[strings.ToLower(strings.TrimSpace(name))] = i
	}
	return records[1:], header, nil
}

// field returns the first matching column value for a row; column names are
// matched case-insensitively.
func field(row []string, header map[string]int, names ...string) string {
	for _, name := range names {
		if idx, ok := header[strings.ToLower(name)]; ok && idx < len(row) {
			return strings.TrimSpace(row[idx])
		}
	}
	return ""
}

func parseFloat(s string) float64 {
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
