package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const productsCSV = `SKU,product_name,category,price,weight,quantity
PRD_F_01,Fresh Milk 1L,Dairy,350,1030,120
PRD_F_02,Bananas,produce,90,1000,100
PRD_X_01,,  ,0,,
,Orphan Row,Misc,10,10,1
`

const customersCSV = `Customer_ID,Name,Age,Address,TEL
C001,Nimal Perera,34,12 Galle Rd,0771234567
C002,Kumari Silva,28,5 Temple Ln,0719876543
`

func writeFixture(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func loadedStore(t *testing.T) *Store {
	t.Helper()
	store := NewStore(zap.NewNop().Sugar())
	err := store.Load(
		writeFixture(t, "products.csv", productsCSV),
		writeFixture(t, "customers.csv", customersCSV),
	)
	require.NoError(t, err)
	return store
}

func TestStore_LoadAndLookup(t *testing.T) {
	store := loadedStore(t)

	// The orphan row without a SKU is skipped.
	assert.Equal(t, 3, store.ProductCount())
	assert.Equal(t, 2, store.CustomerCount())

	milk, ok := store.Product("PRD_F_01")
	require.True(t, ok)
	assert.Equal(t, "Fresh Milk 1L", milk.Name)
	assert.Equal(t, "Dairy", milk.Category)
	assert.Equal(t, 350.0, milk.Price)
	assert.Equal(t, 1030.0, milk.Weight)
	assert.Equal(t, 120, milk.Quantity)

	customer, ok := store.Customer("C002")
	require.True(t, ok)
	assert.Equal(t, "Kumari Silva", customer.Name)
	assert.Equal(t, 28, customer.Age)
}

func TestStore_UnknownSKUResolvesToDefaults(t *testing.T) {
	store := loadedStore(t)

	product, ok := store.Product("PRD_404")
	assert.False(t, ok)
	assert.Equal(t, "PRD_404", product.SKU)
	assert.Equal(t, UnknownCategory, product.Category)
	assert.Zero(t, product.Price)

	_, ok = store.Customer("C404")
	assert.False(t, ok)
}

func TestStore_BlankFieldsGetDefaults(t *testing.T) {
	store := loadedStore(t)

	product, ok := store.Product("PRD_X_01")
	require.True(t, ok)
	assert.Equal(t, UnknownCategory, product.Category)
	assert.Zero(t, product.Weight)
	assert.Zero(t, product.Quantity)
}

func TestStore_MissingFilesAreTolerated(t *testing.T) {
	store := NewStore(zap.NewNop().Sugar())
	err := store.Load("/nonexistent/products.csv", "/nonexistent/customers.csv")
	require.NoError(t, err)
	assert.Zero(t, store.ProductCount())
	assert.Zero(t, store.CustomerCount())
}

func TestStore_MalformedCSVFails(t *testing.T) {
	bad := writeFixture(t, "products.csv", "SKU,product_name\n\"unterminated\n")
	store := NewStore(zap.NewNop().Sugar())
	err := store.Load(bad, writeFixture(t, "customers.csv", customersCSV))
	assert.Error(t, err)
}

func TestStore_ProductsReturnsAllRows(t *testing.T) {
	store := loadedStore(t)

	products := store.Products()
	assert.Len(t, products, 3)
	skus := make(map[string]bool)
	for _, p := range products {
		skus[p.SKU] = true
	}
	assert.True(t, skus["PRD_F_01"])
	assert.True(t, skus["PRD_F_02"])
}
