// test/helpers/factories.go
package helpers

import (
	"github.com/shopspring/decimal"

	"github.com/ammerola/stockledger/internal/core/domain"
)

// Catalog ids seeded by SeedCatalog
const (
	TestWarehouseID         int64 = 1
	TestInactiveWarehouseID int64 = 9
	TestClientID            int64 = 1
	TestInactiveClientID    int64 = 9
	TestInactiveProductID   int64 = 99
)

// CreateTestProduct returns an active product priced at price
func CreateTestProduct(id int64, price string, overrides ...func(*domain.Product)) domain.Product {
	p := domain.Product{
		ID:         id,
		SKU:        "SKU-" + decimal.NewFromInt(id).String(),
		Name:       "Test Product " + decimal.NewFromInt(id).String(),
		CategoryID: 1,
		Price:      decimal.RequireFromString(price),
		Active:     true,
	}
	for _, o := range overrides {
		o(&p)
	}
	return p
}

// CreateTestSaleRequest builds a sale for the test client in the test warehouse.
// lines alternates product id and quantity.
func CreateTestSaleRequest(lines ...int64) domain.SaleRequest {
	req := domain.SaleRequest{ClientID: TestClientID, WarehouseID: TestWarehouseID}
	for i := 0; i+1 < len(lines); i += 2 {
		req.Lines = append(req.Lines, domain.SaleLineRequest{ProductID: lines[i], Quantity: lines[i+1]})
	}
	return req
}

// CreateTestMovement builds a movement against the test warehouse
func CreateTestMovement(productID int64, kind domain.MovementKind, quantity int64) domain.MovementRequest {
	return domain.MovementRequest{
		WarehouseID: TestWarehouseID,
		ProductID:   productID,
		Kind:        kind,
		Quantity:    quantity,
		Reference:   "test",
	}
}

// SeedCatalog registers the test warehouses and clients plus products 1..5 and one inactive product
func SeedCatalog(store *MemoryStore) {
	store.AddWarehouse(domain.Warehouse{ID: TestWarehouseID, Name: "Main", Active: true})
	store.AddWarehouse(domain.Warehouse{ID: TestInactiveWarehouseID, Name: "Closed", Active: false})
	store.AddClient(domain.Client{ID: TestClientID, Name: "Test Client", Active: true})
	store.AddClient(domain.Client{ID: TestInactiveClientID, Name: "Gone Client", Active: false})

	prices := []string{"19.99", "0.10", "1250.005", "5.00", "3.33"}
	for i, price := range prices {
		store.AddProduct(CreateTestProduct(int64(i+1), price))
	}
	store.AddProduct(CreateTestProduct(TestInactiveProductID, "1.00", func(p *domain.Product) {
		p.Active = false
	}))
}
