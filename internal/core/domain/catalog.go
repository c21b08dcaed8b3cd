// internal/core/domain/catalog.go
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is read from the catalog; the ledger references it by id only
type Product struct {
	ID         int64           `json:"id"`
	SKU        string          `json:"sku"`
	Name       string          `json:"name"`
	CategoryID int64           `json:"category_id"`
	SupplierID *int64          `json:"supplier_id,omitempty"`
	Price      decimal.Decimal `json:"price"`
	Active     bool            `json:"active"`
	CreatedAt  time.Time       `json:"created_at"`
}

// Warehouse holds stock
type Warehouse struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Location string `json:"location"`
	Active   bool   `json:"active"`
}

// Client buys
type Client struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Document string `json:"document,omitempty"`
	Email    string `json:"email,omitempty"`
	Active   bool   `json:"active"`
}
