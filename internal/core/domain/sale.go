// internal/core/domain/sale.go
package domain

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Monetary scales
const (
	PriceScale    int32 = 2
	SubtotalScale int32 = 4
	TotalScale    int32 = 2
)

// SaleStatus represents the lifecycle state of a sale
type SaleStatus string

const (
	SaleOpen      SaleStatus = "OPEN"
	SaleFinalized SaleStatus = "FINALIZED"
	SaleCancelled SaleStatus = "CANCELLED"
)

// CanTransitionTo reports whether the status machine allows s -> next
func (s SaleStatus) CanTransitionTo(next SaleStatus) bool {
	return s == SaleOpen && (next == SaleFinalized || next == SaleCancelled)
}

// SaleLineRequest is one requested line of a sale
type SaleLineRequest struct {
	ProductID int64 `json:"product_id"`
	Quantity  int64 `json:"quantity"`
}

// SaleRequest asks the poster to create a sale.
// A zero WarehouseID selects the configured default warehouse.
type SaleRequest struct {
	ClientID    int64             `json:"client_id"`
	WarehouseID int64             `json:"warehouse_id,omitempty"`
	Lines       []SaleLineRequest `json:"lines"`
}

// Validate rejects empty requests, non-positive quantities and repeated products
func (r *SaleRequest) Validate() error {
	if r.ClientID <= 0 {
		return fmt.Errorf("%w: client_id must be positive", ErrInvalidSaleRequest)
	}
	if r.WarehouseID < 0 {
		return fmt.Errorf("%w: warehouse_id cannot be negative", ErrInvalidSaleRequest)
	}
	if len(r.Lines) == 0 {
		return fmt.Errorf("%w: a sale needs at least one line", ErrInvalidSaleRequest)
	}

	seen := make(map[int64]int, len(r.Lines))
	for i, line := range r.Lines {
		if line.ProductID <= 0 {
			return &LineError{Index: i, ProductID: line.ProductID, Kind: ErrInvalidSaleRequest, Reason: "product_id must be positive"}
		}
		if line.Quantity <= 0 {
			return &LineError{Index: i, ProductID: line.ProductID, Kind: ErrInvalidSaleRequest, Reason: "quantity must be positive"}
		}
		if first, ok := seen[line.ProductID]; ok {
			return &LineError{
				Index:     i,
				ProductID: line.ProductID,
				Kind:      ErrDuplicateLineItem,
				Reason:    fmt.Sprintf("product already requested on line %d", first),
			}
		}
		seen[line.ProductID] = i
	}
	return nil
}

// SortedLines returns the lines ordered by ascending product id
func (r *SaleRequest) SortedLines() []SaleLineRequest {
	lines := make([]SaleLineRequest, len(r.Lines))
	copy(lines, r.Lines)
	sort.Slice(lines, func(i, j int) bool { return lines[i].ProductID < lines[j].ProductID })
	return lines
}

// ProductIDs returns the product ids in request order
func (r *SaleRequest) ProductIDs() []int64 {
	ids := make([]int64, 0, len(r.Lines))
	for _, l := range r.Lines {
		ids = append(ids, l.ProductID)
	}
	return ids
}

// Sale is a posted sale header with its lines
type Sale struct {
	ID          uuid.UUID       `json:"id"`
	ClientID    int64           `json:"client_id"`
	WarehouseID int64           `json:"warehouse_id"`
	Total       decimal.Decimal `json:"total"`
	Status      SaleStatus      `json:"status"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	Lines       []SaleLine      `json:"lines"`
}

// SaleLine snapshots the unit price at posting time
type SaleLine struct {
	ID        uuid.UUID       `json:"id"`
	SaleID    uuid.UUID       `json:"sale_id"`
	ProductID int64           `json:"product_id"`
	Quantity  int64           `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// NewSaleLine computes the line subtotal from the snapshotted price
func NewSaleLine(saleID uuid.UUID, productID, quantity int64, price decimal.Decimal) SaleLine {
	unit := price.Round(PriceScale)
	return SaleLine{
		ID:        uuid.New(),
		SaleID:    saleID,
		ProductID: productID,
		Quantity:  quantity,
		UnitPrice: unit,
		Subtotal:  LineSubtotal(quantity, unit),
	}
}

// LineSubtotal is quantity times unit price at subtotal precision
func LineSubtotal(quantity int64, unitPrice decimal.Decimal) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(quantity)).Round(SubtotalScale)
}

// RecomputeTotal sets Total to the sum of the line subtotals
func (s *Sale) RecomputeTotal() {
	total := decimal.Zero
	for _, l := range s.Lines {
		total = total.Add(l.Subtotal)
	}
	s.Total = total.Round(TotalScale)
}

// PrepareForStorage fills identity, status and timestamps
func (s *Sale) PrepareForStorage(now time.Time) {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.Status == "" {
		s.Status = SaleOpen
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	s.UpdatedAt = now
	for i := range s.Lines {
		s.Lines[i].SaleID = s.ID
		if s.Lines[i].ID == uuid.Nil {
			s.Lines[i].ID = uuid.New()
		}
	}
	s.RecomputeTotal()
}
