// internal/core/domain/inventory.go
package domain

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// DefaultReorderThreshold applies to inventory rows created by their first movement
const DefaultReorderThreshold int64 = 5

// MaxReferenceLength bounds the free-text movement reference
const MaxReferenceLength = 60

// MovementKind represents the direction class of a stock movement
type MovementKind string

// Movement kinds
const (
	MovementIn     MovementKind = "IN"
	MovementOut    MovementKind = "OUT"
	MovementAdjust MovementKind = "ADJ"
)

// ParseMovementKind accepts the kind in any letter case
func ParseMovementKind(s string) (MovementKind, error) {
	switch k := MovementKind(strings.ToUpper(strings.TrimSpace(s))); k {
	case MovementIn, MovementOut, MovementAdjust:
		return k, nil
	default:
		return "", fmt.Errorf("%w: unknown movement kind %q", ErrInvalidMovement, s)
	}
}

// Pair identifies one (warehouse, product) stock position
type Pair struct {
	WarehouseID int64 `json:"warehouse_id"`
	ProductID   int64 `json:"product_id"`
}

func (p Pair) String() string {
	return fmt.Sprintf("%d/%d", p.WarehouseID, p.ProductID)
}

// Less orders pairs by warehouse then product
func (p Pair) Less(o Pair) bool {
	if p.WarehouseID != o.WarehouseID {
		return p.WarehouseID < o.WarehouseID
	}
	return p.ProductID < o.ProductID
}

// InventoryRow is the cached stock projection for one pair
type InventoryRow struct {
	ID               int64     `json:"id"`
	WarehouseID      int64     `json:"warehouse_id"`
	ProductID        int64     `json:"product_id"`
	Stock            int64     `json:"stock"`
	ReorderThreshold int64     `json:"reorder_threshold"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// NewInventoryRow returns an empty row for a pair that has never moved
func NewInventoryRow(warehouseID, productID, threshold int64) *InventoryRow {
	return &InventoryRow{
		WarehouseID:      warehouseID,
		ProductID:        productID,
		ReorderThreshold: threshold,
	}
}

// Pair returns the row's key
func (r *InventoryRow) Pair() Pair {
	return Pair{WarehouseID: r.WarehouseID, ProductID: r.ProductID}
}

// IsLow reports whether the row sits at or below its reorder threshold
func (r *InventoryRow) IsLow() bool {
	return r.Stock <= r.ReorderThreshold
}

// LowStockPair is one entry of the reorder report
type LowStockPair struct {
	WarehouseID      int64 `json:"warehouse_id"`
	ProductID        int64 `json:"product_id"`
	Stock            int64 `json:"stock"`
	ReorderThreshold int64 `json:"reorder_threshold"`
}

// Pair returns the entry's key
func (p LowStockPair) Pair() Pair {
	return Pair{WarehouseID: p.WarehouseID, ProductID: p.ProductID}
}

// MovementRequest asks the ledger to move stock for one pair.
// IN and OUT carry a positive magnitude; ADJ carries its direction in the sign.
type MovementRequest struct {
	WarehouseID int64        `json:"warehouse_id"`
	ProductID   int64        `json:"product_id"`
	Kind        MovementKind `json:"kind"`
	Quantity    int64        `json:"quantity"`
	Reference   string       `json:"reference,omitempty"`
}

// Validate checks the request shape
func (m *MovementRequest) Validate() error {
	if m.WarehouseID <= 0 {
		return fmt.Errorf("%w: warehouse_id must be positive", ErrInvalidMovement)
	}
	if m.ProductID <= 0 {
		return fmt.Errorf("%w: product_id must be positive", ErrInvalidMovement)
	}
	switch m.Kind {
	case MovementIn, MovementOut:
		if m.Quantity <= 0 {
			return fmt.Errorf("%w: %s quantity must be positive", ErrInvalidMovement, m.Kind)
		}
	case MovementAdjust:
		if m.Quantity == 0 {
			return fmt.Errorf("%w: adjustment quantity cannot be zero", ErrInvalidMovement)
		}
	default:
		return fmt.Errorf("%w: unknown movement kind %q", ErrInvalidMovement, m.Kind)
	}
	if utf8.RuneCountInString(m.Reference) > MaxReferenceLength {
		return fmt.Errorf("%w: reference exceeds %d characters", ErrInvalidMovement, MaxReferenceLength)
	}
	return nil
}

// SignedDelta returns the stock change the request applies
func (m *MovementRequest) SignedDelta() int64 {
	if m.Kind == MovementOut {
		return -m.Quantity
	}
	return m.Quantity
}

// MovementEntry is an immutable ledger line. Quantity is signed.
type MovementEntry struct {
	ID          int64        `json:"id"`
	OccurredAt  time.Time    `json:"occurred_at"`
	WarehouseID int64        `json:"warehouse_id"`
	ProductID   int64        `json:"product_id"`
	Kind        MovementKind `json:"kind"`
	Quantity    int64        `json:"quantity"`
	Reference   string       `json:"reference,omitempty"`
}

// Reconciliation compares the cached stock of a pair with its ledger replay
type Reconciliation struct {
	WarehouseID int64 `json:"warehouse_id"`
	ProductID   int64 `json:"product_id"`
	Stock       int64 `json:"stock"`
	LedgerSum   int64 `json:"ledger_sum"`
	Movements   int64 `json:"movements"`
	Consistent  bool  `json:"consistent"`
}
