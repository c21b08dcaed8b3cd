// internal/core/domain/audit.go
package domain

import "time"

// AuditAction is the one-letter code stored with each audit record
type AuditAction string

const (
	AuditInsert AuditAction = "I"
	AuditUpdate AuditAction = "U"
)

// UnknownPrincipal is recorded when the acting user cannot be resolved
const UnknownPrincipal = "unknown"

// AuditRecord is a write-once before/after snapshot of an inventory row mutation
type AuditRecord struct {
	ID           int64       `json:"id"`
	OccurredAt   time.Time   `json:"occurred_at"`
	Principal    string      `json:"principal"`
	Host         string      `json:"host"`
	Action       AuditAction `json:"action"`
	WarehouseID  *int64      `json:"warehouse_id,omitempty"`
	ProductID    *int64      `json:"product_id,omitempty"`
	OldStock     *int64      `json:"old_stock,omitempty"`
	NewStock     *int64      `json:"new_stock,omitempty"`
	OldThreshold *int64      `json:"old_threshold,omitempty"`
	NewThreshold *int64      `json:"new_threshold,omitempty"`
}

// StockChange describes a row mutation before it is turned into an audit record.
// Before is nil when the row is being created.
type StockChange struct {
	Before *InventoryRow
	After  *InventoryRow
}

// ToRecord builds the audit record for the change
func (c StockChange) ToRecord(principal, host string, at time.Time) *AuditRecord {
	rec := &AuditRecord{
		OccurredAt: at,
		Principal:  principal,
		Host:       host,
		Action:     AuditUpdate,
	}
	if c.After != nil {
		rec.WarehouseID = ptr(c.After.WarehouseID)
		rec.ProductID = ptr(c.After.ProductID)
		rec.NewStock = ptr(c.After.Stock)
		rec.NewThreshold = ptr(c.After.ReorderThreshold)
	}
	if c.Before == nil {
		rec.Action = AuditInsert
		return rec
	}
	rec.OldStock = ptr(c.Before.Stock)
	rec.OldThreshold = ptr(c.Before.ReorderThreshold)
	return rec
}

// AuditFilter narrows an audit history listing
type AuditFilter struct {
	WarehouseID *int64
	ProductID   *int64
	From        *time.Time
	To          *time.Time
	Limit       int
}

func ptr[T any](v T) *T {
	return &v
}
