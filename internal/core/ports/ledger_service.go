// internal/core/ports/ledger_service.go
package ports

import (
	"context"
	"io"
	"iter"

	"github.com/google/uuid"

	"github.com/ammerola/stockledger/internal/core/domain"
)

// StockLedgerService owns stock quantities and the movement ledger.
type StockLedgerService interface {
	ApplyMovement(ctx context.Context, req domain.MovementRequest) (*domain.MovementEntry, error)
	SetThreshold(ctx context.Context, warehouseID, productID, threshold int64) (*domain.InventoryRow, error)
	CurrentStock(ctx context.Context, warehouseID, productID int64) (int64, error)
	Movements(ctx context.Context, warehouseID, productID int64) ([]domain.MovementEntry, error)
	Reconcile(ctx context.Context, warehouseID, productID int64) (*domain.Reconciliation, error)
}

// SalePosterService posts sales and drives their status.
type SalePosterService interface {
	PostSale(ctx context.Context, req domain.SaleRequest) (*domain.Sale, error)
	GetSale(ctx context.Context, id uuid.UUID) (*domain.Sale, error)
	FinalizeSale(ctx context.Context, id uuid.UUID) (*domain.Sale, error)
	CancelSale(ctx context.Context, id uuid.UUID) (*domain.Sale, error)
}

// ReorderMonitorService reports pairs at or below their reorder threshold.
type ReorderMonitorService interface {
	LowStockPairs(ctx context.Context) iter.Seq2[domain.LowStockPair, error]
	Snapshot(ctx context.Context, limit int) ([]domain.LowStockPair, error)
}

// AuditTrailService exposes the read side of the audit trail.
type AuditTrailService interface {
	History(ctx context.Context, filter domain.AuditFilter) ([]domain.AuditRecord, error)
}

// CatalogGateway is the read-only view of catalog data the engine depends on.
type CatalogGateway interface {
	// GetActiveProduct returns domain.ErrNotFound for unknown and inactive products.
	GetActiveProduct(ctx context.Context, id int64) (*domain.Product, error)
	GetClient(ctx context.Context, id int64) (*domain.Client, error)
	GetWarehouse(ctx context.Context, id int64) (*domain.Warehouse, error)
}

// LowStockNotifier publishes pairs that dropped to or below their threshold.
type LowStockNotifier interface {
	NotifyLowStock(ctx context.Context, pairs []domain.LowStockPair) error
}

// ObjectStorage stores audit exports and uploaded receipt workbooks.
type ObjectStorage interface {
	// Upload returns the location of the stored object.
	Upload(ctx context.Context, key string, data io.Reader, contentType string) (string, error)
	// Download returns domain.ErrNotFound when key is absent.
	Download(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}
