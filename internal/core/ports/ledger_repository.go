// internal/core/ports/ledger_repository.go
package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/ammerola/stockledger/internal/core/domain"
)

// InventoryStore mutates inventory rows inside a transaction.
type InventoryStore interface {
	// GetForUpdate locks the row for the pair until the transaction ends.
	// Returns domain.ErrNotFound when the pair has never moved.
	GetForUpdate(ctx context.Context, warehouseID, productID int64) (*domain.InventoryRow, error)
	// Insert creates the row and fills its id. It reports false, without error,
	// when another transaction created the pair first.
	Insert(ctx context.Context, row *domain.InventoryRow) (bool, error)
	Update(ctx context.Context, row *domain.InventoryRow) error
}

// MovementStore appends ledger lines. There is no update or delete path.
type MovementStore interface {
	Append(ctx context.Context, entry *domain.MovementEntry) error
}

// AuditStore appends audit records. There is no update or delete path.
type AuditStore interface {
	Append(ctx context.Context, record *domain.AuditRecord) error
}

// SaleStore persists sales inside a transaction.
type SaleStore interface {
	Insert(ctx context.Context, sale *domain.Sale) error
	GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Sale, error)
	UpdateStatus(ctx context.Context, sale *domain.Sale) error
}

// TxRepositories gives access to stores that share one database transaction.
type TxRepositories interface {
	Inventory() InventoryStore
	Movements() MovementStore
	Audit() AuditStore
	Sales() SaleStore
}

// TxManager runs fn in a transaction; the transaction commits when fn returns nil
// and rolls back otherwise.
type TxManager interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, repos TxRepositories) error) error
}

// InventoryReader reads committed inventory state outside a transaction.
type InventoryReader interface {
	Get(ctx context.Context, warehouseID, productID int64) (*domain.InventoryRow, error)
	// ListLowStock returns up to limit rows with stock <= threshold whose pair sorts after the given pair.
	ListLowStock(ctx context.Context, after domain.Pair, limit int) ([]domain.LowStockPair, error)
	// ListRows pages through every row in pair order.
	ListRows(ctx context.Context, after domain.Pair, limit int) ([]domain.InventoryRow, error)
}

// MovementReader reads the ledger.
type MovementReader interface {
	ListByPair(ctx context.Context, warehouseID, productID int64) ([]domain.MovementEntry, error)
	// Replay reads the cached stock, the ledger sum and the ledger length of the pair
	// from one snapshot. Consistent is left for the caller to decide.
	Replay(ctx context.Context, warehouseID, productID int64) (*domain.Reconciliation, error)
}

// AuditReader reads the audit trail.
type AuditReader interface {
	List(ctx context.Context, filter domain.AuditFilter) ([]domain.AuditRecord, error)
}

// SaleReader reads posted sales with their lines.
type SaleReader interface {
	Get(ctx context.Context, id uuid.UUID) (*domain.Sale, error)
}
