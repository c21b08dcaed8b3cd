// internal/adapters/db/tx_manager.go
package db

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ammerola/stockledger/internal/core/ports"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// TxManager runs ledger units of work in read-committed transactions.
// Row locks taken with SELECT ... FOR UPDATE serialize writers per pair.
type TxManager struct {
	db     *Database
	logger *slog.Logger
}

var _ ports.TxManager = (*TxManager)(nil)

// NewTxManager creates the unit-of-work manager
func NewTxManager(db *Database, logger *slog.Logger) *TxManager {
	return &TxManager{
		db:     db,
		logger: logger.With(slog.String("component", "tx")),
	}
}

// WithinTx implements ports.TxManager
func (m *TxManager) WithinTx(ctx context.Context, fn func(ctx context.Context, repos ports.TxRepositories) error) error {
	opts := pgx.TxOptions{IsoLevel: pgx.ReadCommitted, AccessMode: pgx.ReadWrite}

	var fnErr error
	err := m.db.TransactionWithOptions(ctx, opts, func(tx pgx.Tx) error {
		fnErr = fn(ctx, newTxRepositories(tx, m.logger))
		return fnErr
	})
	if fnErr != nil {
		return fnErr
	}
	return translateError("transaction", err)
}

type txRepositories struct {
	inventory *InventoryRepository
	movements *MovementRepository
	audit     *AuditRepository
	sales     *SaleRepository
}

func newTxRepositories(tx pgx.Tx, logger *slog.Logger) *txRepositories {
	return &txRepositories{
		inventory: newInventoryRepository(tx, logger),
		movements: newMovementRepository(tx, logger),
		audit:     newAuditRepository(tx, logger),
		sales:     newSaleRepository(tx, logger),
	}
}

func (r *txRepositories) Inventory() ports.InventoryStore { return r.inventory }
func (r *txRepositories) Movements() ports.MovementStore  { return r.movements }
func (r *txRepositories) Audit() ports.AuditStore         { return r.audit }
func (r *txRepositories) Sales() ports.SaleStore          { return r.sales }
