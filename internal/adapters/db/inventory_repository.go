// internal/adapters/db/inventory_repository.go
package db

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/ammerola/stockledger/internal/core/domain"
	"github.com/ammerola/stockledger/internal/core/ports"
)

const inventoryColumns = `id, warehouse_id, product_id, stock, reorder_threshold, updated_at`

// InventoryRepository reads and writes inventory rows. Bound to a transaction it serves
// ports.InventoryStore; bound to the pool it serves ports.InventoryReader.
type InventoryRepository struct {
	q      querier
	logger *slog.Logger
}

var (
	_ ports.InventoryStore  = (*InventoryRepository)(nil)
	_ ports.InventoryReader = (*InventoryRepository)(nil)
)

// NewInventoryRepository creates a pool-bound inventory reader
func NewInventoryRepository(db *Database, logger *slog.Logger) *InventoryRepository {
	return newInventoryRepository(db.Pool(), logger)
}

func newInventoryRepository(q querier, logger *slog.Logger) *InventoryRepository {
	return &InventoryRepository{
		q:      q,
		logger: logger.With(slog.String("repository", "inventory")),
	}
}

func scanInventoryRow(row pgx.Row) (domain.InventoryRow, error) {
	var r domain.InventoryRow
	err := row.Scan(&r.ID, &r.WarehouseID, &r.ProductID, &r.Stock, &r.ReorderThreshold, &r.UpdatedAt)
	return r, err
}

// Get reads the committed row of a pair
func (r *InventoryRepository) Get(ctx context.Context, warehouseID, productID int64) (*domain.InventoryRow, error) {
	query := `SELECT ` + inventoryColumns + ` FROM inventory WHERE warehouse_id = $1 AND product_id = $2`

	row, err := scanInventoryRow(r.q.QueryRow(ctx, query, warehouseID, productID))
	if err != nil {
		return nil, translateError("get inventory row", err)
	}
	return &row, nil
}

// GetForUpdate locks the row of a pair for the rest of the transaction
func (r *InventoryRepository) GetForUpdate(ctx context.Context, warehouseID, productID int64) (*domain.InventoryRow, error) {
	query := `SELECT ` + inventoryColumns + ` FROM inventory WHERE warehouse_id = $1 AND product_id = $2 FOR UPDATE`

	row, err := scanInventoryRow(r.q.QueryRow(ctx, query, warehouseID, productID))
	if err != nil {
		return nil, translateError("lock inventory row", err)
	}
	return &row, nil
}

// Insert creates the row unless a concurrent transaction already did
func (r *InventoryRepository) Insert(ctx context.Context, row *domain.InventoryRow) (bool, error) {
	query := `
		INSERT INTO inventory (warehouse_id, product_id, stock, reorder_threshold, updated_at)
		VALUES ($1, $2, $3, $4, clock_timestamp())
		ON CONFLICT (warehouse_id, product_id) DO NOTHING
		RETURNING id, updated_at`

	err := r.q.QueryRow(ctx, query, row.WarehouseID, row.ProductID, row.Stock, row.ReorderThreshold).
		Scan(&row.ID, &row.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		r.logger.DebugContext(ctx, "inventory row created concurrently",
			slog.String("pair", row.Pair().String()))
		return false, nil
	}
	if err != nil {
		return false, translateError("insert inventory row", err)
	}
	return true, nil
}

// Update writes stock and threshold of a locked row
func (r *InventoryRepository) Update(ctx context.Context, row *domain.InventoryRow) error {
	query := `
		UPDATE inventory
		SET stock = $3, reorder_threshold = $4, updated_at = clock_timestamp()
		WHERE warehouse_id = $1 AND product_id = $2
		RETURNING updated_at`

	err := r.q.QueryRow(ctx, query, row.WarehouseID, row.ProductID, row.Stock, row.ReorderThreshold).
		Scan(&row.UpdatedAt)
	if err != nil {
		return translateError("update inventory row", err)
	}
	return nil
}

// ListLowStock pages through pairs at or below their threshold in pair order
func (r *InventoryRepository) ListLowStock(ctx context.Context, after domain.Pair, limit int) ([]domain.LowStockPair, error) {
	query, args, err := pairPage(
		squirrel.Select("warehouse_id", "product_id", "stock", "reorder_threshold").
			From("inventory").
			Where("stock <= reorder_threshold"),
		after, limit,
	).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build low stock query: %w", err)
	}

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, translateError("list low stock", err)
	}

	pairs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.LowStockPair, error) {
		var p domain.LowStockPair
		err := row.Scan(&p.WarehouseID, &p.ProductID, &p.Stock, &p.ReorderThreshold)
		return p, err
	})
	if err != nil {
		return nil, translateError("scan low stock", err)
	}
	return pairs, nil
}

// ListRows pages through every row in pair order
func (r *InventoryRepository) ListRows(ctx context.Context, after domain.Pair, limit int) ([]domain.InventoryRow, error) {
	query, args, err := pairPage(
		squirrel.Select(inventoryColumns).From("inventory"),
		after, limit,
	).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build inventory rows query: %w", err)
	}

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, translateError("list inventory rows", err)
	}

	result, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.InventoryRow, error) {
		return scanInventoryRow(row)
	})
	if err != nil {
		return nil, translateError("scan inventory rows", err)
	}
	return result, nil
}

// pairPage restricts qb to the keyset page of pairs strictly after after
func pairPage(qb squirrel.SelectBuilder, after domain.Pair, limit int) squirrel.SelectBuilder {
	return qb.
		Where(squirrel.Expr("(warehouse_id, product_id) > (?, ?)", after.WarehouseID, after.ProductID)).
		OrderBy("warehouse_id", "product_id").
		Limit(uint64(limit)).
		PlaceholderFormat(squirrel.Dollar)
}
