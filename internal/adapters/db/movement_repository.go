// internal/adapters/db/movement_repository.go
package db

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/ammerola/stockledger/internal/core/domain"
	"github.com/ammerola/stockledger/internal/core/ports"
)

// MovementRepository appends to and reads the stock movement ledger
type MovementRepository struct {
	q      querier
	logger *slog.Logger
}

var (
	_ ports.MovementStore  = (*MovementRepository)(nil)
	_ ports.MovementReader = (*MovementRepository)(nil)
)

// NewMovementRepository creates a pool-bound ledger reader
func NewMovementRepository(db *Database, logger *slog.Logger) *MovementRepository {
	return newMovementRepository(db.Pool(), logger)
}

func newMovementRepository(q querier, logger *slog.Logger) *MovementRepository {
	return &MovementRepository{
		q:      q,
		logger: logger.With(slog.String("repository", "movements")),
	}
}

// Append inserts a ledger line. A zero OccurredAt is stamped by the database.
func (r *MovementRepository) Append(ctx context.Context, entry *domain.MovementEntry) error {
	query := `
		INSERT INTO stock_movements (occurred_at, warehouse_id, product_id, kind, quantity, reference)
		VALUES (COALESCE($1::timestamptz, clock_timestamp()), $2, $3, $4, $5, $6)
		RETURNING id, occurred_at`

	var occurredAt *time.Time
	if !entry.OccurredAt.IsZero() {
		occurredAt = &entry.OccurredAt
	}

	err := r.q.QueryRow(ctx, query,
		occurredAt, entry.WarehouseID, entry.ProductID, string(entry.Kind), entry.Quantity, entry.Reference,
	).Scan(&entry.ID, &entry.OccurredAt)
	if err != nil {
		return translateError("append movement", err)
	}

	r.logger.DebugContext(ctx, "movement appended",
		slog.Int64("movement_id", entry.ID),
		slog.String("pair", domain.Pair{WarehouseID: entry.WarehouseID, ProductID: entry.ProductID}.String()))

	return nil
}

// ListByPair returns the stock card of a pair in ledger order
func (r *MovementRepository) ListByPair(ctx context.Context, warehouseID, productID int64) ([]domain.MovementEntry, error) {
	query, args, err := squirrel.
		Select("id", "occurred_at", "warehouse_id", "product_id", "kind", "quantity", "reference").
		From("stock_movements").
		Where(squirrel.Eq{"warehouse_id": warehouseID, "product_id": productID}).
		OrderBy("occurred_at", "id").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build movements query: %w", err)
	}

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, translateError("list movements", err)
	}

	entries, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.MovementEntry, error) {
		var (
			e    domain.MovementEntry
			kind string
		)
		err := row.Scan(&e.ID, &e.OccurredAt, &e.WarehouseID, &e.ProductID, &kind, &e.Quantity, &e.Reference)
		e.Kind = domain.MovementKind(kind)
		return e, err
	})
	if err != nil {
		return nil, translateError("scan movements", err)
	}
	return entries, nil
}

// Replay reads cached stock, ledger sum and ledger length in one statement, so all three
// come from the same snapshot.
func (r *MovementRepository) Replay(ctx context.Context, warehouseID, productID int64) (*domain.Reconciliation, error) {
	query := `
		SELECT
			COALESCE((SELECT stock FROM inventory WHERE warehouse_id = $1 AND product_id = $2), 0),
			COALESCE(SUM(quantity), 0),
			COUNT(*)
		FROM stock_movements
		WHERE warehouse_id = $1 AND product_id = $2`

	rec := &domain.Reconciliation{WarehouseID: warehouseID, ProductID: productID}
	err := r.q.QueryRow(ctx, query, warehouseID, productID).Scan(&rec.Stock, &rec.LedgerSum, &rec.Movements)
	if err != nil {
		return nil, translateError("replay ledger", err)
	}
	return rec, nil
}
