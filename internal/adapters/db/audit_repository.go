// internal/adapters/db/audit_repository.go
package db

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/ammerola/stockledger/internal/core/domain"
	"github.com/ammerola/stockledger/internal/core/ports"
)

// AuditRepository appends to and reads inventory_audit. It has no update or delete path.
type AuditRepository struct {
	q      querier
	logger *slog.Logger
}

var (
	_ ports.AuditStore  = (*AuditRepository)(nil)
	_ ports.AuditReader = (*AuditRepository)(nil)
)

// NewAuditRepository creates a pool-bound audit reader
func NewAuditRepository(db *Database, logger *slog.Logger) *AuditRepository {
	return newAuditRepository(db.Pool(), logger)
}

func newAuditRepository(q querier, logger *slog.Logger) *AuditRepository {
	return &AuditRepository{
		q:      q,
		logger: logger.With(slog.String("repository", "audit")),
	}
}

// Append inserts one audit record
func (r *AuditRepository) Append(ctx context.Context, rec *domain.AuditRecord) error {
	query := `
		INSERT INTO inventory_audit (
			occurred_at, principal, host, action, warehouse_id, product_id,
			old_stock, new_stock, old_threshold, new_threshold
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id`

	err := r.q.QueryRow(ctx, query,
		rec.OccurredAt, rec.Principal, rec.Host, string(rec.Action), rec.WarehouseID, rec.ProductID,
		rec.OldStock, rec.NewStock, rec.OldThreshold, rec.NewThreshold,
	).Scan(&rec.ID)
	if err != nil {
		return translateError("append audit record", err)
	}
	return nil
}

// List returns audit records matching filter, newest first
func (r *AuditRepository) List(ctx context.Context, filter domain.AuditFilter) ([]domain.AuditRecord, error) {
	qb := squirrel.Select(
		"id", "occurred_at", "principal", "host", "action", "warehouse_id", "product_id",
		"old_stock", "new_stock", "old_threshold", "new_threshold",
	).
		From("inventory_audit").
		OrderBy("occurred_at DESC", "id DESC").
		PlaceholderFormat(squirrel.Dollar)

	if filter.WarehouseID != nil {
		qb = qb.Where(squirrel.Eq{"warehouse_id": *filter.WarehouseID})
	}
	if filter.ProductID != nil {
		qb = qb.Where(squirrel.Eq{"product_id": *filter.ProductID})
	}
	if filter.From != nil {
		qb = qb.Where(squirrel.GtOrEq{"occurred_at": *filter.From})
	}
	if filter.To != nil {
		qb = qb.Where(squirrel.LtOrEq{"occurred_at": *filter.To})
	}
	if filter.Limit > 0 {
		qb = qb.Limit(uint64(filter.Limit))
	}

	query, args, err := qb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build audit query: %w", err)
	}

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, translateError("list audit records", err)
	}

	records, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.AuditRecord, error) {
		var (
			rec    domain.AuditRecord
			action string
		)
		err := row.Scan(&rec.ID, &rec.OccurredAt, &rec.Principal, &rec.Host, &action,
			&rec.WarehouseID, &rec.ProductID, &rec.OldStock, &rec.NewStock, &rec.OldThreshold, &rec.NewThreshold)
		rec.Action = domain.AuditAction(action)
		return rec, err
	})
	if err != nil {
		return nil, translateError("scan audit records", err)
	}
	return records, nil
}
