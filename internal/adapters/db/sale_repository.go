// internal/adapters/db/sale_repository.go
package db

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ammerola/stockledger/internal/core/domain"
	"github.com/ammerola/stockledger/internal/core/ports"
)

const saleColumns = `id, client_id, warehouse_id, total, status, created_at, updated_at`

// SaleRepository persists sales with their lines
type SaleRepository struct {
	q      querier
	logger *slog.Logger
}

var (
	_ ports.SaleStore  = (*SaleRepository)(nil)
	_ ports.SaleReader = (*SaleRepository)(nil)
)

// NewSaleRepository creates a pool-bound sale reader
func NewSaleRepository(db *Database, logger *slog.Logger) *SaleRepository {
	return newSaleRepository(db.Pool(), logger)
}

func newSaleRepository(q querier, logger *slog.Logger) *SaleRepository {
	return &SaleRepository{
		q:      q,
		logger: logger.With(slog.String("repository", "sales")),
	}
}

// Insert stores the header and queues every line in one batch
func (r *SaleRepository) Insert(ctx context.Context, sale *domain.Sale) error {
	header := `
		INSERT INTO sales (id, client_id, warehouse_id, total, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	if _, err := r.q.Exec(ctx, header,
		sale.ID, sale.ClientID, sale.WarehouseID, sale.Total, string(sale.Status), sale.CreatedAt, sale.UpdatedAt,
	); err != nil {
		return translateError("insert sale", err)
	}

	line := `
		INSERT INTO sale_lines (id, sale_id, product_id, quantity, unit_price, subtotal)
		VALUES ($1, $2, $3, $4, $5, $6)`

	batch := &pgx.Batch{}
	for _, l := range sale.Lines {
		batch.Queue(line, l.ID, l.SaleID, l.ProductID, l.Quantity, l.UnitPrice, l.Subtotal)
	}

	br := r.q.SendBatch(ctx, batch)
	for i := range sale.Lines {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return translateError(fmt.Sprintf("insert sale line %d", i), err)
		}
	}
	if err := br.Close(); err != nil {
		return translateError("insert sale lines", err)
	}

	r.logger.DebugContext(ctx, "sale stored",
		slog.String("sale_id", sale.ID.String()),
		slog.Int("lines", len(sale.Lines)))

	return nil
}

// Get reads a sale with its lines
func (r *SaleRepository) Get(ctx context.Context, id uuid.UUID) (*domain.Sale, error) {
	return r.load(ctx, `SELECT `+saleColumns+` FROM sales WHERE id = $1`, id)
}

// GetForUpdate reads a sale and locks its header for the rest of the transaction
func (r *SaleRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Sale, error) {
	return r.load(ctx, `SELECT `+saleColumns+` FROM sales WHERE id = $1 FOR UPDATE`, id)
}

func (r *SaleRepository) load(ctx context.Context, query string, id uuid.UUID) (*domain.Sale, error) {
	var (
		sale   domain.Sale
		status string
	)
	err := r.q.QueryRow(ctx, query, id).Scan(
		&sale.ID, &sale.ClientID, &sale.WarehouseID, &sale.Total, &status, &sale.CreatedAt, &sale.UpdatedAt,
	)
	if err != nil {
		return nil, translateError("get sale", err)
	}
	sale.Status = domain.SaleStatus(status)

	rows, err := r.q.Query(ctx, `
		SELECT id, sale_id, product_id, quantity, unit_price, subtotal
		FROM sale_lines
		WHERE sale_id = $1
		ORDER BY product_id`, id)
	if err != nil {
		return nil, translateError("list sale lines", err)
	}

	sale.Lines, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.SaleLine, error) {
		var l domain.SaleLine
		err := row.Scan(&l.ID, &l.SaleID, &l.ProductID, &l.Quantity, &l.UnitPrice, &l.Subtotal)
		return l, err
	})
	if err != nil {
		return nil, translateError("scan sale lines", err)
	}
	return &sale, nil
}

// UpdateStatus writes status and updated_at
func (r *SaleRepository) UpdateStatus(ctx context.Context, sale *domain.Sale) error {
	tag, err := r.q.Exec(ctx,
		`UPDATE sales SET status = $2, updated_at = $3 WHERE id = $1`,
		sale.ID, string(sale.Status), sale.UpdatedAt)
	if err != nil {
		return translateError("update sale status", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
