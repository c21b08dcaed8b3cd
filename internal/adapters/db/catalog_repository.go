// internal/adapters/db/catalog_repository.go
package db

import (
	"context"
	"log/slog"

	"github.com/ammerola/stockledger/internal/core/domain"
	"github.com/ammerola/stockledger/internal/core/ports"
)

// CatalogRepository reads products, clients and warehouses. The create methods
// exist for seeding; catalog maintenance is outside the ledger.
type CatalogRepository struct {
	q      querier
	logger *slog.Logger
}

var _ ports.CatalogGateway = (*CatalogRepository)(nil)

// NewCatalogRepository creates the catalog reader
func NewCatalogRepository(db *Database, logger *slog.Logger) *CatalogRepository {
	return &CatalogRepository{
		q:      db.Pool(),
		logger: logger.With(slog.String("repository", "catalog")),
	}
}

// GetActiveProduct returns domain.ErrNotFound for unknown and inactive products
func (r *CatalogRepository) GetActiveProduct(ctx context.Context, id int64) (*domain.Product, error) {
	query := `
		SELECT id, sku, name, category_id, supplier_id, price, active, created_at
		FROM products
		WHERE id = $1 AND active`

	var p domain.Product
	err := r.q.QueryRow(ctx, query, id).Scan(
		&p.ID, &p.SKU, &p.Name, &p.CategoryID, &p.SupplierID, &p.Price, &p.Active, &p.CreatedAt,
	)
	if err != nil {
		return nil, translateError("get product", err)
	}
	return &p, nil
}

// GetClient reads a client regardless of its active flag
func (r *CatalogRepository) GetClient(ctx context.Context, id int64) (*domain.Client, error) {
	query := `SELECT id, name, COALESCE(document, ''), COALESCE(email, ''), active FROM clients WHERE id = $1`

	var c domain.Client
	if err := r.q.QueryRow(ctx, query, id).Scan(&c.ID, &c.Name, &c.Document, &c.Email, &c.Active); err != nil {
		return nil, translateError("get client", err)
	}
	return &c, nil
}

// GetWarehouse reads a warehouse regardless of its active flag
func (r *CatalogRepository) GetWarehouse(ctx context.Context, id int64) (*domain.Warehouse, error) {
	query := `SELECT id, name, location, active FROM warehouses WHERE id = $1`

	var w domain.Warehouse
	if err := r.q.QueryRow(ctx, query, id).Scan(&w.ID, &w.Name, &w.Location, &w.Active); err != nil {
		return nil, translateError("get warehouse", err)
	}
	return &w, nil
}

// EnsureCategory returns the id of the named category, creating it when missing
func (r *CatalogRepository) EnsureCategory(ctx context.Context, name string) (int64, error) {
	query := `
		INSERT INTO categories (name) VALUES ($1)
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id`

	var id int64
	if err := r.q.QueryRow(ctx, query, name).Scan(&id); err != nil {
		return 0, translateError("ensure category", err)
	}
	return id, nil
}

// UpsertProduct creates or refreshes a product keyed by SKU
func (r *CatalogRepository) UpsertProduct(ctx context.Context, p *domain.Product) error {
	query := `
		INSERT INTO products (sku, name, category_id, supplier_id, price, active)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (sku) DO UPDATE
		SET name = EXCLUDED.name, category_id = EXCLUDED.category_id, price = EXCLUDED.price, active = EXCLUDED.active
		RETURNING id, created_at`

	err := r.q.QueryRow(ctx, query, p.SKU, p.Name, p.CategoryID, p.SupplierID, p.Price, p.Active).
		Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return translateError("upsert product", err)
	}
	return nil
}

// UpsertWarehouse creates or refreshes a warehouse keyed by name
func (r *CatalogRepository) UpsertWarehouse(ctx context.Context, w *domain.Warehouse) error {
	query := `
		INSERT INTO warehouses (name, location, active)
		VALUES ($1, $2, $3)
		ON CONFLICT (name) DO UPDATE SET location = EXCLUDED.location, active = EXCLUDED.active
		RETURNING id`

	if err := r.q.QueryRow(ctx, query, w.Name, w.Location, w.Active).Scan(&w.ID); err != nil {
		return translateError("upsert warehouse", err)
	}
	return nil
}

// CreateClient inserts a client
func (r *CatalogRepository) CreateClient(ctx context.Context, c *domain.Client) error {
	query := `
		INSERT INTO clients (name, document, email, active)
		VALUES ($1, NULLIF($2, ''), NULLIF($3, ''), $4)
		RETURNING id`

	if err := r.q.QueryRow(ctx, query, c.Name, c.Document, c.Email, c.Active).Scan(&c.ID); err != nil {
		return translateError("create client", err)
	}
	return nil
}
