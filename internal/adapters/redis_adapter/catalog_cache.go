// internal/adapters/redis_adapter/catalog_cache.go
package redis_a

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/ammerola/stockledger/internal/core/domain"
	"github.com/ammerola/stockledger/internal/core/ports"
)

// CachedCatalog serves client and warehouse lookups from the cache. Products are
// always read from the store so a sale sees the current price and active flag.
// Not-found results are never cached. Catalog writers call Invalidate.
type CachedCatalog struct {
	next   ports.CatalogGateway
	cache  ports.CacheRepository
	ttl    time.Duration
	logger *slog.Logger
}

var _ ports.CatalogGateway = (*CachedCatalog)(nil)

// NewCachedCatalog wraps next; a zero ttl disables caching
func NewCachedCatalog(next ports.CatalogGateway, cache ports.CacheRepository, ttl time.Duration, logger *slog.Logger) *CachedCatalog {
	return &CachedCatalog{
		next:   next,
		cache:  cache,
		ttl:    ttl,
		logger: logger.With(slog.String("component", "catalog_cache")),
	}
}

// GetActiveProduct implements ports.CatalogGateway. It is never cached.
func (c *CachedCatalog) GetActiveProduct(ctx context.Context, id int64) (*domain.Product, error) {
	return c.next.GetActiveProduct(ctx, id)
}

// GetClient implements ports.CatalogGateway
func (c *CachedCatalog) GetClient(ctx context.Context, id int64) (*domain.Client, error) {
	return cached(ctx, c, catalogKey("client", id), func() (*domain.Client, error) {
		return c.next.GetClient(ctx, id)
	})
}

// GetWarehouse implements ports.CatalogGateway
func (c *CachedCatalog) GetWarehouse(ctx context.Context, id int64) (*domain.Warehouse, error) {
	return cached(ctx, c, catalogKey("warehouse", id), func() (*domain.Warehouse, error) {
		return c.next.GetWarehouse(ctx, id)
	})
}

// Invalidate drops every cached catalog entry
func (c *CachedCatalog) Invalidate(ctx context.Context) error {
	return c.cache.DeletePattern(ctx, string(PrefixCatalog)+":*")
}

func catalogKey(kind string, id int64) string {
	return BuildKey(PrefixCatalog, kind, strconv.FormatInt(id, 10))
}

func cached[T any](ctx context.Context, c *CachedCatalog, key string, load func() (*T, error)) (*T, error) {
	if c.ttl <= 0 {
		return load()
	}

	var (
		out     T
		loadErr error
	)
	err := c.cache.GetOrSet(ctx, key, &out, func() (any, error) {
		v, err := load()
		loadErr = err
		return v, err
	}, c.ttl)
	if loadErr != nil {
		return nil, loadErr
	}
	if err != nil {
		c.logger.WarnContext(ctx, "catalog cache unavailable, reading store",
			slog.String("key", key),
			slog.String("error", err.Error()))
		return load()
	}
	return &out, nil
}
