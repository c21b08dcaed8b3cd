package redis_a_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	redis_a "github.com/ammerola/stockledger/internal/adapters/redis_adapter"
	"github.com/ammerola/stockledger/internal/core/domain"
	"github.com/ammerola/stockledger/test/helpers"
	"github.com/ammerola/stockledger/test/mocks"
)

func TestCachedCatalog_ServesRepeatLookupsFromCache(t *testing.T) {
	ctrl := gomock.NewController(t)
	ctx := context.Background()
	cache, _ := newTestCache(t)
	next := mocks.NewMockCatalogGateway(ctrl)

	next.EXPECT().GetClient(gomock.Any(), int64(1)).
		Return(&domain.Client{ID: 1, Name: "Test Client", Active: true}, nil).Times(1)
	next.EXPECT().GetWarehouse(gomock.Any(), int64(1)).
		Return(&domain.Warehouse{ID: 1, Name: "Main", Active: true}, nil).Times(1)

	catalog := redis_a.NewCachedCatalog(next, cache, time.Minute, helpers.TestLogger())

	for i := 0; i < 3; i++ {
		c, err := catalog.GetClient(ctx, 1)
		require.NoError(t, err)
		assert.True(t, c.Active)

		w, err := catalog.GetWarehouse(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, "Main", w.Name)
	}
}

func TestCachedCatalog_ProductsAreAlwaysCurrent(t *testing.T) {
	tests := []struct {
		name   string
		second func(product domain.Product) (*domain.Product, error)
		check  func(t *testing.T, got *domain.Product, err error)
	}{
		{
			name: "deactivated_after_first_lookup",
			second: func(domain.Product) (*domain.Product, error) {
				return nil, domain.ErrNotFound
			},
			check: func(t *testing.T, got *domain.Product, err error) {
				assert.ErrorIs(t, err, domain.ErrNotFound)
				assert.Nil(t, got)
			},
		},
		{
			name: "repriced_after_first_lookup",
			second: func(p domain.Product) (*domain.Product, error) {
				p.Price = decimal.RequireFromString("12.50")
				return &p, nil
			},
			check: func(t *testing.T, got *domain.Product, err error) {
				require.NoError(t, err)
				assert.Equal(t, "12.50", got.Price.StringFixed(2))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			ctx := context.Background()
			cache, r := newTestCache(t)
			next := mocks.NewMockCatalogGateway(ctrl)

			product := helpers.CreateTestProduct(3, "10.00")
			gomock.InOrder(
				next.EXPECT().GetActiveProduct(gomock.Any(), int64(3)).Return(&product, nil),
				next.EXPECT().GetActiveProduct(gomock.Any(), int64(3)).Return(tt.second(product)),
			)

			catalog := redis_a.NewCachedCatalog(next, cache, time.Minute, helpers.TestLogger())

			first, err := catalog.GetActiveProduct(ctx, 3)
			require.NoError(t, err)
			assert.Equal(t, "10.00", first.Price.StringFixed(2))

			got, err := catalog.GetActiveProduct(ctx, 3)
			tt.check(t, got, err)
			assert.Empty(t, r.Server.Keys())
		})
	}
}

func TestCachedCatalog_NotFoundIsNotCached(t *testing.T) {
	ctrl := gomock.NewController(t)
	ctx := context.Background()
	cache, _ := newTestCache(t)
	next := mocks.NewMockCatalogGateway(ctrl)

	next.EXPECT().GetClient(gomock.Any(), int64(99)).Return(nil, domain.ErrNotFound).Times(2)

	catalog := redis_a.NewCachedCatalog(next, cache, time.Minute, helpers.TestLogger())

	for i := 0; i < 2; i++ {
		_, err := catalog.GetClient(ctx, 99)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	}
}

func TestCachedCatalog_Invalidate(t *testing.T) {
	ctrl := gomock.NewController(t)
	ctx := context.Background()
	cache, _ := newTestCache(t)
	next := mocks.NewMockCatalogGateway(ctrl)

	next.EXPECT().GetWarehouse(gomock.Any(), int64(1)).
		Return(&domain.Warehouse{ID: 1, Name: "Main", Active: true}, nil).Times(2)

	catalog := redis_a.NewCachedCatalog(next, cache, time.Minute, helpers.TestLogger())

	_, err := catalog.GetWarehouse(ctx, 1)
	require.NoError(t, err)
	require.NoError(t, catalog.Invalidate(ctx))
	_, err = catalog.GetWarehouse(ctx, 1)
	require.NoError(t, err)
}

func TestCachedCatalog_FallsBackWhenCacheIsDown(t *testing.T) {
	ctrl := gomock.NewController(t)
	ctx := context.Background()
	cache, r := newTestCache(t)
	r.Server.Close()
	next := mocks.NewMockCatalogGateway(ctrl)

	next.EXPECT().GetClient(gomock.Any(), int64(1)).Return(&domain.Client{ID: 1, Active: true}, nil).Times(1)

	catalog := redis_a.NewCachedCatalog(next, cache, time.Minute, helpers.TestLogger())

	got, err := catalog.GetClient(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.ID)
}

func TestCachedCatalog_ZeroTTLPassesThrough(t *testing.T) {
	ctrl := gomock.NewController(t)
	ctx := context.Background()
	cache := mocks.NewMockCacheRepository(ctrl)
	next := mocks.NewMockCatalogGateway(ctrl)

	next.EXPECT().GetWarehouse(gomock.Any(), int64(1)).Return(&domain.Warehouse{ID: 1}, nil).Times(2)

	catalog := redis_a.NewCachedCatalog(next, cache, 0, helpers.TestLogger())
	for i := 0; i < 2; i++ {
		_, err := catalog.GetWarehouse(ctx, 1)
		require.NoError(t, err)
	}
}
