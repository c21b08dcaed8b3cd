package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	redis_a "github.com/ammerola/stockledger/internal/adapters/redis_adapter"
	"github.com/ammerola/stockledger/internal/core/domain"
	"github.com/ammerola/stockledger/internal/core/services"
	"github.com/ammerola/stockledger/test/helpers"
	"github.com/ammerola/stockledger/test/mocks"
)

func lowPair(w, p, stock, threshold int64) domain.LowStockPair {
	return domain.LowStockPair{WarehouseID: w, ProductID: p, Stock: stock, ReorderThreshold: threshold}
}

func TestReorderMonitor_ThresholdDrivesMembership(t *testing.T) {
	store := helpers.NewMemoryStore()
	ledger := newTestLedger(store)
	monitor := services.NewReorderMonitor(store, nil, nil, services.MonitorConfig{PageSize: 2}, helpers.TestLogger())
	ctx := context.Background()

	_, err := ledger.ApplyMovement(ctx, helpers.CreateTestMovement(1, domain.MovementIn, 15))
	require.NoError(t, err)
	_, err = ledger.ApplyMovement(ctx, helpers.CreateTestMovement(2, domain.MovementIn, 3))
	require.NoError(t, err)

	pairs, err := monitor.Snapshot(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, []domain.LowStockPair{lowPair(1, 2, 3, 5)}, pairs)

	_, err = ledger.SetThreshold(ctx, helpers.TestWarehouseID, 1, 20)
	require.NoError(t, err)

	pairs, err = monitor.Snapshot(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, []domain.LowStockPair{lowPair(1, 1, 15, 20), lowPair(1, 2, 3, 5)}, pairs)

	_, err = ledger.ApplyMovement(ctx, helpers.CreateTestMovement(1, domain.MovementIn, 10))
	require.NoError(t, err)

	pairs, err = monitor.Snapshot(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, []domain.LowStockPair{lowPair(1, 2, 3, 5)}, pairs)
}

func TestReorderMonitor_LowStockPairs(t *testing.T) {
	tests := []struct {
		name          string
		consume       int
		setupMocks    func(*mocks.MockInventoryReader)
		expectedPairs []domain.LowStockPair
		expectedErr   bool
	}{
		{
			name:    "pages_until_short_page",
			consume: -1,
			setupMocks: func(m *mocks.MockInventoryReader) {
				gomock.InOrder(
					m.EXPECT().ListLowStock(gomock.Any(), domain.Pair{}, 2).
						Return([]domain.LowStockPair{lowPair(1, 1, 0, 5), lowPair(1, 4, 2, 5)}, nil),
					m.EXPECT().ListLowStock(gomock.Any(), domain.Pair{WarehouseID: 1, ProductID: 4}, 2).
						Return([]domain.LowStockPair{lowPair(2, 1, 1, 5)}, nil),
				)
			},
			expectedPairs: []domain.LowStockPair{lowPair(1, 1, 0, 5), lowPair(1, 4, 2, 5), lowPair(2, 1, 1, 5)},
		},
		{
			name:    "full_last_page_needs_one_empty_read",
			consume: -1,
			setupMocks: func(m *mocks.MockInventoryReader) {
				gomock.InOrder(
					m.EXPECT().ListLowStock(gomock.Any(), domain.Pair{}, 2).
						Return([]domain.LowStockPair{lowPair(1, 1, 0, 5), lowPair(1, 2, 0, 5)}, nil),
					m.EXPECT().ListLowStock(gomock.Any(), domain.Pair{WarehouseID: 1, ProductID: 2}, 2).
						Return(nil, nil),
				)
			},
			expectedPairs: []domain.LowStockPair{lowPair(1, 1, 0, 5), lowPair(1, 2, 0, 5)},
		},
		{
			name:    "early_stop_reads_no_further_pages",
			consume: 1,
			setupMocks: func(m *mocks.MockInventoryReader) {
				m.EXPECT().ListLowStock(gomock.Any(), domain.Pair{}, 2).
					Return([]domain.LowStockPair{lowPair(1, 1, 0, 5), lowPair(1, 2, 0, 5)}, nil)
			},
			expectedPairs: []domain.LowStockPair{lowPair(1, 1, 0, 5)},
		},
		{
			name:    "read_failure_is_yielded",
			consume: -1,
			setupMocks: func(m *mocks.MockInventoryReader) {
				m.EXPECT().ListLowStock(gomock.Any(), domain.Pair{}, 2).
					Return(nil, errors.New("connection lost"))
			},
			expectedErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			reader := mocks.NewMockInventoryReader(ctrl)
			tt.setupMocks(reader)
			monitor := services.NewReorderMonitor(reader, nil, nil, services.MonitorConfig{PageSize: 2}, helpers.TestLogger())

			var (
				got    []domain.LowStockPair
				gotErr error
			)
			for p, err := range monitor.LowStockPairs(context.Background()) {
				if err != nil {
					gotErr = err
					break
				}
				got = append(got, p)
				if tt.consume > 0 && len(got) == tt.consume {
					break
				}
			}

			if tt.expectedErr {
				assert.Error(t, gotErr)
				assert.Contains(t, gotErr.Error(), "connection lost")
				return
			}
			require.NoError(t, gotErr)
			assert.Equal(t, tt.expectedPairs, got)
		})
	}
}

func TestReorderMonitor_LowStockPairs_IsRestartable(t *testing.T) {
	store := helpers.NewMemoryStore()
	ledger := newTestLedger(store)
	ctx := context.Background()
	for _, p := range []int64{1, 2, 3} {
		_, err := ledger.ApplyMovement(ctx, helpers.CreateTestMovement(p, domain.MovementIn, 1))
		require.NoError(t, err)
	}
	monitor := services.NewReorderMonitor(store, nil, nil, services.MonitorConfig{PageSize: 1}, helpers.TestLogger())
	seq := monitor.LowStockPairs(ctx)

	count := func() int {
		n := 0
		for _, err := range seq {
			require.NoError(t, err)
			n++
		}
		return n
	}

	assert.Equal(t, 3, count())
	assert.Equal(t, 3, count())
}

func TestReorderMonitor_Snapshot_Cache(t *testing.T) {
	tests := []struct {
		name       string
		setupMocks func(*mocks.MockCacheRepository, *mocks.MockInventoryReader)
	}{
		{
			name: "cache_fills_from_store",
			setupMocks: func(c *mocks.MockCacheRepository, r *mocks.MockInventoryReader) {
				c.EXPECT().Get(gomock.Any(), "lowstock:generation", gomock.Any()).Return(errors.New("cache miss"))
				c.EXPECT().
					GetOrSet(gomock.Any(), "lowstock:snapshot:0:10", gomock.Any(), gomock.Any(), 30*time.Second).
					DoAndReturn(func(ctx context.Context, key string, dest any, fetch func() (any, error), ttl time.Duration) error {
						v, err := fetch()
						if err != nil {
							return err
						}
						*dest.(*[]domain.LowStockPair) = v.([]domain.LowStockPair)
						return nil
					})
				r.EXPECT().ListLowStock(gomock.Any(), domain.Pair{}, 200).
					Return([]domain.LowStockPair{lowPair(1, 1, 0, 5)}, nil)
			},
		},
		{
			name: "current_generation_selects_key",
			setupMocks: func(c *mocks.MockCacheRepository, r *mocks.MockInventoryReader) {
				c.EXPECT().Get(gomock.Any(), "lowstock:generation", gomock.Any()).
					DoAndReturn(func(ctx context.Context, key string, dest any) error {
						*dest.(*string) = "g7"
						return nil
					})
				c.EXPECT().
					GetOrSet(gomock.Any(), "lowstock:snapshot:g7:10", gomock.Any(), gomock.Any(), 30*time.Second).
					DoAndReturn(func(ctx context.Context, key string, dest any, fetch func() (any, error), ttl time.Duration) error {
						*dest.(*[]domain.LowStockPair) = []domain.LowStockPair{lowPair(1, 1, 0, 5)}
						return nil
					})
			},
		},
		{
			name: "cache_error_falls_back_to_store",
			setupMocks: func(c *mocks.MockCacheRepository, r *mocks.MockInventoryReader) {
				c.EXPECT().Get(gomock.Any(), "lowstock:generation", gomock.Any()).Return(errors.New("redis down"))
				c.EXPECT().
					GetOrSet(gomock.Any(), "lowstock:snapshot:0:10", gomock.Any(), gomock.Any(), 30*time.Second).
					Return(errors.New("redis down"))
				r.EXPECT().ListLowStock(gomock.Any(), domain.Pair{}, 200).
					Return([]domain.LowStockPair{lowPair(1, 1, 0, 5)}, nil)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			cache := mocks.NewMockCacheRepository(ctrl)
			reader := mocks.NewMockInventoryReader(ctrl)
			tt.setupMocks(cache, reader)

			monitor := services.NewReorderMonitor(reader, cache, nil,
				services.MonitorConfig{PageSize: 200, CacheTTL: 30 * time.Second}, helpers.TestLogger())

			pairs, err := monitor.Snapshot(context.Background(), 10)

			require.NoError(t, err)
			assert.Equal(t, []domain.LowStockPair{lowPair(1, 1, 0, 5)}, pairs)
		})
	}
}

func TestReorderMonitor_HandleCommitted(t *testing.T) {
	row := func(stock, threshold int64) *domain.InventoryRow {
		return &domain.InventoryRow{WarehouseID: 1, ProductID: 3, Stock: stock, ReorderThreshold: threshold}
	}

	tests := []struct {
		name        string
		changes     []domain.StockChange
		expectAlert []domain.LowStockPair
		notifyErr   error
	}{
		{
			name:        "crossing_into_low_stock_alerts",
			changes:     []domain.StockChange{{Before: row(8, 5), After: row(5, 5)}},
			expectAlert: []domain.LowStockPair{lowPair(1, 3, 5, 5)},
		},
		{
			name:        "new_row_created_low_alerts",
			changes:     []domain.StockChange{{Before: nil, After: row(2, 5)}},
			expectAlert: []domain.LowStockPair{lowPair(1, 3, 2, 5)},
		},
		{
			name:        "threshold_raise_alerts",
			changes:     []domain.StockChange{{Before: row(15, 5), After: row(15, 20)}},
			expectAlert: []domain.LowStockPair{lowPair(1, 3, 15, 20)},
		},
		{
			name:    "already_low_does_not_alert_again",
			changes: []domain.StockChange{{Before: row(4, 5), After: row(2, 5)}},
		},
		{
			name:    "healthy_stock_does_not_alert",
			changes: []domain.StockChange{{Before: row(30, 5), After: row(20, 5)}},
		},
		{
			name:        "notifier_failure_is_swallowed",
			changes:     []domain.StockChange{{Before: row(8, 5), After: row(1, 5)}},
			expectAlert: []domain.LowStockPair{lowPair(1, 3, 1, 5)},
			notifyErr:   errors.New("queue unavailable"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			cache := mocks.NewMockCacheRepository(ctrl)
			notifier := mocks.NewMockLowStockNotifier(ctrl)

			cache.EXPECT().SetWithTTL(gomock.Any(), "lowstock:generation", gomock.Any(), time.Duration(0)).Return(nil)
			if tt.expectAlert != nil {
				notifier.EXPECT().NotifyLowStock(gomock.Any(), tt.expectAlert).Return(tt.notifyErr)
			}

			monitor := services.NewReorderMonitor(mocks.NewMockInventoryReader(ctrl), cache, notifier,
				services.MonitorConfig{CacheTTL: time.Second}, helpers.TestLogger())

			monitor.HandleCommitted(context.Background(), tt.changes)
		})
	}
}

func TestReorderMonitor_SnapshotRefreshesAfterCommit(t *testing.T) {
	ctx := context.Background()
	r := helpers.SetupTestRedis(t)
	cache := redis_a.NewCache(r.Client, time.Minute, helpers.TestLogger())
	store := helpers.NewMemoryStore()
	ledger := newTestLedger(store)
	monitor := services.NewReorderMonitor(store, cache, nil,
		services.MonitorConfig{CacheTTL: time.Minute}, helpers.TestLogger())
	ledger.OnCommit(monitor.HandleCommitted)

	_, err := ledger.ApplyMovement(ctx, helpers.CreateTestMovement(1, domain.MovementIn, 10))
	require.NoError(t, err)

	pairs, err := monitor.Snapshot(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, pairs)

	_, err = ledger.ApplyMovement(ctx, helpers.CreateTestMovement(1, domain.MovementOut, 7))
	require.NoError(t, err)

	pairs, err = monitor.Snapshot(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, []domain.LowStockPair{lowPair(1, 1, 3, 5)}, pairs)
	assert.True(t, r.Server.Exists("lowstock:generation"))
}

func TestReorderMonitor_WiredAsCommitHook(t *testing.T) {
	ctrl := gomock.NewController(t)
	notifier := mocks.NewMockLowStockNotifier(ctrl)
	store := helpers.NewMemoryStore()
	ledger := newTestLedger(store)
	monitor := services.NewReorderMonitor(store, nil, notifier, services.MonitorConfig{}, helpers.TestLogger())
	ledger.OnCommit(monitor.HandleCommitted)
	ctx := context.Background()

	_, err := ledger.ApplyMovement(ctx, helpers.CreateTestMovement(1, domain.MovementIn, 10))
	require.NoError(t, err)

	notifier.EXPECT().NotifyLowStock(gomock.Any(), []domain.LowStockPair{lowPair(1, 1, 4, 5)}).Return(nil)
	_, err = ledger.ApplyMovement(ctx, helpers.CreateTestMovement(1, domain.MovementOut, 6))
	require.NoError(t, err)

	_, err = ledger.ApplyMovement(ctx, helpers.CreateTestMovement(1, domain.MovementOut, 1))
	require.NoError(t, err)
}
