package workers_test

import (
	"context"
	"errors"
	"iter"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	redis_a "github.com/ammerola/stockledger/internal/adapters/redis_adapter"
	"github.com/ammerola/stockledger/internal/core/domain"
	"github.com/ammerola/stockledger/internal/workers"
	"github.com/ammerola/stockledger/test/helpers"
	"github.com/ammerola/stockledger/test/mocks"
)

func pairSeq(pairs []domain.LowStockPair, tailErr error) iter.Seq2[domain.LowStockPair, error] {
	return func(yield func(domain.LowStockPair, error) bool) {
		for _, p := range pairs {
			if !yield(p, nil) {
				return
			}
		}
		if tailErr != nil {
			yield(domain.LowStockPair{}, tailErr)
		}
	}
}

func TestLowStockProcessor_HandleAlert_Cooldown(t *testing.T) {
	ctx := context.Background()
	r := helpers.SetupTestRedis(t)
	cache := redis_a.NewCache(r.Client, time.Minute, helpers.TestLogger())
	p := workers.NewLowStockProcessor(nil, nil, cache, time.Hour, helpers.TestLogger())

	task, err := workers.NewLowStockAlertTask(domain.LowStockPair{WarehouseID: 1, ProductID: 2, Stock: 3, ReorderThreshold: 5}, time.Now())
	require.NoError(t, err)

	require.NoError(t, p.HandleAlert(ctx, task))
	require.NoError(t, p.HandleAlert(ctx, task), "a suppressed alert still completes")

	assert.True(t, r.Server.Exists("alert:1/2"))
	assert.Equal(t, time.Hour, r.Server.TTL("alert:1/2"))

	r.Server.FastForward(2 * time.Hour)
	assert.False(t, r.Server.Exists("alert:1/2"))
}

func TestLowStockProcessor_HandleAlert_CacheFailureStillDelivers(t *testing.T) {
	ctrl := gomock.NewController(t)
	cache := mocks.NewMockCacheRepository(ctrl)
	cache.EXPECT().SetNX(gomock.Any(), "alert:1/2", gomock.Any(), time.Hour).Return(false, errors.New("redis down"))

	p := workers.NewLowStockProcessor(nil, nil, cache, time.Hour, helpers.TestLogger())
	task, err := workers.NewLowStockAlertTask(domain.LowStockPair{WarehouseID: 1, ProductID: 2}, time.Now())
	require.NoError(t, err)

	assert.NoError(t, p.HandleAlert(context.Background(), task))
}

func TestLowStockProcessor_HandleAlert_BadPayload(t *testing.T) {
	p := workers.NewLowStockProcessor(nil, nil, nil, 0, helpers.TestLogger())

	err := p.HandleAlert(context.Background(), asynq.NewTask(workers.TypeLowStockAlert, []byte("{")))
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestLowStockProcessor_HandleScan(t *testing.T) {
	tests := []struct {
		name        string
		pairs       []domain.LowStockPair
		scanErr     error
		notifyErr   error
		wantBatches []int
		wantErr     error
	}{
		{
			name:        "publishes_in_batches",
			pairs:       lowPairs(250),
			wantBatches: []int{100, 100, 50},
		},
		{
			name:        "exact_batch_boundary",
			pairs:       lowPairs(100),
			wantBatches: []int{100},
		},
		{
			name: "nothing_low",
		},
		{
			name:        "scan_error_fails_task",
			pairs:       lowPairs(3),
			scanErr:     domain.ErrPersistenceFailure,
			wantBatches: nil,
			wantErr:     domain.ErrPersistenceFailure,
		},
		{
			name:        "notify_error_fails_task",
			pairs:       lowPairs(2),
			notifyErr:   errors.New("redis down"),
			wantBatches: []int{2},
			wantErr:     errors.New("redis down"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			monitor := mocks.NewMockReorderMonitorService(ctrl)
			notifier := mocks.NewMockLowStockNotifier(ctrl)

			monitor.EXPECT().LowStockPairs(gomock.Any()).Return(pairSeq(tt.pairs, tt.scanErr))

			var batches []int
			notifier.EXPECT().NotifyLowStock(gomock.Any(), gomock.Any()).
				DoAndReturn(func(_ context.Context, pairs []domain.LowStockPair) error {
					batches = append(batches, len(pairs))
					return tt.notifyErr
				}).AnyTimes()

			p := workers.NewLowStockProcessor(monitor, notifier, nil, 0, helpers.TestLogger())
			err := p.HandleScan(context.Background(), workers.NewLowStockScanTask())

			switch {
			case tt.wantErr == nil:
				assert.NoError(t, err)
			case errors.Is(tt.wantErr, domain.ErrPersistenceFailure):
				assert.ErrorIs(t, err, tt.wantErr)
			default:
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr.Error())
			}
			assert.Equal(t, tt.wantBatches, batches)
		})
	}
}
