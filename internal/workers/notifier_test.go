package workers_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/ammerola/stockledger/internal/core/domain"
	"github.com/ammerola/stockledger/internal/workers"
	"github.com/ammerola/stockledger/test/helpers"
	"github.com/ammerola/stockledger/test/mocks"
)

func lowPairs(n int) []domain.LowStockPair {
	pairs := make([]domain.LowStockPair, n)
	for i := range pairs {
		pairs[i] = domain.LowStockPair{WarehouseID: 1, ProductID: int64(i + 1), Stock: 0, ReorderThreshold: 5}
	}
	return pairs
}

func TestTaskNotifier_NotifyLowStock(t *testing.T) {
	tests := []struct {
		name       string
		pairs      []domain.LowStockPair
		setupMocks func(*mocks.MockTaskEnqueuer)
		wantErr    bool
	}{
		{
			name:  "one_task_per_pair",
			pairs: lowPairs(3),
			setupMocks: func(e *mocks.MockTaskEnqueuer) {
				e.EXPECT().EnqueueContext(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
						assert.Equal(t, workers.TypeLowStockAlert, task.Type())
						var p workers.LowStockAlertPayload
						require.NoError(t, json.Unmarshal(task.Payload(), &p))
						assert.Equal(t, int64(1), p.WarehouseID)
						return &asynq.TaskInfo{}, nil
					}).Times(3)
			},
		},
		{
			name:  "pending_alert_is_not_an_error",
			pairs: lowPairs(1),
			setupMocks: func(e *mocks.MockTaskEnqueuer) {
				e.EXPECT().EnqueueContext(gomock.Any(), gomock.Any()).Return(nil, asynq.ErrTaskIDConflict)
			},
		},
		{
			name:  "failures_are_joined_and_every_pair_attempted",
			pairs: lowPairs(3),
			setupMocks: func(e *mocks.MockTaskEnqueuer) {
				gomock.InOrder(
					e.EXPECT().EnqueueContext(gomock.Any(), gomock.Any()).Return(nil, errors.New("redis down")),
					e.EXPECT().EnqueueContext(gomock.Any(), gomock.Any()).Return(&asynq.TaskInfo{}, nil),
					e.EXPECT().EnqueueContext(gomock.Any(), gomock.Any()).Return(nil, errors.New("redis down")),
				)
			},
			wantErr: true,
		},
		{
			name:       "nothing_to_publish",
			setupMocks: func(*mocks.MockTaskEnqueuer) {},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			enqueuer := mocks.NewMockTaskEnqueuer(ctrl)
			tt.setupMocks(enqueuer)

			n := workers.NewTaskNotifier(enqueuer, helpers.TestLogger())
			err := n.NotifyLowStock(context.Background(), tt.pairs)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "1/1")
				assert.Contains(t, err.Error(), "1/3")
				return
			}
			assert.NoError(t, err)
		})
	}
}
