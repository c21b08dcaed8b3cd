// internal/workers/notifier.go
package workers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/ammerola/stockledger/internal/core/domain"
	"github.com/ammerola/stockledger/internal/core/ports"
)

// TaskNotifier publishes low-stock pairs as asynq alert tasks
type TaskNotifier struct {
	enqueuer ports.TaskEnqueuer
	now      func() time.Time
	logger   *slog.Logger
}

var _ ports.LowStockNotifier = (*TaskNotifier)(nil)

// NewTaskNotifier creates the notifier
func NewTaskNotifier(enqueuer ports.TaskEnqueuer, logger *slog.Logger) *TaskNotifier {
	return &TaskNotifier{
		enqueuer: enqueuer,
		now:      time.Now,
		logger:   logger.With(slog.String("component", "lowstock_notifier")),
	}
}

// NotifyLowStock enqueues one alert per pair. A pair that already has a pending
// alert is skipped. Every pair is attempted; failures are joined.
func (n *TaskNotifier) NotifyLowStock(ctx context.Context, pairs []domain.LowStockPair) error {
	var errs []error
	for _, pair := range pairs {
		task, err := NewLowStockAlertTask(pair, n.now())
		if err != nil {
			errs = append(errs, err)
			continue
		}

		_, err = n.enqueuer.EnqueueContext(ctx, task)
		switch {
		case errors.Is(err, asynq.ErrTaskIDConflict):
			n.logger.DebugContext(ctx, "low stock alert already pending",
				slog.String("pair", pair.Pair().String()))
		case err != nil:
			errs = append(errs, fmt.Errorf("failed to enqueue alert for %s: %w", pair.Pair(), err))
		default:
			n.logger.InfoContext(ctx, "low stock alert enqueued",
				slog.String("pair", pair.Pair().String()),
				slog.Int64("stock", pair.Stock),
				slog.Int64("threshold", pair.ReorderThreshold))
		}
	}
	return errors.Join(errs...)
}
