// internal/workers/reconcile_processor.go
package workers

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/ammerola/stockledger/internal/core/domain"
)

// LedgerReconciler replays the ledger of every inventory row
type LedgerReconciler interface {
	ReconcileAll(ctx context.Context, pageSize int) ([]domain.Reconciliation, int, error)
}

// ReconcileResult summarizes a reconciliation run
type ReconcileResult struct {
	Checked    int                     `json:"checked"`
	Mismatches []domain.Reconciliation `json:"mismatches,omitempty"`
	Duration   string                  `json:"duration"`
}

// ReconcileProcessor verifies that cached stock equals the ledger sum
type ReconcileProcessor struct {
	ledger   LedgerReconciler
	pageSize int
	logger   *slog.Logger
}

// NewReconcileProcessor creates the processor
func NewReconcileProcessor(ledger LedgerReconciler, pageSize int, logger *slog.Logger) *ReconcileProcessor {
	return &ReconcileProcessor{
		ledger:   ledger,
		pageSize: pageSize,
		logger:   logger.With(slog.String("processor", "reconcile")),
	}
}

// HandleReconcile replays every row and reports mismatches. Mismatches are logged
// as errors but do not fail the task; a failed replay does.
func (p *ReconcileProcessor) HandleReconcile(ctx context.Context, t *asynq.Task) error {
	start := time.Now()

	mismatches, checked, err := p.ledger.ReconcileAll(ctx, p.pageSize)
	if err != nil {
		return fmt.Errorf("failed to reconcile after %d rows: %w", checked, err)
	}

	for _, m := range mismatches {
		p.logger.ErrorContext(ctx, "ledger mismatch",
			slog.Int64("warehouse_id", m.WarehouseID),
			slog.Int64("product_id", m.ProductID),
			slog.Int64("stock", m.Stock),
			slog.Int64("ledger_sum", m.LedgerSum),
			slog.Int64("movements", m.Movements))
	}

	writeResult(t, ReconcileResult{
		Checked:    checked,
		Mismatches: mismatches,
		Duration:   time.Since(start).String(),
	})

	p.logger.InfoContext(ctx, "reconciliation completed",
		slog.Int("checked", checked),
		slog.Int("mismatches", len(mismatches)),
		slog.Duration("duration", time.Since(start)))

	return nil
}
