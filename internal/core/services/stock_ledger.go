// internal/core/services/stock_ledger.go
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ammerola/stockledger/internal/core/domain"
	"github.com/ammerola/stockledger/internal/core/ports"
)

// LedgerConfig tunes the stock ledger
type LedgerConfig struct {
	DefaultThreshold int64
	MaxRetries       int
	RetryBackoff     time.Duration
}

// DefaultLedgerConfig returns the ledger defaults
func DefaultLedgerConfig() LedgerConfig {
	return LedgerConfig{
		DefaultThreshold: domain.DefaultReorderThreshold,
		MaxRetries:       3,
		RetryBackoff:     25 * time.Millisecond,
	}
}

// CommitHook observes row changes after their transaction committed
type CommitHook func(ctx context.Context, changes []domain.StockChange)

// StockLedger owns inventory rows and the movement ledger
type StockLedger struct {
	tx        ports.TxManager
	inventory ports.InventoryReader
	movements ports.MovementReader
	audit     *AuditTrail
	cfg       LedgerConfig
	hooks     []CommitHook
	logger    *slog.Logger
}

var _ ports.StockLedgerService = (*StockLedger)(nil)

// NewStockLedger creates the stock ledger
func NewStockLedger(
	tx ports.TxManager,
	inventory ports.InventoryReader,
	movements ports.MovementReader,
	audit *AuditTrail,
	cfg LedgerConfig,
	logger *slog.Logger,
) *StockLedger {
	if cfg.DefaultThreshold < 0 {
		cfg.DefaultThreshold = domain.DefaultReorderThreshold
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	return &StockLedger{
		tx:        tx,
		inventory: inventory,
		movements: movements,
		audit:     audit,
		cfg:       cfg,
		logger:    logger.With(slog.String("service", "ledger")),
	}
}

// OnCommit registers a hook run after every committed ledger mutation
func (l *StockLedger) OnCommit(hook CommitHook) {
	l.hooks = append(l.hooks, hook)
}

func (l *StockLedger) retryPolicy() RetryPolicy {
	return RetryPolicy{MaxRetries: l.cfg.MaxRetries, Backoff: l.cfg.RetryBackoff}
}

// ApplyMovement moves stock for one pair in its own transaction
func (l *StockLedger) ApplyMovement(ctx context.Context, req domain.MovementRequest) (*domain.MovementEntry, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var (
		entry  *domain.MovementEntry
		change domain.StockChange
	)
	err := withRetry(ctx, l.retryPolicy(), l.logger, "apply movement", func() error {
		return l.tx.WithinTx(ctx, func(ctx context.Context, repos ports.TxRepositories) error {
			var err error
			entry, change, err = l.applyMovementTx(ctx, repos, req)
			return err
		})
	})
	if err != nil {
		l.logFailure(ctx, "movement rejected", err,
			slog.String("kind", string(req.Kind)),
			slog.Int64("warehouse_id", req.WarehouseID),
			slog.Int64("product_id", req.ProductID),
			slog.Int64("quantity", req.Quantity))
		return nil, err
	}

	l.committed(ctx, []domain.StockChange{change})

	l.logger.InfoContext(ctx, "movement applied",
		slog.Int64("movement_id", entry.ID),
		slog.String("kind", string(entry.Kind)),
		slog.Int64("warehouse_id", entry.WarehouseID),
		slog.Int64("product_id", entry.ProductID),
		slog.Int64("quantity", entry.Quantity),
		slog.Int64("stock", change.After.Stock))

	return entry, nil
}

// applyMovementTx runs the locked check-then-write for one movement inside repos' transaction.
// Nothing is written when the movement would leave the pair negative.
func (l *StockLedger) applyMovementTx(ctx context.Context, repos ports.TxRepositories, req domain.MovementRequest) (*domain.MovementEntry, domain.StockChange, error) {
	delta := req.SignedDelta()
	inv := repos.Inventory()

	// a second pass happens only when a concurrent transaction created the pair first
	for pass := 0; pass < 2; pass++ {
		before, err := l.lockRow(ctx, inv, req.WarehouseID, req.ProductID)
		if err != nil {
			return nil, domain.StockChange{}, err
		}

		var current int64
		if before != nil {
			current = before.Stock
		}
		next := current + delta
		if delta > 0 && next < current {
			return nil, domain.StockChange{}, fmt.Errorf("%w: stock for %d/%d would overflow", domain.ErrInvalidMovement, req.WarehouseID, req.ProductID)
		}
		if next < 0 {
			return nil, domain.StockChange{}, &domain.StockError{
				WarehouseID: req.WarehouseID,
				ProductID:   req.ProductID,
				Current:     current,
				Delta:       delta,
			}
		}

		after, ok, err := l.writeRow(ctx, inv, before, req.WarehouseID, req.ProductID, func(r *domain.InventoryRow) {
			r.Stock = next
		})
		if err != nil {
			return nil, domain.StockChange{}, err
		}
		if !ok {
			continue
		}

		entry := &domain.MovementEntry{
			WarehouseID: req.WarehouseID,
			ProductID:   req.ProductID,
			Kind:        req.Kind,
			Quantity:    delta,
			Reference:   req.Reference,
		}
		if err := repos.Movements().Append(ctx, entry); err != nil {
			return nil, domain.StockChange{}, fmt.Errorf("failed to append movement: %w", err)
		}

		change := domain.StockChange{Before: before, After: after}
		if err := l.audit.Record(ctx, repos.Audit(), change); err != nil {
			return nil, domain.StockChange{}, err
		}
		return entry, change, nil
	}

	return nil, domain.StockChange{}, fmt.Errorf("%w: inventory row %d/%d could not be created or locked",
		domain.ErrConcurrentModification, req.WarehouseID, req.ProductID)
}

// lockRow returns nil, nil when the pair has no row yet
func (l *StockLedger) lockRow(ctx context.Context, inv ports.InventoryStore, warehouseID, productID int64) (*domain.InventoryRow, error) {
	row, err := inv.GetForUpdate(ctx, warehouseID, productID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock inventory row %d/%d: %w", warehouseID, productID, err)
	}
	return row, nil
}

// writeRow inserts or updates the row after mutate. It reports false when the insert
// lost to a concurrent creator and the caller must lock again.
func (l *StockLedger) writeRow(
	ctx context.Context,
	inv ports.InventoryStore,
	before *domain.InventoryRow,
	warehouseID, productID int64,
	mutate func(*domain.InventoryRow),
) (*domain.InventoryRow, bool, error) {
	if before == nil {
		after := domain.NewInventoryRow(warehouseID, productID, l.cfg.DefaultThreshold)
		mutate(after)
		inserted, err := inv.Insert(ctx, after)
		if err != nil {
			return nil, false, fmt.Errorf("failed to create inventory row %d/%d: %w", warehouseID, productID, err)
		}
		return after, inserted, nil
	}

	after := *before
	mutate(&after)
	if err := inv.Update(ctx, &after); err != nil {
		return nil, false, fmt.Errorf("failed to update inventory row %d/%d: %w", warehouseID, productID, err)
	}
	return &after, true, nil
}

// SetThreshold changes the reorder threshold of a pair, creating the row when absent
func (l *StockLedger) SetThreshold(ctx context.Context, warehouseID, productID, threshold int64) (*domain.InventoryRow, error) {
	if warehouseID <= 0 || productID <= 0 {
		return nil, fmt.Errorf("%w: warehouse_id and product_id must be positive", domain.ErrInvalidThreshold)
	}
	if threshold < 0 {
		return nil, fmt.Errorf("%w: threshold cannot be negative", domain.ErrInvalidThreshold)
	}

	var (
		row     *domain.InventoryRow
		change  domain.StockChange
		changed bool
	)
	err := withRetry(ctx, l.retryPolicy(), l.logger, "set threshold", func() error {
		return l.tx.WithinTx(ctx, func(ctx context.Context, repos ports.TxRepositories) error {
			var err error
			row, change, changed, err = l.setThresholdTx(ctx, repos, warehouseID, productID, threshold)
			return err
		})
	})
	if err != nil {
		l.logFailure(ctx, "threshold change rejected", err,
			slog.Int64("warehouse_id", warehouseID),
			slog.Int64("product_id", productID),
			slog.Int64("threshold", threshold))
		return nil, err
	}

	if changed {
		l.committed(ctx, []domain.StockChange{change})
		l.logger.InfoContext(ctx, "reorder threshold updated",
			slog.Int64("warehouse_id", warehouseID),
			slog.Int64("product_id", productID),
			slog.Int64("threshold", threshold))
	}

	return row, nil
}

func (l *StockLedger) setThresholdTx(ctx context.Context, repos ports.TxRepositories, warehouseID, productID, threshold int64) (*domain.InventoryRow, domain.StockChange, bool, error) {
	inv := repos.Inventory()

	for pass := 0; pass < 2; pass++ {
		before, err := l.lockRow(ctx, inv, warehouseID, productID)
		if err != nil {
			return nil, domain.StockChange{}, false, err
		}
		if before != nil && before.ReorderThreshold == threshold {
			return before, domain.StockChange{}, false, nil
		}

		after, ok, err := l.writeRow(ctx, inv, before, warehouseID, productID, func(r *domain.InventoryRow) {
			r.ReorderThreshold = threshold
		})
		if err != nil {
			return nil, domain.StockChange{}, false, err
		}
		if !ok {
			continue
		}

		change := domain.StockChange{Before: before, After: after}
		if err := l.audit.Record(ctx, repos.Audit(), change); err != nil {
			return nil, domain.StockChange{}, false, err
		}
		return after, change, true, nil
	}

	return nil, domain.StockChange{}, false, fmt.Errorf("%w: inventory row %d/%d could not be created or locked",
		domain.ErrConcurrentModification, warehouseID, productID)
}

// CurrentStock returns the committed stock of a pair; a pair that never moved has zero
func (l *StockLedger) CurrentStock(ctx context.Context, warehouseID, productID int64) (int64, error) {
	row, err := l.inventory.Get(ctx, warehouseID, productID)
	if errors.Is(err, domain.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read stock for %d/%d: %w", warehouseID, productID, err)
	}
	return row.Stock, nil
}

// Movements returns the stock card of a pair in ledger order
func (l *StockLedger) Movements(ctx context.Context, warehouseID, productID int64) ([]domain.MovementEntry, error) {
	entries, err := l.movements.ListByPair(ctx, warehouseID, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to list movements for %d/%d: %w", warehouseID, productID, err)
	}
	return entries, nil
}

// Reconcile replays the ledger of a pair and compares it with the cached stock
func (l *StockLedger) Reconcile(ctx context.Context, warehouseID, productID int64) (*domain.Reconciliation, error) {
	rec, err := l.movements.Replay(ctx, warehouseID, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to replay ledger for %d/%d: %w", warehouseID, productID, err)
	}
	rec.Consistent = rec.Stock == rec.LedgerSum

	if !rec.Consistent {
		l.logger.ErrorContext(ctx, "ledger mismatch",
			slog.Int64("warehouse_id", warehouseID),
			slog.Int64("product_id", productID),
			slog.Int64("stock", rec.Stock),
			slog.Int64("ledger_sum", rec.LedgerSum))
	}
	return rec, nil
}

// ReconcileAll replays every inventory row and returns the mismatches and the number of rows checked
func (l *StockLedger) ReconcileAll(ctx context.Context, pageSize int) ([]domain.Reconciliation, int, error) {
	if pageSize <= 0 {
		pageSize = 200
	}

	var (
		after      domain.Pair
		checked    int
		mismatches []domain.Reconciliation
	)
	for {
		rows, err := l.inventory.ListRows(ctx, after, pageSize)
		if err != nil {
			return mismatches, checked, fmt.Errorf("failed to list inventory rows: %w", err)
		}
		for _, row := range rows {
			rec, err := l.Reconcile(ctx, row.WarehouseID, row.ProductID)
			if err != nil {
				return mismatches, checked, err
			}
			checked++
			if !rec.Consistent {
				mismatches = append(mismatches, *rec)
			}
		}
		if len(rows) < pageSize {
			return mismatches, checked, nil
		}
		after = rows[len(rows)-1].Pair()
	}
}

func (l *StockLedger) committed(ctx context.Context, changes []domain.StockChange) {
	for _, hook := range l.hooks {
		hook(ctx, changes)
	}
}

func (l *StockLedger) logFailure(ctx context.Context, msg string, err error, attrs ...any) {
	attrs = append(attrs, slog.String("error", err.Error()))
	if domain.IsBusinessError(err) {
		l.logger.InfoContext(ctx, msg, attrs...)
		return
	}
	l.logger.ErrorContext(ctx, msg, attrs...)
}
