// internal/workers/lowstock_processor.go
package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	redis_a "github.com/ammerola/stockledger/internal/adapters/redis_adapter"
	"github.com/ammerola/stockledger/internal/core/domain"
	"github.com/ammerola/stockledger/internal/core/ports"
)

const scanBatchSize = 100

// LowStockProcessor delivers low-stock alerts and runs the periodic scan
type LowStockProcessor struct {
	monitor  ports.ReorderMonitorService
	notifier ports.LowStockNotifier
	cache    ports.CacheRepository
	cooldown time.Duration
	logger   *slog.Logger
}

// NewLowStockProcessor creates the processor. With a cache and a positive cooldown,
// a pair is alerted at most once per cooldown window.
func NewLowStockProcessor(
	monitor ports.ReorderMonitorService,
	notifier ports.LowStockNotifier,
	cache ports.CacheRepository,
	cooldown time.Duration,
	logger *slog.Logger,
) *LowStockProcessor {
	return &LowStockProcessor{
		monitor:  monitor,
		notifier: notifier,
		cache:    cache,
		cooldown: cooldown,
		logger:   logger.With(slog.String("processor", "lowstock")),
	}
}

// HandleAlert delivers one low-stock alert
func (p *LowStockProcessor) HandleAlert(ctx context.Context, t *asynq.Task) error {
	var payload LowStockAlertPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w: %w", err, asynq.SkipRetry)
	}

	pair := domain.Pair{WarehouseID: payload.WarehouseID, ProductID: payload.ProductID}
	if !p.claim(ctx, pair) {
		p.logger.DebugContext(ctx, "low stock alert suppressed by cooldown",
			slog.String("pair", pair.String()))
		return nil
	}

	p.logger.WarnContext(ctx, "reorder threshold reached",
		slog.Int64("warehouse_id", payload.WarehouseID),
		slog.Int64("product_id", payload.ProductID),
		slog.Int64("stock", payload.Stock),
		slog.Int64("threshold", payload.ReorderThreshold),
		slog.Time("detected_at", payload.DetectedAt))

	return nil
}

// claim reports whether the alert for pair should be delivered now
func (p *LowStockProcessor) claim(ctx context.Context, pair domain.Pair) bool {
	if p.cache == nil || p.cooldown <= 0 {
		return true
	}

	key := redis_a.BuildKey(redis_a.PrefixAlert, pair.String())
	ok, err := p.cache.SetNX(ctx, key, time.Now().UTC(), p.cooldown)
	if err != nil {
		p.logger.WarnContext(ctx, "alert cooldown unavailable, delivering",
			slog.String("pair", pair.String()),
			slog.String("error", err.Error()))
		return true
	}
	return ok
}

// ScanResult summarizes a low-stock scan
type ScanResult struct {
	Pairs    int    `json:"pairs"`
	Duration string `json:"duration"`
}

// HandleScan walks every low-stock pair and publishes alerts in batches
func (p *LowStockProcessor) HandleScan(ctx context.Context, t *asynq.Task) error {
	start := time.Now()
	p.logger.InfoContext(ctx, "scanning for low stock")

	var (
		total int
		batch = make([]domain.LowStockPair, 0, scanBatchSize)
	)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := p.notifier.NotifyLowStock(ctx, batch); err != nil {
			return fmt.Errorf("failed to publish low stock alerts: %w", err)
		}
		batch = batch[:0]
		return nil
	}

	for pair, err := range p.monitor.LowStockPairs(ctx) {
		if err != nil {
			return err
		}
		total++
		batch = append(batch, pair)
		if len(batch) == scanBatchSize {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	if err := flush(); err != nil {
		return err
	}

	result := ScanResult{Pairs: total, Duration: time.Since(start).String()}
	writeResult(t, result)

	p.logger.InfoContext(ctx, "low stock scan completed",
		slog.Int("pairs", total),
		slog.Duration("duration", time.Since(start)))

	return nil
}
