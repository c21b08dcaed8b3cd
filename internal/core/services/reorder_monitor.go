// internal/core/services/reorder_monitor.go
package services

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/ammerola/stockledger/internal/core/domain"
	"github.com/ammerola/stockledger/internal/core/ports"
)

const (
	lowStockCachePrefix = "lowstock"
	// lowStockGenerationKey changes on every commit; snapshot keys embed it
	lowStockGenerationKey = lowStockCachePrefix + ":generation"
)

// MonitorConfig tunes the reorder monitor
type MonitorConfig struct {
	PageSize int
	CacheTTL time.Duration
}

// ReorderMonitor reports pairs at or below their reorder threshold
type ReorderMonitor struct {
	reader   ports.InventoryReader
	cache    ports.CacheRepository
	notifier ports.LowStockNotifier
	cfg      MonitorConfig
	logger   *slog.Logger
}

var _ ports.ReorderMonitorService = (*ReorderMonitor)(nil)

// NewReorderMonitor creates the monitor. cache and notifier may be nil.
func NewReorderMonitor(reader ports.InventoryReader, cache ports.CacheRepository, notifier ports.LowStockNotifier, cfg MonitorConfig, logger *slog.Logger) *ReorderMonitor {
	if cfg.PageSize <= 0 {
		cfg.PageSize = 200
	}
	return &ReorderMonitor{
		reader:   reader,
		cache:    cache,
		notifier: notifier,
		cfg:      cfg,
		logger:   logger.With(slog.String("service", "reorder")),
	}
}

// LowStockPairs returns a lazy sequence of low-stock pairs in (warehouse, product) order.
// Each range over the sequence starts a fresh scan; pages are read only as they are consumed.
func (m *ReorderMonitor) LowStockPairs(ctx context.Context) iter.Seq2[domain.LowStockPair, error] {
	return func(yield func(domain.LowStockPair, error) bool) {
		var after domain.Pair
		for {
			page, err := m.reader.ListLowStock(ctx, after, m.cfg.PageSize)
			if err != nil {
				yield(domain.LowStockPair{}, fmt.Errorf("failed to scan low stock after %s: %w", after, err))
				return
			}
			for _, p := range page {
				if !yield(p, nil) {
					return
				}
			}
			if len(page) < m.cfg.PageSize {
				return
			}
			after = page[len(page)-1].Pair()
		}
	}
}

// Snapshot collects up to limit low-stock pairs, served from cache when possible.
// limit <= 0 collects everything.
func (m *ReorderMonitor) Snapshot(ctx context.Context, limit int) ([]domain.LowStockPair, error) {
	if m.cache == nil || m.cfg.CacheTTL <= 0 {
		return m.collect(ctx, limit)
	}

	key := lowStockCachePrefix + ":snapshot:" + m.generation(ctx) + ":" + strconv.Itoa(limit)
	var pairs []domain.LowStockPair
	err := m.cache.GetOrSet(ctx, key, &pairs, func() (interface{}, error) {
		return m.collect(ctx, limit)
	}, m.cfg.CacheTTL)
	if err == nil {
		return pairs, nil
	}

	m.logger.WarnContext(ctx, "low stock cache unavailable, reading store",
		slog.String("error", err.Error()))
	return m.collect(ctx, limit)
}

func (m *ReorderMonitor) collect(ctx context.Context, limit int) ([]domain.LowStockPair, error) {
	pairs := make([]domain.LowStockPair, 0)
	for p, err := range m.LowStockPairs(ctx) {
		if err != nil {
			return nil, err
		}
		pairs = append(pairs, p)
		if limit > 0 && len(pairs) >= limit {
			break
		}
	}
	return pairs, nil
}

// generation returns the current snapshot generation, "0" when none is recorded
func (m *ReorderMonitor) generation(ctx context.Context) string {
	var gen string
	if err := m.cache.Get(ctx, lowStockGenerationKey, &gen); err != nil || gen == "" {
		return "0"
	}
	return gen
}

// HandleCommitted moves cached snapshots to a new generation and publishes pairs
// that just crossed into low stock. Both steps are best effort. Snapshots of older
// generations are never read again and expire with their TTL.
func (m *ReorderMonitor) HandleCommitted(ctx context.Context, changes []domain.StockChange) {
	if m.cache != nil {
		if err := m.cache.SetWithTTL(ctx, lowStockGenerationKey, uuid.NewString(), 0); err != nil {
			m.logger.WarnContext(ctx, "failed to invalidate low stock cache",
				slog.String("error", err.Error()))
		}
	}

	if m.notifier == nil {
		return
	}

	var crossed []domain.LowStockPair
	for _, c := range changes {
		if c.After == nil || !c.After.IsLow() {
			continue
		}
		if c.Before != nil && c.Before.IsLow() {
			continue
		}
		crossed = append(crossed, domain.LowStockPair{
			WarehouseID:      c.After.WarehouseID,
			ProductID:        c.After.ProductID,
			Stock:            c.After.Stock,
			ReorderThreshold: c.After.ReorderThreshold,
		})
	}
	if len(crossed) == 0 {
		return
	}

	if err := m.notifier.NotifyLowStock(ctx, crossed); err != nil {
		m.logger.WarnContext(ctx, "failed to publish low stock alerts",
			slog.Int("pairs", len(crossed)),
			slog.String("error", err.Error()))
	}
}
