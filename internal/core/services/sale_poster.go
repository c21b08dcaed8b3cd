// internal/core/services/sale_poster.go
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/ammerola/stockledger/internal/core/domain"
	"github.com/ammerola/stockledger/internal/core/ports"
)

const catalogLookupConcurrency = 8

// SalePoster posts multi-line sales as one unit of work over the stock ledger
type SalePoster struct {
	tx                 ports.TxManager
	sales              ports.SaleReader
	catalog            ports.CatalogGateway
	ledger             *StockLedger
	defaultWarehouseID int64
	now                func() time.Time
	logger             *slog.Logger
}

var _ ports.SalePosterService = (*SalePoster)(nil)

// NewSalePoster creates the sale poster. defaultWarehouseID serves requests without a warehouse.
func NewSalePoster(
	tx ports.TxManager,
	sales ports.SaleReader,
	catalog ports.CatalogGateway,
	ledger *StockLedger,
	defaultWarehouseID int64,
	logger *slog.Logger,
) *SalePoster {
	return &SalePoster{
		tx:                 tx,
		sales:              sales,
		catalog:            catalog,
		ledger:             ledger,
		defaultWarehouseID: defaultWarehouseID,
		now:                time.Now,
		logger:             logger.With(slog.String("service", "sales")),
	}
}

// PostSale validates, prices and posts a sale. Either every line moves stock and the
// sale is stored, or nothing is written.
func (p *SalePoster) PostSale(ctx context.Context, req domain.SaleRequest) (*domain.Sale, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	warehouseID := req.WarehouseID
	if warehouseID == 0 {
		warehouseID = p.defaultWarehouseID
	}
	if err := p.checkParties(ctx, req.ClientID, warehouseID); err != nil {
		return nil, err
	}

	prices, err := p.resolvePrices(ctx, req.Lines)
	if err != nil {
		p.logger.InfoContext(ctx, "sale rejected",
			slog.Int64("client_id", req.ClientID),
			slog.String("error", err.Error()))
		return nil, err
	}

	sale := &domain.Sale{
		ID:          uuid.New(),
		ClientID:    req.ClientID,
		WarehouseID: warehouseID,
	}
	for _, line := range req.SortedLines() {
		sale.Lines = append(sale.Lines, domain.NewSaleLine(sale.ID, line.ProductID, line.Quantity, prices[line.ProductID]))
	}
	sale.PrepareForStorage(p.now().UTC())

	var changes []domain.StockChange
	err = withRetry(ctx, p.ledger.retryPolicy(), p.logger, "post sale", func() error {
		changes = changes[:0]
		return p.tx.WithinTx(ctx, func(ctx context.Context, repos ports.TxRepositories) error {
			for _, line := range sale.Lines {
				_, change, err := p.ledger.applyMovementTx(ctx, repos, domain.MovementRequest{
					WarehouseID: warehouseID,
					ProductID:   line.ProductID,
					Kind:        domain.MovementOut,
					Quantity:    line.Quantity,
					Reference:   sale.ID.String(),
				})
				if err != nil {
					return err
				}
				changes = append(changes, change)
			}

			if err := repos.Sales().Insert(ctx, sale); err != nil {
				return fmt.Errorf("failed to store sale: %w", err)
			}
			return nil
		})
	})
	if err != nil {
		p.ledger.logFailure(ctx, "sale rejected", err,
			slog.String("sale_id", sale.ID.String()),
			slog.Int64("client_id", sale.ClientID),
			slog.Int("lines", len(sale.Lines)))
		return nil, err
	}

	p.ledger.committed(ctx, changes)

	p.logger.InfoContext(ctx, "sale posted",
		slog.String("sale_id", sale.ID.String()),
		slog.Int64("client_id", sale.ClientID),
		slog.Int64("warehouse_id", sale.WarehouseID),
		slog.Int("lines", len(sale.Lines)),
		slog.String("total", sale.Total.StringFixed(domain.TotalScale)))

	return sale, nil
}

func (p *SalePoster) checkParties(ctx context.Context, clientID, warehouseID int64) error {
	client, err := p.catalog.GetClient(ctx, clientID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return fmt.Errorf("%w: client %d not found", domain.ErrInvalidSaleRequest, clientID)
	case err != nil:
		return fmt.Errorf("failed to look up client %d: %w", clientID, err)
	case !client.Active:
		return fmt.Errorf("%w: client %d is inactive", domain.ErrInvalidSaleRequest, clientID)
	}

	warehouse, err := p.catalog.GetWarehouse(ctx, warehouseID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return fmt.Errorf("%w: warehouse %d not found", domain.ErrInvalidSaleRequest, warehouseID)
	case err != nil:
		return fmt.Errorf("failed to look up warehouse %d: %w", warehouseID, err)
	case !warehouse.Active:
		return fmt.Errorf("%w: warehouse %d is inactive", domain.ErrInvalidSaleRequest, warehouseID)
	}
	return nil
}

// resolvePrices looks every product up concurrently. The reported failure is the one
// on the earliest request line.
func (p *SalePoster) resolvePrices(ctx context.Context, lines []domain.SaleLineRequest) (map[int64]decimal.Decimal, error) {
	prices := make([]decimal.Decimal, len(lines))
	errs := make([]error, len(lines))

	var g errgroup.Group
	g.SetLimit(catalogLookupConcurrency)
	for i, line := range lines {
		g.Go(func() error {
			product, err := p.catalog.GetActiveProduct(ctx, line.ProductID)
			switch {
			case errors.Is(err, domain.ErrNotFound):
				errs[i] = &domain.ProductError{ProductID: line.ProductID}
			case err != nil:
				errs[i] = fmt.Errorf("failed to look up product %d: %w", line.ProductID, err)
			case !product.Active:
				errs[i] = &domain.ProductError{ProductID: line.ProductID}
			default:
				prices[i] = product.Price
			}
			return nil
		})
	}
	_ = g.Wait()

	byProduct := make(map[int64]decimal.Decimal, len(lines))
	for i, line := range lines {
		if errs[i] != nil {
			return nil, errs[i]
		}
		byProduct[line.ProductID] = prices[i]
	}
	return byProduct, nil
}

// GetSale returns a posted sale with its lines
func (p *SalePoster) GetSale(ctx context.Context, id uuid.UUID) (*domain.Sale, error) {
	sale, err := p.sales.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get sale %s: %w", id, err)
	}
	return sale, nil
}

// FinalizeSale confirms an open sale. It has no ledger effect.
func (p *SalePoster) FinalizeSale(ctx context.Context, id uuid.UUID) (*domain.Sale, error) {
	return p.transition(ctx, id, domain.SaleFinalized)
}

// CancelSale cancels an open sale. Stock is not returned; callers post a compensating
// IN movement referencing the sale when they want it back.
func (p *SalePoster) CancelSale(ctx context.Context, id uuid.UUID) (*domain.Sale, error) {
	return p.transition(ctx, id, domain.SaleCancelled)
}

func (p *SalePoster) transition(ctx context.Context, id uuid.UUID, to domain.SaleStatus) (*domain.Sale, error) {
	var sale *domain.Sale
	err := withRetry(ctx, p.ledger.retryPolicy(), p.logger, "sale transition", func() error {
		return p.tx.WithinTx(ctx, func(ctx context.Context, repos ports.TxRepositories) error {
			current, err := repos.Sales().GetForUpdate(ctx, id)
			if err != nil {
				return fmt.Errorf("failed to load sale %s: %w", id, err)
			}
			if !current.Status.CanTransitionTo(to) {
				return &domain.TransitionError{From: current.Status, To: to}
			}

			current.Status = to
			current.UpdatedAt = p.now().UTC()
			if err := repos.Sales().UpdateStatus(ctx, current); err != nil {
				return fmt.Errorf("failed to update sale %s: %w", id, err)
			}
			sale = current
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	p.logger.InfoContext(ctx, "sale status changed",
		slog.String("sale_id", id.String()),
		slog.String("status", string(to)))

	return sale, nil
}
