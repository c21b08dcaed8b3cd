package db_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ammerola/stockledger/internal/adapters/db"
	"github.com/ammerola/stockledger/internal/core/domain"
	"github.com/ammerola/stockledger/internal/core/ports"
	"github.com/ammerola/stockledger/internal/core/services"
	"github.com/ammerola/stockledger/internal/pkg/logger"
	"github.com/ammerola/stockledger/migrations"
	"github.com/ammerola/stockledger/test/helpers"
)

type ledgerStack struct {
	testDB    *helpers.TestDB
	tx        *db.TxManager
	inventory *db.InventoryRepository
	movements *db.MovementRepository
	audit     *db.AuditRepository
	sales     *db.SaleRepository
	catalog   *db.CatalogRepository
	ledger    *services.StockLedger
	poster    *services.SalePoster
	seeded    helpers.SeededCatalog
}

func newLedgerStack(t *testing.T, testDB *helpers.TestDB) *ledgerStack {
	t.Helper()

	helpers.TruncateAllTables(t, testDB.PgxPool)
	seeded := helpers.SeedTestCatalog(t, testDB.Database)

	log := helpers.TestLogger()
	s := &ledgerStack{
		testDB:    testDB,
		tx:        db.NewTxManager(testDB.Database, log),
		inventory: db.NewInventoryRepository(testDB.Database, log),
		movements: db.NewMovementRepository(testDB.Database, log),
		audit:     db.NewAuditRepository(testDB.Database, log),
		sales:     db.NewSaleRepository(testDB.Database, log),
		catalog:   db.NewCatalogRepository(testDB.Database, log),
		seeded:    seeded,
	}

	cfg := services.DefaultLedgerConfig()
	cfg.MaxRetries = 10
	cfg.RetryBackoff = 5 * time.Millisecond

	trail := services.NewAuditTrail(s.audit, log)
	s.ledger = services.NewStockLedger(s.tx, s.inventory, s.movements, trail, cfg, log)
	s.poster = services.NewSalePoster(s.tx, s.sales, s.catalog, s.ledger, seeded.WarehouseID, log)
	return s
}

func (s *ledgerStack) productID(i int) int64 {
	return s.seeded.Products[i].ID
}

func (s *ledgerStack) receive(t *testing.T, productID, qty int64) {
	t.Helper()
	_, err := s.ledger.ApplyMovement(context.Background(), domain.MovementRequest{
		WarehouseID: s.seeded.WarehouseID,
		ProductID:   productID,
		Kind:        domain.MovementIn,
		Quantity:    qty,
		Reference:   "receipt",
	})
	require.NoError(t, err)
}

func TestLedger_Postgres(t *testing.T) {
	testDB := helpers.SetupTestDB(t)

	t.Run("movement_writes_row_ledger_and_audit", func(t *testing.T) {
		s := newLedgerStack(t, testDB)
		ctx := logger.WithPrincipal(context.Background(), "clerk-1")
		p := s.productID(0)

		entry, err := s.ledger.ApplyMovement(ctx, domain.MovementRequest{
			WarehouseID: s.seeded.WarehouseID, ProductID: p, Kind: domain.MovementIn, Quantity: 12, Reference: "PO-1",
		})
		require.NoError(t, err)
		assert.NotZero(t, entry.ID)
		assert.False(t, entry.OccurredAt.IsZero())

		row, err := s.inventory.Get(ctx, s.seeded.WarehouseID, p)
		require.NoError(t, err)
		assert.Equal(t, int64(12), row.Stock)
		assert.Equal(t, domain.DefaultReorderThreshold, row.ReorderThreshold)

		records, err := s.audit.List(ctx, domain.AuditFilter{ProductID: &p})
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, domain.AuditInsert, records[0].Action)
		assert.Equal(t, "clerk-1", records[0].Principal)
		require.NotNil(t, records[0].NewStock)
		assert.Equal(t, int64(12), *records[0].NewStock)
		assert.Nil(t, records[0].OldStock)
	})

	t.Run("rejected_movement_writes_nothing", func(t *testing.T) {
		s := newLedgerStack(t, testDB)
		ctx := context.Background()
		p := s.productID(0)
		s.receive(t, p, 3)

		_, err := s.ledger.ApplyMovement(ctx, domain.MovementRequest{
			WarehouseID: s.seeded.WarehouseID, ProductID: p, Kind: domain.MovementOut, Quantity: 4, Reference: "x",
		})
		assert.ErrorIs(t, err, domain.ErrInsufficientStock)

		rec, err := s.movements.Replay(ctx, s.seeded.WarehouseID, p)
		require.NoError(t, err)
		assert.Equal(t, int64(3), rec.Stock)
		assert.Equal(t, int64(3), rec.LedgerSum)
		assert.Equal(t, int64(1), rec.Movements)

		records, err := s.audit.List(ctx, domain.AuditFilter{ProductID: &p})
		require.NoError(t, err)
		assert.Len(t, records, 1)
	})

	t.Run("unknown_product_is_unknown_reference", func(t *testing.T) {
		s := newLedgerStack(t, testDB)

		_, err := s.ledger.ApplyMovement(context.Background(), domain.MovementRequest{
			WarehouseID: s.seeded.WarehouseID, ProductID: 424242, Kind: domain.MovementIn, Quantity: 1, Reference: "x",
		})
		assert.ErrorIs(t, err, domain.ErrUnknownReference)
	})

	t.Run("tx_manager_rolls_back_on_error", func(t *testing.T) {
		s := newLedgerStack(t, testDB)
		ctx := context.Background()
		boom := errors.New("boom")
		p := s.productID(1)

		err := s.tx.WithinTx(ctx, func(ctx context.Context, repos ports.TxRepositories) error {
			row := domain.NewInventoryRow(s.seeded.WarehouseID, p, 5)
			row.Stock = 9
			ok, err := repos.Inventory().Insert(ctx, row)
			require.NoError(t, err)
			require.True(t, ok)
			return boom
		})
		assert.ErrorIs(t, err, boom)

		_, err = s.inventory.Get(ctx, s.seeded.WarehouseID, p)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("concurrent_first_movements_on_new_pair", func(t *testing.T) {
		s := newLedgerStack(t, testDB)
		ctx := context.Background()
		p := s.productID(2)

		const workers = 12
		var wg sync.WaitGroup
		errs := make(chan error, workers)
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := s.ledger.ApplyMovement(ctx, domain.MovementRequest{
					WarehouseID: s.seeded.WarehouseID, ProductID: p, Kind: domain.MovementIn, Quantity: 2, Reference: "race",
				})
				errs <- err
			}()
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			require.NoError(t, err)
		}

		rec, err := s.ledger.Reconcile(ctx, s.seeded.WarehouseID, p)
		require.NoError(t, err)
		assert.True(t, rec.Consistent)
		assert.Equal(t, int64(workers*2), rec.Stock)
		assert.Equal(t, int64(workers), rec.Movements)

		records, err := s.audit.List(ctx, domain.AuditFilter{ProductID: &p})
		require.NoError(t, err)
		assert.Len(t, records, workers)
	})

	t.Run("concurrent_sales_never_oversell", func(t *testing.T) {
		s := newLedgerStack(t, testDB)
		ctx := context.Background()
		p := s.productID(0)
		s.receive(t, p, 10)

		var (
			wg        sync.WaitGroup
			mu        sync.Mutex
			succeeded int
		)
		for i := 0; i < 2; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := s.poster.PostSale(ctx, domain.SaleRequest{
					ClientID:    s.seeded.ClientID,
					WarehouseID: s.seeded.WarehouseID,
					Lines:       []domain.SaleLineRequest{{ProductID: p, Quantity: 7}},
				})
				if err == nil {
					mu.Lock()
					succeeded++
					mu.Unlock()
					return
				}
				assert.ErrorIs(t, err, domain.ErrInsufficientStock)
			}()
		}
		wg.Wait()

		assert.Equal(t, 1, succeeded)
		stock, err := s.ledger.CurrentStock(ctx, s.seeded.WarehouseID, p)
		require.NoError(t, err)
		assert.Equal(t, int64(3), stock)
	})

	t.Run("sale_round_trip", func(t *testing.T) {
		s := newLedgerStack(t, testDB)
		ctx := context.Background()
		s.receive(t, s.productID(0), 5)
		s.receive(t, s.productID(1), 5)

		sale, err := s.poster.PostSale(ctx, domain.SaleRequest{
			ClientID: s.seeded.ClientID,
			Lines: []domain.SaleLineRequest{
				{ProductID: s.productID(1), Quantity: 3},
				{ProductID: s.productID(0), Quantity: 2},
			},
		})
		require.NoError(t, err)

		stored, err := s.sales.Get(ctx, sale.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.SaleOpen, stored.Status)
		assert.Equal(t, s.seeded.WarehouseID, stored.WarehouseID)
		// 2 x 19.99 + 3 x 0.10
		assert.True(t, decimal.RequireFromString("40.28").Equal(stored.Total), "total %s", stored.Total)
		require.Len(t, stored.Lines, 2)
		assert.Less(t, stored.Lines[0].ProductID, stored.Lines[1].ProductID)

		moves, err := s.ledger.Movements(ctx, s.seeded.WarehouseID, s.productID(0))
		require.NoError(t, err)
		require.Len(t, moves, 2)
		assert.Equal(t, int64(-2), moves[1].Quantity)
		assert.Equal(t, sale.ID.String(), moves[1].Reference)

		done, err := s.poster.FinalizeSale(ctx, sale.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.SaleFinalized, done.Status)

		_, err = s.poster.CancelSale(ctx, sale.ID)
		assert.ErrorIs(t, err, domain.ErrInvalidSaleTransition)

		_, err = s.sales.Get(ctx, uuid.New())
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("inactive_product_rejects_whole_sale", func(t *testing.T) {
		s := newLedgerStack(t, testDB)
		ctx := context.Background()
		s.receive(t, s.productID(0), 5)

		_, err := s.poster.PostSale(ctx, domain.SaleRequest{
			ClientID: s.seeded.ClientID,
			Lines: []domain.SaleLineRequest{
				{ProductID: s.productID(0), Quantity: 1},
				{ProductID: s.seeded.InactiveProduct.ID, Quantity: 1},
			},
		})
		assert.ErrorIs(t, err, domain.ErrUnknownOrInactiveProduct)

		stock, err := s.ledger.CurrentStock(ctx, s.seeded.WarehouseID, s.productID(0))
		require.NoError(t, err)
		assert.Equal(t, int64(5), stock)
	})

	t.Run("low_stock_paging_and_threshold", func(t *testing.T) {
		s := newLedgerStack(t, testDB)
		ctx := context.Background()
		for i := range s.seeded.Products {
			s.receive(t, s.productID(i), int64(i+3)) // 3,4,5,6,7
		}

		low, err := s.inventory.ListLowStock(ctx, domain.Pair{}, 2)
		require.NoError(t, err)
		require.Len(t, low, 2)
		assert.Equal(t, s.productID(0), low[0].ProductID)
		assert.Equal(t, s.productID(1), low[1].ProductID)

		rest, err := s.inventory.ListLowStock(ctx, low[1].Pair(), 10)
		require.NoError(t, err)
		require.Len(t, rest, 1)
		assert.Equal(t, s.productID(2), rest[0].ProductID)

		_, err = s.ledger.SetThreshold(ctx, s.seeded.WarehouseID, s.productID(4), 7)
		require.NoError(t, err)

		all, err := s.inventory.ListLowStock(ctx, domain.Pair{}, 10)
		require.NoError(t, err)
		assert.Len(t, all, 4)

		p := s.productID(4)
		records, err := s.audit.List(ctx, domain.AuditFilter{ProductID: &p, Limit: 1})
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, domain.AuditUpdate, records[0].Action)
		require.NotNil(t, records[0].OldThreshold)
		assert.Equal(t, int64(5), *records[0].OldThreshold)
		assert.Equal(t, int64(7), *records[0].NewThreshold)
	})

	t.Run("audit_list_filters_by_time", func(t *testing.T) {
		s := newLedgerStack(t, testDB)
		ctx := context.Background()
		s.receive(t, s.productID(0), 1)
		cut := time.Now().UTC()
		time.Sleep(10 * time.Millisecond)
		s.receive(t, s.productID(0), 1)

		wh := s.seeded.WarehouseID
		after, err := s.audit.List(ctx, domain.AuditFilter{WarehouseID: &wh, From: &cut})
		require.NoError(t, err)
		require.Len(t, after, 1)
		assert.Equal(t, domain.AuditUpdate, after[0].Action)

		before, err := s.audit.List(ctx, domain.AuditFilter{To: &cut})
		require.NoError(t, err)
		require.Len(t, before, 1)
		assert.Equal(t, domain.AuditInsert, before[0].Action)
	})

	t.Run("reconcile_all_pages_every_row", func(t *testing.T) {
		s := newLedgerStack(t, testDB)
		ctx := context.Background()
		for i := range s.seeded.Products {
			s.receive(t, s.productID(i), 1)
		}

		mismatches, checked, err := s.ledger.ReconcileAll(ctx, 2)
		require.NoError(t, err)
		assert.Empty(t, mismatches)
		assert.Equal(t, len(s.seeded.Products), checked)
	})

	t.Run("migrations_report_version", func(t *testing.T) {
		m, err := db.NewMigrator(&db.MigrationConfig{
			DatabaseURL: testDB.Config.URL(),
			Source:      migrations.FS,
		}, helpers.TestLogger())
		require.NoError(t, err)
		defer m.Close()

		version, dirty, err := m.Version()
		require.NoError(t, err)
		assert.False(t, dirty)
		assert.Equal(t, uint(2), version)
	})
}
