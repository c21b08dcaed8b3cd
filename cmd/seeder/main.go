// cmd/seeder/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/tealeg/xlsx/v3"

	"github.com/ammerola/stockledger/internal/adapters/db"
	redis_a "github.com/ammerola/stockledger/internal/adapters/redis_adapter"
	"github.com/ammerola/stockledger/internal/core/domain"
	"github.com/ammerola/stockledger/internal/core/services"
	"github.com/ammerola/stockledger/internal/pkg/config"
	"github.com/ammerola/stockledger/internal/pkg/logger"
	"github.com/ammerola/stockledger/migrations"
)

// Catalog workbook columns
const (
	colSKU = iota
	colName
	colCategory
	colPrice
	colOpeningStock
	colThreshold
)

// CatalogRow is one product line of the catalog workbook
type CatalogRow struct {
	Line         int
	SKU          string
	Name         string
	Category     string
	Price        decimal.Decimal
	OpeningStock int64
	Threshold    *int64
}

// SeedStats summarizes a seeding run
type SeedStats struct {
	Products   int
	Movements  int
	Thresholds int
	Skipped    int
}

var demoCatalog = []CatalogRow{
	{SKU: "PEN-BLU-01", Name: "Ballpoint pen, blue", Category: "stationery", Price: decimal.RequireFromString("1.20"), OpeningStock: 500},
	{SKU: "PAD-A5-80", Name: "A5 notepad, 80 sheets", Category: "stationery", Price: decimal.RequireFromString("3.75"), OpeningStock: 120},
	{SKU: "CBL-USBC-1M", Name: "USB-C cable, 1m", Category: "electronics", Price: decimal.RequireFromString("9.90"), OpeningStock: 40},
	{SKU: "MSE-WL-02", Name: "Wireless mouse", Category: "electronics", Price: decimal.RequireFromString("24.50"), OpeningStock: 8},
	{SKU: "MUG-CER-350", Name: "Ceramic mug, 350ml", Category: "kitchen", Price: decimal.RequireFromString("6.40"), OpeningStock: 3},
}

var demoWarehouses = []domain.Warehouse{
	{Name: "Main", Location: "Dock A", Active: true},
	{Name: "Overflow", Location: "Dock B", Active: true},
}

var demoClients = []domain.Client{
	{Name: "Walk-in customer", Active: true},
	{Name: "Acme Supplies", Document: "ACME-001", Email: "orders@acme.test", Active: true},
}

func main() {
	var (
		file      = flag.String("file", "", "catalog workbook (.xlsx); demo catalog when empty")
		warehouse = flag.String("warehouse", "Main", "warehouse receiving the opening stock")
		migrate   = flag.Bool("migrate", true, "apply migrations before seeding")
		dryRun    = flag.Bool("dry-run", false, "parse the catalog without writing")
	)
	flag.Parse()

	slogger := logger.Setup(logger.Config{Level: "info", Format: "text", Service: "stockledger-seeder"})
	ctx := logger.WithPrincipal(context.Background(), "seeder")

	rows := demoCatalog
	if *file != "" {
		data, err := os.ReadFile(*file)
		if err != nil {
			slogger.Error("failed to read catalog", slog.String("file", *file), slog.String("error", err.Error()))
			os.Exit(1)
		}
		rows, err = ParseCatalogWorkbook(data)
		if err != nil {
			slogger.Error("failed to parse catalog", slog.String("file", *file), slog.String("error", err.Error()))
			os.Exit(1)
		}
	}
	slogger.Info("catalog loaded", slog.Int("products", len(rows)))

	if *dryRun {
		for _, r := range rows {
			fmt.Printf("%-16s %-32s %-12s %10s %6d\n", r.SKU, r.Name, r.Category, r.Price.StringFixed(2), r.OpeningStock)
		}
		return
	}

	cfg, err := config.Load(ctx, slogger)
	if err != nil {
		slogger.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if *migrate {
		err := db.RunMigrationsWithRetry(ctx, &db.MigrationConfig{
			DatabaseURL: cfg.GetDatabaseURL(),
			Source:      migrations.FS,
		}, slogger, 3)
		if err != nil {
			slogger.Error("failed to run migrations", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	database, err := db.NewDatabase(ctx, &db.Config{
		Host:               cfg.Database.Host,
		Port:               cfg.Database.Port,
		User:               cfg.Database.User,
		Password:           cfg.Database.Password,
		Database:           cfg.Database.Name,
		SSLMode:            cfg.Database.SSLMode,
		MaxConnections:     4,
		MinConnections:     1,
		MaxConnLifetime:    cfg.Database.MaxConnLifetime,
		MaxConnIdleTime:    cfg.Database.MaxConnIdleTime,
		HealthCheckPeriod:  cfg.Database.HealthCheckPeriod,
		ConnectTimeout:     cfg.Database.ConnectTimeout,
		StatementCacheMode: "describe",
	}, slogger)
	if err != nil {
		slogger.Error("failed to connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer database.Close()

	catalog := db.NewCatalogRepository(database, slogger)
	ledger := services.NewStockLedger(
		db.NewTxManager(database, slogger),
		db.NewInventoryRepository(database, slogger),
		db.NewMovementRepository(database, slogger),
		services.NewAuditTrail(db.NewAuditRepository(database, slogger), slogger),
		services.LedgerConfig{
			DefaultThreshold: cfg.Ledger.DefaultThreshold,
			MaxRetries:       cfg.Ledger.MaxRetries,
			RetryBackoff:     cfg.Ledger.RetryBackoff,
		},
		slogger,
	)

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()
	cached := redis_a.NewCachedCatalog(catalog, redis_a.NewCache(redisClient, cfg.Redis.TTL, slogger),
		cfg.Ledger.CatalogCacheTTL, slogger)

	seeder := &Seeder{catalog: catalog, ledger: ledger, cache: cached, logger: slogger}
	stats, err := seeder.Run(ctx, rows, *warehouse)
	if err != nil {
		slogger.Error("seeding failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slogger.Info("seeding completed",
		slog.Int("products", stats.Products),
		slog.Int("movements", stats.Movements),
		slog.Int("thresholds", stats.Thresholds),
		slog.Int("skipped", stats.Skipped))
}

// CatalogWriter creates catalog reference data
type CatalogWriter interface {
	EnsureCategory(ctx context.Context, name string) (int64, error)
	UpsertProduct(ctx context.Context, p *domain.Product) error
	UpsertWarehouse(ctx context.Context, w *domain.Warehouse) error
	CreateClient(ctx context.Context, c *domain.Client) error
}

// StockWriter records opening stock
type StockWriter interface {
	ApplyMovement(ctx context.Context, req domain.MovementRequest) (*domain.MovementEntry, error)
	SetThreshold(ctx context.Context, warehouseID, productID, threshold int64) (*domain.InventoryRow, error)
}

// CacheInvalidator drops cached catalog entries after a write
type CacheInvalidator interface {
	Invalidate(ctx context.Context) error
}

// Seeder writes the catalog and books opening stock through the ledger
type Seeder struct {
	catalog CatalogWriter
	ledger  StockWriter
	cache   CacheInvalidator
	logger  *slog.Logger
}

// Run seeds warehouses, clients and products, then receives opening stock into
// the named warehouse. Products whose opening movement fails are skipped.
func (s *Seeder) Run(ctx context.Context, rows []CatalogRow, receiving string) (SeedStats, error) {
	var stats SeedStats
	defer s.invalidate(ctx)

	var target int64
	for _, w := range demoWarehouses {
		if err := s.catalog.UpsertWarehouse(ctx, &w); err != nil {
			return stats, fmt.Errorf("failed to seed warehouse %s: %w", w.Name, err)
		}
		if strings.EqualFold(w.Name, receiving) {
			target = w.ID
		}
	}
	if target == 0 {
		w := domain.Warehouse{Name: receiving, Location: "unassigned", Active: true}
		if err := s.catalog.UpsertWarehouse(ctx, &w); err != nil {
			return stats, fmt.Errorf("failed to seed warehouse %s: %w", receiving, err)
		}
		target = w.ID
	}

	for _, c := range demoClients {
		if err := s.catalog.CreateClient(ctx, &c); err != nil {
			return stats, fmt.Errorf("failed to seed client %s: %w", c.Name, err)
		}
	}

	categories := make(map[string]int64)
	for _, row := range rows {
		categoryID, ok := categories[row.Category]
		if !ok {
			id, err := s.catalog.EnsureCategory(ctx, row.Category)
			if err != nil {
				return stats, fmt.Errorf("failed to seed category %s: %w", row.Category, err)
			}
			categories[row.Category] = id
			categoryID = id
		}

		product := domain.Product{SKU: row.SKU, Name: row.Name, CategoryID: categoryID, Price: row.Price, Active: true}
		if err := s.catalog.UpsertProduct(ctx, &product); err != nil {
			return stats, fmt.Errorf("failed to seed product %s: %w", row.SKU, err)
		}
		stats.Products++

		if row.OpeningStock > 0 {
			_, err := s.ledger.ApplyMovement(ctx, domain.MovementRequest{
				WarehouseID: target,
				ProductID:   product.ID,
				Kind:        domain.MovementIn,
				Quantity:    row.OpeningStock,
				Reference:   "opening:" + row.SKU,
			})
			if err != nil {
				s.logger.WarnContext(ctx, "opening stock rejected",
					slog.String("sku", row.SKU),
					slog.String("error", err.Error()))
				stats.Skipped++
				continue
			}
			stats.Movements++
		}

		if row.Threshold != nil {
			if _, err := s.ledger.SetThreshold(ctx, target, product.ID, *row.Threshold); err != nil {
				return stats, fmt.Errorf("failed to set threshold for %s: %w", row.SKU, err)
			}
			stats.Thresholds++
		}
	}

	return stats, nil
}

// invalidate is best effort; cached entries also expire with their TTL
func (s *Seeder) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.WarnContext(ctx, "failed to invalidate catalog cache",
			slog.String("error", err.Error()))
	}
}

// ParseCatalogWorkbook reads the first sheet of a catalog workbook. The first row
// is a header and blank rows are skipped.
func ParseCatalogWorkbook(data []byte) ([]CatalogRow, error) {
	file, err := xlsx.OpenBinary(data)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog workbook: %w", err)
	}
	if len(file.Sheets) == 0 {
		return nil, errors.New("catalog workbook has no sheets")
	}

	var (
		rows []CatalogRow
		errs []error
	)
	err = file.Sheets[0].ForEachRow(func(r *xlsx.Row) error {
		line := r.GetCoordinate() + 1
		if line == 1 {
			return nil
		}
		get := func(i int) string {
			c := r.GetCell(i)
			if c == nil {
				return ""
			}
			return strings.TrimSpace(c.Value)
		}
		if get(colSKU) == "" && get(colName) == "" {
			return nil
		}

		row, err := parseCatalogRow(get)
		if err != nil {
			errs = append(errs, fmt.Errorf("line %d: %w", line, err))
			return nil
		}
		row.Line = line
		rows = append(rows, row)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog rows: %w", err)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return rows, nil
}

func parseCatalogRow(get func(int) string) (CatalogRow, error) {
	row := CatalogRow{
		SKU:      get(colSKU),
		Name:     get(colName),
		Category: strings.ToLower(get(colCategory)),
	}
	if row.SKU == "" || row.Name == "" {
		return row, errors.New("sku and name are required")
	}
	if row.Category == "" {
		row.Category = "uncategorized"
	}

	price, err := decimal.NewFromString(get(colPrice))
	if err != nil || price.IsNegative() {
		return row, fmt.Errorf("invalid price %q", get(colPrice))
	}
	row.Price = price.Round(2)

	if s := get(colOpeningStock); s != "" {
		n, err := strconv.ParseFloat(s, 64)
		if err != nil || n < 0 || n != float64(int64(n)) {
			return row, fmt.Errorf("invalid opening stock %q", s)
		}
		row.OpeningStock = int64(n)
	}

	if s := get(colThreshold); s != "" {
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil || n < 0 {
			return row, fmt.Errorf("invalid reorder threshold %q", s)
		}
		row.Threshold = &n
	}

	return row, nil
}
