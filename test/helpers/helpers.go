// test/helpers/helpers.go
package helpers

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/ammerola/stockledger/internal/adapters/db"
	"github.com/ammerola/stockledger/internal/core/domain"
	"github.com/ammerola/stockledger/internal/pkg/config"
	"github.com/ammerola/stockledger/migrations"
)

// TestDB represents a test database instance
type TestDB struct {
	PgxPool  *pgxpool.Pool
	Database *db.Database
	Resource *dockertest.Resource
	Pool     *dockertest.Pool
	Config   *db.Config
}

// TestRedis represents a test Redis instance
type TestRedis struct {
	Client *redis.Client
	Server *miniredis.Miniredis
}

// SeededCatalog holds the ids created by SeedTestCatalog
type SeededCatalog struct {
	WarehouseID         int64
	InactiveWarehouseID int64
	ClientID            int64
	InactiveClientID    int64
	Products            []domain.Product
	InactiveProduct     domain.Product
}

// TestLogger returns a test logger
func TestLogger() *slog.Logger {
	level := slog.LevelError
	if testing.Verbose() {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}

// SetupTestDB starts PostgreSQL in a container and applies the embedded migrations
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	pool, err := dockertest.NewPool("")
	require.NoError(t, err, "Could not connect to Docker")

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "postgres",
		Tag:        "16-alpine",
		Env: []string{
			"POSTGRES_USER=test",
			"POSTGRES_PASSWORD=test",
			"POSTGRES_DB=test_stockledger",
			"listen_addresses = '*'",
		},
	}, func(config *docker.HostConfig) {
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	require.NoError(t, err, "Could not start PostgreSQL container")

	t.Cleanup(func() {
		if err := pool.Purge(resource); err != nil {
			t.Logf("Could not purge resource: %s", err)
		}
	})

	dbConfig := &db.Config{
		Host:               "localhost",
		Port:               resource.GetPort("5432/tcp"),
		User:               "test",
		Password:           "test",
		Database:           "test_stockledger",
		SSLMode:            "disable",
		MaxConnections:     20,
		MinConnections:     1,
		MaxConnLifetime:    time.Hour,
		MaxConnIdleTime:    30 * time.Minute,
		HealthCheckPeriod:  time.Minute,
		ConnectTimeout:     10 * time.Second,
		StatementCacheMode: "describe",
		EnableQueryLogging: testing.Verbose(),
	}

	var database *db.Database
	pool.MaxWait = 60 * time.Second
	err = pool.Retry(func() error {
		ctx := context.Background()
		var err error
		database, err = db.NewDatabase(ctx, dbConfig, TestLogger())
		if err != nil {
			return err
		}
		return database.Ping(ctx)
	})
	require.NoError(t, err, "Could not connect to PostgreSQL")
	t.Cleanup(database.Close)

	err = db.RunMigrationsWithRetry(context.Background(), &db.MigrationConfig{
		DatabaseURL: dbConfig.URL(),
		Source:      migrations.FS,
		TableName:   "schema_migrations",
		SchemaName:  "public",
	}, TestLogger(), 3)
	require.NoError(t, err, "Could not run migrations")

	return &TestDB{
		PgxPool:  database.Pool(),
		Database: database,
		Resource: resource,
		Pool:     pool,
		Config:   dbConfig,
	}
}

// SetupTestRedis creates an in-process Redis for testing
func SetupTestRedis(t *testing.T) *TestRedis {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	t.Cleanup(func() {
		client.Close()
	})

	return &TestRedis{
		Client: client,
		Server: mr,
	}
}

// LoadTestConfig returns a test configuration
func LoadTestConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{
			Name:        "stockledger-test",
			Environment: "test",
			Version:     "test",
			LogLevel:    "debug",
			LogFormat:   "text",
			Debug:       true,
		},
		Database: config.DatabaseConfig{
			Host:           "localhost",
			Port:           "5432",
			User:           "test",
			Password:       "test",
			Name:           "test_stockledger",
			SSLMode:        "disable",
			MaxConnections: 10,
			MinConnections: 2,
		},
		Redis: config.RedisConfig{
			Host:     "localhost",
			Port:     "6379",
			TTL:      time.Hour,
			PoolSize: 10,
		},
		Asynq: config.AsynqConfig{
			RedisAddr:   "localhost:6379",
			Concurrency: 2,
			Queues:      map[string]int{"critical": 6, "default": 3, "low": 1},
			RetryMax:    3,
		},
		AWS: config.AWSConfig{
			Region:   "us-east-1",
			S3Bucket: "stockledger-test",
		},
		Ledger: config.LedgerConfig{
			MaxRetries:         3,
			RetryBackoff:       time.Millisecond,
			DefaultThreshold:   domain.DefaultReorderThreshold,
			DefaultWarehouseID: TestWarehouseID,
			LowStockPageSize:   200,
			LowStockCacheTTL:   30 * time.Second,
			CatalogCacheTTL:    time.Minute,
			AlertCooldown:      time.Hour,
			LowStockScanCron:   "*/15 * * * *",
			ReconcileCron:      "0 3 * * *",
		},
		FileProcessing: config.FileProcessingConfig{
			ExcelMaxSizeMB:    5,
			ProcessingTimeout: time.Minute,
			TempDir:           os.TempDir(),
			ExportPrefix:      "exports/audit",
			ImportPrefix:      "imports/receipts",
			Storage:           "local",
		},
		Security: config.SecurityConfig{
			RateLimitRequests: 1000,
			RateLimitDuration: time.Minute,
			AllowedOrigins:    []string{"*"},
			RequestIDHeader:   "X-Request-ID",
			PrincipalHeader:   "X-User-ID",
		},
		Server: config.ServerConfig{
			Host:         "localhost",
			Port:         "8080",
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
		},
	}
}

// TruncateAllTables empties every ledger and catalog table and resets their sequences
func TruncateAllTables(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	_, err := pool.Exec(context.Background(), `
		TRUNCATE TABLE sale_lines, sales, inventory_audit, stock_movements, inventory,
			clients, warehouses, products, suppliers, categories
		RESTART IDENTITY CASCADE`)
	require.NoError(t, err, "Failed to truncate tables")
}

// SeedTestCatalog creates two warehouses, two clients, five active products and one inactive product
func SeedTestCatalog(t *testing.T, database *db.Database) SeededCatalog {
	t.Helper()

	ctx := context.Background()
	catalog := db.NewCatalogRepository(database, TestLogger())

	categoryID, err := catalog.EnsureCategory(ctx, "General")
	require.NoError(t, err)

	primary := &domain.Warehouse{Name: "Main", Location: "Dock A", Active: true}
	closed := &domain.Warehouse{Name: "Closed", Location: "Dock Z", Active: false}
	require.NoError(t, catalog.UpsertWarehouse(ctx, primary))
	require.NoError(t, catalog.UpsertWarehouse(ctx, closed))

	client := &domain.Client{Name: "Test Client", Email: "client@example.com", Active: true}
	gone := &domain.Client{Name: "Gone Client", Active: false}
	require.NoError(t, catalog.CreateClient(ctx, client))
	require.NoError(t, catalog.CreateClient(ctx, gone))

	seeded := SeededCatalog{
		WarehouseID:         primary.ID,
		InactiveWarehouseID: closed.ID,
		ClientID:            client.ID,
		InactiveClientID:    gone.ID,
	}

	for i, price := range []string{"19.99", "0.10", "1250.00", "5.00", "3.33"} {
		p := CreateTestProduct(0, price, func(p *domain.Product) {
			p.SKU = fmt.Sprintf("SKU-%03d", i+1)
			p.Name = fmt.Sprintf("Test Product %d", i+1)
			p.CategoryID = categoryID
		})
		require.NoError(t, catalog.UpsertProduct(ctx, &p))
		seeded.Products = append(seeded.Products, p)
	}

	inactive := CreateTestProduct(0, "1.00", func(p *domain.Product) {
		p.SKU = "SKU-OFF"
		p.CategoryID = categoryID
		p.Active = false
	})
	require.NoError(t, catalog.UpsertProduct(ctx, &inactive))
	seeded.InactiveProduct = inactive

	return seeded
}

// AssertEventuallyWithTimeout asserts that a condition is met within a timeout
func AssertEventuallyWithTimeout(t *testing.T, condition func() bool, timeout time.Duration, msg string) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return
		}
		time.Sleep(50 * time.Millisecond)
	}

	t.Errorf("Condition not met within %v: %s", timeout, msg)
}

// RequireDecimal asserts decimal equality against a literal
func RequireDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	require.True(t, decimal.RequireFromString(want).Equal(got), "want %s, got %s", want, got)
}
