package main

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v3"

	"github.com/ammerola/stockledger/internal/core/domain"
	"github.com/ammerola/stockledger/test/helpers"
)

func catalogWorkbook(t *testing.T, rows ...[]string) []byte {
	t.Helper()
	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Catalog")
	require.NoError(t, err)
	for _, values := range append([][]string{{"sku", "name", "category", "price", "opening_stock", "reorder_threshold"}}, rows...) {
		row := sheet.AddRow()
		for _, v := range values {
			row.AddCell().Value = v
		}
	}
	var buf bytes.Buffer
	require.NoError(t, file.Write(&buf))
	return buf.Bytes()
}

func TestParseCatalogWorkbook(t *testing.T) {
	tests := []struct {
		name    string
		rows    [][]string
		want    []CatalogRow
		wantErr string
	}{
		{
			name: "parses_rows",
			rows: [][]string{
				{"SKU-1", "Widget", "Tools", "12.345", "10", "4"},
				{"", "", "", "", "", ""},
				{"SKU-2", "Gadget", "", "3", "", ""},
			},
			want: []CatalogRow{
				{Line: 2, SKU: "SKU-1", Name: "Widget", Category: "tools", OpeningStock: 10},
				{Line: 4, SKU: "SKU-2", Name: "Gadget", Category: "uncategorized"},
			},
		},
		{
			name:    "negative_price",
			rows:    [][]string{{"SKU-1", "Widget", "tools", "-1", "1", ""}},
			wantErr: "line 2: invalid price",
		},
		{
			name:    "fractional_stock",
			rows:    [][]string{{"SKU-1", "Widget", "tools", "1", "1.5", ""}},
			wantErr: "invalid opening stock",
		},
		{
			name:    "missing_name",
			rows:    [][]string{{"SKU-1", "", "tools", "1", "1", ""}},
			wantErr: "sku and name are required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, err := ParseCatalogWorkbook(catalogWorkbook(t, tt.rows...))
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Len(t, rows, len(tt.want))
			for i, want := range tt.want {
				assert.Equal(t, want.Line, rows[i].Line)
				assert.Equal(t, want.SKU, rows[i].SKU)
				assert.Equal(t, want.Category, rows[i].Category)
				assert.Equal(t, want.OpeningStock, rows[i].OpeningStock)
			}
			assert.Equal(t, "12.35", rows[0].Price.StringFixed(2))
			require.NotNil(t, rows[0].Threshold)
			assert.Equal(t, int64(4), *rows[0].Threshold)
			assert.Nil(t, rows[1].Threshold)
		})
	}
}

type fakeCatalog struct {
	nextID     int64
	categories map[string]int64
	products   []domain.Product
	clients    int
}

func (f *fakeCatalog) id() int64 {
	f.nextID++
	return f.nextID
}

func (f *fakeCatalog) EnsureCategory(_ context.Context, name string) (int64, error) {
	if f.categories == nil {
		f.categories = make(map[string]int64)
	}
	if id, ok := f.categories[name]; ok {
		return id, nil
	}
	f.categories[name] = f.id()
	return f.categories[name], nil
}

func (f *fakeCatalog) UpsertProduct(_ context.Context, p *domain.Product) error {
	p.ID = f.id()
	f.products = append(f.products, *p)
	return nil
}

func (f *fakeCatalog) UpsertWarehouse(_ context.Context, w *domain.Warehouse) error {
	w.ID = f.id()
	return nil
}

func (f *fakeCatalog) CreateClient(_ context.Context, c *domain.Client) error {
	c.ID = f.id()
	f.clients++
	return nil
}

type fakeStock struct {
	movements  []domain.MovementRequest
	thresholds map[int64]int64
	reject     int64
}

func (f *fakeStock) ApplyMovement(_ context.Context, req domain.MovementRequest) (*domain.MovementEntry, error) {
	if req.ProductID == f.reject {
		return nil, errors.New("boom")
	}
	f.movements = append(f.movements, req)
	return &domain.MovementEntry{}, nil
}

func (f *fakeStock) SetThreshold(_ context.Context, _, productID, threshold int64) (*domain.InventoryRow, error) {
	if f.thresholds == nil {
		f.thresholds = make(map[int64]int64)
	}
	f.thresholds[productID] = threshold
	return &domain.InventoryRow{}, nil
}

type fakeInvalidator struct {
	calls int
	err   error
}

func (f *fakeInvalidator) Invalidate(context.Context) error {
	f.calls++
	return f.err
}

func TestSeeder_Run(t *testing.T) {
	catalog := &fakeCatalog{}
	stock := &fakeStock{}
	cache := &fakeInvalidator{}
	seeder := &Seeder{catalog: catalog, ledger: stock, cache: cache, logger: helpers.TestLogger()}

	four := int64(4)
	rows := []CatalogRow{
		{SKU: "A", Name: "A", Category: "tools", OpeningStock: 10, Threshold: &four},
		{SKU: "B", Name: "B", Category: "tools"},
		{SKU: "C", Name: "C", Category: "toys", OpeningStock: 2},
	}

	stats, err := seeder.Run(context.Background(), rows, "Overflow")
	require.NoError(t, err)

	assert.Equal(t, SeedStats{Products: 3, Movements: 2, Thresholds: 1}, stats)
	assert.Len(t, catalog.categories, 2)
	assert.Equal(t, len(demoClients), catalog.clients)

	// Main gets id 1, Overflow id 2
	for _, m := range stock.movements {
		assert.Equal(t, int64(2), m.WarehouseID)
		assert.Equal(t, domain.MovementIn, m.Kind)
	}
	assert.Equal(t, "opening:A", stock.movements[0].Reference)
	assert.Equal(t, int64(4), stock.thresholds[catalog.products[0].ID])
	assert.Equal(t, 1, cache.calls, "catalog cache is dropped after writing products")
}

func TestSeeder_Run_SkipsRejectedOpeningStock(t *testing.T) {
	catalog := &fakeCatalog{}
	// warehouses take ids 1-2 and clients 3-4; the category is 5 and the product 6
	stock := &fakeStock{reject: 6}
	cache := &fakeInvalidator{err: errors.New("redis unavailable")}
	seeder := &Seeder{catalog: catalog, ledger: stock, cache: cache, logger: helpers.TestLogger()}

	stats, err := seeder.Run(context.Background(), []CatalogRow{
		{SKU: "A", Name: "A", Category: "tools", OpeningStock: 1},
	}, "Main")
	require.NoError(t, err)
	assert.Equal(t, SeedStats{Products: 1, Skipped: 1}, stats)
	assert.Equal(t, 1, cache.calls)
}
