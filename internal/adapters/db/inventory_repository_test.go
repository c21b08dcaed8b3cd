package db

import (
	"testing"

	"github.com/Masterminds/squirrel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ammerola/stockledger/internal/core/domain"
)

func TestPairPage(t *testing.T) {
	tests := []struct {
		name     string
		builder  squirrel.SelectBuilder
		after    domain.Pair
		limit    int
		expected string
	}{
		{
			name: "low_stock_page",
			builder: squirrel.Select("warehouse_id", "product_id", "stock", "reorder_threshold").
				From("inventory").
				Where("stock <= reorder_threshold"),
			after: domain.Pair{WarehouseID: 1, ProductID: 7},
			limit: 200,
			expected: "SELECT warehouse_id, product_id, stock, reorder_threshold FROM inventory " +
				"WHERE stock <= reorder_threshold AND (warehouse_id, product_id) > ($1, $2) " +
				"ORDER BY warehouse_id, product_id LIMIT 200",
		},
		{
			name:    "first_page_of_all_rows",
			builder: squirrel.Select(inventoryColumns).From("inventory"),
			after:   domain.Pair{},
			limit:   50,
			expected: "SELECT " + inventoryColumns + " FROM inventory " +
				"WHERE (warehouse_id, product_id) > ($1, $2) " +
				"ORDER BY warehouse_id, product_id LIMIT 50",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			query, args, err := pairPage(tt.builder, tt.after, tt.limit).ToSql()
			require.NoError(t, err)
			assert.Equal(t, tt.expected, query)
			assert.Equal(t, []interface{}{tt.after.WarehouseID, tt.after.ProductID}, args)
		})
	}
}
