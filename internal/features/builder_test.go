package features

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dhkim-dev/ordersight/internal/salesdata"
	"github.com/dhkim-dev/ordersight/pkg/database"
)

func TestToFeatureRow(t *testing.T) {
	agg := salesdata.DailyAggregate{
		Date:          "2026-08-20",
		TotalSales:    40,
		TotalPurchase: 50,
		TotalDisposal: 10,
		TotalSoldout:  2,
		TotalStock:    30,
		Weekday:       3,
		Month:         8,
		WeekOfYear:    34,
		IsHoliday:     0,
		Temperature:   27.5,
		Rainfall:      0,
	}

	row := toFeatureRow("001", agg)

	assert.Equal(t, "2026-08-20", row.Date.Format("2006-01-02"))
	assert.Equal(t, 3, row.Weekday)
	assert.InDelta(t, 10.0/50.0, row.DisposalRatio, 0.001, "disposal / (sales + disposal)")
	assert.Equal(t, 10.0, row.DemandGap, "purchase - sales")
	assert.False(t, row.IsStockout)
	assert.Equal(t, 1.0, row.ShelfLifeDays, "도시락은 유통기한 1일")
	assert.Equal(t, 50.0, row.TrueDemand())
}

func TestToFeatureRow_StockoutDay(t *testing.T) {
	agg := salesdata.DailyAggregate{Date: "2026-08-20", TotalSales: 5, TotalStock: 0}

	row := toFeatureRow("001", agg)
	assert.True(t, row.IsStockout)
}

func TestToFeatureRow_ZeroDemandDoesNotDivideByZero(t *testing.T) {
	agg := salesdata.DailyAggregate{Date: "2026-08-20"}

	row := toFeatureRow("001", agg)
	assert.Equal(t, 0.0, row.DisposalRatio)
}

func seedSalesDB(t *testing.T) *database.DB {
	t.Helper()

	db, err := database.Open(filepath.Join(t.TempDir(), "store_test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, db.Gorm.Exec(`
		CREATE TABLE mid_sales (
			collected_at TEXT,
			mid_code TEXT, mid_name TEXT,
			product_code TEXT, product_name TEXT,
			sales INTEGER, order_cnt INTEGER, purchase INTEGER,
			disposal INTEGER, stock INTEGER, soldout INTEGER,
			weekday INTEGER, month INTEGER, week_of_year INTEGER, is_holiday INTEGER,
			temperature REAL, rainfall REAL
		)`).Error)

	// 이틀치, 둘째 날은 전 상품 품절
	rows := []struct {
		ts    string
		code  string
		sales int
		stock int
	}{
		{"2026-08-19 10:00:00", "P1", 10, 20},
		{"2026-08-19 10:00:00", "P2", 5, 10},
		{"2026-08-20 10:00:00", "P1", 3, 0},
		{"2026-08-20 10:00:00", "P2", 2, 0},
	}
	for _, r := range rows {
		require.NoError(t, db.Gorm.Exec(`
			INSERT INTO mid_sales
			(collected_at, mid_code, mid_name, product_code, product_name,
			 sales, order_cnt, purchase, disposal, stock, soldout,
			 weekday, month, week_of_year, is_holiday, temperature, rainfall)
			VALUES (?, '001', '도시락', ?, 'test', ?, 0, ?, 1, ?, 0, 2, 8, 34, 0, 25.0, 0.0)`,
			r.ts, r.code, r.sales, r.sales+2, r.stock,
		).Error)
	}

	return db
}

func TestBuilder_Build(t *testing.T) {
	db := seedSalesDB(t)
	builder := NewBuilder(salesdata.NewRepository(db), zerolog.Nop())

	rows, err := builder.Build(context.Background(), "001")
	require.NoError(t, err)
	require.Len(t, rows, 2, "one feature row per collection date")

	first := rows[0]
	assert.Equal(t, "2026-08-19", first.Date.Format("2006-01-02"))
	assert.Equal(t, 15, first.TotalSales, "product rows aggregate per day")
	assert.Equal(t, 30, first.TotalStock)
	assert.False(t, first.IsStockout)

	second := rows[1]
	assert.True(t, second.IsStockout, "zero total stock marks the day censored")
}

func TestBuilder_BuildForTraining_DropsStockoutDays(t *testing.T) {
	db := seedSalesDB(t)
	builder := NewBuilder(salesdata.NewRepository(db), zerolog.Nop())

	rows, err := builder.BuildForTraining(context.Background(), "001")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "2026-08-19", rows[0].Date.Format("2006-01-02"))
}

func TestBuilder_Build_EmptyCategory(t *testing.T) {
	db := seedSalesDB(t)
	builder := NewBuilder(salesdata.NewRepository(db), zerolog.Nop())

	rows, err := builder.Build(context.Background(), "999")
	require.NoError(t, err)
	assert.Empty(t, rows)
}
