package salesdata

import (
	"context"
	"fmt"
	"time"

	"github.com/dhkim-dev/ordersight/internal/contracts"
	"github.com/dhkim-dev/ordersight/pkg/database"
)

// Repository 판매 DB 읽기 전용 저장소
// 스키마는 수집기 소유. 여기서는 SELECT만 수행
type Repository struct {
	db *database.DB
}

// NewRepository 새 저장소 생성
func NewRepository(db *database.DB) *Repository {
	return &Repository{db: db}
}

// DailyAggregate 중분류 하루치 집계 (원시)
type DailyAggregate struct {
	Date          string  `json:"date"`
	TotalSales    int     `json:"total_sales"`
	TotalPurchase int     `json:"total_purchase"`
	TotalDisposal int     `json:"total_disposal"`
	TotalSoldout  int     `json:"total_soldout"`
	TotalStock    int     `json:"total_stock"`
	Weekday       int     `json:"weekday"`
	Month         int     `json:"month"`
	WeekOfYear    int     `json:"week_of_year"`
	IsHoliday     int     `json:"is_holiday"`
	Temperature   float64 `json:"temperature"`
	Rainfall      float64 `json:"rainfall"`
}

// GetCategories 판매 이력이 있는 중분류 목록 조회
func (r *Repository) GetCategories(ctx context.Context) ([]contracts.Category, error) {
	query := `
		SELECT DISTINCT mid_code, mid_name
		FROM mid_sales
		ORDER BY mid_code`

	var categories []contracts.Category
	if err := r.db.Gorm.WithContext(ctx).Raw(query).Scan(&categories).Error; err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}

	return categories, nil
}

// GetDailyAggregates 중분류의 날짜별 집계 조회
// 달력/날씨 컬럼은 수집 시점에 행마다 조인되어 있으므로 MAX/AVG로 하루 값을 뽑는다
func (r *Repository) GetDailyAggregates(ctx context.Context, midCode string) ([]DailyAggregate, error) {
	query := `
		SELECT
			date(collected_at)      AS date,
			SUM(sales)              AS total_sales,
			SUM(purchase)           AS total_purchase,
			SUM(disposal)           AS total_disposal,
			SUM(soldout)            AS total_soldout,
			SUM(stock)              AS total_stock,
			MAX(weekday)            AS weekday,
			MAX(month)              AS month,
			MAX(week_of_year)       AS week_of_year,
			MAX(is_holiday)         AS is_holiday,
			AVG(temperature)        AS temperature,
			AVG(rainfall)           AS rainfall
		FROM mid_sales
		WHERE mid_code = ?
		GROUP BY date(collected_at)
		ORDER BY date(collected_at)`

	var aggregates []DailyAggregate
	if err := r.db.Gorm.WithContext(ctx).Raw(query, midCode).Scan(&aggregates).Error; err != nil {
		return nil, fmt.Errorf("query daily aggregates for %s: %w", midCode, err)
	}

	return aggregates, nil
}

// GetProductSales 중분류에서 누적 판매량이 양수인 상품 조회
func (r *Repository) GetProductSales(ctx context.Context, midCode string) ([]contracts.ProductSales, error) {
	query := `
		SELECT
			product_code,
			MAX(product_name) AS product_name,
			SUM(sales)        AS total_sales
		FROM mid_sales
		WHERE mid_code = ?
		GROUP BY product_code
		HAVING SUM(sales) > 0
		ORDER BY SUM(sales) DESC`

	var products []contracts.ProductSales
	if err := r.db.Gorm.WithContext(ctx).Raw(query, midCode).Scan(&products).Error; err != nil {
		return nil, fmt.Errorf("query product sales for %s: %w", midCode, err)
	}

	return products, nil
}

// stockoutRateRow GetStockoutRates 스캔용
type stockoutRateRow struct {
	ProductCode  string  `json:"product_code"`
	StockoutRate float64 `json:"stockout_rate"`
}

// GetStockoutRates 최근 N일간 상품별 품절률 조회
// 품절률 = 재고 0이었던 날 수 / 관측된 날 수
func (r *Repository) GetStockoutRates(ctx context.Context, midCode string, asOf time.Time, days int) (map[string]float64, error) {
	query := `
		SELECT
			product_code,
			SUM(CASE WHEN stock = 0 THEN 1 ELSE 0 END) * 1.0 / COUNT(*) AS stockout_rate
		FROM mid_sales
		WHERE mid_code = ?
		  AND date(collected_at) > date(?, ?)
		  AND date(collected_at) <= date(?)
		GROUP BY product_code`

	asOfStr := asOf.Format("2006-01-02")
	offset := fmt.Sprintf("-%d day", days)

	var rows []stockoutRateRow
	if err := r.db.Gorm.WithContext(ctx).
		Raw(query, midCode, asOfStr, offset, asOfStr).
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("query stockout rates for %s: %w", midCode, err)
	}

	rates := make(map[string]float64, len(rows))
	for _, row := range rows {
		rates[row.ProductCode] = row.StockoutRate
	}

	return rates, nil
}

// actualSalesRow GetActualSales 스캔용
type actualSalesRow struct {
	TotalSales int  `json:"total_sales"`
	RowCount   int  `json:"row_count"`
}

// GetActualSales 특정 날짜의 중분류 실제 판매량 합계 조회
// 해당 날짜에 행이 없으면 found=false
func (r *Repository) GetActualSales(ctx context.Context, midCode string, date time.Time) (int, bool, error) {
	query := `
		SELECT
			COALESCE(SUM(sales), 0) AS total_sales,
			COUNT(*)                AS row_count
		FROM mid_sales
		WHERE mid_code = ?
		  AND date(collected_at) = date(?)`

	var row actualSalesRow
	if err := r.db.Gorm.WithContext(ctx).
		Raw(query, midCode, date.Format("2006-01-02")).
		Scan(&row).Error; err != nil {
		return 0, false, fmt.Errorf("query actual sales for %s: %w", midCode, err)
	}

	return row.TotalSales, row.RowCount > 0, nil
}

// latestStockRow GetLatestStock 스캔용
type latestStockRow struct {
	TotalStock   int `json:"total_stock"`
	TotalSoldout int `json:"total_soldout"`
}

// GetLatestStock 가장 최근 수집일의 재고/품절 합계 조회
// 내일 예측 벡터에서 재고 피처를 이월할 때 사용
func (r *Repository) GetLatestStock(ctx context.Context, midCode string) (stock int, soldout int, err error) {
	query := `
		SELECT
			COALESCE(SUM(stock), 0)   AS total_stock,
			COALESCE(SUM(soldout), 0) AS total_soldout
		FROM mid_sales
		WHERE mid_code = ?
		  AND date(collected_at) = (
			SELECT MAX(date(collected_at)) FROM mid_sales WHERE mid_code = ?
		  )`

	var row latestStockRow
	if err := r.db.Gorm.WithContext(ctx).Raw(query, midCode, midCode).Scan(&row).Error; err != nil {
		return 0, 0, fmt.Errorf("query latest stock for %s: %w", midCode, err)
	}

	return row.TotalStock, row.TotalSoldout, nil
}
