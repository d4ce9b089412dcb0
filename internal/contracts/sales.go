package contracts

import "time"

// HolidayClass 휴일 구분
// 0: 평일, 1: 공휴일(일요일 포함), 2: 토요일
type HolidayClass int

const (
	HolidayWorkday  HolidayClass = 0
	HolidayPublic   HolidayClass = 1
	HolidaySaturday HolidayClass = 2
)

// SalesRow 판매 원천 데이터 한 행 (mid_sales 테이블)
// 수집기가 쓰고 코어는 읽기 전용
type SalesRow struct {
	CollectedAt time.Time `json:"collected_at"`
	MidCode     string    `json:"mid_code"`
	MidName     string    `json:"mid_name"`
	ProductCode string    `json:"product_code"`
	ProductName string    `json:"product_name"`
	Sales       int       `json:"sales"`
	OrderCnt    int       `json:"order_cnt"`
	Purchase    int       `json:"purchase"`
	Disposal    int       `json:"disposal"`
	Stock       int       `json:"stock"`
	Soldout     int       `json:"soldout"`
	Weekday     int       `json:"weekday"`
	Month       int       `json:"month"`
	WeekOfYear  int       `json:"week_of_year"`
	IsHoliday   int       `json:"is_holiday"`
	Temperature float64   `json:"temperature"`
	Rainfall    float64   `json:"rainfall"`
}

// Category 중분류 (3자리 코드, 예측 단위)
type Category struct {
	MidCode string `json:"mid_code"`
	MidName string `json:"mid_name"`
}

// ProductSales 상품별 누적 판매량과 최근 품절률
type ProductSales struct {
	ProductCode  string  `json:"product_code"`
	ProductName  string  `json:"product_name"`
	TotalSales   int     `json:"total_sales"`
	StockoutRate float64 `json:"stockout_rate"` // 최근 7일 중 재고 0 이었던 날의 비율
}

// shelfLifeDays 중분류별 유통기한 (일)
// 원천 콘솔의 중분류 체계 기준. 없는 코드는 DefaultShelfLifeDays
var shelfLifeDays = map[string]float64{
	"001": 1,  // 도시락
	"002": 1,  // 삼각김밥
	"003": 2,  // 김밥
	"004": 2,  // 샌드위치
	"005": 3,  // 햄버거
	"006": 5,  // 빵
	"007": 7,  // 유제품
	"008": 14, // 디저트
	"009": 30, // 음료
	"010": 90, // 과자
}

// DefaultShelfLifeDays 미등록 중분류의 유통기한
const DefaultShelfLifeDays = 7

// ShelfLifeFor returns the shelf life in days for a mid-category code
func ShelfLifeFor(midCode string) float64 {
	if days, ok := shelfLifeDays[midCode]; ok {
		return days
	}
	return DefaultShelfLifeDays
}
