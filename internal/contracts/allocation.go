package contracts

// 추천 사유 태그
const (
	ReasonPercentage       = "percentage_based"
	ReasonDataGathering    = "data_gathering_or_percentage_based"
	ReasonStockoutAdjusted = "stockout_adjusted"
)

// RecommendedItem 발주 추천 한 건
// 수량은 항상 1 이상
type RecommendedItem struct {
	ProductCode  string  `json:"product_code"`
	ProductName  string  `json:"product_name"`
	Quantity     int     `json:"recommended_quantity"`
	StockoutRate float64 `json:"stockout_rate,omitempty"`
	Reason       string  `json:"reason,omitempty"`
}
