package predictions

// CategoryPrediction 중분류 다음날 예측 한 건
// (target_date, mid_code) 유니크, 재발행 시 업서트
type CategoryPrediction struct {
	ID             uint   `gorm:"primaryKey"`
	PredictionDate string `gorm:"index"`
	TargetDate     string `gorm:"uniqueIndex:uniq_target_mid"`
	MidCode        string `gorm:"uniqueIndex:uniq_target_mid"`
	MidName        string
	PredictedSales float64

	Items []CategoryPredictionItem `gorm:"foreignKey:PredictionID"`
}

// CategoryPredictionItem 예측에 딸린 상품별 발주 추천
// 부모 예측이 재발행되면 전체 교체
type CategoryPredictionItem struct {
	ID                  uint `gorm:"primaryKey"`
	PredictionID        uint `gorm:"index"`
	ProductCode         string
	ProductName         string
	RecommendedQuantity int
	StockoutRate        float64
	Reason              string
}

// PredictionPerformance 예측 대비 실적 평가 한 건
// (target_date, mid_code) 유니크, 업서트
type PredictionPerformance struct {
	ID               uint   `gorm:"primaryKey"`
	EvaluationDate   string `gorm:"index"`
	TargetDate       string `gorm:"uniqueIndex:uniq_perf_target_mid"`
	MidCode          string `gorm:"uniqueIndex:uniq_perf_target_mid"`
	PredictedSales   float64
	ActualSales      float64
	ErrorRatePercent float64
}

// TableName keeps the legacy singular table name
func (PredictionPerformance) TableName() string {
	return "prediction_performance"
}
