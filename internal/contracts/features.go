package contracts

import "time"

// NumFeatures 피처 벡터 길이
const NumFeatures = 13

// FeatureRow 중분류 하루치 집계 피처
// 학습/예측 때마다 판매 DB에서 다시 만들고 저장하지 않음
type FeatureRow struct {
	Date    time.Time
	MidCode string

	// Calendar
	Weekday    int
	Month      int
	WeekOfYear int
	IsHoliday  HolidayClass

	// Weather
	Temperature float64
	Rainfall    float64

	// Daily aggregates
	TotalSales    int
	TotalPurchase int
	TotalDisposal int
	TotalSoldout  int
	TotalStock    int

	// Derived
	DisposalRatio float64
	DemandGap     float64
	IsStockout    bool
	ShelfLifeDays float64
}

// TrueDemand 학습 타깃: 판매 + 폐기
// 품절로 잘린 판매량 편향을 줄이기 위해 폐기를 수요로 본다
func (f *FeatureRow) TrueDemand() float64 {
	return float64(f.TotalSales + f.TotalDisposal)
}

// Vector returns the fixed-order feature vector.
// 순서는 모델 블롭과 호환 계약이므로 바꾸면 모델 패밀리 버전을 올려야 함
func (f *FeatureRow) Vector() []float64 {
	return []float64{
		float64(f.Weekday),
		float64(f.Month),
		float64(f.WeekOfYear),
		float64(f.IsHoliday),
		f.Temperature,
		f.Rainfall,
		float64(f.TotalStock),
		float64(f.TotalSoldout),
		float64(f.TotalPurchase),
		float64(f.TotalDisposal),
		f.DisposalRatio,
		f.DemandGap,
		f.ShelfLifeDays,
	}
}
