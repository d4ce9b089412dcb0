package features

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/dhkim-dev/ordersight/internal/contracts"
	"github.com/dhkim-dev/ordersight/internal/salesdata"
)

// epsilon 폐기율 분모 보호
const epsilon = 1e-6

// Builder 판매 집계를 피처 행으로 변환
// 순수 변환만 하고 상태를 갖지 않음
type Builder struct {
	repo *salesdata.Repository
	log  zerolog.Logger
}

// NewBuilder 새 빌더 생성
func NewBuilder(repo *salesdata.Repository, log zerolog.Logger) *Builder {
	return &Builder{
		repo: repo,
		log:  log.With().Str("component", "features.builder").Logger(),
	}
}

// Build 중분류의 전체 피처 행 조회
// 이력이 없으면 빈 슬라이스
func (b *Builder) Build(ctx context.Context, midCode string) ([]contracts.FeatureRow, error) {
	aggregates, err := b.repo.GetDailyAggregates(ctx, midCode)
	if err != nil {
		return nil, err
	}

	rows := make([]contracts.FeatureRow, 0, len(aggregates))
	for _, agg := range aggregates {
		rows = append(rows, toFeatureRow(midCode, agg))
	}

	b.log.Debug().
		Str("mid_code", midCode).
		Int("rows", len(rows)).
		Msg("feature rows built")

	return rows, nil
}

// BuildForTraining 학습용 피처 행 조회
// 품절일은 수요가 재고에 잘려 있으므로 학습에서 제외
func (b *Builder) BuildForTraining(ctx context.Context, midCode string) ([]contracts.FeatureRow, error) {
	rows, err := b.Build(ctx, midCode)
	if err != nil {
		return nil, err
	}

	filtered := rows[:0]
	for _, row := range rows {
		if row.IsStockout {
			continue
		}
		filtered = append(filtered, row)
	}

	if dropped := len(rows) - len(filtered); dropped > 0 {
		b.log.Debug().
			Str("mid_code", midCode).
			Int("dropped_stockout_days", dropped).
			Msg("stockout-censored days excluded from training set")
	}

	return filtered, nil
}

// toFeatureRow converts a raw daily aggregate into a feature row
func toFeatureRow(midCode string, agg salesdata.DailyAggregate) contracts.FeatureRow {
	date, _ := time.Parse("2006-01-02", agg.Date)

	trueDemand := float64(agg.TotalSales + agg.TotalDisposal)

	return contracts.FeatureRow{
		Date:          date,
		MidCode:       midCode,
		Weekday:       agg.Weekday,
		Month:         agg.Month,
		WeekOfYear:    agg.WeekOfYear,
		IsHoliday:     contracts.HolidayClass(agg.IsHoliday),
		Temperature:   agg.Temperature,
		Rainfall:      agg.Rainfall,
		TotalSales:    agg.TotalSales,
		TotalPurchase: agg.TotalPurchase,
		TotalDisposal: agg.TotalDisposal,
		TotalSoldout:  agg.TotalSoldout,
		TotalStock:    agg.TotalStock,
		DisposalRatio: float64(agg.TotalDisposal) / (trueDemand + epsilon),
		DemandGap:     float64(agg.TotalPurchase - agg.TotalSales),
		IsStockout:    agg.TotalStock == 0,
		ShelfLifeDays: contracts.ShelfLifeFor(midCode),
	}
}
