package monitor

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/dhkim-dev/ordersight/internal/predictions"
	"github.com/dhkim-dev/ordersight/internal/salesdata"
)

// Monitor 예측 대 실적 사후 평가기
// 주기 끝에 쓰고, 튜닝 트리거는 다음 주기 시작에 읽는다 (같은 주기 안에서 맞물리지 않음)
type Monitor struct {
	sales *salesdata.Repository
	preds *predictions.Repository
	log   zerolog.Logger

	// now is overridable for tests
	now func() time.Time
}

// NewMonitor 새 평가기 생성
func NewMonitor(sales *salesdata.Repository, preds *predictions.Repository, log zerolog.Logger) *Monitor {
	return &Monitor{
		sales: sales,
		preds: preds,
		log:   log.With().Str("component", "monitor").Logger(),
		now:   time.Now,
	}
}

// EvaluateYesterday evaluates all categories against yesterday's actuals
func (m *Monitor) EvaluateYesterday(ctx context.Context) (int, error) {
	return m.EvaluateDate(ctx, m.now().AddDate(0, 0, -1))
}

// EvaluateDate compares the recorded prediction for targetDate against the
// actual sales and upserts one performance record per category.
// 실적이나 예측이 없는 중분류는 경고만 남기고 건너뜀
func (m *Monitor) EvaluateDate(ctx context.Context, targetDate time.Time) (int, error) {
	categories, err := m.sales.GetCategories(ctx)
	if err != nil {
		return 0, err
	}

	targetStr := targetDate.Format("2006-01-02")
	evaluated := 0

	for _, cat := range categories {
		actual, found, err := m.sales.GetActualSales(ctx, cat.MidCode, targetDate)
		if err != nil {
			m.log.Error().Err(err).Str("mid_code", cat.MidCode).Msg("actuals query failed")
			continue
		}
		if !found {
			m.log.Warn().
				Str("mid_code", cat.MidCode).
				Str("target_date", targetStr).
				Msg("no actual sales data, skipping evaluation")
			continue
		}

		pred, err := m.preds.GetPrediction(ctx, targetStr, cat.MidCode)
		if errors.Is(err, predictions.ErrNoPrediction) {
			m.log.Warn().
				Str("mid_code", cat.MidCode).
				Str("target_date", targetStr).
				Msg("no recorded prediction, skipping evaluation")
			continue
		}
		if err != nil {
			m.log.Error().Err(err).Str("mid_code", cat.MidCode).Msg("prediction query failed")
			continue
		}

		errorRate := ErrorRatePercent(pred.PredictedSales, float64(actual))

		record := predictions.PredictionPerformance{
			EvaluationDate:   m.now().Format("2006-01-02 15:04:05"),
			TargetDate:       targetStr,
			MidCode:          cat.MidCode,
			PredictedSales:   pred.PredictedSales,
			ActualSales:      float64(actual),
			ErrorRatePercent: errorRate,
		}

		if err := m.preds.UpsertPerformance(ctx, record); err != nil {
			m.log.Error().Err(err).Str("mid_code", cat.MidCode).Msg("performance upsert failed")
			continue
		}

		evaluated++

		m.log.Info().
			Str("mid_code", cat.MidCode).
			Str("target_date", targetStr).
			Float64("predicted", pred.PredictedSales).
			Int("actual", actual).
			Float64("error_rate_pct", errorRate).
			Msg("performance evaluated")
	}

	return evaluated, nil
}

// ErrorRatePercent computes |actual - predicted| / actual * 100.
// 실적 0에 예측 0이면 완전 적중, 실적 0에 예측이 있으면 100%
func ErrorRatePercent(predicted, actual float64) float64 {
	if actual != 0 {
		return math.Abs(actual-predicted) / actual * 100.0
	}
	if predicted != 0 {
		return 100.0
	}
	return 0.0
}
