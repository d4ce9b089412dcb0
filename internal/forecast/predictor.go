package forecast

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/rs/zerolog"

	"github.com/dhkim-dev/ordersight/internal/calendar"
	"github.com/dhkim-dev/ordersight/internal/contracts"
	"github.com/dhkim-dev/ordersight/internal/features"
	"github.com/dhkim-dev/ordersight/internal/salesdata"
	"github.com/dhkim-dev/ordersight/internal/weather"
)

// WeatherProvider 날짜의 날씨 피처 제공 인터페이스
type WeatherProvider interface {
	Weather(ctx context.Context, date time.Time) (float64, float64)
}

// 컴파일 타임 인터페이스 체크
var _ WeatherProvider = (*weather.Provider)(nil)

// Predictor 중분류 내일 수요 예측기
//
// 모델 해석 순서: 저장된 블롭 → 없으면 즉석 학습 → 이력 자체가 없으면
// [10, 50) 균등 난수 베이스라인 (0이 아니어야 할당이 돌아가므로 바닥을 띄움)
type Predictor struct {
	store   *Store
	trainer *Trainer
	builder *features.Builder
	weather WeatherProvider
	repo    *salesdata.Repository
	log     zerolog.Logger

	// now is overridable for tests
	now func() time.Time
}

// NewPredictor 새 예측기 생성
func NewPredictor(store *Store, trainer *Trainer, builder *features.Builder, wp WeatherProvider, repo *salesdata.Repository, log zerolog.Logger) *Predictor {
	return &Predictor{
		store:   store,
		trainer: trainer,
		builder: builder,
		weather: wp,
		repo:    repo,
		log:     log.With().Str("component", "forecast.predictor").Logger(),
		now:     time.Now,
	}
}

// PredictTomorrow returns the next-day demand forecast for a category.
// 반환값은 항상 0 이상
func (p *Predictor) PredictTomorrow(ctx context.Context, storeNS, midCode string) (float64, error) {
	rows, err := p.builder.BuildForTraining(ctx, midCode)
	if err != nil {
		return 0, err
	}

	if len(rows) == 0 {
		baseline := 10.0 + rand.Float64()*40.0
		p.log.Warn().
			Str("mid_code", midCode).
			Float64("baseline", baseline).
			Msg("no usable history, returning random baseline")
		return baseline, nil
	}

	reg, err := p.store.Load(storeNS, midCode)
	if errors.Is(err, ErrModelNotFound) {
		p.log.Info().
			Str("store", storeNS).
			Str("mid_code", midCode).
			Msg("no persisted model, training on the fly")

		reg, err = p.trainer.Train(ctx, midCode, rows, contracts.DefaultTrainParams())
		if err != nil {
			return 0, err
		}

		// 다음 주기에 재사용할 수 있게 저장. 실패해도 예측은 계속
		if saveErr := p.store.Save(storeNS, midCode, reg); saveErr != nil {
			p.log.Warn().Err(saveErr).Str("mid_code", midCode).Msg("failed to persist model")
		}
	} else if err != nil {
		return 0, err
	}

	vector, err := p.tomorrowVector(ctx, midCode)
	if err != nil {
		return 0, err
	}

	prediction := reg.Predict(vector)
	if prediction < 0 {
		prediction = 0
	}

	p.log.Info().
		Str("mid_code", midCode).
		Float64("predicted_sales", prediction).
		Msg("next-day forecast generated")

	return prediction, nil
}

// tomorrowVector builds the inference feature row for tomorrow.
// 재고 피처는 최신 이력에서 이월, 아직 실현되지 않은 흐름 필드는 0
func (p *Predictor) tomorrowVector(ctx context.Context, midCode string) ([]float64, error) {
	tomorrow := p.now().AddDate(0, 0, 1)

	stock, soldout, err := p.repo.GetLatestStock(ctx, midCode)
	if err != nil {
		return nil, err
	}

	temp, rain := p.weather.Weather(ctx, tomorrow)

	row := contracts.FeatureRow{
		Date:    tomorrow,
		MidCode: midCode,

		// 수집기의 weekday 규약: 월요일 0
		Weekday:    (int(tomorrow.Weekday()) + 6) % 7,
		Month:      int(tomorrow.Month()),
		WeekOfYear: calendar.WeekOfYear(tomorrow),
		IsHoliday:  calendar.HolidayClass(tomorrow),

		Temperature: temp,
		Rainfall:    rain,

		TotalStock:   stock,
		TotalSoldout: soldout,

		ShelfLifeDays: contracts.ShelfLifeFor(midCode),
	}

	return row.Vector(), nil
}
