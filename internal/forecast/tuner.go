package forecast

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/rs/zerolog"

	"github.com/dhkim-dev/ordersight/internal/contracts"
	"github.com/dhkim-dev/ordersight/internal/ml"
)

// minTuneRows 검증 분할이 의미를 가지는 최소 이력 길이
const minTuneRows = 10

// Tuner 하이퍼파라미터 탐색기
// 랜덤 서치 50 trial, 검증은 시간순 80/20 분할의 MSE
type Tuner struct {
	space contracts.TuneSearchSpace
	log   zerolog.Logger
}

// NewTuner 새 튜너 생성
func NewTuner(log zerolog.Logger) *Tuner {
	return &Tuner{
		space: contracts.DefaultTuneSearchSpace(),
		log:   log.With().Str("component", "forecast.tuner").Logger(),
	}
}

// NewTunerWithSpace 커스텀 탐색 범위로 튜너 생성
func NewTunerWithSpace(space contracts.TuneSearchSpace, log zerolog.Logger) *Tuner {
	return &Tuner{space: space, log: log.With().Str("component", "forecast.tuner").Logger()}
}

// Tune searches hyperparameters and refits the best configuration on the
// full history.
// 시계열이므로 분할은 섞지 않고 시간순으로 자른다
func (t *Tuner) Tune(ctx context.Context, midCode string, rows []contracts.FeatureRow) (*ml.Regressor, *contracts.TuneResult, error) {
	if len(rows) < minTuneRows {
		t.log.Warn().
			Str("mid_code", midCode).
			Int("rows", len(rows)).
			Msg("not enough history to tune, keeping default parameters")
		return nil, nil, ErrNoHistory
	}

	split := int(float64(len(rows)) * 0.8)
	if split >= len(rows) {
		split = len(rows) - 1
	}
	trainRows, validRows := rows[:split], rows[split:]

	trainX, trainY := Matrix(trainRows)
	validX, validY := Matrix(validRows)

	// 파라미터 추첨은 시드 고정으로 재현 가능하게
	rng := rand.New(rand.NewSource(contracts.DefaultTrainParams().Seed))

	best := contracts.DefaultTrainParams()
	bestMSE := math.Inf(1)
	trials := 0

	for i := 0; i < t.space.Trials; i++ {
		select {
		case <-ctx.Done():
			t.log.Warn().Str("mid_code", midCode).Int("trials", trials).Msg("tuning cancelled")
			return nil, nil, ctx.Err()
		default:
		}

		candidate := t.draw(rng)
		trials++

		reg, err := ml.Fit(trainX, trainY, candidate)
		if err != nil {
			continue
		}

		mse := ml.MSE(reg.PredictBatch(validX), validY)
		if mse < bestMSE {
			bestMSE = mse
			best = candidate
			t.log.Debug().
				Str("mid_code", midCode).
				Int("trial", i).
				Float64("mse", mse).
				Msg("new best candidate")
		}
	}

	// 최적 설정으로 전체 이력에 재적합
	fullX, fullY := Matrix(rows)
	reg, err := ml.Fit(fullX, fullY, best)
	if err != nil {
		return nil, nil, err
	}

	result := &contracts.TuneResult{
		MidCode:    midCode,
		BestParams: best,
		BestMSE:    bestMSE,
		Trials:     trials,
		TunedAt:    time.Now(),
	}

	t.log.Info().
		Str("mid_code", midCode).
		Int("trials", trials).
		Float64("best_mse", bestMSE).
		Float64("learning_rate", best.LearningRate).
		Int("max_depth", best.MaxDepth).
		Int("n_estimators", best.NEstimators).
		Msg("tuning completed")

	return reg, result, nil
}

// draw samples one candidate from the search space
func (t *Tuner) draw(rng *rand.Rand) contracts.TrainParams {
	s := t.space
	return contracts.TrainParams{
		LearningRate: s.LearningRateMin + rng.Float64()*(s.LearningRateMax-s.LearningRateMin),
		MaxDepth:     s.MaxDepthMin + rng.Intn(s.MaxDepthMax-s.MaxDepthMin+1),
		NEstimators:  s.NEstimatorsMin + rng.Intn(s.NEstimatorsMax-s.NEstimatorsMin+1),
		Subsample:    s.SubsampleMin + rng.Float64()*(s.SubsampleMax-s.SubsampleMin),
		ColSample:    s.ColSampleMin + rng.Float64()*(s.ColSampleMax-s.ColSampleMin),
		Seed:         contracts.DefaultTrainParams().Seed,
	}
}
