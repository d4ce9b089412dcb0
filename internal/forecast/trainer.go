package forecast

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/dhkim-dev/ordersight/internal/contracts"
	"github.com/dhkim-dev/ordersight/internal/ml"
)

// ErrNoHistory 학습할 이력이 없음
var ErrNoHistory = errors.New("no training history")

// minTrainRows 이보다 적으면 경고하고 학습은 계속한다
const minTrainRows = 7

// Trainer 중분류 수요 모델 학습기
type Trainer struct {
	log zerolog.Logger
}

// NewTrainer 새 학습기 생성
func NewTrainer(log zerolog.Logger) *Trainer {
	return &Trainer{
		log: log.With().Str("component", "forecast.trainer").Logger(),
	}
}

// Train fits a gradient-boosted regressor on the feature rows.
// 타깃은 true demand (판매 + 폐기)
func (t *Trainer) Train(ctx context.Context, midCode string, rows []contracts.FeatureRow, params contracts.TrainParams) (*ml.Regressor, error) {
	if len(rows) == 0 {
		return nil, ErrNoHistory
	}

	if len(rows) < minTrainRows {
		t.log.Warn().
			Str("mid_code", midCode).
			Int("rows", len(rows)).
			Msg("training with very little history, expect unstable forecasts")
	}

	X, y := Matrix(rows)

	reg, err := ml.Fit(X, y, params)
	if err != nil {
		return nil, err
	}

	t.log.Info().
		Str("mid_code", midCode).
		Int("rows", len(rows)).
		Int("trees", params.NEstimators).
		Int("max_depth", params.MaxDepth).
		Float64("learning_rate", params.LearningRate).
		Msg("model trained")

	return reg, nil
}

// Matrix converts feature rows into (X, y) for fitting
func Matrix(rows []contracts.FeatureRow) ([][]float64, []float64) {
	X := make([][]float64, len(rows))
	y := make([]float64, len(rows))
	for i := range rows {
		X[i] = rows[i].Vector()
		y[i] = rows[i].TrueDemand()
	}
	return X, y
}
