package contracts

import "time"

// TrainParams 회귀 모델 하이퍼파라미터
type TrainParams struct {
	LearningRate float64 `json:"learning_rate"`
	MaxDepth     int     `json:"max_depth"`
	NEstimators  int     `json:"n_estimators"`
	Subsample    float64 `json:"subsample"`
	ColSample    float64 `json:"col_sample"`
	Seed         int64   `json:"seed"`
}

// DefaultTrainParams 기본 학습 파라미터
// 시드 고정: 같은 데이터면 같은 모델
func DefaultTrainParams() TrainParams {
	return TrainParams{
		LearningRate: 0.1,
		MaxDepth:     3,
		NEstimators:  100,
		Subsample:    1.0,
		ColSample:    1.0,
		Seed:         42,
	}
}

// TuneSearchSpace 튜닝 탐색 범위
type TuneSearchSpace struct {
	LearningRateMin float64
	LearningRateMax float64
	MaxDepthMin     int
	MaxDepthMax     int
	NEstimatorsMin  int
	NEstimatorsMax  int
	SubsampleMin    float64
	SubsampleMax    float64
	ColSampleMin    float64
	ColSampleMax    float64
	Trials          int
}

// DefaultTuneSearchSpace 기본 탐색 범위 (50 trial)
func DefaultTuneSearchSpace() TuneSearchSpace {
	return TuneSearchSpace{
		LearningRateMin: 0.01,
		LearningRateMax: 0.3,
		MaxDepthMin:     3,
		MaxDepthMax:     10,
		NEstimatorsMin:  50,
		NEstimatorsMax:  300,
		SubsampleMin:    0.5,
		SubsampleMax:    1.0,
		ColSampleMin:    0.5,
		ColSampleMax:    1.0,
		Trials:          50,
	}
}

// TuneResult 튜닝 결과 기록
type TuneResult struct {
	MidCode    string      `json:"mid_code"`
	BestParams TrainParams `json:"best_params"`
	BestMSE    float64     `json:"best_mse"`
	Trials     int         `json:"trials"`
	TunedAt    time.Time   `json:"tuned_at"`
}
