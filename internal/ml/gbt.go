package ml

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"math"
	"math/rand"

	"github.com/dhkim-dev/ordersight/internal/contracts"
)

// Regressor 경사 부스팅 회귀 트리 앙상블
// 제곱오차 목적식. 시드를 고정하면 같은 데이터에서 같은 모델이 나온다
type Regressor struct {
	Base         float64     // 초기 예측값 (타깃 평균)
	LearningRate float64
	Trees        []*TreeNode
	NumFeatures  int
}

// Fit trains a gradient-boosted regressor with squared-error objective.
// 잔차에 트리를 반복 적합하고 학습률만큼 더해 나간다
func Fit(X [][]float64, y []float64, params contracts.TrainParams) (*Regressor, error) {
	if len(X) == 0 {
		return nil, fmt.Errorf("empty training set")
	}
	if len(X) != len(y) {
		return nil, fmt.Errorf("feature/target length mismatch: %d != %d", len(X), len(y))
	}

	numFeatures := len(X[0])
	rng := rand.New(rand.NewSource(params.Seed))

	var base float64
	for _, v := range y {
		base += v
	}
	base /= float64(len(y))

	reg := &Regressor{
		Base:         base,
		LearningRate: params.LearningRate,
		NumFeatures:  numFeatures,
	}

	// Current ensemble prediction per sample
	current := make([]float64, len(y))
	for i := range current {
		current[i] = base
	}

	residuals := make([]float64, len(y))

	for t := 0; t < params.NEstimators; t++ {
		for i := range y {
			residuals[i] = y[i] - current[i]
		}

		indices := sampleRows(rng, len(y), params.Subsample)
		features := sampleFeatures(rng, numFeatures, params.ColSample)

		tree := buildTree(X, residuals, indices, features, 0, params.MaxDepth)
		reg.Trees = append(reg.Trees, tree)

		for i := range current {
			current[i] += params.LearningRate * tree.Predict(X[i])
		}
	}

	return reg, nil
}

// Predict returns the ensemble prediction for a single feature vector
func (r *Regressor) Predict(x []float64) float64 {
	pred := r.Base
	for _, tree := range r.Trees {
		pred += r.LearningRate * tree.Predict(x)
	}
	return pred
}

// PredictBatch returns predictions for multiple feature vectors
func (r *Regressor) PredictBatch(X [][]float64) []float64 {
	preds := make([]float64, len(X))
	for i, x := range X {
		preds[i] = r.Predict(x)
	}
	return preds
}

// Encode serializes the regressor into an opaque blob
func (r *Regressor) Encode() ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(r); err != nil {
		return nil, fmt.Errorf("encode regressor: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode deserializes a regressor from a blob
func Decode(data []byte) (*Regressor, error) {
	var reg Regressor
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&reg); err != nil {
		return nil, fmt.Errorf("decode regressor: %w", err)
	}
	return &reg, nil
}

// MSE 평균제곱오차
func MSE(pred, actual []float64) float64 {
	if len(pred) == 0 || len(pred) != len(actual) {
		return math.NaN()
	}
	var total float64
	for i := range pred {
		d := pred[i] - actual[i]
		total += d * d
	}
	return total / float64(len(pred))
}

// sampleRows draws floor(n*ratio) row indices without replacement
func sampleRows(rng *rand.Rand, n int, ratio float64) []int {
	if ratio >= 1.0 {
		indices := make([]int, n)
		for i := range indices {
			indices[i] = i
		}
		return indices
	}

	k := int(float64(n) * ratio)
	if k < 1 {
		k = 1
	}

	perm := rng.Perm(n)
	return perm[:k]
}

// sampleFeatures draws a feature subset of size max(1, round(m*ratio))
func sampleFeatures(rng *rand.Rand, m int, ratio float64) []int {
	if ratio >= 1.0 {
		features := make([]int, m)
		for i := range features {
			features[i] = i
		}
		return features
	}

	k := int(math.Round(float64(m) * ratio))
	if k < 1 {
		k = 1
	}

	perm := rng.Perm(m)
	return perm[:k]
}
