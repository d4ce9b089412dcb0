package forecast

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/dhkim-dev/ordersight/internal/contracts"
	"github.com/dhkim-dev/ordersight/internal/ml"
)

// ModelFamilyVersion 모델 패밀리 버전
// 피처 벡터 계약이 바뀌면 올린다. 올리면 이전 블롭은 전부 무효
const ModelFamilyVersion = "v1"

// ErrModelNotFound 저장된 모델 블롭이 없음
var ErrModelNotFound = errors.New("model not found")

// Store 모델 블롭 저장소
// 블롭은 (store, mid_code)로 식별되는 불투명 바이트
// ⭐ SSOT: 모델 직렬화/역직렬화는 여기서만
type Store struct {
	dir string
	log zerolog.Logger
}

// NewStore 새 저장소 생성
func NewStore(dir string, log zerolog.Logger) *Store {
	return &Store{
		dir: dir,
		log: log.With().Str("component", "forecast.store").Logger(),
	}
}

// modelPath returns the blob path for (store, mid_code)
func (s *Store) modelPath(store, midCode string) string {
	return filepath.Join(s.dir, ModelFamilyVersion, store, midCode+".model")
}

// trialsPath returns the tune-record path for (store, mid_code)
func (s *Store) trialsPath(store, midCode string) string {
	return filepath.Join(s.dir, ModelFamilyVersion, store, midCode+".trials.json")
}

// Save persists a fitted regressor as an opaque blob
func (s *Store) Save(store, midCode string, reg *ml.Regressor) error {
	path := s.modelPath(store, midCode)

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create model dir: %w", err)
	}

	blob, err := reg.Encode()
	if err != nil {
		return fmt.Errorf("encode model %s/%s: %w", store, midCode, err)
	}

	if err := os.WriteFile(path, blob, 0o644); err != nil {
		return fmt.Errorf("write model %s/%s: %w", store, midCode, err)
	}

	s.log.Debug().
		Str("store", store).
		Str("mid_code", midCode).
		Int("bytes", len(blob)).
		Msg("model saved")

	return nil
}

// Load reads a persisted regressor
// 블롭이 없으면 ErrModelNotFound
func (s *Store) Load(store, midCode string) (*ml.Regressor, error) {
	blob, err := os.ReadFile(s.modelPath(store, midCode))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrModelNotFound
		}
		return nil, fmt.Errorf("read model %s/%s: %w", store, midCode, err)
	}

	reg, err := ml.Decode(blob)
	if err != nil {
		return nil, fmt.Errorf("decode model %s/%s: %w", store, midCode, err)
	}

	return reg, nil
}

// SaveTuneResult persists the tuning trial record next to the model blob
func (s *Store) SaveTuneResult(store, midCode string, result contracts.TuneResult) error {
	path := s.trialsPath(store, midCode)

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create model dir: %w", err)
	}

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal tune result %s/%s: %w", store, midCode, err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write tune result %s/%s: %w", store, midCode, err)
	}

	return nil
}
