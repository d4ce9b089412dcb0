package brain

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/dhkim-dev/ordersight/internal/allocation"
	"github.com/dhkim-dev/ordersight/internal/features"
	"github.com/dhkim-dev/ordersight/internal/forecast"
	"github.com/dhkim-dev/ordersight/internal/monitor"
	"github.com/dhkim-dev/ordersight/internal/predictions"
	"github.com/dhkim-dev/ordersight/internal/salesdata"
	"github.com/dhkim-dev/ordersight/pkg/database"
	"github.com/dhkim-dev/ordersight/pkg/logger"
)

// Orchestrator coordinates one forecasting cycle per store database
// ⭐ SSOT: 주기 조율은 여기서만
//
// 중분류별 상태: Start → [Tune?] → Predict → Allocate → Persist → Done
// 튜닝 실패는 Predict로, 예측 실패는 해당 중분류만 Done으로 단락
type Orchestrator struct {
	weather forecast.WeatherProvider
	logger  *logger.Logger

	// now is overridable for tests
	now func() time.Time
}

// CycleConfig holds configuration for one cycle
type CycleConfig struct {
	Tune              bool
	ErrorThresholdPct float64 // 튜닝 트리거 임계값
	ModelDir          string
}

// CycleResult holds the outcome of one cycle over one store DB
type CycleResult struct {
	SalesPath  string
	Categories int
	Predicted  int
	Tuned      int
	Failed     int
	Evaluated  int
	Duration   time.Duration
}

// NewOrchestrator creates a new orchestrator
func NewOrchestrator(weather forecast.WeatherProvider, log *logger.Logger) *Orchestrator {
	return &Orchestrator{
		weather: weather,
		logger:  log,
		now:     time.Now,
	}
}

// RunCycle executes one full cycle for a single store sales database:
// (1) 튜닝 트리거 평가 (2) 전 중분류 예측+할당 (3) 중분류 단위 트랜잭션 저장
// (4) 어제 실적 평가
func (o *Orchestrator) RunCycle(ctx context.Context, salesPath string, cfg CycleConfig) (*CycleResult, error) {
	startTime := o.now()

	salesDB, err := database.OpenExisting(salesPath)
	if err != nil {
		return nil, fmt.Errorf("open sales db: %w", err)
	}
	defer salesDB.Close()

	predsPath := database.PredictionsPathFor(salesPath)
	predsDB, err := database.Open(predsPath)
	if err != nil {
		return nil, fmt.Errorf("open predictions db: %w", err)
	}
	defer predsDB.Close()

	salesRepo := salesdata.NewRepository(salesDB)
	predsRepo := predictions.NewRepository(predsDB)
	if err := predsRepo.Migrate(); err != nil {
		return nil, err
	}

	// 모델 네임스페이스는 판매 DB 파일명에서 파생 (점포당 DB 하나)
	storeNS := strings.TrimSuffix(filepath.Base(salesPath), filepath.Ext(salesPath))

	zlog := o.logger.Zerolog()
	builder := features.NewBuilder(salesRepo, zlog)
	trainer := forecast.NewTrainer(zlog)
	tuner := forecast.NewTuner(zlog)
	store := forecast.NewStore(cfg.ModelDir, zlog)
	predictor := forecast.NewPredictor(store, trainer, builder, o.weather, salesRepo, zlog)
	allocator := allocation.NewAllocator(salesRepo, zlog)
	perfMonitor := monitor.NewMonitor(salesRepo, predsRepo, zlog)

	categories, err := salesRepo.GetCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}

	result := &CycleResult{
		SalesPath:  salesPath,
		Categories: len(categories),
	}

	o.logger.WithFields(map[string]interface{}{
		"sales_db":   salesPath,
		"store":      storeNS,
		"categories": len(categories),
		"tune":       cfg.Tune,
	}).Info("Starting forecasting cycle")

	tomorrow := o.now().AddDate(0, 0, 1).Format("2006-01-02")
	predictionDate := o.now().Format("2006-01-02 15:04:05")

	for _, cat := range categories {
		if cfg.Tune && o.shouldTune(ctx, predsRepo, cat.MidCode, cfg.ErrorThresholdPct) {
			if o.tuneCategory(ctx, builder, tuner, store, storeNS, cat.MidCode) {
				result.Tuned++
			}
		}

		predicted, err := predictor.PredictTomorrow(ctx, storeNS, cat.MidCode)
		if err != nil {
			o.logger.WithError(err).WithField("mid_code", cat.MidCode).Error("prediction failed, skipping category")
			result.Failed++
			continue
		}

		items, err := allocator.Allocate(ctx, cat.MidCode, predicted)
		if err != nil {
			o.logger.WithError(err).WithField("mid_code", cat.MidCode).Error("allocation failed, skipping category")
			result.Failed++
			continue
		}

		pred := predictions.CategoryPrediction{
			PredictionDate: predictionDate,
			TargetDate:     tomorrow,
			MidCode:        cat.MidCode,
			MidName:        cat.MidName,
			PredictedSales: predicted,
		}

		if err := predsRepo.SavePrediction(ctx, pred, items); err != nil {
			o.logger.WithError(err).WithField("mid_code", cat.MidCode).Error("persist failed, skipping category")
			result.Failed++
			continue
		}

		result.Predicted++
	}

	// 모든 중분류가 끝난 뒤 어제 실적 평가
	evaluated, err := perfMonitor.EvaluateYesterday(ctx)
	if err != nil {
		o.logger.WithError(err).Warn("performance evaluation failed")
	}
	result.Evaluated = evaluated

	result.Duration = o.now().Sub(startTime)

	o.logger.WithFields(map[string]interface{}{
		"sales_db":  salesPath,
		"predicted": result.Predicted,
		"tuned":     result.Tuned,
		"failed":    result.Failed,
		"evaluated": result.Evaluated,
		"duration":  result.Duration.Seconds(),
	}).Info("Forecasting cycle completed")

	return result, nil
}

// shouldTune evaluates the tuning trigger for a category.
// 최근 7일 평균 오차율이 임계값 이상이거나 실적 기록이 아예 없으면 (콜드 스타트) 튜닝
func (o *Orchestrator) shouldTune(ctx context.Context, predsRepo *predictions.Repository, midCode string, thresholdPct float64) bool {
	meanError, found, err := predsRepo.GetRecentMeanError(ctx, midCode, o.now(), 7)
	if err != nil {
		o.logger.WithError(err).WithField("mid_code", midCode).Warn("tuning trigger query failed, skipping tune")
		return false
	}

	if !found {
		o.logger.WithField("mid_code", midCode).Info("no recent performance data, cold-start tuning")
		return true
	}

	if meanError >= thresholdPct {
		o.logger.WithFields(map[string]interface{}{
			"mid_code":   midCode,
			"mean_error": meanError,
			"threshold":  thresholdPct,
		}).Info("error drift above threshold, tuning triggered")
		return true
	}

	return false
}

// tuneCategory runs the tuner and persists the result.
// 실패해도 예측 단계는 계속 진행한다
func (o *Orchestrator) tuneCategory(ctx context.Context, builder *features.Builder, tuner *forecast.Tuner, store *forecast.Store, storeNS, midCode string) bool {
	rows, err := builder.BuildForTraining(ctx, midCode)
	if err != nil {
		o.logger.WithError(err).WithField("mid_code", midCode).Warn("tuning feature build failed")
		return false
	}

	reg, tuneResult, err := tuner.Tune(ctx, midCode, rows)
	if err != nil {
		o.logger.WithError(err).WithField("mid_code", midCode).Warn("tuning failed, falling through to predict")
		return false
	}

	if err := store.Save(storeNS, midCode, reg); err != nil {
		o.logger.WithError(err).WithField("mid_code", midCode).Warn("tuned model persist failed")
		return false
	}
	if err := store.SaveTuneResult(storeNS, midCode, *tuneResult); err != nil {
		o.logger.WithError(err).WithField("mid_code", midCode).Warn("tune record persist failed")
	}

	return true
}

// RunAll runs one cycle per sales DB sequentially.
// 점포 간 공유 상태가 없으므로 순차 처리로 충분
func (o *Orchestrator) RunAll(ctx context.Context, salesPaths []string, cfg CycleConfig) []CycleResult {
	var results []CycleResult

	for _, path := range salesPaths {
		result, err := o.RunCycle(ctx, path, cfg)
		if err != nil {
			o.logger.WithError(err).WithField("sales_db", path).Error("cycle failed, continuing with next store")
			results = append(results, CycleResult{SalesPath: path, Failed: 1})
			continue
		}
		results = append(results, *result)
	}

	return results
}
