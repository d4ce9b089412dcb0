package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dhkim-dev/ordersight/internal/brain"
	"github.com/dhkim-dev/ordersight/internal/weather"
	"github.com/dhkim-dev/ordersight/pkg/config"
	"github.com/dhkim-dev/ordersight/pkg/httputil"
	"github.com/dhkim-dev/ordersight/pkg/logger"
)

var predictCmd = &cobra.Command{
	Use:   "predict DB_PATH [DB_PATH ...]",
	Short: "내일 수요 예측 및 발주 추천 생성",
	Long: `점포 판매 DB별로 예측 사이클을 실행합니다.

사이클 단계:
1. 튜닝 트리거 평가 (최근 7일 평균 오차율 >= 임계값, 또는 실적 없음)
2. 중분류별 내일 판매량 예측 (모델 없으면 즉석 학습, 이력 없으면 랜덤 기준값)
3. 상품별 발주 수량 배분 (결품률 보정 + 탐색 1개)
4. 예측 DB 저장 (중분류 단위 트랜잭션)
5. 어제 예측 실적 평가

개별 DB 실패는 로그만 남기고 다음 DB로 계속 진행합니다.

Example:
  go run ./cmd/ordersight predict ./data/store_0001.db
  go run ./cmd/ordersight predict ./data/*.db --tune
  go run ./cmd/ordersight predict ./data/store_0001.db --model-dir ./models --error-threshold 15`,
	Args: cobra.MinimumNArgs(1),
	RunE: runPredict,
}

var (
	// predict 플래그
	predictTune    bool
	modelDir       string
	errorThreshold float64
)

func init() {
	rootCmd.AddCommand(predictCmd)

	predictCmd.Flags().BoolVar(&predictTune, "tune", false, "하이퍼파라미터 튜닝 허용")
	predictCmd.Flags().StringVar(&modelDir, "model-dir", "", "모델 저장 디렉토리 (기본: MODEL_DIR)")
	predictCmd.Flags().Float64Var(&errorThreshold, "error-threshold", 0, "튜닝 트리거 오차율 임계값 %% (기본: ERROR_THRESHOLD_PCT)")
}

func runPredict(cmd *cobra.Command, args []string) error {
	fmt.Println("=== OrderSight: Predict ===")

	ctx := cmd.Context()

	cfg, log, orch, err := initPipelineDeps()
	if err != nil {
		return err
	}

	cycleCfg := cycleConfigFrom(cfg)
	cycleCfg.Tune = predictTune

	fmt.Printf("📦 Stores: %d | Tune: %v | Threshold: %.1f%%\n\n", len(args), cycleCfg.Tune, cycleCfg.ErrorThresholdPct)

	results := orch.RunAll(ctx, args, cycleCfg)

	fmt.Println("\n=== Cycle Summary ===")
	for _, res := range results {
		fmt.Printf("  %s: %d categories, %d predicted, %d tuned, %d failed, %d evaluated (%.1fs)\n",
			res.SalesPath, res.Categories, res.Predicted, res.Tuned, res.Failed, res.Evaluated,
			res.Duration.Seconds())
	}

	var totalFailed int
	for _, res := range results {
		totalFailed += res.Failed
	}
	if totalFailed > 0 {
		log.WithField("failed", totalFailed).Warn("some categories failed, see logs above")
	}

	fmt.Println("\n✅ Predict completed")
	return nil
}

// cycleConfigFrom builds a CycleConfig from config plus flag overrides
func cycleConfigFrom(cfg *config.Config) brain.CycleConfig {
	cycleCfg := brain.CycleConfig{
		ErrorThresholdPct: cfg.Model.ErrorThresholdPct,
		ModelDir:          cfg.Model.Dir,
	}
	if modelDir != "" {
		cycleCfg.ModelDir = modelDir
	}
	if errorThreshold > 0 {
		cycleCfg.ErrorThresholdPct = errorThreshold
	}
	return cycleCfg
}

// initPipelineDeps wires config, logger, weather provider and orchestrator
func initPipelineDeps() (*config.Config, *logger.Logger, *brain.Orchestrator, error) {
	// 설정 로드
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}

	// 로거 초기화
	log := logger.New(cfg)

	// 기상청 API 클라이언트 (5 req/s 제한)
	httpClient := httputil.NewWithTimeout(log, cfg.KMA.Timeout).WithRateLimit(5, 1)
	weatherProvider := weather.NewProvider(httpClient, cfg.KMA, cfg.ForecastFile, log.Zerolog())

	orch := brain.NewOrchestrator(weatherProvider, log)

	return cfg, log, orch, nil
}
