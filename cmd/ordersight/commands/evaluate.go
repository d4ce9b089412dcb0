package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dhkim-dev/ordersight/internal/monitor"
	"github.com/dhkim-dev/ordersight/internal/predictions"
	"github.com/dhkim-dev/ordersight/internal/salesdata"
	"github.com/dhkim-dev/ordersight/pkg/config"
	"github.com/dhkim-dev/ordersight/pkg/database"
	"github.com/dhkim-dev/ordersight/pkg/logger"
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate DB_PATH [DB_PATH ...]",
	Short: "예측 실적 평가 (백필)",
	Long: `저장된 예측과 실제 판매량을 비교하여 오차율을 기록합니다.

예측 사이클에 포함된 평가 단계만 단독 실행하는 운영용 명령으로,
과거 날짜를 지정해 실적을 백필할 수 있습니다.

Example:
  go run ./cmd/ordersight evaluate ./data/store_0001.db
  go run ./cmd/ordersight evaluate ./data/store_0001.db --date 2026-08-30`,
	Args: cobra.MinimumNArgs(1),
	RunE: runEvaluate,
}

var evaluateDate string

func init() {
	rootCmd.AddCommand(evaluateCmd)

	evaluateCmd.Flags().StringVar(&evaluateDate, "date", "", "평가 대상 날짜 (YYYY-MM-DD, 기본: 어제)")
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	fmt.Println("=== OrderSight: Evaluate ===")

	ctx := cmd.Context()

	// 날짜 파싱
	targetDate := time.Now().AddDate(0, 0, -1)
	if evaluateDate != "" {
		parsed, err := time.Parse("2006-01-02", evaluateDate)
		if err != nil {
			return fmt.Errorf("invalid date: %w", err)
		}
		targetDate = parsed
	}

	// 설정 로드
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	log := logger.New(cfg)

	fmt.Printf("📅 Target date: %s\n\n", targetDate.Format("2006-01-02"))

	for _, salesPath := range args {
		evaluated, err := evaluateStore(ctx, salesPath, targetDate, log)
		if err != nil {
			log.WithError(err).WithField("sales_db", salesPath).Error("evaluation failed, continuing with next store")
			continue
		}
		fmt.Printf("  %s: %d categories evaluated\n", salesPath, evaluated)
	}

	fmt.Println("\n✅ Evaluate completed")
	return nil
}

func evaluateStore(ctx context.Context, salesPath string, targetDate time.Time, log *logger.Logger) (int, error) {
	salesDB, err := database.OpenExisting(salesPath)
	if err != nil {
		return 0, fmt.Errorf("open sales db: %w", err)
	}
	defer salesDB.Close()

	predsDB, err := database.Open(database.PredictionsPathFor(salesPath))
	if err != nil {
		return 0, fmt.Errorf("open predictions db: %w", err)
	}
	defer predsDB.Close()

	predsRepo := predictions.NewRepository(predsDB)
	if err := predsRepo.Migrate(); err != nil {
		return 0, fmt.Errorf("migrate predictions db: %w", err)
	}

	salesRepo := salesdata.NewRepository(salesDB)
	perfMonitor := monitor.NewMonitor(salesRepo, predsRepo, log.Zerolog())

	return perfMonitor.EvaluateDate(ctx, targetDate)
}
