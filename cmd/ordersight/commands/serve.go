package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dhkim-dev/ordersight/internal/api"
	"github.com/dhkim-dev/ordersight/internal/api/handlers"
	"github.com/dhkim-dev/ordersight/internal/predictions"
	"github.com/dhkim-dev/ordersight/internal/scheduler"
	"github.com/dhkim-dev/ordersight/internal/scheduler/jobs"
	"github.com/dhkim-dev/ordersight/pkg/database"
)

var serveCmd = &cobra.Command{
	Use:   "serve DB_PATH [DB_PATH ...]",
	Short: "스케줄러 + 조회 API 서버 시작",
	Long: `예측 사이클을 주기적으로 실행하는 스케줄러와
예측 결과 조회 API 서버를 함께 시작합니다.

Endpoints:
  GET /health
  GET /api/v1/predictions?date=YYYY-MM-DD
  GET /api/v1/predictions/{mid_code}?date=YYYY-MM-DD
  GET /api/v1/performance?date=YYYY-MM-DD

조회 API는 첫 번째 DB_PATH의 예측 DB를 서빙합니다.

Example:
  go run ./cmd/ordersight serve ./data/store_0001.db
  go run ./cmd/ordersight serve ./data/store_0001.db --cron "@hourly" --port 8080 --tune`,
	Args: cobra.MinimumNArgs(1),
	RunE: runServe,
}

var (
	// serve 플래그
	serveCron string
	servePort string
	serveTune bool
)

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveCron, "cron", "", "사이클 cron 스케줄 (기본: 매시 정각)")
	serveCmd.Flags().StringVar(&servePort, "port", "", "API 서버 포트 (기본: PORT)")
	serveCmd.Flags().BoolVar(&serveTune, "tune", false, "사이클마다 하이퍼파라미터 튜닝 허용")
}

func runServe(cmd *cobra.Command, args []string) error {
	fmt.Println("=== OrderSight Server ===")

	cfg, log, orch, err := initPipelineDeps()
	if err != nil {
		return err
	}
	if servePort != "" {
		cfg.Port = servePort
	}

	cycleCfg := cycleConfigFrom(cfg)
	cycleCfg.Tune = serveTune

	// 스케줄러 + 예측 사이클 작업
	sched := scheduler.New(log)
	if err := sched.AddJob(jobs.NewPredictJob(orch, args, cycleCfg, serveCron, log)); err != nil {
		return fmt.Errorf("register predict job: %w", err)
	}
	sched.Start()
	defer sched.Stop()

	// 첫 번째 점포의 예측 DB를 조회 API로 서빙
	predsDB, err := database.Open(database.PredictionsPathFor(args[0]))
	if err != nil {
		return fmt.Errorf("open predictions db: %w", err)
	}
	defer predsDB.Close()

	predsRepo := predictions.NewRepository(predsDB)
	if err := predsRepo.Migrate(); err != nil {
		return fmt.Errorf("migrate predictions db: %w", err)
	}

	predHandler := handlers.NewPredictionHandler(predsRepo, log)
	router := api.NewRouter(predHandler, log)
	server := api.New(cfg, log, router)

	go func() {
		if err := server.Start(); err != nil {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()

	fmt.Printf("\n✅ Server running on http://localhost:%s\n", cfg.Port)
	fmt.Println("\nAvailable endpoints:")
	fmt.Println("  GET /health")
	fmt.Println("  GET /api/v1/predictions?date=YYYY-MM-DD")
	fmt.Println("  GET /api/v1/predictions/{mid_code}")
	fmt.Println("  GET /api/v1/performance?date=YYYY-MM-DD")
	fmt.Println("\nPress Ctrl+C to stop")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Info("Server stopped")
	return nil
}
