package jobs

import (
	"context"
	"fmt"

	"github.com/dhkim-dev/ordersight/internal/brain"
	"github.com/dhkim-dev/ordersight/pkg/logger"
)

// PredictJob runs the daily prediction cycle for all store databases
type PredictJob struct {
	orchestrator *brain.Orchestrator
	salesPaths   []string
	cfg          brain.CycleConfig
	schedule     string
	logger       *logger.Logger
}

// NewPredictJob creates a new prediction job
func NewPredictJob(orch *brain.Orchestrator, salesPaths []string, cfg brain.CycleConfig, schedule string, log *logger.Logger) *PredictJob {
	if schedule == "" {
		schedule = "0 0 * * * *" // 매시 정각
	}
	return &PredictJob{
		orchestrator: orch,
		salesPaths:   salesPaths,
		cfg:          cfg,
		schedule:     schedule,
		logger:       log.WithField("component", "predict_job"),
	}
}

// Name returns the job name
func (j *PredictJob) Name() string {
	return "predict_cycle"
}

// Schedule returns the cron schedule (with seconds)
func (j *PredictJob) Schedule() string {
	return j.schedule
}

// Run executes the prediction cycle across all configured store databases
func (j *PredictJob) Run(ctx context.Context) error {
	j.logger.WithFields(map[string]interface{}{
		"stores": len(j.salesPaths),
		"tune":   j.cfg.Tune,
	}).Info("예측 사이클 시작")

	results := j.orchestrator.RunAll(ctx, j.salesPaths, j.cfg)

	var withFailures int
	for _, res := range results {
		if res.Failed > 0 {
			withFailures++
		}
	}

	j.logger.WithFields(map[string]interface{}{
		"stores":               len(results),
		"stores_with_failures": withFailures,
	}).Info("예측 사이클 완료")

	if len(results) > 0 && withFailures == len(results) {
		return fmt.Errorf("prediction cycle failed for all %d stores", withFailures)
	}

	return nil
}
