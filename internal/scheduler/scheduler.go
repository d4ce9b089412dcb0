package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/dhkim-dev/ordersight/pkg/logger"
)

// Scheduler manages scheduled jobs
// ⭐ SSOT: 작업 스케줄링은 여기서만 담당
type Scheduler struct {
	cron    *cron.Cron
	jobs    map[string]Job
	history map[string]*JobHistory
	logger  *logger.Logger
	mu      sync.RWMutex

	// Retry configuration
	maxRetries int
	retryDelay time.Duration
}

// New creates a new scheduler
func New(log *logger.Logger) *Scheduler {
	return &Scheduler{
		cron:       cron.New(cron.WithSeconds()),
		jobs:       make(map[string]Job),
		history:    make(map[string]*JobHistory),
		logger:     log.WithField("component", "scheduler"),
		maxRetries: 3,
		retryDelay: 30 * time.Second,
	}
}

// AddJob adds a job to the scheduler
func (s *Scheduler) AddJob(job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := job.Name()
	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("job already registered: %s", name)
	}

	_, err := s.cron.AddFunc(job.Schedule(), func() {
		s.runJob(context.Background(), job)
	})
	if err != nil {
		return fmt.Errorf("failed to schedule job %s: %w", name, err)
	}

	s.jobs[name] = job
	s.history[name] = &JobHistory{}

	s.logger.WithFields(map[string]interface{}{
		"job":      name,
		"schedule": job.Schedule(),
	}).Info("작업 등록 완료")

	return nil
}

// Start starts the scheduler
func (s *Scheduler) Start() {
	s.logger.WithField("jobs", len(s.jobs)).Info("스케줄러 시작")
	s.cron.Start()
}

// Stop stops the scheduler gracefully
func (s *Scheduler) Stop() {
	s.logger.Info("스케줄러 중지 중...")
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("스케줄러 중지 완료")
}

// RunJob runs a job immediately by name
func (s *Scheduler) RunJob(ctx context.Context, name string) error {
	s.mu.RLock()
	job, exists := s.jobs[name]
	s.mu.RUnlock()

	if !exists {
		return fmt.Errorf("job not found: %s", name)
	}

	return s.runJob(ctx, job)
}

// runJob executes a job with retry logic and records the result
func (s *Scheduler) runJob(ctx context.Context, job Job) error {
	name := job.Name()
	startTime := time.Now()

	s.logger.WithField("job", name).Info("작업 실행 시작")

	var lastErr error
	for attempt := 1; attempt <= s.maxRetries; attempt++ {
		lastErr = job.Run(ctx)
		if lastErr == nil {
			break
		}

		s.logger.WithError(lastErr).WithFields(map[string]interface{}{
			"job":         name,
			"attempt":     attempt,
			"max_retries": s.maxRetries,
		}).Warn("작업 실행 실패, 재시도 예정")

		if attempt < s.maxRetries {
			select {
			case <-time.After(s.retryDelay):
			case <-ctx.Done():
				lastErr = ctx.Err()
				attempt = s.maxRetries
			}
		}
	}

	endTime := time.Now()
	result := JobResult{
		JobName:   name,
		StartTime: startTime,
		EndTime:   endTime,
		Duration:  endTime.Sub(startTime),
		Success:   lastErr == nil,
	}
	if lastErr != nil {
		result.Error = lastErr.Error()
	}

	s.mu.Lock()
	if h, ok := s.history[name]; ok {
		h.AddResult(result)
	}
	s.mu.Unlock()

	if lastErr != nil {
		s.logger.WithError(lastErr).WithFields(map[string]interface{}{
			"job":      name,
			"duration": result.Duration,
		}).Error("작업 최종 실패")
		return lastErr
	}

	s.logger.WithFields(map[string]interface{}{
		"job":      name,
		"duration": result.Duration,
	}).Info("작업 실행 완료")

	return nil
}

// GetJobHistory returns execution history for a job
func (s *Scheduler) GetJobHistory(name string, limit int) ([]JobResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	h, exists := s.history[name]
	if !exists {
		return nil, fmt.Errorf("job not found: %s", name)
	}

	return h.GetLatestResults(limit), nil
}

// GetAllJobs returns all registered job names
func (s *Scheduler) GetAllJobs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.jobs))
	for name := range s.jobs {
		names = append(names, name)
	}
	return names
}
