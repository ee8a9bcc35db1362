package services

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/karthikosa11/smartcal-nutrition-tracker/logger"
)

// JobsService runs the stats ETL in the background.
type JobsService struct {
	stats    *StatsService
	digest   *DigestService
	interval time.Duration

	wg       sync.WaitGroup
	stopChan chan struct{}
	stopOnce sync.Once
}

func NewJobsService(stats *StatsService, digest *DigestService, interval time.Duration) *JobsService {
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	return &JobsService{
		stats:    stats,
		digest:   digest,
		interval: interval,
		stopChan: make(chan struct{}),
	}
}

// Start runs one pass immediately and then one per interval until ctx is
// cancelled or Stop is called.
func (s *JobsService) Start(ctx context.Context) {
	logger.Info("starting background jobs", zap.Duration("interval", s.interval))
	s.wg.Add(1)
	go s.statsJob(ctx)
}

// Stop stops all background jobs and waits for them to complete.
func (s *JobsService) Stop() {
	s.stopOnce.Do(func() { close(s.stopChan) })
	s.wg.Wait()
	logger.Info("background jobs stopped")
}

func (s *JobsService) statsJob(ctx context.Context) {
	defer s.wg.Done()

	s.RunOnce(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce refreshes every user's rollups and then sends digests. Failures
// are logged; the next tick retries.
func (s *JobsService) RunOnce(ctx context.Context) {
	start := time.Now()
	days, err := s.stats.UpdateDailyStats(ctx, "")
	if err != nil {
		logger.Error("daily stats ETL failed", zap.Error(err))
		return
	}
	weeks, err := s.stats.UpdateWeeklyStats(ctx, "")
	if err != nil {
		logger.Error("weekly stats ETL failed", zap.Error(err))
		return
	}
	logger.Info("stats ETL finished",
		zap.Int("dailyRows", days),
		zap.Int("weeklyRows", weeks),
		zap.Duration("took", time.Since(start)),
	)

	if s.digest.Enabled() {
		if _, err := s.digest.SendWeekly(ctx); err != nil {
			logger.Error("weekly digest failed", zap.Error(err))
		}
	}
}
