package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// HistoryProvider supplies metric histories to the refresh scheduler.
// Implementations own their concurrency discipline.
type HistoryProvider interface {
	LoadHistories(ctx context.Context) ([]MetricHistory, error)
}

// RefreshFunc receives each freshly computed dashboard payload
type RefreshFunc func(*DashboardInsights)

// Scheduler periodically recomputes dashboard insights at the configured
// update frequency and hands the result to a callback
type Scheduler struct {
	system    *System
	provider  HistoryProvider
	onRefresh RefreshFunc
	interval  time.Duration
	timeout   time.Duration
	cron      *cron.Cron
	logger    *logrus.Logger
}

// NewScheduler creates a scheduler; interval comes from
// forecasting.update_frequency
func NewScheduler(system *System, provider HistoryProvider, interval time.Duration, onRefresh RefreshFunc, logger *logrus.Logger) *Scheduler {
	return &Scheduler{
		system:    system,
		provider:  provider,
		onRefresh: onRefresh,
		interval:  interval,
		timeout:   5 * time.Minute,
		cron:      cron.New(),
		logger:    logger,
	}
}

// Start registers the refresh job and starts the cron loop
func (s *Scheduler) Start() error {
	spec := fmt.Sprintf("@every %s", s.interval)
	if _, err := s.cron.AddFunc(spec, s.refresh); err != nil {
		return fmt.Errorf("failed to schedule refresh: %w", err)
	}
	s.cron.Start()
	s.logger.WithField("interval", s.interval).Info("Analytics refresh scheduler started")
	return nil
}

// Stop halts the cron loop, waiting for a running refresh to finish
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("Analytics refresh scheduler stopped")
}

func (s *Scheduler) refresh() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	histories, err := s.provider.LoadHistories(ctx)
	if err != nil {
		s.logger.WithError(err).Error("Failed to load metric histories for refresh")
		return
	}

	insights, err := s.system.GenerateDashboardInsights(ctx, histories)
	if err != nil {
		s.logger.WithError(err).Error("Failed to refresh dashboard insights")
		return
	}

	if s.onRefresh != nil {
		s.onRefresh(insights)
	}
}
