package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/pharmacy/analytics/internal/domain/ledger"
)

// Refresher reloads the dataset snapshot
type Refresher interface {
	Refresh(ctx context.Context) (*ledger.Dataset, error)
}

// RefreshSchedulerConfig holds configuration for the workbook refresh job
type RefreshSchedulerConfig struct {
	// Enabled indicates if the scheduled refresh runs at all
	Enabled bool
	// Schedule is a standard cron expression or descriptor such as "@every 1h"
	Schedule string
	// JobTimeout is the maximum time a single refresh can run
	JobTimeout time.Duration
}

// DefaultRefreshSchedulerConfig returns the default configuration: hourly, 2 minute timeout
func DefaultRefreshSchedulerConfig() RefreshSchedulerConfig {
	return RefreshSchedulerConfig{
		Enabled:    true,
		Schedule:   "@every 1h",
		JobTimeout: 2 * time.Minute,
	}
}

// Status is a point-in-time view of the scheduler
type Status struct {
	Enabled   bool       `json:"enabled"`
	Running   bool       `json:"is_running"`
	Schedule  string     `json:"schedule"`
	NextRunAt *time.Time `json:"next_run_at,omitempty"`
	LastRun   *RunRecord `json:"last_run,omitempty"`
}

// RefreshScheduler reloads the workbook snapshot on a cron schedule
type RefreshScheduler struct {
	config    RefreshSchedulerConfig
	refresher Refresher
	logger    *zap.Logger
	now       func() time.Time

	cron     *cron.Cron
	schedule cron.Schedule

	mu         sync.Mutex
	isRunning  bool
	inProgress bool
	lastRun    *RunRecord
}

// NewRefreshScheduler creates a new refresh scheduler
func NewRefreshScheduler(config RefreshSchedulerConfig, refresher Refresher, logger *zap.Logger) *RefreshScheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.JobTimeout <= 0 {
		config.JobTimeout = DefaultRefreshSchedulerConfig().JobTimeout
	}
	return &RefreshScheduler{
		config:    config,
		refresher: refresher,
		logger:    logger,
		now:       time.Now,
	}
}

// Start registers the refresh job and starts the cron runner.
// A disabled scheduler starts without registering anything.
func (s *RefreshScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	if !s.config.Enabled {
		s.logger.Info("Scheduled dataset refresh disabled")
		return nil
	}

	sched, err := cron.ParseStandard(s.config.Schedule)
	if err != nil {
		return fmt.Errorf("%w: schedule %q: %v", ErrInvalidConfig, s.config.Schedule, err)
	}

	clog := newCronLogger(s.logger)
	s.cron = cron.New(
		cron.WithLogger(clog),
		cron.WithChain(cron.Recover(clog), cron.SkipIfStillRunning(clog)),
	)
	s.schedule = sched
	s.cron.Schedule(sched, cron.FuncJob(func() {
		_, _ = s.run(context.Background(), TriggerScheduled)
	}))
	s.cron.Start()
	s.isRunning = true

	s.logger.Info("Dataset refresh scheduler started",
		zap.String("schedule", s.config.Schedule),
		zap.Duration("job_timeout", s.config.JobTimeout),
		zap.Time("next_run_at", sched.Next(s.now())),
	)
	return nil
}

// Stop stops the cron runner and waits for a running refresh to finish
func (s *RefreshScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	c := s.cron
	s.mu.Unlock()

	done := c.Stop()
	select {
	case <-done.Done():
		s.logger.Info("Dataset refresh scheduler stopped")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Dataset refresh scheduler stop timed out")
		return ctx.Err()
	}
}

// RunNow refreshes synchronously and returns the run record.
// It works whether or not the cron runner is started.
func (s *RefreshScheduler) RunNow(ctx context.Context) (*RunRecord, error) {
	return s.run(ctx, TriggerManual)
}

func (s *RefreshScheduler) run(ctx context.Context, trigger Trigger) (*RunRecord, error) {
	s.mu.Lock()
	if s.inProgress {
		s.mu.Unlock()
		return nil, ErrRefreshInProgress
	}
	s.inProgress = true
	record := newRunRecord(trigger, s.now())
	s.mu.Unlock()

	log := s.logger.With(
		zap.String("job_id", record.ID.String()),
		zap.String("trigger", string(trigger)),
	)
	log.Info("Starting dataset refresh")

	ctx, cancel := context.WithTimeout(ctx, s.config.JobTimeout)
	defer cancel()

	ds, err := s.refresher.Refresh(ctx)
	rows := 0
	if ds != nil {
		for _, n := range ds.RowCounts() {
			rows += n
		}
	}

	s.mu.Lock()
	record.complete(s.now(), rows, err)
	s.lastRun = record
	s.inProgress = false
	s.mu.Unlock()

	if err != nil {
		log.Error("Dataset refresh failed", zap.Duration("duration", record.Duration()), zap.Error(err))
		return record, err
	}
	log.Info("Dataset refresh completed",
		zap.Int("rows", rows),
		zap.Duration("duration", record.Duration()),
	)
	return record, nil
}

// Status returns the current scheduler status
func (s *RefreshScheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Status{
		Enabled:  s.config.Enabled,
		Running:  s.isRunning,
		Schedule: s.config.Schedule,
	}
	if s.lastRun != nil {
		last := *s.lastRun
		st.LastRun = &last
	}
	if s.isRunning && s.schedule != nil {
		next := s.schedule.Next(s.now())
		st.NextRunAt = &next
	}
	return st
}
