package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pharmacy/analytics/internal/domain/ledger"
)

type stubRefresher struct {
	calls atomic.Int32
	err   error
	block chan struct{}
	delay time.Duration
}

func (r *stubRefresher) Refresh(ctx context.Context) (*ledger.Dataset, error) {
	r.calls.Add(1)
	if r.block != nil {
		<-r.block
	}
	if r.delay > 0 {
		select {
		case <-time.After(r.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if r.err != nil {
		return nil, r.err
	}
	return &ledger.Dataset{
		DailyIncome: make([]ledger.DailyIncome, 3),
		Inventory:   make([]ledger.InventoryPurchase, 2),
		Expenses:    make([]ledger.Expense, 1),
	}, nil
}

func TestDefaultRefreshSchedulerConfig(t *testing.T) {
	cfg := DefaultRefreshSchedulerConfig()
	assert.True(t, cfg.Enabled)
	assert.Equal(t, "@every 1h", cfg.Schedule)
	assert.Equal(t, 2*time.Minute, cfg.JobTimeout)
}

func TestRefreshScheduler_RunNow(t *testing.T) {
	t.Run("records a successful run", func(t *testing.T) {
		r := &stubRefresher{}
		s := NewRefreshScheduler(DefaultRefreshSchedulerConfig(), r, zap.NewNop())

		record, err := s.RunNow(context.Background())
		require.NoError(t, err)
		assert.Equal(t, JobStatusSuccess, record.Status)
		assert.Equal(t, TriggerManual, record.Trigger)
		assert.Equal(t, 6, record.Rows)
		assert.NotNil(t, record.CompletedAt)
		assert.Empty(t, record.Error)

		st := s.Status()
		require.NotNil(t, st.LastRun)
		assert.Equal(t, record.ID, st.LastRun.ID)
		assert.False(t, st.Running)
		assert.Nil(t, st.NextRunAt)
	})

	t.Run("records a failed run", func(t *testing.T) {
		r := &stubRefresher{err: ledger.ErrLoad}
		s := NewRefreshScheduler(DefaultRefreshSchedulerConfig(), r, nil)

		record, err := s.RunNow(context.Background())
		require.Error(t, err)
		assert.True(t, errors.Is(err, ledger.ErrLoad))
		assert.Equal(t, JobStatusFailed, record.Status)
		assert.NotEmpty(t, record.Error)
		assert.Zero(t, record.Rows)
	})

	t.Run("job timeout fails a slow refresh", func(t *testing.T) {
		r := &stubRefresher{delay: 500 * time.Millisecond}
		s := NewRefreshScheduler(RefreshSchedulerConfig{Enabled: true, Schedule: "@every 1h", JobTimeout: 50 * time.Millisecond}, r, nil)

		start := time.Now()
		record, err := s.RunNow(context.Background())
		require.Error(t, err)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.Less(t, time.Since(start), 400*time.Millisecond)
		assert.Equal(t, JobStatusFailed, record.Status)
		require.NotNil(t, s.Status().LastRun)
		assert.Equal(t, record.ID, s.Status().LastRun.ID)
	})
}

func TestRefreshScheduler_StartStop(t *testing.T) {
	r := &stubRefresher{}
	s := NewRefreshScheduler(RefreshSchedulerConfig{Enabled: true, Schedule: "@every 1h"}, r, zap.NewNop())

	ctx := context.Background()
	require.NoError(t, s.Start(ctx))
	require.NoError(t, s.Start(ctx), "second start is a no-op")

	st := s.Status()
	assert.True(t, st.Running)
	require.NotNil(t, st.NextRunAt)
	assert.True(t, st.NextRunAt.After(time.Now()))

	stopCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	require.NoError(t, s.Stop(stopCtx))
	require.NoError(t, s.Stop(stopCtx), "second stop is a no-op")
	assert.False(t, s.Status().Running)
	assert.Zero(t, r.calls.Load())
}

func TestRefreshScheduler_Disabled(t *testing.T) {
	s := NewRefreshScheduler(RefreshSchedulerConfig{Enabled: false, Schedule: "not a schedule"}, &stubRefresher{}, nil)

	require.NoError(t, s.Start(context.Background()))
	assert.False(t, s.Status().Running)

	record, err := s.RunNow(context.Background())
	require.NoError(t, err, "manual runs work without the cron runner")
	assert.Equal(t, JobStatusSuccess, record.Status)
}

func TestRefreshScheduler_InvalidSchedule(t *testing.T) {
	s := NewRefreshScheduler(RefreshSchedulerConfig{Enabled: true, Schedule: "every hour"}, &stubRefresher{}, nil)

	err := s.Start(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidConfig)
	assert.False(t, s.Status().Running)
}

func TestRefreshScheduler_OverlappingRunIsRejected(t *testing.T) {
	r := &stubRefresher{block: make(chan struct{})}
	s := NewRefreshScheduler(DefaultRefreshSchedulerConfig(), r, zap.NewNop())

	done := make(chan error, 1)
	go func() {
		_, err := s.RunNow(context.Background())
		done <- err
	}()
	require.Eventually(t, func() bool { return r.calls.Load() == 1 }, time.Second, 10*time.Millisecond)

	_, err := s.RunNow(context.Background())
	assert.ErrorIs(t, err, ErrRefreshInProgress)

	close(r.block)
	require.NoError(t, <-done)
	assert.Equal(t, JobStatusSuccess, s.Status().LastRun.Status)
}
