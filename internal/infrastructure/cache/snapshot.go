package cache

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/pharmacy/analytics/internal/application/report"
	"github.com/pharmacy/analytics/internal/domain/ledger"
)

// Loader produces a fresh dataset from the source workbook
type Loader interface {
	Load(ctx context.Context) (*ledger.Dataset, error)
}

const loadKey = "dataset"

// SnapshotCache holds the current dataset and reloads it when it goes stale.
// Concurrent reloads collapse into one call to the loader. A failed reload
// keeps serving the previous snapshot.
type SnapshotCache struct {
	loader Loader
	ttl    time.Duration
	now    func() time.Time
	logger *zap.Logger

	mu       sync.RWMutex
	current  *ledger.Dataset
	loadedAt time.Time

	group singleflight.Group
}

// SnapshotOption configures a SnapshotCache
type SnapshotOption func(*SnapshotCache)

// WithSnapshotLogger sets the logger
func WithSnapshotLogger(logger *zap.Logger) SnapshotOption {
	return func(c *SnapshotCache) {
		c.logger = logger
	}
}

// WithSnapshotClock overrides the clock used for expiry
func WithSnapshotClock(now func() time.Time) SnapshotOption {
	return func(c *SnapshotCache) {
		c.now = now
	}
}

// NewSnapshotCache creates a cache over loader. A ttl of zero or less never expires.
func NewSnapshotCache(loader Loader, ttl time.Duration, opts ...SnapshotOption) *SnapshotCache {
	c := &SnapshotCache{
		loader: loader,
		ttl:    ttl,
		now:    time.Now,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Snapshot returns the cached dataset, loading it first if missing or expired
func (c *SnapshotCache) Snapshot(ctx context.Context) (*ledger.Dataset, error) {
	c.mu.RLock()
	ds, fresh := c.current, c.fresh()
	c.mu.RUnlock()
	if ds != nil && fresh {
		return ds, nil
	}

	loaded, err := c.load(ctx, context.WithoutCancel(ctx))
	if err != nil {
		if ds != nil {
			c.logger.Warn("Dataset reload failed, serving previous snapshot",
				zap.Time("loaded_at", ds.LoadedAt),
				zap.Error(err),
			)
			return ds, nil
		}
		return nil, err
	}
	return loaded, nil
}

// Refresh reloads the dataset now under the caller's deadline.
// On failure the previous snapshot stays current.
func (c *SnapshotCache) Refresh(ctx context.Context) (*ledger.Dataset, error) {
	return c.load(ctx, ctx)
}

// Current returns the cached dataset without loading, or nil
func (c *SnapshotCache) Current() *ledger.Dataset {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current
}

// Age reports how long ago the current snapshot was loaded
func (c *SnapshotCache) Age() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.current == nil {
		return 0
	}
	return c.now().Sub(c.loadedAt)
}

// fresh must be called with mu held
func (c *SnapshotCache) fresh() bool {
	if c.current == nil {
		return false
	}
	if c.ttl <= 0 {
		return true
	}
	return c.now().Sub(c.loadedAt) < c.ttl
}

// load waits for the shared load until ctx is done. loadCtx is handed to the
// loader; request-path loads detach it so one caller leaving does not abort
// the load for the others.
func (c *SnapshotCache) load(ctx, loadCtx context.Context) (*ledger.Dataset, error) {
	ch := c.group.DoChan(loadKey, func() (any, error) {
		start := c.now()
		ds, err := c.loader.Load(loadCtx)
		if err != nil {
			return nil, err
		}
		if ds == nil {
			return nil, ledger.ErrNoDataset
		}

		c.mu.Lock()
		c.current = ds
		c.loadedAt = c.now()
		c.mu.Unlock()

		c.logger.Info("Dataset loaded",
			zap.String("source", ds.Source),
			zap.Int("daily_income_rows", len(ds.DailyIncome)),
			zap.Int("inventory_rows", len(ds.Inventory)),
			zap.Int("expense_rows", len(ds.Expenses)),
			zap.Int("dropped_rows", len(ds.Dropped)),
			zap.Duration("duration", c.now().Sub(start)),
		)
		return ds, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			c.logger.Debug("Dataset load shared between callers")
		}
		return res.Val.(*ledger.Dataset), nil
	}
}

var _ report.SnapshotSource = (*SnapshotCache)(nil)
