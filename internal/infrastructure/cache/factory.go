package cache

import (
	"fmt"

	"github.com/pharmacy/analytics/internal/application/report"
	"github.com/pharmacy/analytics/internal/infrastructure/config"
	"go.uber.org/zap"
)

// ResultStoreFactory creates forecast result stores based on configuration
type ResultStoreFactory struct {
	redisConfig           config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// ResultStoreFactoryOption is a functional option for configuring the factory
type ResultStoreFactoryOption func(*ResultStoreFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) ResultStoreFactoryOption {
	return func(f *ResultStoreFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether to fall back to an in-memory store when Redis is unavailable.
// Default is true.
func WithInMemoryFallback(allow bool) ResultStoreFactoryOption {
	return func(f *ResultStoreFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewResultStoreFactory creates a new factory
func NewResultStoreFactory(cfg config.RedisConfig, opts ...ResultStoreFactoryOption) *ResultStoreFactory {
	f := &ResultStoreFactory{
		redisConfig:           cfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// Store is a result store that owns resources released by Close
type Store interface {
	report.ResultStore
	Close() error
}

// CreateRedisStore creates a Redis-backed result store
func (f *ResultStoreFactory) CreateRedisStore() (Store, error) {
	store, err := NewRedisResultStore(RedisConfig{
		Host:     f.redisConfig.Host,
		Port:     f.redisConfig.Port,
		Password: f.redisConfig.Password,
		DB:       f.redisConfig.DB,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Redis result store: %w", err)
	}
	return store, nil
}

// CreateInMemoryStore creates an in-memory result store.
// Cached forecasts are not shared across process instances.
func (f *ResultStoreFactory) CreateInMemoryStore() Store {
	return NewInMemoryResultStore()
}

// CreateStore returns an in-memory store when Redis is disabled. Otherwise it
// tries Redis and falls back to in-memory if that is allowed.
func (f *ResultStoreFactory) CreateStore() (Store, error) {
	if !f.redisConfig.Enabled {
		f.logger.Info("Redis disabled, using in-memory result store")
		return f.CreateInMemoryStore(), nil
	}

	store, err := f.CreateRedisStore()
	if err == nil {
		f.logger.Info("using Redis result store", zap.String("addr", f.redisConfig.Addr()))
		return store, nil
	}

	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("redis required for result cache but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory result store",
		zap.String("addr", f.redisConfig.Addr()),
		zap.Error(err),
	)
	return f.CreateInMemoryStore(), nil
}
